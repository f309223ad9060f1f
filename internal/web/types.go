package web

type ResultRow struct {
	Rank        int
	Name        string
	Score       int
	RoundScores []int
}

type ResultAward struct {
	Title  string
	Name   string
	Value  int
	Detail string
}

type ResultPair struct {
	A     string
	B     string
	Value int
}

// ResultsView is the end-of-game page for one game.
type ResultsView struct {
	Code          string
	Mode          string
	Rounds        int
	Finished      bool
	Standings     []ResultRow
	Awards        []ResultAward
	ClosestScores []ResultPair
	Overlaps      []ResultPair
	LongestWords  []string
	Groups        [][]string
}
