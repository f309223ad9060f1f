package game

import (
	"sort"
	"strconv"
	"strings"
)

const (
	AwardWordWizard    = "wordWizard"
	AwardBigWordEnergy = "bigWordEnergy"
	AwardUniqueMind    = "uniqueMind"
	AwardHotStreak     = "hotStreak"

	longestWordCount = 5
)

type Standing struct {
	Rank        int     `json:"rank"`
	PlayerID    string  `json:"playerId"`
	Name        string  `json:"name"`
	Score       int     `json:"score"`
	RoundScores []int   `json:"roundScores"`
	Variance    float64 `json:"variance"`
}

// PlayerPair relates two players by name; A sorts before B.
type PlayerPair struct {
	A     string `json:"a"`
	B     string `json:"b"`
	Value int    `json:"value"`
}

type Award struct {
	Key      string `json:"key"`
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Value    int    `json:"value"`
	Detail   string `json:"detail,omitempty"`
}

type WordStat struct {
	Word   string `json:"word"`
	Player string `json:"player"`
	Round  int    `json:"round"`
	Length int    `json:"length"`
}

type PlayerWordStats struct {
	PlayerID    string `json:"playerId"`
	Name        string `json:"name"`
	TotalWords  int    `json:"totalWords"`
	UniqueWords int    `json:"uniqueWords"`
	BestRound   int    `json:"bestRound"`
	LongestWord string `json:"longestWord"`
}

type PlayerAnswerStats struct {
	PlayerID      string `json:"playerId"`
	Name          string `json:"name"`
	TotalAnswers  int    `json:"totalAnswers"`
	UniqueAnswers int    `json:"uniqueAnswers"`
	BlankAnswers  int    `json:"blankAnswers"`
}

type CardStats struct {
	Connections []PlayerPair `json:"connections"`
	Strongest   *PlayerPair  `json:"strongest,omitempty"`
	Groups      [][]string   `json:"groups"`
	TopCards    []int        `json:"topCards"`
}

// Summary is the end-of-game leaderboard. It depends only on the documents it
// is built from.
type Summary struct {
	Code          string              `json:"code"`
	Mode          Mode                `json:"mode"`
	Rounds        int                 `json:"rounds"`
	Standings     []Standing          `json:"standings"`
	ClosestScores []PlayerPair        `json:"closestScores"`
	Overlaps      []PlayerPair        `json:"overlaps"`
	Awards        []Award             `json:"awards"`
	Words         []PlayerWordStats   `json:"words,omitempty"`
	LongestWords  []WordStat          `json:"longestWords,omitempty"`
	TotalWords    int                 `json:"totalWords,omitempty"`
	Answers       []PlayerAnswerStats `json:"answers,omitempty"`
	Cards         *CardStats          `json:"cards,omitempty"`
}

// Summarize folds the completed rounds of a game into its leaderboard.
func Summarize(game Game, players []Player, rounds []Round, thresholds Thresholds) Summary {
	ordered := append([]Player(nil), players...)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Name != ordered[j].Name {
			return ordered[i].Name < ordered[j].Name
		}
		return ordered[i].ID < ordered[j].ID
	})
	completed := completedRounds(rounds)

	summary := Summary{
		Code:          game.Code,
		Mode:          game.Mode,
		Rounds:        len(completed),
		Standings:     standings(ordered, completed),
		ClosestScores: closestScores(ordered, thresholds.ClosestScoreDiff),
		Overlaps:      overlaps(game.Mode, ordered, completed, thresholds.Overlap),
		Awards:        []Award{},
	}
	switch game.Mode {
	case ModeWordFind:
		summary.Words, summary.LongestWords, summary.TotalWords = wordStats(ordered, completed)
		summary.Awards = wordAwards(summary.Words)
	case ModeScattergories:
		summary.Answers = answerStats(ordered, completed)
	case ModeCardMatch:
		summary.Cards = cardStats(players, completed)
	}
	return summary
}

func completedRounds(rounds []Round) []Round {
	var out []Round
	for _, round := range rounds {
		if round.RevealComplete {
			out = append(out, round)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

func standings(ordered []Player, rounds []Round) []Standing {
	out := make([]Standing, 0, len(ordered))
	for _, player := range ordered {
		scores := make([]int, 0, len(rounds))
		for _, round := range rounds {
			scores = append(scores, round.Scores[player.ID])
		}
		out = append(out, Standing{
			PlayerID:    player.ID,
			Name:        player.Name,
			Score:       player.GameScore,
			RoundScores: scores,
			Variance:    variance(scores),
		})
	}
	// stable over the name order, so equal scores stay alphabetical
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	for i := range out {
		if i > 0 && out[i].Score == out[i-1].Score {
			out[i].Rank = out[i-1].Rank
			continue
		}
		out[i].Rank = i + 1
	}
	return out
}

func variance(values []int) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += float64(v)
	}
	mean /= float64(len(values))
	total := 0.0
	for _, v := range values {
		d := float64(v) - mean
		total += d * d
	}
	return total / float64(len(values))
}

func closestScores(ordered []Player, maxDiff int) []PlayerPair {
	pairs := []PlayerPair{}
	for i, a := range ordered {
		for _, b := range ordered[i+1:] {
			diff := a.GameScore - b.GameScore
			if diff < 0 {
				diff = -diff
			}
			if diff <= maxDiff {
				pairs = append(pairs, PlayerPair{A: a.Name, B: b.Name, Value: diff})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Value < pairs[j].Value })
	return pairs
}

// overlaps counts the items two players both submitted in the same round.
func overlaps(mode Mode, ordered []Player, rounds []Round, minShared int) []PlayerPair {
	items := make(map[string]map[string]struct{}, len(ordered))
	for _, player := range ordered {
		set := map[string]struct{}{}
		for _, round := range rounds {
			prefix := strconv.Itoa(round.Number) + ":"
			for _, item := range submittedItems(mode, round.Submissions[player.ID]) {
				set[prefix+item] = struct{}{}
			}
		}
		items[player.ID] = set
	}
	pairs := []PlayerPair{}
	for i, a := range ordered {
		for _, b := range ordered[i+1:] {
			shared := 0
			for item := range items[a.ID] {
				if _, ok := items[b.ID][item]; ok {
					shared++
				}
			}
			if shared >= minShared && shared > 0 {
				pairs = append(pairs, PlayerPair{A: a.Name, B: b.Name, Value: shared})
			}
		}
	}
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].Value > pairs[j].Value })
	return pairs
}

func submittedItems(mode Mode, sub Submission) []string {
	switch mode {
	case ModeScattergories:
		out := make([]string, 0, len(sub.Answers))
		for key, answer := range sub.Answers {
			if normalized := NormalizeAnswer(answer); normalized != "" {
				out = append(out, key+":"+normalized)
			}
		}
		return out
	default:
		return revealItems(mode, sub)
	}
}

func wordStats(ordered []Player, rounds []Round) ([]PlayerWordStats, []WordStat, int) {
	stats := make([]PlayerWordStats, 0, len(ordered))
	var all []WordStat
	for _, player := range ordered {
		st := PlayerWordStats{PlayerID: player.ID, Name: player.Name}
		for _, round := range rounds {
			words := round.Submissions[player.ID].Words
			st.TotalWords += len(words)
			if len(words) > st.BestRound {
				st.BestRound = len(words)
			}
			for _, word := range words {
				if holders(round, word) == 1 {
					st.UniqueWords++
				}
				if longerWord(word, st.LongestWord) {
					st.LongestWord = word
				}
				all = append(all, WordStat{Word: word, Player: player.Name, Round: round.Number, Length: wordLength(word)})
			}
		}
		stats = append(stats, st)
	}
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].Length != all[j].Length {
			return all[i].Length > all[j].Length
		}
		if all[i].Word != all[j].Word {
			return all[i].Word < all[j].Word
		}
		return all[i].Player < all[j].Player
	})
	total := len(all)
	if len(all) > longestWordCount {
		all = all[:longestWordCount]
	}
	return stats, all, total
}

// longerWord orders by length, then alphabetically.
func longerWord(word, current string) bool {
	if current == "" {
		return true
	}
	if wordLength(word) != wordLength(current) {
		return wordLength(word) > wordLength(current)
	}
	return word < current
}

func holders(round Round, word string) int {
	count := 0
	for _, id := range round.PlayerOrder {
		if containsString(round.Submissions[id].Words, word) {
			count++
		}
	}
	return count
}

func wordAwards(stats []PlayerWordStats) []Award {
	awards := []Award{}
	if len(stats) == 0 {
		return awards
	}
	best := func(value func(PlayerWordStats) int, better func(a, b PlayerWordStats) bool) PlayerWordStats {
		winner := stats[0]
		for _, st := range stats[1:] {
			if value(st) > value(winner) || (better != nil && value(st) == value(winner) && better(st, winner)) {
				winner = st
			}
		}
		return winner
	}
	wizard := best(func(s PlayerWordStats) int { return s.TotalWords }, nil)
	awards = append(awards, Award{Key: AwardWordWizard, PlayerID: wizard.PlayerID, Name: wizard.Name, Value: wizard.TotalWords})

	longest := best(func(s PlayerWordStats) int { return wordLength(s.LongestWord) }, func(a, b PlayerWordStats) bool {
		return a.LongestWord < b.LongestWord
	})
	awards = append(awards, Award{Key: AwardBigWordEnergy, PlayerID: longest.PlayerID, Name: longest.Name, Value: wordLength(longest.LongestWord), Detail: longest.LongestWord})

	unique := best(func(s PlayerWordStats) int { return s.UniqueWords }, nil)
	if unique.UniqueWords > 0 {
		awards = append(awards, Award{Key: AwardUniqueMind, PlayerID: unique.PlayerID, Name: unique.Name, Value: unique.UniqueWords})
	}

	streak := best(func(s PlayerWordStats) int { return s.BestRound }, nil)
	awards = append(awards, Award{Key: AwardHotStreak, PlayerID: streak.PlayerID, Name: streak.Name, Value: streak.BestRound})
	return awards
}

func answerStats(ordered []Player, rounds []Round) []PlayerAnswerStats {
	stats := make([]PlayerAnswerStats, 0, len(ordered))
	for _, player := range ordered {
		st := PlayerAnswerStats{PlayerID: player.ID, Name: player.Name}
		for _, round := range rounds {
			answers := round.Submissions[player.ID].Answers
			for i := range round.Categories {
				key := strconv.Itoa(i)
				answer := NormalizeAnswer(answers[key])
				if answer == "" {
					st.BlankAnswers++
					continue
				}
				st.TotalAnswers++
				st.UniqueAnswers += ScattergoriesAnswerPoints(answer, round.AllAnswers[key], round.Rejected[key])
			}
		}
		stats = append(stats, st)
	}
	return stats
}

func cardStats(players []Player, rounds []Round) *CardStats {
	joined := append([]Player(nil), players...)
	sortByJoin(joined)

	cumulative := map[string]map[string]int{}
	threshold := 0
	tally := map[int]int{}
	for _, round := range rounds {
		threshold += round.ConnectionThreshold
		tallyCards(tally, round.PlayerOrder, round.Submissions)
		for a, row := range round.Connections {
			if cumulative[a] == nil {
				cumulative[a] = map[string]int{}
			}
			for b, score := range row {
				cumulative[a][b] += score
			}
		}
	}

	stats := &CardStats{Connections: []PlayerPair{}, Groups: [][]string{}, TopCards: rankCards(tally, topCardCount)}
	for i, a := range joined {
		for _, b := range joined[i+1:] {
			pair := PlayerPair{A: a.Name, B: b.Name, Value: cumulative[a.ID][b.ID]}
			if pair.B < pair.A {
				pair.A, pair.B = pair.B, pair.A
			}
			stats.Connections = append(stats.Connections, pair)
		}
	}
	sort.SliceStable(stats.Connections, func(i, j int) bool {
		ci, cj := stats.Connections[i], stats.Connections[j]
		if ci.Value != cj.Value {
			return ci.Value > cj.Value
		}
		if ci.A != cj.A {
			return ci.A < cj.A
		}
		return ci.B < cj.B
	})
	if len(stats.Connections) > 0 && stats.Connections[0].Value > 0 {
		strongest := stats.Connections[0]
		stats.Strongest = &strongest
	}

	// players linked by more than the summed per-round median share a group
	group := map[string]int{}
	var visit func(id string, n int)
	visit = func(id string, n int) {
		if _, seen := group[id]; seen {
			return
		}
		group[id] = n
		for _, other := range joined {
			if other.ID != id && cumulative[id][other.ID] > threshold {
				visit(other.ID, n)
			}
		}
	}
	count := 0
	for _, player := range joined {
		if _, seen := group[player.ID]; !seen {
			visit(player.ID, count)
			count++
		}
	}
	groups := make([][]string, count)
	for _, player := range joined {
		n := group[player.ID]
		groups[n] = append(groups[n], player.Name)
	}
	for _, members := range groups {
		sort.Strings(members)
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return strings.Join(groups[i], "\x00") < strings.Join(groups[j], "\x00")
	})
	stats.Groups = groups
	return stats
}
