package game

import (
	"encoding/json"
	"reflect"
	"testing"
)

func finishedWordGame() (Game, []Player, []Round) {
	game := Game{Code: "ABCD", Mode: ModeWordFind, Phase: PhaseEnded, TotalRounds: 2}
	players := []Player{
		{ID: "p1", Name: "Ben", JoinedAt: 1, GameScore: 5},
		{ID: "p2", Name: "Ada", JoinedAt: 2, GameScore: 5},
		{ID: "p3", Name: "Cam", JoinedAt: 3, GameScore: 2},
	}
	rounds := []Round{
		{
			Number:         2,
			RevealComplete: true,
			PlayerOrder:    []string{"p1", "p2", "p3"},
			Submissions: map[string]Submission{
				"p1": {Words: []string{"TONE", "NOTE"}},
				"p2": {Words: []string{"NOTE", "STONE"}},
				"p3": {Words: []string{"ONES"}},
			},
			Scores: map[string]int{"p1": 2, "p2": 3, "p3": 2},
		},
		{
			Number:         1,
			RevealComplete: true,
			PlayerOrder:    []string{"p1", "p2", "p3"},
			Submissions: map[string]Submission{
				"p1": {Words: []string{"DARE", "RAGE", "READ"}},
				"p2": {Words: []string{"DARE", "GRAND"}},
				"p3": {},
			},
			Scores: map[string]int{"p1": 3, "p2": 2, "p3": 0},
		},
		{Number: 3, PlayerOrder: []string{"p1"}, Submissions: map[string]Submission{"p1": {Words: []string{"IGNORED"}}}},
	}
	return game, players, rounds
}

func TestSummarizeIsDeterministic(t *testing.T) {
	game, players, rounds := finishedWordGame()
	thresholds := Thresholds{ClosestScoreDiff: 20, Overlap: 1}

	first, err := json.Marshal(Summarize(game, players, rounds, thresholds))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	reversedPlayers := []Player{players[2], players[1], players[0]}
	reversedRounds := []Round{rounds[2], rounds[0], rounds[1]}
	second, err := json.Marshal(Summarize(game, reversedPlayers, reversedRounds, thresholds))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(first) != string(second) {
		t.Fatalf("expected identical summaries, got\n%s\n%s", first, second)
	}
}

func TestSummarizeRanksTiesByName(t *testing.T) {
	game, players, rounds := finishedWordGame()
	summary := Summarize(game, players, rounds, Thresholds{ClosestScoreDiff: 0, Overlap: 2})

	if summary.Rounds != 2 {
		t.Fatalf("expected only completed rounds, got %d", summary.Rounds)
	}
	names := []string{summary.Standings[0].Name, summary.Standings[1].Name, summary.Standings[2].Name}
	if !reflect.DeepEqual(names, []string{"Ada", "Ben", "Cam"}) {
		t.Fatalf("expected tie broken by name, got %v", names)
	}
	if summary.Standings[0].Rank != 1 || summary.Standings[1].Rank != 1 || summary.Standings[2].Rank != 3 {
		t.Fatalf("unexpected ranks %+v", summary.Standings)
	}
	if !reflect.DeepEqual(summary.Standings[0].RoundScores, []int{2, 3}) || summary.Standings[0].Variance != 0.25 {
		t.Fatalf("unexpected round scores for Ada %+v", summary.Standings[0])
	}
	if len(summary.ClosestScores) != 1 || summary.ClosestScores[0] != (PlayerPair{A: "Ada", B: "Ben", Value: 0}) {
		t.Fatalf("expected Ada and Ben tied, got %+v", summary.ClosestScores)
	}
	if len(summary.Overlaps) != 1 || summary.Overlaps[0] != (PlayerPair{A: "Ada", B: "Ben", Value: 2}) {
		t.Fatalf("expected Ada and Ben to share DARE and NOTE, got %+v", summary.Overlaps)
	}
}

func TestSummarizeWordAwards(t *testing.T) {
	game, players, rounds := finishedWordGame()
	summary := Summarize(game, players, rounds, Thresholds{})

	if summary.TotalWords != 10 {
		t.Fatalf("expected 10 words, got %d", summary.TotalWords)
	}
	if summary.LongestWords[0].Word != "GRAND" || summary.LongestWords[1].Word != "STONE" {
		t.Fatalf("expected longest words sorted by length then word, got %+v", summary.LongestWords)
	}
	got := map[string]string{}
	for _, award := range summary.Awards {
		got[award.Key] = award.Name
	}
	want := map[string]string{
		AwardWordWizard:    "Ben",
		AwardBigWordEnergy: "Ada",
		AwardUniqueMind:    "Ben",
		AwardHotStreak:     "Ben",
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected awards %v, got %v", want, got)
	}
}

func TestSummarizeCardGroups(t *testing.T) {
	game := Game{Mode: ModeCardMatch}
	players := []Player{
		{ID: "a", Name: "Ada", JoinedAt: 1},
		{ID: "b", Name: "Ben", JoinedAt: 2},
		{ID: "c", Name: "Cam", JoinedAt: 3},
	}
	rounds := []Round{{
		Number:              1,
		RevealComplete:      true,
		PlayerOrder:         []string{"a", "b", "c"},
		ConnectionThreshold: 100,
		Connections: map[string]map[string]int{
			"a": {"b": 272, "c": 64},
			"b": {"a": 272, "c": 63},
			"c": {"a": 64, "b": 63},
		},
		Submissions: map[string]Submission{
			"a": {Cards: []int{3, 1, 4, 0, 2}},
			"b": {Cards: []int{1, 3, 0, 4, 2}},
			"c": {Cards: []int{9, 8, 3, 7, 6}},
		},
	}}
	summary := Summarize(game, players, rounds, Thresholds{})
	if summary.Cards.Strongest == nil || *summary.Cards.Strongest != (PlayerPair{A: "Ada", B: "Ben", Value: 272}) {
		t.Fatalf("unexpected strongest connection %+v", summary.Cards.Strongest)
	}
	if !reflect.DeepEqual(summary.Cards.Groups, [][]string{{"Ada", "Ben"}, {"Cam"}}) {
		t.Fatalf("unexpected groups %v", summary.Cards.Groups)
	}
	if summary.Cards.TopCards[0] != 3 {
		t.Fatalf("expected card 3 on top, got %v", summary.Cards.TopCards)
	}
}
