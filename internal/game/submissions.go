package game

import (
	"sort"
	"strconv"
)

const topCardCount = 5

// AllSubmitted reports whether every active player has a complete submission for
// the round. Once the round has latched, it stays true whatever the players show.
func AllSubmitted(game Game, round Round, players []Player) bool {
	if round.AllSubmitted {
		return true
	}
	if len(players) == 0 {
		return false
	}
	for _, player := range players {
		if !submissionComplete(game, player) {
			return false
		}
	}
	return true
}

func submissionComplete(game Game, player Player) bool {
	if !player.Submitted {
		return false
	}
	if game.Mode == ModeCardMatch {
		return len(player.Cards) == game.NumCards
	}
	return true
}

func submissionOf(game Game, player Player) Submission {
	sub := Submission{Name: player.Name}
	if !player.Submitted {
		if game.Mode == ModeScattergories {
			sub.Answers = map[string]string{}
		}
		return sub
	}
	switch game.Mode {
	case ModeCardMatch:
		sub.Cards = append([]int(nil), player.Cards...)
	case ModeWordFind:
		sub.Words = append([]string(nil), player.Words...)
	case ModeScattergories:
		sub.Answers = make(map[string]string, len(player.Answers))
		for key, answer := range player.Answers {
			sub.Answers[key] = answer
		}
	}
	return sub
}

// latchFields is the single write that closes submissions for a round: the
// allSubmitted latch together with the snapshot the reveal scores from.
func latchFields(game Game, round Round, players []Player) map[string]any {
	ordered := append([]Player(nil), players...)
	sortByJoin(ordered)

	order := make([]string, 0, len(ordered))
	submissions := make(map[string]Submission, len(ordered))
	for _, player := range ordered {
		order = append(order, player.ID)
		submissions[player.ID] = submissionOf(game, player)
	}
	fields := map[string]any{
		"allSubmitted":     true,
		"scoresCalculated": true,
		"playerOrder":      order,
		"submissions":      submissions,
	}
	switch game.Mode {
	case ModeCardMatch:
		connections := cardConnections(order, submissions)
		fields["connections"] = connections
		fields["connectionThreshold"] = connectionThreshold(order, connections)
		fields["topCards"] = topCards(order, submissions, topCardCount)
	case ModeScattergories:
		fields["allAnswers"] = collectAnswers(order, submissions, len(round.Categories))
	}
	return fields
}

func cardConnections(order []string, submissions map[string]Submission) map[string]map[string]int {
	connections := make(map[string]map[string]int, len(order))
	for _, a := range order {
		row := make(map[string]int, len(order)-1)
		for _, b := range order {
			if a == b {
				continue
			}
			row[b] = CardSetScore(submissions[a].Cards, submissions[b].Cards)
		}
		connections[a] = row
	}
	return connections
}

// connectionThreshold is the median of the positive pairwise connection scores.
func connectionThreshold(order []string, connections map[string]map[string]int) int {
	var scores []int
	for i, a := range order {
		for _, b := range order[i+1:] {
			if score := connections[a][b]; score > 0 {
				scores = append(scores, score)
			}
		}
	}
	if len(scores) == 0 {
		return 0
	}
	sort.Ints(scores)
	return scores[len(scores)/2]
}

// topCards tallies 10-rank for every chosen card and returns the n highest.
func topCards(order []string, submissions map[string]Submission, n int) []int {
	tally := map[int]int{}
	tallyCards(tally, order, submissions)
	return rankCards(tally, n)
}

func tallyCards(tally map[int]int, order []string, submissions map[string]Submission) {
	for _, id := range order {
		for rank, card := range submissions[id].Cards {
			tally[card] += 10 - rank
		}
	}
}

// rankCards orders cards by tally, then by index, and keeps the first n.
func rankCards(tally map[int]int, n int) []int {
	cards := make([]int, 0, len(tally))
	for card := range tally {
		cards = append(cards, card)
	}
	sort.Slice(cards, func(i, j int) bool {
		if tally[cards[i]] != tally[cards[j]] {
			return tally[cards[i]] > tally[cards[j]]
		}
		return cards[i] < cards[j]
	})
	if len(cards) > n {
		cards = cards[:n]
	}
	return cards
}

// collectAnswers indexes non-blank normalized answers by category then answer.
func collectAnswers(order []string, submissions map[string]Submission, categories int) map[string]map[string][]string {
	all := make(map[string]map[string][]string, categories)
	for i := 0; i < categories; i++ {
		all[strconv.Itoa(i)] = map[string][]string{}
	}
	for _, id := range order {
		for key, answer := range submissions[id].Answers {
			normalized := NormalizeAnswer(answer)
			if normalized == "" {
				continue
			}
			if _, ok := all[key]; !ok {
				continue
			}
			all[key][normalized] = append(all[key][normalized], id)
		}
	}
	return all
}
