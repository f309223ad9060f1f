package game

import (
	"sort"
	"strconv"
	"strings"
)

// RevealRules carries the per-game inputs the reveal walk scores with.
type RevealRules struct {
	Mode          Mode
	MinWordLength int
}

// RevealOrder fixes the order players are walked in. Word rounds put the players
// with the most words first; ties and other modes keep join order.
func RevealOrder(mode Mode, round Round) []string {
	order := append([]string(nil), round.PlayerOrder...)
	if mode == ModeWordFind {
		sort.SliceStable(order, func(i, j int) bool {
			return len(round.Submissions[order[i]].Words) > len(round.Submissions[order[j]].Words)
		})
	}
	return order
}

// startRevealFields initializes an empty reveal for round.
func startRevealFields(mode Mode, round Round) map[string]any {
	order := RevealOrder(mode, round)
	scores := make(map[string]int, len(order))
	for _, id := range order {
		scores[id] = 0
	}
	return map[string]any{
		"revealStarted":  true,
		"revealOrder":    order,
		"cursor":         RevealCursor{},
		"revealedItems":  map[string]RevealedItem{},
		"scores":         scores,
		"revealComplete": false,
	}
}

// AdvanceReveal performs one reveal step on round and returns the result. It
// only reads the persisted cursor, revealedItems and scores, so a driver that
// reloads mid-reveal continues where the document says. The step that reveals
// the last item also completes the reveal.
func AdvanceReveal(rules RevealRules, round Round) Round {
	if !round.RevealStarted || round.RevealComplete {
		return round
	}
	next := cloneReveal(round)
	if rules.Mode == ModeScattergories {
		advanceCategory(&next)
		return next
	}
	p, i, ok := nextItem(rules.Mode, next, next.Cursor.PlayerIndex, next.Cursor.ItemIndex)
	if !ok {
		next.RevealComplete = true
		return next
	}
	owner := next.RevealOrder[p]
	item := revealItems(rules.Mode, next.Submissions[owner])[i]
	awards := itemAwards(rules, next, item)

	next.RevealedItems[item] = RevealedItem{
		Step:       len(next.RevealedItems) + 1,
		Points:     awards[owner],
		RevealedBy: owner,
		Awards:     awards,
	}
	for id, points := range awards {
		next.Scores[id] += points
	}
	next.Cursor = RevealCursor{
		PlayerIndex:   p,
		ItemIndex:     i + 1,
		CurrentItem:   item,
		CurrentPlayer: owner,
	}
	if _, _, more := nextItem(rules.Mode, next, p, i+1); !more {
		next.RevealComplete = true
	}
	return next
}

// nextItem scans forward from (player, item) for the first item not yet revealed.
func nextItem(mode Mode, round Round, player, item int) (int, int, bool) {
	for p := player; p < len(round.RevealOrder); p++ {
		items := revealItems(mode, round.Submissions[round.RevealOrder[p]])
		start := 0
		if p == player {
			start = item
		}
		for i := start; i < len(items); i++ {
			if _, done := round.RevealedItems[items[i]]; !done {
				return p, i, true
			}
		}
	}
	return 0, 0, false
}

func revealItems(mode Mode, sub Submission) []string {
	switch mode {
	case ModeCardMatch:
		items := make([]string, len(sub.Cards))
		for i, card := range sub.Cards {
			items[i] = strconv.Itoa(card)
		}
		return items
	case ModeWordFind:
		return sub.Words
	}
	return nil
}

// itemAwards returns the points every holder of item receives.
func itemAwards(rules RevealRules, round Round, item string) map[string]int {
	awards := map[string]int{}
	switch rules.Mode {
	case ModeWordFind:
		var holders []string
		for _, id := range round.RevealOrder {
			if containsString(round.Submissions[id].Words, item) {
				holders = append(holders, id)
			}
		}
		points := 0
		if !strings.EqualFold(item, round.Prompt) {
			points = WordPoints(item, len(round.RevealOrder)-len(holders), rules.MinWordLength)
		}
		for _, id := range holders {
			awards[id] = points
		}
	case ModeCardMatch:
		card, _ := strconv.Atoi(item)
		ranks := map[string]int{}
		for _, id := range round.RevealOrder {
			if rank := indexOf(round.Submissions[id].Cards, card); rank >= 0 {
				ranks[id] = rank
			}
		}
		for id, rank := range ranks {
			total := 0
			for other, otherRank := range ranks {
				if other != id {
					total += CardPairScore(rank, otherRank)
				}
			}
			awards[id] = total
		}
	}
	return awards
}

// advanceCategory scores the next unscored category as one batch.
func advanceCategory(round *Round) {
	idx := round.Cursor.CategoryIndex
	for idx < len(round.Categories) {
		if _, done := round.RevealedItems[strconv.Itoa(idx)]; !done {
			break
		}
		idx++
	}
	if idx >= len(round.Categories) {
		round.RevealComplete = true
		return
	}
	key := strconv.Itoa(idx)
	answers := round.AllAnswers[key]
	rejected := round.Rejected[key]
	awards := map[string]int{}
	total := 0
	for answer, holders := range answers {
		if ScattergoriesAnswerPoints(answer, answers, rejected) == 1 {
			awards[holders[0]]++
			total++
		}
	}
	round.RevealedItems[key] = RevealedItem{
		Step:       len(round.RevealedItems) + 1,
		Points:     total,
		RevealedBy: round.Categories[idx],
		Awards:     awards,
	}
	for id, points := range awards {
		round.Scores[id] += points
	}
	round.Cursor = RevealCursor{
		CategoryIndex: idx + 1,
		CurrentItem:   round.Categories[idx],
	}
	if idx+1 >= len(round.Categories) {
		round.RevealComplete = true
	}
}

// revealFields is the composite write for one reveal step.
func revealFields(round Round, at int64) map[string]any {
	return map[string]any{
		"cursor":         round.Cursor,
		"revealedItems":  round.RevealedItems,
		"scores":         round.Scores,
		"revealComplete": round.RevealComplete,
		"lastRevealAt":   at,
	}
}

func cloneReveal(round Round) Round {
	next := round
	next.RevealedItems = make(map[string]RevealedItem, len(round.RevealedItems)+1)
	for key, item := range round.RevealedItems {
		next.RevealedItems[key] = item
	}
	next.Scores = make(map[string]int, len(round.Scores))
	for id, score := range round.Scores {
		next.Scores[id] = score
	}
	return next
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}

func indexOf(values []int, target int) int {
	for i, value := range values {
		if value == target {
			return i
		}
	}
	return -1
}
