package game

import (
	"strings"
	"unicode/utf8"
)

// CardPairScore scores one card held by two players at ranks a and b.
func CardPairScore(a, b int) int {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return (10 - (a + b)) * (10 - diff)
}

// CardSetScore sums CardPairScore over every card of a that b also chose,
// walking a in order.
func CardSetScore(a, b []int) int {
	total := 0
	for i, card := range a {
		if i < len(b) && b[i] == card {
			total += CardPairScore(i, i)
			continue
		}
		for j, other := range b {
			if other == card {
				total += CardPairScore(i, j)
				break
			}
		}
	}
	return total
}

// WordPoints is the value of word for each player that found it.
func WordPoints(word string, numPlayersWithoutWord, minWordLength int) int {
	return (utf8.RuneCountInString(word) - minWordLength + 1) * numPlayersWithoutWord
}

// NormalizeAnswer trims and upper-cases a category answer.
func NormalizeAnswer(answer string) string {
	return strings.ToUpper(strings.TrimSpace(answer))
}

// ScattergoriesAnswerPoints returns 1 when answer was given by exactly one player
// for the category and the judge has not rejected it.
func ScattergoriesAnswerPoints(answer string, allAnswers map[string][]string, rejected map[string]bool) int {
	normalized := NormalizeAnswer(answer)
	if normalized == "" {
		return 0
	}
	if rejected[normalized] {
		return 0
	}
	if len(allAnswers[normalized]) != 1 {
		return 0
	}
	return 1
}
