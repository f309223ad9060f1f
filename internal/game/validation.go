package game

import (
	"crypto/rand"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxNameLength    = 11
	CodeLength       = 4
	maxPromptLength  = 40
	maxAnswerLength  = 40
	maxRoundsPerGame = 10
	minRoundSeconds  = 10
	maxRoundSeconds  = 900
)

func newJoinCode() string {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	buf := make([]byte, CodeLength)
	if _, err := rand.Read(buf); err != nil {
		return "AAAA"
	}
	for i := range buf {
		buf[i] = alphabet[int(buf[i])%len(alphabet)]
	}
	return string(buf)
}

// NormalizeCode upper-cases a join code typed by a player.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// ValidCode reports whether code is four letters A-Z.
func ValidCode(code string) bool {
	if len(code) != CodeLength {
		return false
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return false
		}
	}
	return true
}

// ValidateName trims a display name and checks its length and characters.
func ValidateName(name string) (string, error) {
	return validateText("name", name, MaxNameLength)
}

func validatePrompt(text string) (string, error) {
	return validateText("prompt", text, maxPromptLength)
}

func validateAnswer(text string) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", nil
	}
	if utf8.RuneCountInString(trimmed) > maxAnswerLength {
		return "", invalid("answers", "answers must be %d characters or fewer", maxAnswerLength)
	}
	if !isSafeText(trimmed) {
		return "", invalid("answers", "answer contains unsupported characters")
	}
	return trimmed, nil
}

func validateText(label, text string, maxLen int) (string, error) {
	trimmed := normalizeText(text)
	if trimmed == "" {
		return "", invalid(label, "%s is required", label)
	}
	if utf8.RuneCountInString(trimmed) > maxLen {
		return "", invalid(label, "%s must be %d characters or fewer", label, maxLen)
	}
	if !isSafeText(trimmed) {
		return "", invalid(label, "%s contains unsupported characters", label)
	}
	return trimmed, nil
}

func normalizeText(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func isSafeText(text string) bool {
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			continue
		}
		switch r {
		case ' ', '-', '_', '\'', '"', '.', ',', '!', '?', ':', ';', '&', '(', ')', '/':
			continue
		default:
			return false
		}
	}
	return true
}

func validateSettings(mode Mode, s Settings) error {
	if s.Rounds < 1 || s.Rounds > maxRoundsPerGame {
		return invalid("rounds", "rounds must be between 1 and %d", maxRoundsPerGame)
	}
	switch mode {
	case ModeCardMatch:
		if s.DeckType == "" {
			return invalid("deckType", "deck type is required")
		}
		if s.WordSelection != WordSelectionCustom && s.WordSelection != WordSelectionList {
			return invalid("wordSelection", "word selection must be %q or %q", WordSelectionCustom, WordSelectionList)
		}
	case ModeWordFind:
		if s.MinWordLength < 3 || s.MinWordLength > 8 {
			return invalid("minWordLength", "minimum word length must be between 3 and 8")
		}
		if s.Language != "en" && s.Language != "ru" {
			return invalid("language", "language must be en or ru")
		}
		fallthrough
	case ModeScattergories:
		if !s.Untimed && (s.RoundSeconds < minRoundSeconds || s.RoundSeconds > maxRoundSeconds) {
			return invalid("roundSeconds", "round length must be between %d and %d seconds", minRoundSeconds, maxRoundSeconds)
		}
	}
	return nil
}
