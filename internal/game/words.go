package game

import (
	"bufio"
	"context"
	"embed"
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"strings"
	"unicode/utf8"
)

//go:embed words/*.txt
var wordsFS embed.FS

const (
	KindCardPrompt = "card_prompt"
	KindWordPrompt = "word_prompt"
	KindCategory   = "category"
)

// ScattergoriesLetters are the letters a round may start with (no Q, X or Z).
var ScattergoriesLetters = []string{
	"A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L", "M",
	"N", "O", "P", "R", "S", "T", "U", "V", "W", "Y",
}

// WordSource lists candidate words of a kind for a language.
type WordSource interface {
	Words(ctx context.Context, kind, language string) ([]string, error)
}

// EmbeddedWords serves the word lists compiled into the binary.
type EmbeddedWords struct{}

func (EmbeddedWords) Words(_ context.Context, kind, language string) ([]string, error) {
	name := fmt.Sprintf("words/%s_%s.txt", kind, language)
	file, err := wordsFS.Open(name)
	if err != nil {
		if language != "en" {
			return EmbeddedWords{}.Words(context.Background(), kind, "en")
		}
		return nil, fmt.Errorf("no %s words for %q: %w", kind, language, err)
	}
	defer file.Close()
	return readLines(file)
}

func readLines(r io.Reader) ([]string, error) {
	var words []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

// pickWords draws up to n distinct entries from words, skipping any in exclude
// (case-insensitive). The pool is per game; nothing is remembered here.
func pickWords(rng *rand.Rand, words []string, n int, exclude []string) []string {
	used := make(map[string]struct{}, len(exclude))
	for _, word := range exclude {
		used[strings.ToUpper(word)] = struct{}{}
	}
	pool := make([]string, 0, len(words))
	seen := map[string]struct{}{}
	for _, word := range words {
		key := strings.ToUpper(word)
		if _, skip := used[key]; skip {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		pool = append(pool, word)
	}
	rng.Shuffle(len(pool), func(i, j int) {
		pool[i], pool[j] = pool[j], pool[i]
	})
	if len(pool) > n {
		pool = pool[:n]
	}
	return pool
}

// CanSpell reports whether word can be built from the letters of source, using
// each letter position at most once.
func CanSpell(source, word string) bool {
	counts := map[rune]int{}
	for _, r := range strings.ToUpper(source) {
		counts[r]++
	}
	for _, r := range strings.ToUpper(word) {
		if counts[r] == 0 {
			return false
		}
		counts[r]--
	}
	return true
}

// normalizeWords upper-cases, trims and de-duplicates found words, keeping the
// order they were found in.
func normalizeWords(words []string) []string {
	out := make([]string, 0, len(words))
	seen := map[string]struct{}{}
	for _, word := range words {
		word = strings.ToUpper(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, dup := seen[word]; dup {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

func wordLength(word string) int {
	return utf8.RuneCountInString(word)
}

// embeddedFile opens an embedded list by name.
func embeddedFile(name string) (fs.File, error) {
	return wordsFS.Open("words/" + name)
}
