package game

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"
)

// Dictionary answers whether a word is a real word in a language.
type Dictionary interface {
	Contains(ctx context.Context, language, word string) (bool, error)
}

// DictionaryLoader opens the line-delimited word list for a language.
type DictionaryLoader func(ctx context.Context, language string) (io.ReadCloser, error)

// WordList is a Dictionary that loads each language once and keeps it in memory.
// Failed loads are not cached.
type WordList struct {
	load  DictionaryLoader
	mu    sync.Mutex
	words map[string]map[string]struct{}
}

func NewWordList(load DictionaryLoader) *WordList {
	return &WordList{
		load:  load,
		words: make(map[string]map[string]struct{}),
	}
}

func (w *WordList) Contains(ctx context.Context, language, word string) (bool, error) {
	set, err := w.set(ctx, language)
	if err != nil {
		return false, err
	}
	_, ok := set[strings.ToLower(strings.TrimSpace(word))]
	return ok, nil
}

func (w *WordList) set(ctx context.Context, language string) (map[string]struct{}, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if set, ok := w.words[language]; ok {
		return set, nil
	}
	body, err := w.load(ctx, language)
	if err != nil {
		return nil, fmt.Errorf("load %s word list: %w", language, err)
	}
	defer body.Close()
	lines, err := readLines(body)
	if err != nil {
		return nil, fmt.Errorf("read %s word list: %w", language, err)
	}
	set := make(map[string]struct{}, len(lines))
	for _, line := range lines {
		set[strings.ToLower(line)] = struct{}{}
	}
	w.words[language] = set
	return set, nil
}

// EmbeddedDictionary loads the word lists compiled into the binary.
func EmbeddedDictionary() DictionaryLoader {
	return func(_ context.Context, language string) (io.ReadCloser, error) {
		return embeddedFile("dictionary_" + language + ".txt")
	}
}

// FileDictionary loads one file for every language.
func FileDictionary(path string) DictionaryLoader {
	return func(_ context.Context, _ string) (io.ReadCloser, error) {
		return os.Open(path)
	}
}

// URLDictionary fetches the list over HTTP; {lang} in template is replaced by the language.
func URLDictionary(client *http.Client, template string) DictionaryLoader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return func(ctx context.Context, language string) (io.ReadCloser, error) {
		url := strings.ReplaceAll(template, "{lang}", language)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return nil, err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			_ = resp.Body.Close()
			return nil, fmt.Errorf("word list request failed: %s", resp.Status)
		}
		return resp.Body, nil
	}
}
