package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
)

// wordsKey is the list key in structured word-list files.
const wordsKey = "words"

// ConfigReloadError means the word-list source could not be used. The
// caller keeps its previous word set.
type ConfigReloadError struct {
	Path string
	Err  error
}

func (e *ConfigReloadError) Error() string {
	return fmt.Sprintf("forbidden words source %s rejected: %v", e.Path, e.Err)
}

func (e *ConfigReloadError) Unwrap() error { return e.Err }

// Result is a parsed word list. Skipped counts entries that were dropped
// for containing whitespace.
type Result struct {
	Words   []string
	Skipped int
}

// Load reads a word list from a plain-text file (one word per line, '#'
// comments) or from a yaml, json or toml file holding a "words" list.
func Load(path string) (Result, error) {
	if path == "" {
		return Result{}, &ConfigReloadError{Path: path, Err: oops.Errorf("no word list file configured")}
	}

	var (
		res Result
		err error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		res, err = loadStructured(path, yaml.Parser())
	case ".json":
		res, err = loadStructured(path, json.Parser())
	case ".toml":
		res, err = loadStructured(path, toml.Parser())
	case ".txt", "":
		res, err = loadText(path)
	default:
		err = oops.Errorf("unsupported word list extension: %s", ext)
	}
	if err != nil {
		return Result{}, &ConfigReloadError{Path: path, Err: err}
	}
	return res, nil
}

func loadText(path string) (Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return Result{}, oops.With("file", path, "context", "failed to open word list").Wrap(err)
	}
	defer f.Close()

	words, skipped, err := parseWordsFile(bufio.NewScanner(f))
	if err != nil {
		return Result{}, oops.With("file", path, "context", "failed to read word list").Wrap(err)
	}
	return Result{Words: words, Skipped: skipped}, nil
}

func loadStructured(path string, parser koanf.Parser) (Result, error) {
	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return Result{}, oops.With("file", path, "context", "failed to parse word list").Wrap(err)
	}
	if !k.Exists(wordsKey) {
		return Result{}, oops.With("file", path).Errorf("missing %q list", wordsKey)
	}

	raw, ok := k.Get(wordsKey).([]interface{})
	if !ok {
		return Result{}, oops.With("file", path).Errorf("%q must be a list of strings", wordsKey)
	}

	var res Result
	for i, item := range raw {
		w, ok := item.(string)
		if !ok {
			return Result{}, oops.With("file", path, "index", i).Errorf("%q entry is not a string", wordsKey)
		}
		w = strings.TrimSpace(w)
		switch {
		case w == "":
		case strings.ContainsAny(w, " \t"):
			res.Skipped++
		default:
			res.Words = append(res.Words, w)
		}
	}
	return res, nil
}

func parseWordsFile(scanner *bufio.Scanner) ([]string, int, error) {
	var words []string
	var skippedCount int

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.ContainsAny(line, " \t") {
			skippedCount++
			continue
		}
		words = append(words, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, err
	}
	return words, skippedCount, nil
}
