package wordlist

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseWordsFile(t *testing.T) {
	tests := []struct {
		name            string
		input           string
		expectedWords   []string
		expectedSkipped int
	}{
		{
			name: "Valid input",
			input: `apple
banana
cherry`,
			expectedWords:   []string{"apple", "banana", "cherry"},
			expectedSkipped: 0,
		},
		{
			name: "Input with spaces and empty lines",
			input: `apple
   
banana with space
cherry
`,
			expectedWords:   []string{"apple", "cherry"},
			expectedSkipped: 1,
		},
		{
			name: "Comments and surrounding whitespace",
			input: `# stop words
  apple  
	banana	`,
			expectedWords:   []string{"apple", "banana"},
			expectedSkipped: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scanner := bufio.NewScanner(strings.NewReader(tt.input))
			words, skipped, err := parseWordsFile(scanner)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedWords, words)
			assert.Equal(t, tt.expectedSkipped, skipped)
		})
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Formats(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    []string
	}{
		{"Text", "words.txt", "casino\nloan\n", []string{"casino", "loan"}},
		{"YAML", "words.yaml", "words:\n  - casino\n  - loan\n", []string{"casino", "loan"}},
		{"YML with phrase", "words.yml", "words:\n  - casino\n  - free money\n", []string{"casino"}},
		{"JSON", "words.json", `{"words": ["casino", "loan"]}`, []string{"casino", "loan"}},
		{"TOML", "words.toml", "words = [\"casino\", \"loan\"]\n", []string{"casino", "loan"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Load(writeFile(t, tt.file, tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Words)
		})
	}
}

func TestLoad_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"Broken JSON", "words.json", `{"words": [`},
		{"Missing key", "words.yaml", "other:\n  - casino\n"},
		{"Not a list", "words.yaml", "words: casino\n"},
		{"Non-string entry", "words.json", `{"words": ["casino", {"a": 1}]}`},
		{"Unknown extension", "words.csv", "casino,loan"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content))
			var reloadErr *ConfigReloadError
			require.ErrorAs(t, err, &reloadErr)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.txt"))
	var reloadErr *ConfigReloadError
	require.ErrorAs(t, err, &reloadErr)

	_, err = Load("")
	require.ErrorAs(t, err, &reloadErr)
}
