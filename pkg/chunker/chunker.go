// Package chunker splits raw document text into bounded, overlapping passages
// ready for embedding. All strategies share the same post-processing: chunks
// are cleaned, near-empty fragments are discarded, and the survivors are
// re-indexed contiguously from 0.
package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

type Strategy string

const (
	StrategyRecursive Strategy = "recursive"
	StrategyMarkdown  Strategy = "markdown"
	StrategyToken     Strategy = "token"
)

// minChunkLength filters out fragments too short to be useful in the index.
const minChunkLength = 20

// charsPerToken is the estimation heuristic, not an exact tokenizer.
const charsPerToken = 4

// Chunk is one passage of a split document.
type Chunk struct {
	Index      int
	Content    string
	TokenCount int
	Metadata   map[string]interface{}
}

var recursiveSeparators = []string{"\n\n", "\n", ". ", " ", ""}

var markdownSeparators = []string{"\n# ", "\n## ", "\n### ", "\n#### ", "\n---\n", "\n\n", "\n", " ", ""}

var (
	multiNewline = regexp.MustCompile(`\n{3,}`)
	multiSpace   = regexp.MustCompile(` {2,}`)
)

// Split chunks text with the given strategy. Caller metadata is merged into
// every chunk's metadata bag alongside the strategy name and character count.
// An unknown strategy is a configuration error.
func Split(text string, metadata map[string]interface{}, chunkSize, overlap int, strategy Strategy) ([]Chunk, error) {
	var pieces []string
	switch strategy {
	case StrategyRecursive, "":
		pieces = splitRecursive(text, recursiveSeparators, chunkSize, overlap)
	case StrategyMarkdown:
		pieces = splitRecursive(text, markdownSeparators, chunkSize, overlap)
	case StrategyToken:
		pieces = hardSplit(text, chunkSize*charsPerToken, overlap*charsPerToken)
	default:
		return nil, fmt.Errorf("unknown chunking strategy: %s", strategy)
	}

	chunks := make([]Chunk, 0, len(pieces))
	for _, content := range pieces {
		content = cleanChunk(content)
		if utf8.RuneCountInString(content) < minChunkLength {
			continue
		}

		charCount := utf8.RuneCountInString(content)
		bag := make(map[string]interface{}, len(metadata)+2)
		for key, value := range metadata {
			bag[key] = value
		}
		bag["strategy"] = string(strategyOrDefault(strategy))
		bag["char_count"] = charCount

		chunks = append(chunks, Chunk{
			Index:      len(chunks),
			Content:    content,
			TokenCount: estimateTokens(charCount),
			Metadata:   bag,
		})
	}
	return chunks, nil
}

func strategyOrDefault(strategy Strategy) Strategy {
	if strategy == "" {
		return StrategyRecursive
	}
	return strategy
}

// cleanChunk collapses runs of blank lines and spaces, then trims.
func cleanChunk(text string) string {
	text = multiNewline.ReplaceAllString(text, "\n\n")
	text = multiSpace.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// estimateTokens rounds the chars-per-token heuristic up so short chunks
// never report zero tokens.
func estimateTokens(charCount int) int {
	return (charCount + charsPerToken - 1) / charsPerToken
}

// splitRecursive walks the separator priority list: split on the first
// separator present, keep pieces that fit chunkSize, and recurse into pieces
// that do not with the remaining separators. Small neighbouring pieces are
// merged back together up to chunkSize with overlap characters of repeated
// context.
func splitRecursive(text string, separators []string, chunkSize, overlap int) []string {
	sep := separators[len(separators)-1]
	var remaining []string
	for i, s := range separators {
		if s == "" {
			sep = ""
			break
		}
		if strings.Contains(text, s) {
			sep = s
			remaining = separators[i+1:]
			break
		}
	}

	if sep == "" {
		return hardSplit(text, chunkSize, overlap)
	}

	splits := strings.Split(text, sep)

	var final []string
	var pending []string
	for _, s := range splits {
		if utf8.RuneCountInString(s) < chunkSize {
			pending = append(pending, s)
			continue
		}
		if len(pending) > 0 {
			final = append(final, mergeSplits(pending, sep, chunkSize, overlap)...)
			pending = nil
		}
		final = append(final, splitRecursive(s, remaining, chunkSize, overlap)...)
	}
	if len(pending) > 0 {
		final = append(final, mergeSplits(pending, sep, chunkSize, overlap)...)
	}
	return final
}

// mergeSplits packs small splits into chunks of at most chunkSize characters,
// carrying the tail of each chunk forward as overlap into the next.
func mergeSplits(splits []string, sep string, chunkSize, overlap int) []string {
	sepLen := utf8.RuneCountInString(sep)

	var chunks []string
	var current []string
	total := 0

	flush := func() {
		if len(current) == 0 {
			return
		}
		joined := strings.Join(current, sep)
		if strings.TrimSpace(joined) != "" {
			chunks = append(chunks, joined)
		}
	}

	for _, s := range splits {
		length := utf8.RuneCountInString(s)
		extra := 0
		if len(current) > 0 {
			extra = sepLen
		}
		if total+length+extra > chunkSize && len(current) > 0 {
			flush()
			// Drop leading pieces until the carried-over tail fits the
			// overlap budget and leaves room for the incoming piece.
			for len(current) > 0 &&
				(total > overlap || (total+length+sepLen > chunkSize && total > 0)) {
				total -= utf8.RuneCountInString(current[0])
				if len(current) > 1 {
					total -= sepLen
				}
				current = current[1:]
			}
		}
		current = append(current, s)
		total += length
		if len(current) > 1 {
			total += sepLen
		}
	}
	flush()
	return chunks
}

// hardSplit slices text into fixed windows of chunkSize characters with
// overlap characters repeated between consecutive windows.
func hardSplit(text string, chunkSize, overlap int) []string {
	runes := []rune(text)
	if len(runes) <= chunkSize {
		return []string{text}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	var chunks []string
	for i := 0; i < len(runes); i += step {
		end := i + chunkSize
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
