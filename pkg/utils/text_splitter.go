package utils

import "strings"

// SplitWords splits text into chunks of up to chunkSize words, each starting
// chunkSize-overlap words after the previous one. Whitespace is normalised to
// single spaces. Text with no words yields no chunks.
func SplitWords(text string, chunkSize int, overlap int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}
	if chunkSize <= 0 {
		return []string{strings.Join(words, " ")}
	}

	step := chunkSize - overlap
	if step <= 0 {
		step = chunkSize // fallback if overlap >= chunkSize
	}

	var chunks []string
	for i := 0; i < len(words); i += step {
		end := i + chunkSize
		if end > len(words) {
			end = len(words)
		}
		chunks = append(chunks, strings.Join(words[i:end], " "))
		if end == len(words) {
			break
		}
	}
	return chunks
}

// Excerpt shortens s to at most limit runes, marking the cut with "...".
func Excerpt(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}
