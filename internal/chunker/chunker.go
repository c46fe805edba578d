package chunker

import "strings"

// Split breaks text into chunks of roughly targetSize characters. Words are
// never split: the running length counts word characters only, and a single
// word longer than targetSize is emitted as its own chunk. Empty input
// yields no chunks.
func Split(text string, targetSize int) []string {
	if targetSize <= 0 {
		return nil
	}

	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0
	for _, word := range words {
		if len(current) > 0 && currentLen+len(word) > targetSize {
			chunks = append(chunks, strings.Join(current, " "))
			current = current[:0]
			currentLen = 0
		}
		current = append(current, word)
		currentLen += len(word)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}

	return chunks
}
