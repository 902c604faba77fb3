package engine

import "strings"

// DefaultChunkSize is the per-chunk character budget for detailed summaries.
const DefaultChunkSize = 10000

// ChunkText splits text on whitespace into chunks whose running length
// (sum of word lengths plus one separator per word) stays within size.
// A word longer than size gets a chunk of its own. Empty input yields nil.
func ChunkText(text string, size int) []string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	running := 0
	for _, w := range words {
		if running+len(w)+1 <= size {
			current = append(current, w)
			running += len(w) + 1
			continue
		}
		if len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
		}
		current = []string{w}
		running = len(w)
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
