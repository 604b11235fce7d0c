package vectorstore

import (
	"fmt"
	"strings"
	"unicode"
)

const (
	// DefaultChunkSize is the target chunk length in characters.
	DefaultChunkSize = 1000
	// DefaultChunkOverlap is how many trailing characters repeat at the
	// start of the next chunk so context survives the boundary.
	DefaultChunkOverlap = 200
)

// SplitText cuts text into overlapping chunks of roughly size characters,
// preferring to break on whitespace near the boundary.
func SplitText(text string, size, overlap int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 5
	}
	// With overlap above half the size, the next start can land before the
	// previous one and the loop never advances. Clamp so each chunk moves
	// forward by at least one rune.
	if overlap > size/2 {
		overlap = size / 2
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	var chunks []string
	start := 0
	for start < len(runes) {
		end := start + size
		if end >= len(runes) {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}

		// Walk back to the nearest whitespace so words stay whole. Give up
		// after the overlap window and cut mid-word.
		cut := end
		for cut > start+size-overlap && !unicode.IsSpace(runes[cut-1]) {
			cut--
		}
		if cut == start+size-overlap {
			cut = end
		}

		chunks = append(chunks, strings.TrimSpace(string(runes[start:cut])))
		start = cut - overlap
		if start < 0 {
			start = 0
		}
	}

	// Drop empties produced by whitespace-heavy input.
	out := chunks[:0]
	for _, c := range chunks {
		if c != "" {
			out = append(out, c)
		}
	}
	return out
}

// BuildChunks splits a document's text and attaches chunk identity. Chunk
// IDs are deterministic ("<documentID>_<index>") so re-indexing a document
// produces the same IDs.
func BuildChunks(documentID, userID, text string) []Chunk {
	parts := SplitText(text, DefaultChunkSize, DefaultChunkOverlap)
	chunks := make([]Chunk, 0, len(parts))
	for i, part := range parts {
		chunks = append(chunks, Chunk{
			ChunkID:     fmt.Sprintf("%s_%d", documentID, i),
			DocumentID:  documentID,
			UserID:      userID,
			ChunkIndex:  i,
			TotalChunks: len(parts),
			Content:     part,
		})
	}
	return chunks
}
