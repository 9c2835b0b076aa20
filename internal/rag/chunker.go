package rag

// SplitText splits text into overlapping windows of size runes, each window
// starting size-overlap runes after the previous one. The final window may be
// shorter. Ordering follows the source text; empty input yields no chunks.
//
// Rune-based so multi-byte text never splits mid-character.
func SplitText(text string, size, overlap int) []string {
	if text == "" || size <= 0 || overlap < 0 || overlap >= size {
		return nil
	}

	runes := []rune(text)
	if len(runes) <= size {
		return []string{text}
	}

	step := size - overlap
	chunks := make([]string, 0, (len(runes)+step-1)/step)
	for start := 0; start < len(runes); start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[start:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks
}
