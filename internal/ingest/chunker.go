package ingest

import "strings"

// ChunkText splits text into chunks of at most chunkSize characters,
// breaking on sentence boundaries. Consecutive chunks share trailing
// sentences up to overlap characters so no context is lost at a
// boundary. A single sentence longer than chunkSize becomes its own
// chunk.
func ChunkText(text string, chunkSize, overlap int) []string {
	sentences := splitSentences(text)
	if len(sentences) == 0 {
		return nil
	}

	var chunks []string
	var current []string
	currentLen := 0

	for i := 0; i < len(sentences); i++ {
		sentence := sentences[i]
		// +1 for the joining space.
		added := len(sentence)
		if currentLen > 0 {
			added++
		}

		if currentLen > 0 && currentLen+added > chunkSize {
			chunks = append(chunks, strings.Join(current, " "))
			current, currentLen = carryOverlap(current, overlap)
			if currentLen > 0 {
				added = len(sentence) + 1
			} else {
				added = len(sentence)
			}
		}

		current = append(current, sentence)
		currentLen += added
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}

// carryOverlap keeps the trailing sentences of a finished chunk, up
// to the overlap budget, as the start of the next chunk.
func carryOverlap(sentences []string, overlap int) ([]string, int) {
	if overlap <= 0 {
		return nil, 0
	}
	kept := 0
	length := 0
	for i := len(sentences) - 1; i >= 0; i-- {
		added := len(sentences[i])
		if length > 0 {
			added++
		}
		if length+added > overlap {
			break
		}
		length += added
		kept++
	}
	if kept == 0 {
		return nil, 0
	}
	tail := sentences[len(sentences)-kept:]
	return append([]string(nil), tail...), length
}

// splitSentences breaks text on sentence-ending punctuation followed
// by whitespace. Newlines are treated as spaces first so wrapped
// paragraphs split the same as unwrapped ones.
func splitSentences(text string) []string {
	text = strings.Join(strings.Fields(text), " ")
	if text == "" {
		return nil
	}

	var sentences []string
	start := 0
	for i := 0; i < len(text)-1; i++ {
		if !isSentenceEnd(text[i]) {
			continue
		}
		if text[i+1] != ' ' {
			continue
		}
		sentences = append(sentences, strings.TrimSpace(text[start:i+1]))
		start = i + 2
	}
	if start < len(text) {
		if s := strings.TrimSpace(text[start:]); s != "" {
			sentences = append(sentences, s)
		}
	}
	return sentences
}

func isSentenceEnd(c byte) bool {
	return c == '.' || c == '!' || c == '?'
}
