package retrieval

import "strings"

// Splitter cuts long text into overlapping chunks sized for embedding.
// It prefers paragraph boundaries, then sentence boundaries, then words,
// falling back to a hard cut for pathological input.
type Splitter struct {
	ChunkSize int // target maximum chunk length in characters
	Overlap   int // characters carried over between adjacent chunks
}

// NewSplitter returns a splitter with the ingestion defaults (300/50).
func NewSplitter() *Splitter {
	return &Splitter{ChunkSize: 300, Overlap: 50}
}

// Split returns the chunks for text in document order. Whitespace-only input
// yields no chunks.
func (s *Splitter) Split(text string) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if len(text) <= s.ChunkSize {
		return []string{text}
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		chunk := strings.TrimSpace(current.String())
		if chunk != "" {
			chunks = append(chunks, chunk)
		}
		current.Reset()
		// Seed the next chunk with the tail of this one so adjacent chunks
		// share context across the boundary.
		if s.Overlap > 0 && len(chunk) > s.Overlap {
			current.WriteString(chunk[len(chunk)-s.Overlap:])
			current.WriteString(" ")
		}
	}

	for _, piece := range s.pieces(text) {
		if current.Len() > 0 && current.Len()+len(piece)+1 > s.ChunkSize {
			flush()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(piece)
	}
	if chunk := strings.TrimSpace(current.String()); chunk != "" {
		chunks = append(chunks, chunk)
	}
	return chunks
}

// pieces decomposes text into units no longer than ChunkSize: sentences
// where possible, words where a sentence is too long, hard cuts where even a
// single word exceeds the chunk size.
func (s *Splitter) pieces(text string) []string {
	var out []string
	for _, para := range strings.Split(text, "\n\n") {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		for _, sentence := range splitSentences(para) {
			if len(sentence) <= s.ChunkSize {
				out = append(out, sentence)
				continue
			}
			for _, word := range strings.Fields(sentence) {
				for len(word) > s.ChunkSize {
					out = append(out, word[:s.ChunkSize])
					word = word[s.ChunkSize:]
				}
				if word != "" {
					out = append(out, word)
				}
			}
		}
	}
	return out
}

func splitSentences(text string) []string {
	var sentences []string
	var b strings.Builder
	for _, r := range text {
		b.WriteRune(r)
		if r == '.' || r == '!' || r == '?' {
			if s := strings.TrimSpace(b.String()); s != "" {
				sentences = append(sentences, s)
			}
			b.Reset()
		}
	}
	if s := strings.TrimSpace(b.String()); s != "" {
		sentences = append(sentences, s)
	}
	return sentences
}
