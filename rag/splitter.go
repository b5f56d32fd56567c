package rag

import (
	"fmt"
	"strings"
)

// RecursiveCharacterTextSplitter splits text into overlapping chunks,
// preferring the earliest separator in its list that keeps related pieces
// together.
type RecursiveCharacterTextSplitter struct {
	separators   []string
	chunkSize    int
	chunkOverlap int
}

// SplitterOption configures a RecursiveCharacterTextSplitter.
type SplitterOption func(*RecursiveCharacterTextSplitter)

// WithChunkSize sets the maximum chunk size in bytes.
func WithChunkSize(size int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkSize = size
	}
}

// WithChunkOverlap sets how many bytes neighbouring chunks share.
func WithChunkOverlap(overlap int) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.chunkOverlap = overlap
	}
}

// WithSeparators replaces the default separator list.
func WithSeparators(separators []string) SplitterOption {
	return func(s *RecursiveCharacterTextSplitter) {
		s.separators = separators
	}
}

// NewRecursiveCharacterTextSplitter creates a splitter with paragraph,
// line, word and character separators, a 1000-byte chunk size and a
// 200-byte overlap.
func NewRecursiveCharacterTextSplitter(opts ...SplitterOption) *RecursiveCharacterTextSplitter {
	s := &RecursiveCharacterTextSplitter{
		separators:   []string{"\n\n", "\n", " ", ""},
		chunkSize:    1000,
		chunkOverlap: 200,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SplitText splits text into chunks of at most the configured size.
func (s *RecursiveCharacterTextSplitter) SplitText(text string) []string {
	return s.split(text, s.separators)
}

func (s *RecursiveCharacterTextSplitter) split(text string, separators []string) []string {
	if len(text) <= s.chunkSize {
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			return []string{trimmed}
		}
		return nil
	}

	separator := separators[len(separators)-1]
	var remaining []string
	for i, sep := range separators {
		if sep == "" || strings.Contains(text, sep) {
			separator = sep
			remaining = separators[i+1:]
			break
		}
	}

	var pieces []string
	if separator == "" {
		for i := 0; i < len(text); i += s.chunkSize {
			end := min(i+s.chunkSize, len(text))
			pieces = append(pieces, text[i:end])
		}
	} else {
		pieces = strings.Split(text, separator)
	}

	var chunks []string
	var current strings.Builder
	flush := func() {
		if trimmed := strings.TrimSpace(current.String()); trimmed != "" {
			chunks = append(chunks, trimmed)
		}
		current.Reset()
	}

	for _, piece := range pieces {
		if len(piece) > s.chunkSize {
			flush()
			chunks = append(chunks, s.split(piece, remaining)...)
			continue
		}

		if current.Len()+len(separator)+len(piece) > s.chunkSize {
			overlap := s.tail(current.String())
			flush()
			current.WriteString(overlap)
		}
		if current.Len() > 0 {
			current.WriteString(separator)
		}
		current.WriteString(piece)
	}
	flush()

	return chunks
}

// tail returns the last chunkOverlap bytes of text, aligned to a word
// boundary where possible.
func (s *RecursiveCharacterTextSplitter) tail(text string) string {
	if s.chunkOverlap <= 0 || len(text) <= s.chunkOverlap {
		return ""
	}
	overlap := text[len(text)-s.chunkOverlap:]
	if idx := strings.IndexAny(overlap, " \n"); idx >= 0 && idx < len(overlap)-1 {
		overlap = overlap[idx+1:]
	}
	return overlap
}

// SplitDocuments splits every document, tagging each chunk with its source
// document ID and chunk index.
func (s *RecursiveCharacterTextSplitter) SplitDocuments(docs []Document) []Document {
	var chunks []Document
	for _, doc := range docs {
		for i, text := range s.SplitText(doc.Content) {
			metadata := make(map[string]any, len(doc.Metadata)+2)
			for k, v := range doc.Metadata {
				metadata[k] = v
			}
			metadata["source_id"] = doc.ID
			metadata["chunk"] = i

			chunks = append(chunks, Document{
				ID:       fmt.Sprintf("%s_chunk_%d", doc.ID, i),
				Content:  text,
				Metadata: metadata,
			})
		}
	}
	return chunks
}
