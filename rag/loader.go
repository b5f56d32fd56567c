package rag

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/tmc/langchaingo/documentloaders"
)

// TextLoader loads a plain-text file as a single document.
type TextLoader struct {
	path string
}

// NewTextLoader creates a loader for the given file path.
func NewTextLoader(path string) *TextLoader {
	return &TextLoader{path: path}
}

// Load reads the file into one document with a "source" metadata entry.
func (l *TextLoader) Load(_ context.Context) ([]Document, error) {
	data, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", l.path, err)
	}
	return []Document{{
		ID:      filepath.Base(l.path),
		Content: string(data),
		Metadata: map[string]any{
			"source": l.path,
		},
	}}, nil
}

// HTMLLoader extracts readable text from an HTML file, dropping script and
// style content.
type HTMLLoader struct {
	path string
}

// NewHTMLLoader creates a loader for the given HTML file path.
func NewHTMLLoader(path string) *HTMLLoader {
	return &HTMLLoader{path: path}
}

// Load parses the HTML and returns its visible text as one document.
func (l *HTMLLoader) Load(_ context.Context) ([]Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript").Remove()
	text := normalizeWhitespace(doc.Find("body").Text())
	if text == "" {
		text = normalizeWhitespace(doc.Text())
	}

	meta := map[string]any{"source": l.path}
	if title := strings.TrimSpace(doc.Find("title").Text()); title != "" {
		meta["title"] = title
	}

	return []Document{{
		ID:       filepath.Base(l.path),
		Content:  text,
		Metadata: meta,
	}}, nil
}

// PDFLoader extracts text from a PDF file, one document per page.
type PDFLoader struct {
	path string
}

// NewPDFLoader creates a loader for the given PDF file path.
func NewPDFLoader(path string) *PDFLoader {
	return &PDFLoader{path: path}
}

// Load parses the PDF and returns its pages as documents.
func (l *PDFLoader) Load(ctx context.Context) ([]Document, error) {
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", l.path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", l.path, err)
	}

	pages, err := documentloaders.NewPDF(f, info.Size()).Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load PDF: %w", err)
	}

	docs := make([]Document, 0, len(pages))
	for i, page := range pages {
		metadata := make(map[string]any, len(page.Metadata)+1)
		for k, v := range page.Metadata {
			metadata[k] = v
		}
		metadata["source"] = l.path

		docs = append(docs, Document{
			ID:       fmt.Sprintf("%s_page_%d", filepath.Base(l.path), i+1),
			Content:  page.PageContent,
			Metadata: metadata,
		})
	}
	return docs, nil
}

func normalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
