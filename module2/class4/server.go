package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tmc/langchaingo/documentloaders"

	"github.com/Rafi99769/ai-agent-development-course/log"
)

// maxUploadSize caps PDF uploads at 32MB.
const maxUploadSize = 32 << 20

// previewLength is how many characters of extracted PDF text are echoed
// back.
const previewLength = 200

// EmbeddingClient is the slice of the go-openai client the server uses.
type EmbeddingClient interface {
	CreateEmbeddings(ctx context.Context, conv openai.EmbeddingRequestConverter) (openai.EmbeddingResponse, error)
}

// Server exposes the embedding endpoints.
type Server struct {
	cfg    Config
	client EmbeddingClient
}

// NewServer creates the HTTP server around an embedding client.
func NewServer(cfg Config, client EmbeddingClient) *Server {
	return &Server{cfg: cfg, client: client}
}

// EmbeddingRequest is the POST /embeddings body.
type EmbeddingRequest struct {
	Text string `json:"text"`
}

// EmbeddingResponse is the POST /embeddings reply.
type EmbeddingResponse struct {
	Text       string    `json:"text"`
	Embedding  []float32 `json:"embedding"`
	Dimensions int       `json:"dimensions"`
}

// PDFEmbeddingResponse is the POST /embeddings/pdf reply.
type PDFEmbeddingResponse struct {
	Filename        string    `json:"filename"`
	TextPreview     string    `json:"text_preview"`
	TotalCharacters int       `json:"total_characters"`
	Embedding       []float32 `json:"embedding"`
	Dimensions      int       `json:"dimensions"`
}

// SimilarityRequest is the POST /similarity body.
type SimilarityRequest struct {
	QueryText      string   `json:"query_text"`
	CandidateTexts []string `json:"candidate_texts"`
}

// SimilarityScore is one candidate's score.
type SimilarityScore struct {
	Text       string  `json:"text"`
	Similarity float64 `json:"similarity"`
}

// SimilarityResponse is the POST /similarity reply.
type SimilarityResponse struct {
	QueryText    string            `json:"query_text"`
	Similarities []SimilarityScore `json:"similarities"`
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleRoot)
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/embeddings", s.handleEmbeddings)
	mux.HandleFunc("/embeddings/pdf", s.handlePDFEmbeddings)
	mux.HandleFunc("/similarity", s.handleSimilarity)
	return mux
}

// Start runs the server until it fails.
func (s *Server) Start() error {
	addr := s.cfg.Host + ":" + s.cfg.Port
	log.Info("Starting embeddings server on %s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	sendJSONResponse(w, map[string]any{"message": "Hello From RAG!"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSONResponse(w, map[string]any{"status": "healthy"})
}

// embed requests embeddings for texts, one vector per input.
func (s *Server) embed(ctx context.Context, texts []string) ([][]float32, error) {
	resp, err := s.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: texts,
		Model: openai.EmbeddingModel(s.cfg.EmbeddingModel),
	})
	if err != nil {
		return nil, err
	}
	vectors := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		vectors[i] = d.Embedding
	}
	return vectors, nil
}

func (s *Server) handleEmbeddings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req EmbeddingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		sendJSONError(w, "text is required", http.StatusBadRequest)
		return
	}

	vectors, err := s.embed(r.Context(), []string{req.Text})
	if err != nil {
		log.Error("embedding failed: %v", err)
		sendJSONError(w, "Failed to generate embeddings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	sendJSONResponse(w, EmbeddingResponse{
		Text:       req.Text,
		Embedding:  vectors[0],
		Dimensions: len(vectors[0]),
	})
}

func (s *Server) handlePDFEmbeddings(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		sendJSONError(w, "Failed to parse form", http.StatusBadRequest)
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		sendJSONError(w, "file field is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	if !strings.HasSuffix(strings.ToLower(header.Filename), ".pdf") {
		sendJSONError(w, "Only PDF files are supported", http.StatusBadRequest)
		return
	}

	content, err := io.ReadAll(file)
	if err != nil {
		sendJSONError(w, "Failed to read upload", http.StatusBadRequest)
		return
	}

	extracted, err := extractPDFText(r.Context(), content)
	if err != nil {
		log.Error("pdf extraction failed: %v", err)
		sendJSONError(w, "Failed to process PDF: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if strings.TrimSpace(extracted) == "" {
		sendJSONError(w, "No text could be extracted from the PDF. The file might be empty or contain only images.", http.StatusBadRequest)
		return
	}

	vectors, err := s.embed(r.Context(), []string{extracted})
	if err != nil {
		log.Error("embedding failed: %v", err)
		sendJSONError(w, "Failed to generate embeddings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	preview := extracted
	if len(preview) > previewLength {
		preview = preview[:previewLength] + "..."
	}
	sendJSONResponse(w, PDFEmbeddingResponse{
		Filename:        header.Filename,
		TextPreview:     preview,
		TotalCharacters: len(extracted),
		Embedding:       vectors[0],
		Dimensions:      len(vectors[0]),
	})
}

// extractPDFText concatenates the text of every page.
func extractPDFText(ctx context.Context, content []byte) (string, error) {
	loader := documentloaders.NewPDF(bytes.NewReader(content), int64(len(content)))
	docs, err := loader.Load(ctx)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	for _, doc := range docs {
		sb.WriteString(doc.PageContent)
	}
	return sb.String(), nil
}

func (s *Server) handleSimilarity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		sendJSONError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SimilarityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if strings.TrimSpace(req.QueryText) == "" {
		sendJSONError(w, "query_text is required", http.StatusBadRequest)
		return
	}
	if len(req.CandidateTexts) == 0 {
		sendJSONError(w, "candidate_texts cannot be empty", http.StatusBadRequest)
		return
	}

	// One batch request: query first, candidates after.
	vectors, err := s.embed(r.Context(), append([]string{req.QueryText}, req.CandidateTexts...))
	if err != nil {
		log.Error("embedding failed: %v", err)
		sendJSONError(w, "Failed to calculate similarity: "+err.Error(), http.StatusInternalServerError)
		return
	}

	scores := make([]SimilarityScore, len(req.CandidateTexts))
	for i, text := range req.CandidateTexts {
		scores[i] = SimilarityScore{
			Text:       text,
			Similarity: cosineSimilarity(vectors[0], vectors[i+1]),
		}
	}
	sendJSONResponse(w, SimilarityResponse{
		QueryText:    req.QueryText,
		Similarities: scores,
	})
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// sendJSONResponse sends a JSON response.
func sendJSONResponse(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

// sendJSONError sends a JSON error response.
func sendJSONError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{
		"error": message,
	})
}
