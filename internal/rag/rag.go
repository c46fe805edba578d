package rag

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"docuchat/internal/chunker"
	"docuchat/internal/config"
	"docuchat/internal/embedding"
	"docuchat/internal/extractor"
	"docuchat/internal/llmservice"
	"docuchat/internal/models"
	"docuchat/internal/prompt"
	"docuchat/internal/retriever"
	"docuchat/internal/session"
)

var (
	// ErrExtractionFailed rejects an upload: unsupported format or no
	// extractable text. No session is created.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrUpstream signals that the embedding backend failed while indexing
	// an upload. The upload is rejected whole; no partial session exists.
	ErrUpstream = errors.New("upstream unavailable")
)

// Service wires chunking, embedding, session storage, retrieval and the
// language model into the upload and ask operations.
type Service struct {
	store     *session.Store
	embedder  embedding.Embedder
	generator llmservice.Generator
	retriever *retriever.Retriever
	cfg       config.RAGConfig
}

type UploadResult struct {
	SessionID string
	Summary   string
}

type AskResult struct {
	Answer      string
	SessionID   string
	ContextUsed string
}

func NewService(store *session.Store, embedder embedding.Embedder, generator llmservice.Generator, cfg config.RAGConfig) *Service {
	return &Service{
		store:     store,
		embedder:  embedder,
		generator: generator,
		retriever: retriever.New(embedder, cfg.TopK, cfg.MaxContextChars),
		cfg:       cfg,
	}
}

// Upload extracts text from a document, chunks and embeds it, and registers
// a new session. The session is all-or-nothing: any failure before
// registration leaves the store untouched. The returned summary is
// best-effort; a failed model call degrades to a fallback message without
// failing the upload.
func (s *Service) Upload(ctx context.Context, filename string, data []byte) (*UploadResult, error) {
	text, err := extractor.Extract(filename, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	chunkTexts := chunker.Split(text, s.cfg.ChunkSize)
	if len(chunkTexts) == 0 {
		return nil, fmt.Errorf("%w: document produced no chunks", ErrExtractionFailed)
	}

	vectors, err := s.embedder.EmbedDocuments(ctx, chunkTexts)
	if err != nil {
		return nil, fmt.Errorf("%w: embedding: %v", ErrUpstream, err)
	}

	chunks := make([]models.Chunk, len(chunkTexts))
	for i, content := range chunkTexts {
		chunks[i] = models.Chunk{Content: content, Index: i}
	}

	sess, err := s.store.Create(chunks, vectors)
	if err != nil {
		return nil, err
	}

	log.Info().Str("session_id", sess.ID()).Str("filename", filename).
		Int("chunks", len(chunks)).Msg("Document indexed")

	return &UploadResult{
		SessionID: sess.ID(),
		Summary:   s.summarize(ctx, text),
	}, nil
}

// Ask answers a question from the resolved session's document. Resolution
// errors (session.ErrNotFound, session.ErrNoSession) propagate to the
// caller; upstream failures degrade to a labeled fallback answer and leave
// the conversation history untouched.
func (s *Service) Ask(ctx context.Context, sessionID, question string) (*AskResult, error) {
	sess, err := s.store.Resolve(sessionID)
	if err != nil {
		return nil, err
	}

	contextText, err := s.retriever.Retrieve(ctx, sess, question)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID()).Msg("Query embedding failed")
		return &AskResult{Answer: models.UpstreamFallbackMessage, SessionID: sess.ID()}, nil
	}

	if contextText == "" {
		answer := models.NotFoundMessage
		sess.AppendExchange(question, answer)
		return &AskResult{Answer: answer, SessionID: sess.ID()}, nil
	}

	messages := prompt.Build(models.SystemPrompt, sess.History(), contextText, question, s.cfg.MaxHistoryTurns)
	answer, err := s.generator.Generate(ctx, messages)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sess.ID()).Msg("Model call failed")
		return &AskResult{Answer: models.UpstreamFallbackMessage, SessionID: sess.ID()}, nil
	}

	sess.AppendExchange(question, answer)
	return &AskResult{
		Answer:      answer,
		SessionID:   sess.ID(),
		ContextUsed: contextText,
	}, nil
}

// summarize asks the model for a brief summary of the document head.
func (s *Service) summarize(ctx context.Context, text string) string {
	snippet := text
	if s.cfg.SummaryChars > 0 && len(snippet) > s.cfg.SummaryChars {
		cut := s.cfg.SummaryChars
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	summary, err := s.generator.Generate(ctx, prompt.BuildSummaryRequest(snippet))
	if err != nil {
		log.Warn().Err(err).Msg("Summary generation failed")
		return models.UpstreamFallbackMessage
	}
	return summary
}
