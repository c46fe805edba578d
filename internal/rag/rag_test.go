package rag

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"docuchat/internal/config"
	"docuchat/internal/models"
	"docuchat/internal/session"
)

// hashEmbedder produces a deterministic vector per text so nearest-neighbor
// results are stable without a real model.
type hashEmbedder struct {
	err error
}

func (h *hashEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	if h.err != nil {
		return nil, h.err
	}
	var a, b float32
	for i, r := range text {
		a += float32(r)
		b += float32(r) * float32(i%7)
	}
	return []float32{a, b}, nil
}

func (h *hashEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		v, err := h.EmbedQuery(ctx, text)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

type stubGenerator struct {
	answer   string
	err      error
	calls    int
	requests [][]llms.MessageContent
}

func (g *stubGenerator) Generate(_ context.Context, messages []llms.MessageContent) (string, error) {
	g.calls++
	g.requests = append(g.requests, messages)
	if g.err != nil {
		return "", g.err
	}
	return g.answer, nil
}

// promptText flattens the text parts of a recorded request.
func promptText(t *testing.T, messages []llms.MessageContent) string {
	t.Helper()
	var sb strings.Builder
	for _, m := range messages {
		for _, p := range m.Parts {
			part, ok := p.(llms.TextContent)
			require.True(t, ok)
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}

func testConfig() config.RAGConfig {
	return config.RAGConfig{
		ChunkSize:       800,
		TopK:            3,
		MaxContextChars: 3000,
		MaxHistoryTurns: 10,
		SummaryChars:    2000,
	}
}

func newService(gen *stubGenerator) (*Service, *session.Store) {
	st := session.NewStore(session.Options{FallbackLastActive: true})
	return NewService(st, &hashEmbedder{}, gen, testConfig()), st
}

func fiftyWordDoc() []byte {
	words := make([]string, 50)
	for i := range words {
		words[i] = "word"
	}
	return []byte(strings.Join(words, " "))
}

func TestUploadCreatesSession(t *testing.T) {
	svc, st := newService(&stubGenerator{answer: "a short summary"})

	res, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	require.NoError(t, err)
	assert.NotEmpty(t, res.SessionID)
	assert.Equal(t, "a short summary", res.Summary)

	sess, err := st.Get(res.SessionID)
	require.NoError(t, err)
	// 50 short words fit a single 800-character chunk.
	assert.Len(t, sess.Chunks(), 1)
	assert.Equal(t, 1, sess.Index().Count())
}

func TestUploadUnsupportedFormat(t *testing.T) {
	svc, st := newService(&stubGenerator{answer: "x"})

	_, err := svc.Upload(context.Background(), "doc.exe", []byte("binary"))
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 0, st.Count())
}

func TestUploadEmptyDocument(t *testing.T) {
	svc, st := newService(&stubGenerator{answer: "x"})

	_, err := svc.Upload(context.Background(), "doc.txt", []byte("   "))
	assert.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, 0, st.Count())
}

func TestUploadEmbeddingFailureCreatesNothing(t *testing.T) {
	st := session.NewStore(session.Options{FallbackLastActive: true})
	svc := NewService(st, &hashEmbedder{err: errors.New("embed down")}, &stubGenerator{answer: "x"}, testConfig())

	_, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	assert.ErrorIs(t, err, ErrUpstream)
	assert.Equal(t, 0, st.Count())
}

func TestUploadSummaryFailureStillSucceeds(t *testing.T) {
	svc, st := newService(&stubGenerator{err: errors.New("model down")})

	res, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	require.NoError(t, err)
	assert.Equal(t, models.UpstreamFallbackMessage, res.Summary)
	assert.Equal(t, 1, st.Count())
}

func TestUploadSummarySnippetIsBounded(t *testing.T) {
	gen := &stubGenerator{answer: "summary"}
	svc, _ := newService(gen)

	var words []string
	for i := 0; i < 400; i++ {
		words = append(words, fmt.Sprintf("word%03d", i))
	}
	doc := strings.Join(words, " ")
	require.Greater(t, len(doc), 2000)

	_, err := svc.Upload(context.Background(), "doc.txt", []byte(doc))
	require.NoError(t, err)

	// The only model call during upload is the summary request.
	require.Len(t, gen.requests, 1)
	text := promptText(t, gen.requests[0])
	expected := fmt.Sprintf(models.SummaryPromptTemplate, doc[:2000])
	assert.Equal(t, expected, text)
}

func TestUploadSummarySnippetKeepsValidUTF8(t *testing.T) {
	gen := &stubGenerator{answer: "summary"}
	svc, _ := newService(gen)

	// 3-byte runes ensure the 2000-byte cap lands mid-rune.
	doc := strings.Repeat("€", 1000)
	_, err := svc.Upload(context.Background(), "doc.txt", []byte(doc))
	require.NoError(t, err)

	require.Len(t, gen.requests, 1)
	text := promptText(t, gen.requests[0])
	assert.True(t, utf8.ValidString(text))
	assert.LessOrEqual(t, len(text), len(models.SummaryPromptTemplate)+2000)
}

func TestAskAnswersAndRecordsHistory(t *testing.T) {
	gen := &stubGenerator{answer: "the answer"}
	svc, st := newService(gen)

	up, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	require.NoError(t, err)

	res, err := svc.Ask(context.Background(), up.SessionID, "what is this?")
	require.NoError(t, err)
	assert.Equal(t, "the answer", res.Answer)
	assert.Equal(t, up.SessionID, res.SessionID)
	assert.NotEmpty(t, res.ContextUsed)

	sess, err := st.Get(up.SessionID)
	require.NoError(t, err)
	history := sess.History()
	require.Len(t, history, 2)
	assert.Equal(t, models.ChatTurn{Role: models.RoleUser, Text: "what is this?"}, history[0])
	assert.Equal(t, models.ChatTurn{Role: models.RoleAssistant, Text: "the answer"}, history[1])
}

func TestAskFallsBackToLastSession(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, _ := newService(gen)

	up, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	require.NoError(t, err)

	res, err := svc.Ask(context.Background(), "", "question")
	require.NoError(t, err)
	assert.Equal(t, up.SessionID, res.SessionID)
}

func TestAskUnknownExplicitSession(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, _ := newService(gen)

	_, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	require.NoError(t, err)

	_, err = svc.Ask(context.Background(), "not-a-real-id", "question")
	assert.ErrorIs(t, err, session.ErrNotFound)
}

func TestAskBeforeAnyUpload(t *testing.T) {
	svc, _ := newService(&stubGenerator{answer: "ok"})

	_, err := svc.Ask(context.Background(), "", "question")
	assert.ErrorIs(t, err, session.ErrNoSession)
}

func TestAskModelFailureLeavesHistoryUntouched(t *testing.T) {
	gen := &stubGenerator{answer: "summary"}
	svc, st := newService(gen)

	up, err := svc.Upload(context.Background(), "doc.txt", fiftyWordDoc())
	require.NoError(t, err)

	gen.err = errors.New("model down")
	res, err := svc.Ask(context.Background(), up.SessionID, "question")
	require.NoError(t, err)
	assert.Equal(t, models.UpstreamFallbackMessage, res.Answer)

	sess, err := st.Get(up.SessionID)
	require.NoError(t, err)
	assert.Empty(t, sess.History())
}

func TestAskIsolationBetweenSessions(t *testing.T) {
	gen := &stubGenerator{answer: "ok"}
	svc, st := newService(gen)

	upA, err := svc.Upload(context.Background(), "a.txt", []byte("alpha document about cats"))
	require.NoError(t, err)
	upB, err := svc.Upload(context.Background(), "b.txt", []byte("beta document about dogs"))
	require.NoError(t, err)
	require.NotEqual(t, upA.SessionID, upB.SessionID)

	resA, err := svc.Ask(context.Background(), upA.SessionID, "tell me")
	require.NoError(t, err)
	resB, err := svc.Ask(context.Background(), upB.SessionID, "tell me")
	require.NoError(t, err)

	assert.Contains(t, resA.ContextUsed, "alpha")
	assert.NotContains(t, resA.ContextUsed, "beta")
	assert.Contains(t, resB.ContextUsed, "beta")
	assert.NotContains(t, resB.ContextUsed, "alpha")

	// Histories stay separate too.
	sessA, err := st.Get(upA.SessionID)
	require.NoError(t, err)
	assert.Len(t, sessA.History(), 2)
}
