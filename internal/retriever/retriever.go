package retriever

import (
	"context"
	"strings"
	"unicode/utf8"

	"docuchat/internal/embedding"
	"docuchat/internal/session"
)

// Retriever selects the chunks of a session most relevant to a query and
// assembles them into a character-bounded context string.
type Retriever struct {
	embedder        embedding.Embedder
	topK            int
	maxContextChars int
}

func New(embedder embedding.Embedder, topK, maxContextChars int) *Retriever {
	return &Retriever{
		embedder:        embedder,
		topK:            topK,
		maxContextChars: maxContextChars,
	}
}

// Retrieve embeds the query, searches the session's index and joins the
// nearest chunk texts, nearest first, separated by a blank line. The result
// is hard-truncated to the context budget; an empty string means "no
// relevant content" and must not be forwarded to the model as context. Only
// the embedding call can fail.
func (r *Retriever) Retrieve(ctx context.Context, sess *session.Session, query string) (string, error) {
	chunks := sess.Chunks()
	if len(chunks) == 0 || sess.Index().Count() == 0 {
		return "", nil
	}

	queryVec, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return "", err
	}

	ids := sess.Index().Search(queryVec, r.topK)
	if len(ids) == 0 {
		return "", nil
	}

	var parts []string
	for _, id := range ids {
		if id < 0 || id >= len(chunks) {
			continue
		}
		parts = append(parts, chunks[id].Content)
	}

	return truncate(strings.Join(parts, "\n\n"), r.maxContextChars), nil
}

// truncate hard-cuts s at max bytes, backing up to a rune boundary so the
// result stays valid UTF-8.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}
