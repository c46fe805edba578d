package prompt

import (
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"docuchat/internal/models"
)

// Build assembles the message sequence for the language model: one system
// message, the last maxTurns prior conversation turns in chronological
// order, then one user message embedding the retrieved context and the
// question. maxTurns <= 0 replays the full history.
func Build(system string, history []models.ChatTurn, contextText, question string, maxTurns int) []llms.MessageContent {
	if maxTurns > 0 && len(history) > maxTurns {
		history = history[len(history)-maxTurns:]
	}

	messages := make([]llms.MessageContent, 0, len(history)+2)
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeSystem,
		Parts: []llms.ContentPart{llms.TextContent{Text: system}},
	})
	for _, turn := range history {
		role := llms.ChatMessageTypeHuman
		if turn.Role == models.RoleAssistant {
			role = llms.ChatMessageTypeAI
		}
		messages = append(messages, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextContent{Text: turn.Text}},
		})
	}
	messages = append(messages, llms.MessageContent{
		Role:  llms.ChatMessageTypeHuman,
		Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(models.AnswerPromptTemplate, contextText, question)}},
	})
	return messages
}

// BuildSummaryRequest produces the single-message prompt used to summarize
// a freshly uploaded document.
func BuildSummaryRequest(snippet string) []llms.MessageContent {
	return []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: fmt.Sprintf(models.SummaryPromptTemplate, snippet)}},
		},
	}
}
