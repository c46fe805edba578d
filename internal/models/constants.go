package models

const (
	// NoDocumentMessage is returned when a question arrives before any
	// document has been uploaded. It is a normal answer, not an error.
	NoDocumentMessage = "Please upload a document first."

	// NotFoundMessage is the answer when retrieval yields no usable context.
	NotFoundMessage = "Not found in document."

	// UpstreamFallbackMessage is returned when the embedding or language
	// model call fails mid-question.
	UpstreamFallbackMessage = "The assistant is temporarily unavailable. Please try again in a moment."
)

var (
	SystemPrompt = `You are a document assistant. Answer ONLY from the provided document content. If the answer is not in the document, say "Not found in document".`

	AnswerPromptTemplate = `DOCUMENT:
%s

QUESTION:
%s

ANSWER:`

	SummaryPromptTemplate = `Summarize this document briefly:
%s`
)
