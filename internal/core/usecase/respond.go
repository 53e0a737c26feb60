package usecase

import (
	"context"
	"strings"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

// NoContextAnswer is returned without calling the language model when
// retrieval produced nothing to ground an answer in.
const NoContextAnswer = "I couldn't find relevant information to answer your question."

const defaultAnswerTemplate = `You are an AI assistant. Use the following context to answer the user's question accurately and concisely.

Context:
{context}

Question:
{question}

Answer based on the provided context. If the context doesn't contain enough information to fully answer the question, please indicate what information is missing or limited.`

// ResponseGenerator turns a query plus retrieved context into the final
// answer and its source descriptors.
type ResponseGenerator struct {
	llm ports.CompletionModel
}

func NewResponseGenerator(llm ports.CompletionModel) *ResponseGenerator {
	return &ResponseGenerator{llm: llm}
}

func (g *ResponseGenerator) Generate(
	ctx context.Context,
	query string,
	candidates []domain.RetrievedCandidate,
	template string,
) (string, []domain.Source, error) {
	if len(candidates) == 0 {
		return NoContextAnswer, []domain.Source{}, nil
	}

	if template == "" {
		template = defaultAnswerTemplate
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Text
	}
	prompt := strings.NewReplacer(
		"{context}", strings.Join(texts, "\n\n"),
		"{question}", query,
	).Replace(template)

	answer, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return "", nil, domain.WrapError(domain.ErrGeneration, "generate answer", err)
	}

	sources := make([]domain.Source, 0, len(candidates))
	for _, c := range candidates {
		sources = append(sources, domain.Source{
			DocumentName: c.DocumentName,
			ChunkID:      c.ID,
			Position:     c.Position,
		})
	}
	return answer, sources, nil
}
