package usecase

import (
	"context"
	"fmt"
	"strings"

	"ragbench/internal/core/domain"
	"ragbench/internal/core/ports"
)

const hydePromptTemplate = `You are an expert assistant. Given the following question, write a hypothetical document that would perfectly answer this question.

%s that directly addresses the question as if you were writing content that would be found in a knowledge base or document collection.

Question: %s

Hypothetical Document:`

var lengthInstructions = map[domain.LengthProfile]string{
	domain.LengthShort:  "Write a brief, concise answer (2-3 sentences)",
	domain.LengthMedium: "Write a comprehensive answer (1-2 paragraphs)",
	domain.LengthLong:   "Write a detailed, thorough answer (3-4 paragraphs)",
}

// HypotheticalGenerator synthesizes a plausible answer document for a
// query. The generated text is used as the retrieval probe instead of
// the raw query.
type HypotheticalGenerator struct {
	llm ports.CompletionModel
}

func NewHypotheticalGenerator(llm ports.CompletionModel) *HypotheticalGenerator {
	return &HypotheticalGenerator{llm: llm}
}

func (g *HypotheticalGenerator) Generate(
	ctx context.Context,
	query string,
	profile domain.LengthProfile,
) (string, error) {
	instruction, ok := lengthInstructions[profile]
	if !ok {
		return "", domain.WrapError(
			domain.ErrInvalidParameter,
			"generate hypothetical document",
			fmt.Errorf("unknown length profile %q", profile),
		)
	}

	prompt := fmt.Sprintf(hydePromptTemplate, instruction, query)
	text, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		return "", domain.WrapError(domain.ErrGeneration, "generate hypothetical document", err)
	}
	return strings.TrimSpace(text), nil
}

// buildHyDEProbe joins the original query and the hypothetical document
// with a blank line when useOriginalQuery is set; otherwise the
// hypothetical document alone is the probe.
func buildHyDEProbe(query, hypothetical string, useOriginalQuery bool) string {
	if useOriginalQuery {
		return query + "\n\n" + hypothetical
	}
	return hypothetical
}
