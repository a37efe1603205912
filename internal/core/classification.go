package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/octadion/rag/internal/store"
)

// classificationEscalationThreshold is compared against the thread's total
// message-row count, not the capped history window.
const classificationEscalationThreshold = 10

const (
	classificationEscalated = "Classification Response Generated"
	classificationRegular   = "Regular Response Generated"
)

// runClassification routes a classification-assistant turn: short threads
// get a regular support reply, threads at or past the threshold escalate to
// the lead qualification analysis.
func (s *QueryService) runClassification(ctx context.Context, asst *store.Assistant, threadID, query string) (*WorkflowResult, error) {
	count, err := s.store.CountThreadMessages(ctx, asst.TenantID, threadID)
	if err != nil {
		return nil, err
	}

	turns, err := s.contexts.RecentTurns(ctx, asst.TenantID, threadID, classificationHistoryLimit)
	if err != nil {
		return nil, err
	}

	generator, err := s.llms.Generator(asst.LLMProvider, asst.LLMModel)
	if err != nil {
		return nil, err
	}

	if count >= classificationEscalationThreshold {
		transcript := formatTranscript(turns, query)
		answer, err := generator.Generate(ctx, fmt.Sprintf(classificationPrompt, transcript))
		if err != nil {
			return nil, fmt.Errorf("generating classification: %w", err)
		}
		return &WorkflowResult{
			Response:       &classificationReply{Response: answer},
			Classification: classificationEscalated,
		}, nil
	}

	history := make([]string, 0, len(turns))
	for _, t := range turns {
		history = append(history, t.Content)
	}
	answer, err := generator.Generate(ctx, fmt.Sprintf(supportPrompt, strings.Join(history, "\n"), query))
	if err != nil {
		return nil, fmt.Errorf("generating support reply: %w", err)
	}
	return &WorkflowResult{Response: answer, Classification: classificationRegular}, nil
}

// formatTranscript renders chronological turns plus the incoming query as
// role-tagged lines for the escalation prompt.
func formatTranscript(turns []store.Turn, query string) string {
	var sb strings.Builder
	for _, t := range turns {
		fmt.Fprintf(&sb, "content: %s\nrole: %s\n", t.Content, t.Role)
	}
	fmt.Fprintf(&sb, "content: %s\nrole: user", query)
	return sb.String()
}
