package core

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/octadion/rag/internal/store"
)

const (
	ragHistoryLimit            = 4
	classificationHistoryLimit = 6
)

// ContextAssembler reconstructs recent conversation history for prompt
// building. Workflows share it but read different window sizes.
type ContextAssembler struct {
	store *store.Store
}

func NewContextAssembler(s *store.Store) *ContextAssembler {
	return &ContextAssembler{store: s}
}

// RecentTurns returns up to limit of the thread's newest message rows in
// chronological order, each decoded into its role-tagged turn entries.
func (c *ContextAssembler) RecentTurns(ctx context.Context, tenantID, threadID string, limit int) ([]store.Turn, error) {
	messages, err := c.store.RecentMessages(ctx, tenantID, threadID, limit)
	if err != nil {
		return nil, err
	}

	// RecentMessages is newest first; prompts want oldest first.
	var turns []store.Turn
	for i := len(messages) - 1; i >= 0; i-- {
		var pair []store.Turn
		if err := json.Unmarshal([]byte(messages[i].MessageText), &pair); err != nil {
			return nil, fmt.Errorf("decoding message %s: %w", messages[i].ID, err)
		}
		turns = append(turns, pair...)
	}
	return turns, nil
}

// Combined renders history plus the current query as one retrieval-ready
// block: each prior turn on its own line, then the query prefixed "User: ".
func Combined(turns []store.Turn, query string) string {
	lines := make([]string, 0, len(turns))
	for _, t := range turns {
		lines = append(lines, t.Content)
	}
	return strings.Join(lines, "\n") + "\nUser: " + query
}
