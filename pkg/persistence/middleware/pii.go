package middleware

import (
	"context"
	"regexp"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

type piiMiddleware struct {
	next     ports.StateStore
	patterns []*regexp.Regexp
}

// NewPIIMiddleware creates a middleware that masks substrings matching the
// patterns in the free-text fields a snapshot carries: the natural language
// query, human feedback notes, and user-facing messages. Masking is
// write-only; loaded snapshots stay masked.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.StateStore) ports.StateStore {
		return &piiMiddleware{next: next, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, sessionID string, state *domain.State) error {
	// Clone so the engine's in-memory state is untouched.
	cloned := state.Clone()

	cloned.Query = m.mask(cloned.Query)
	cloned.UserMessage = m.mask(cloned.UserMessage)
	cloned.MetadataResponse = m.mask(cloned.MetadataResponse)
	for i, note := range cloned.HumanFeedback {
		cloned.HumanFeedback[i] = m.mask(note)
	}

	return m.next.Save(ctx, sessionID, &cloned)
}

func (m *piiMiddleware) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	return m.next.Load(ctx, sessionID)
}

func (m *piiMiddleware) Delete(ctx context.Context, sessionID string) error {
	return m.next.Delete(ctx, sessionID)
}

func (m *piiMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func (m *piiMiddleware) mask(s string) string {
	for _, p := range m.patterns {
		s = p.ReplaceAllString(s, "***")
	}
	return s
}
