package stages

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

// MetadataAgent answers schema and metadata questions directly, short-cutting
// the query pipeline.
type MetadataAgent struct {
	responder ports.MetadataResponder
}

// NewMetadataAgent creates the metadata answering stage.
func NewMetadataAgent(responder ports.MetadataResponder) *MetadataAgent {
	return &MetadataAgent{responder: responder}
}

func (m *MetadataAgent) Step() domain.Step { return domain.StepProcessingMetadataAgent }

func (m *MetadataAgent) Name() string { return "metadata_agent" }

func (m *MetadataAgent) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	answer, err := m.responder.Answer(ctx, st.Query)
	if err != nil {
		return st, domain.Decision{}, err
	}
	if answer == "" {
		return st, domain.Fail("metadata agent produced no answer"), nil
	}
	st.MetadataResponse = answer
	return st, domain.Advance(), nil
}
