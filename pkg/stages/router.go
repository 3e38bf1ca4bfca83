package stages

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

// DefaultDialect is assumed when the classifier does not name one.
const DefaultDialect = "sql"

// Router classifies the request and picks the pipeline branch: metadata
// questions go to the metadata agent, data questions enter identification.
type Router struct {
	classifier ports.Classifier
}

// NewRouter creates the routing stage.
func NewRouter(classifier ports.Classifier) *Router {
	return &Router{classifier: classifier}
}

func (r *Router) Step() domain.Step { return domain.StepProcessingRouting }

func (r *Router) Name() string { return "router" }

func (r *Router) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	info, err := r.classifier.Classify(ctx, st.Query)
	if err != nil {
		return st, domain.Decision{}, err
	}
	v := info.IsMetadataQuery
	st.IsMetadataQuery = &v
	st.Dialect = info.Dialect
	if st.Dialect == "" {
		st.Dialect = DefaultDialect
	}
	if v {
		return st, domain.AdvanceTo(domain.StepProcessingMetadataAgent), nil
	}
	return st, domain.AdvanceTo(domain.StepProcessingDatabaseIdentification), nil
}
