package stages

import (
	"context"

	"github.com/nithiin7/lang2query/pkg/domain"
	"github.com/nithiin7/lang2query/pkg/ports"
)

// QueryPlanner turns the request and schema context into a text plan for the
// generator.
type QueryPlanner struct {
	planner ports.QueryPlanner
}

// NewQueryPlanner creates the planning stage.
func NewQueryPlanner(planner ports.QueryPlanner) *QueryPlanner {
	return &QueryPlanner{planner: planner}
}

func (p *QueryPlanner) Step() domain.Step { return domain.StepProcessingQueryPlanning }

func (p *QueryPlanner) Name() string { return "query_planner" }

func (p *QueryPlanner) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	plan, err := p.planner.Plan(ctx, st.Query, st.SchemaContext)
	if err != nil {
		return st, domain.Decision{}, err
	}
	st.QueryPlan = plan
	return st, domain.Advance(), nil
}

// QueryGenerator produces the structured query. On regeneration attempts it
// forwards the validator's verdict from the rejected attempt.
type QueryGenerator struct {
	generator ports.QueryGenerator
}

// NewQueryGenerator creates the generation stage.
func NewQueryGenerator(generator ports.QueryGenerator) *QueryGenerator {
	return &QueryGenerator{generator: generator}
}

func (g *QueryGenerator) Step() domain.Step { return domain.StepProcessingQueryGeneration }

func (g *QueryGenerator) Name() string { return "query_generator" }

func (g *QueryGenerator) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	req := ports.GenerateRequest{
		Query:         st.Query,
		Dialect:       st.Dialect,
		SchemaContext: st.SchemaContext,
		Plan:          st.QueryPlan,
	}
	if st.Validation != nil && !st.Validation.Valid {
		req.Feedback = st.Validation
	}
	q, err := g.generator.Generate(ctx, req)
	if err != nil {
		return st, domain.Decision{}, err
	}
	if q.Query == "" {
		return st, domain.Fail("generator produced an empty query"), nil
	}
	st.GeneratedQuery = &q
	st.IsQueryValid = false
	return st, domain.Advance(), nil
}

// QueryValidator checks the generated query and routes rejects back into the
// pipeline. A valid verdict completes the workflow.
type QueryValidator struct {
	validator ports.QueryValidator
}

// NewQueryValidator creates the validation stage.
func NewQueryValidator(validator ports.QueryValidator) *QueryValidator {
	return &QueryValidator{validator: validator}
}

func (v *QueryValidator) Step() domain.Step { return domain.StepProcessingQueryValidation }

func (v *QueryValidator) Name() string { return "query_validator" }

func (v *QueryValidator) Execute(ctx context.Context, st domain.State) (domain.State, domain.Decision, error) {
	if st.GeneratedQuery == nil {
		return st, domain.Fail("no generated query to validate"), nil
	}
	fb, err := v.validator.Validate(ctx, *st.GeneratedQuery, st.Dialect, st.SchemaContext)
	if err != nil {
		return st, domain.Decision{}, err
	}
	st.Validation = &fb
	st.IsQueryValid = fb.Valid
	if fb.Valid {
		return st, domain.Advance(), nil
	}
	reason := fb.Details
	if reason == "" {
		reason = string(fb.Code)
	}
	return st, domain.RetryStage(reason), nil
}
