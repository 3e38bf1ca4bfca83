package runtime

import "github.com/nithiin7/lang2query/pkg/domain"

// Default budgets. Run retries cover stage failures anywhere in the pipeline;
// regenerations cover the generator/validator loop only.
const (
	DefaultRunRetries    = 3
	DefaultRegenerations = 2
)

// RetryPolicy holds the two independent retry budgets. A stage that can be
// retried locally always prefers local regeneration over a run-level retry,
// since regeneration preserves partial progress.
type RetryPolicy struct {
	RunRetries    int
	Regenerations int
}

// DefaultRetryPolicy returns the stock budgets.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{RunRetries: DefaultRunRetries, Regenerations: DefaultRegenerations}
}

// ConsumeRun spends one run-level retry. It returns false when the budget is
// exhausted and the run must terminate at max_retries_exhausted.
func (p RetryPolicy) ConsumeRun(st *domain.State) bool {
	if st.RetriesLeft <= 0 {
		return false
	}
	st.RetriesLeft--
	return st.RetriesLeft > 0
}

// ConsumeRegeneration spends one local regeneration attempt. It returns false
// when the local budget is exhausted and a run-level retry must be consumed
// instead.
func (p RetryPolicy) ConsumeRegeneration(st *domain.State) bool {
	if st.RegenerationsLeft <= 0 {
		return false
	}
	st.RegenerationsLeft--
	return true
}

// ResetRegenerations restores the local budget after a run-level retry paid
// for a fresh pass through the pipeline.
func (p RetryPolicy) ResetRegenerations(st *domain.State) {
	st.RegenerationsLeft = p.Regenerations
}
