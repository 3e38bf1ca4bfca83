package runtime

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nithiin7/lang2query/pkg/domain"
)

func TestRetryPolicy_ConsumeRun(t *testing.T) {
	policy := DefaultRetryPolicy()
	st := domain.NewState("run-1", "q", domain.ModeNormal, policy.RunRetries, policy.Regenerations)

	assert.True(t, policy.ConsumeRun(&st))
	assert.Equal(t, 2, st.RetriesLeft)
	assert.True(t, policy.ConsumeRun(&st))
	assert.Equal(t, 1, st.RetriesLeft)

	// The third failure empties the budget: no more re-execution.
	assert.False(t, policy.ConsumeRun(&st))
	assert.Equal(t, 0, st.RetriesLeft)
	assert.False(t, policy.ConsumeRun(&st))
	assert.Equal(t, 0, st.RetriesLeft, "budget must never go negative")
}

func TestRetryPolicy_Regenerations(t *testing.T) {
	policy := DefaultRetryPolicy()
	st := domain.NewState("run-1", "q", domain.ModeNormal, policy.RunRetries, policy.Regenerations)

	assert.True(t, policy.ConsumeRegeneration(&st))
	assert.True(t, policy.ConsumeRegeneration(&st))
	assert.False(t, policy.ConsumeRegeneration(&st))
	assert.Equal(t, 0, st.RegenerationsLeft)

	policy.ResetRegenerations(&st)
	assert.Equal(t, DefaultRegenerations, st.RegenerationsLeft)
	assert.True(t, policy.ConsumeRegeneration(&st))
}

func TestRetryPolicy_ZeroBudgets(t *testing.T) {
	policy := RetryPolicy{RunRetries: 0, Regenerations: 0}
	st := domain.NewState("run-1", "q", domain.ModeNormal, 0, 0)

	assert.False(t, policy.ConsumeRun(&st))
	assert.False(t, policy.ConsumeRegeneration(&st))
}
