// Package middleware provides composable wrappers around a StateStore for
// cross-cutting storage concerns: encryption at rest and PII redaction.
package middleware

import "github.com/nithiin7/lang2query/pkg/ports"

// Middleware allows wrapping a StateStore to add behavior.
type Middleware func(ports.StateStore) ports.StateStore

// Chain applies middlewares right to left, so the first listed is outermost.
func Chain(store ports.StateStore, mws ...Middleware) ports.StateStore {
	for i := len(mws) - 1; i >= 0; i-- {
		store = mws[i](store)
	}
	return store
}
