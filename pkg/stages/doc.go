// Package stages provides the built-in workflow stages. Each stage is thin
// glue between the state record and one collaborator port: it reads its
// inputs from the state, calls the collaborator, writes its outputs, and
// proposes a routing decision. Stages never route themselves and never touch
// another stage's fields.
package stages
