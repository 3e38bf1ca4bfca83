/*
Package lang2query turns natural language questions into validated,
dialect-aware structured queries through a staged workflow.

A run moves through classification, schema identification, planning,
generation, and validation. The engine owns all control flow: stages only
propose decisions, and a finite transition table decides what executes next.
In interactive mode the run suspends at review checkpoints until a human
approves, modifies, or rejects the proposed identifiers; in normal mode
reviews auto-approve and the run streams straight through.

The library can be embedded directly, or served over WebSocket with the
bundled server, which streams every state transition to the client in order.
*/
package lang2query
