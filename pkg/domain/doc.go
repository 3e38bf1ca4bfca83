/*
Package domain contains the core domain models for the lang2query engine.

It defines the fundamental entities of the workflow: the State record carried
through a run, the Step machine, the Decision returned by every stage, and the
checkpoint/feedback types used for human review. This package is kept pure and
free of external dependencies so it can be shared by the orchestrator, the
stages, and every adapter without import cycles.
*/
package domain
