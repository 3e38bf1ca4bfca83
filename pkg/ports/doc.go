/*
Package ports defines the interfaces between the orchestration core and the
outside world.

Two families live here. Stage and the collaborator interfaces (Classifier,
SchemaCatalog, QueryGenerator, ...) are consumed by the engine and implemented
by whatever produces decisions: an LLM-backed service, a retrieval index, or
the deterministic catalog adapter used in tests. StateStore and
DistributedLocker are infrastructure ports implemented by the memory and redis
adapters.
*/
package ports
