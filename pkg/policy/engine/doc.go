// Package engine wraps the Open Policy Agent Rego runtime behind a
// serialized, single-resource API: register policies, bind input and
// data documents, evaluate queries, and track coverage.
//
// The engine also retains the raw source text of every registered
// policy and exposes a rule inventory derived from it (see
// pkg/policy/inspect). The inventory is recomputed from the stored text
// on every call, so it can never go stale relative to the registered
// sources, including sources that failed to compile.
//
// All operations are safe for concurrent use. Writes (policy
// registration, input/data binding, evaluation with coverage) take the
// exclusive lock; pure reads share it.
package engine
