package engine

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/open-policy-agent/opa/ast"
	"github.com/open-policy-agent/opa/cover"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"

	"regolith-hq/regolith/pkg/policy/inspect"
	"regolith-hq/regolith/pkg/policy/store"
	"regolith-hq/regolith/pkg/telemetry/metrics"
)

// Result is the outcome of a query evaluation. Value holds the first
// expression of the first result; Defined is false when the query
// evaluated to nothing.
type Result struct {
	Value   any
	Defined bool
}

// Decision is the record of one query evaluation, handed to an optional
// DecisionSink after every EvalQuery call.
type Decision struct {
	Query         string
	Value         any
	Defined       bool
	Err           error
	Duration      time.Duration
	PolicyVersion string
}

// DecisionSink receives a Decision after each evaluation. Sinks must not
// block; slow sinks should buffer internally.
type DecisionSink interface {
	RecordDecision(ctx context.Context, d Decision)
}

// Engine is a policy evaluation engine. It compiles registered Rego
// policies, evaluates queries against them, and keeps the raw policy
// sources for rule inventory extraction.
type Engine struct {
	mu sync.RWMutex

	id       string
	sources  *store.SourceStore
	modules  map[string]*ast.Module
	compiler *ast.Compiler

	input    any
	hasInput bool
	data     map[string]any

	coverEnabled bool
	coverTracer  *cover.Cover

	logger  *slog.Logger
	metrics *metrics.EngineMetrics
	sink    DecisionSink
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithMetrics attaches evaluation metrics.
func WithMetrics(m *metrics.EngineMetrics) Option {
	return func(e *Engine) {
		e.metrics = m
	}
}

// WithDecisionSink attaches a sink that receives a Decision per
// evaluation.
func WithDecisionSink(sink DecisionSink) Option {
	return func(e *Engine) {
		e.sink = sink
	}
}

// New creates a fresh engine with no policies, no input, an empty data
// document, and coverage disabled.
func New(opts ...Option) *Engine {
	e := &Engine{
		id:          uuid.NewString(),
		sources:     store.NewSourceStore(),
		modules:     make(map[string]*ast.Module),
		data:        make(map[string]any),
		coverTracer: cover.New(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(e)
	}

	e.logger = e.logger.With("component", "policy.engine", "engine_id", e.id)
	return e
}

// ID returns the engine's unique identifier.
func (e *Engine) ID() string {
	return e.id
}

// AddPolicy registers a policy under the given name. The raw source is
// retained for rule extraction even when parsing fails, so the
// inventory always reflects the last text registered under each name.
func (e *Engine) AddPolicy(name, source string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sources.Put(name, source)

	module, err := ast.ParseModule(name, source)
	if err != nil {
		return &ParseError{Policy: name, Message: "failed to parse module", Cause: err}
	}

	// Compile against a scratch module set so a failed compile leaves
	// the last good compiler in place.
	next := make(map[string]*ast.Module, len(e.modules)+1)
	for n, m := range e.modules {
		next[n] = m
	}
	next[name] = module

	compiler := ast.NewCompiler()
	compiler.Compile(next)
	if compiler.Failed() {
		return &ParseError{Policy: name, Message: "failed to compile module", Cause: compiler.Errors}
	}

	e.modules = next
	e.compiler = compiler

	if e.metrics != nil {
		e.metrics.SetPoliciesLoaded(len(e.modules))
	}

	e.logger.Debug("policy registered", "policy", name, "modules", len(e.modules))
	return nil
}

// ReplacePolicies atomically swaps the entire registered policy set.
// All sources are retained (even unparsable ones); the compile is
// all-or-nothing, so a failure leaves the previous modules in place
// while the source store still reflects the new text.
func (e *Engine) ReplacePolicies(sources map[string]string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sources.Replace(sources)

	next := make(map[string]*ast.Module, len(sources))
	for name, source := range sources {
		module, err := ast.ParseModule(name, source)
		if err != nil {
			return &ParseError{Policy: name, Message: "failed to parse module", Cause: err}
		}
		next[name] = module
	}

	compiler := ast.NewCompiler()
	compiler.Compile(next)
	if compiler.Failed() {
		return &ParseError{Message: "failed to compile module set", Cause: compiler.Errors}
	}

	e.modules = next
	e.compiler = compiler

	if e.metrics != nil {
		e.metrics.SetPoliciesLoaded(len(e.modules))
	}

	e.logger.Info("policy set replaced", "modules", len(e.modules), "version", e.sources.Version())
	return nil
}

// SetInput sets the input document from JSON text.
func (e *Engine) SetInput(jsonText string) error {
	var value any
	if err := json.Unmarshal([]byte(jsonText), &value); err != nil {
		return &JSONError{Message: "invalid input document", Cause: err}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.input = value
	e.hasInput = true
	return nil
}

// AddData merges a JSON object into the data document. Nested objects
// merge recursively; scalar and array values overwrite.
func (e *Engine) AddData(jsonText string) error {
	var value any
	if err := json.Unmarshal([]byte(jsonText), &value); err != nil {
		return &JSONError{Message: "invalid data document", Cause: err}
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return &EngineError{Operation: "add_data", Message: "data document must be a JSON object"}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	mergeObjects(e.data, obj)
	return nil
}

// ClearData resets the data document to empty.
func (e *Engine) ClearData() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.data = make(map[string]any)
}

// EvalQuery evaluates a Rego query against the registered policies and
// the current input and data documents. An empty result set yields
// Result{Defined: false} rather than an error, matching the engine's
// undefined semantics.
func (e *Engine) EvalQuery(ctx context.Context, query string) (Result, error) {
	start := time.Now()

	// Evaluation takes the write lock: the coverage tracer accumulates
	// state across calls.
	e.mu.Lock()
	result, err := e.evalLocked(ctx, query)
	version := e.sources.Version()
	sink := e.sink
	e.mu.Unlock()

	duration := time.Since(start)

	if e.metrics != nil {
		outcome := "defined"
		switch {
		case err != nil:
			outcome = "error"
		case !result.Defined:
			outcome = "undefined"
		}
		e.metrics.RecordEvaluation(outcome, duration)
	}

	if sink != nil {
		sink.RecordDecision(ctx, Decision{
			Query:         query,
			Value:         result.Value,
			Defined:       result.Defined,
			Err:           err,
			Duration:      duration,
			PolicyVersion: version,
		})
	}

	return result, err
}

// evalLocked runs the query. Callers hold the write lock.
func (e *Engine) evalLocked(ctx context.Context, query string) (Result, error) {
	opts := []func(*rego.Rego){
		rego.Query(query),
		rego.Store(inmem.NewFromObject(e.data)),
	}

	if e.compiler != nil {
		opts = append(opts, rego.Compiler(e.compiler))
	}
	if e.hasInput {
		opts = append(opts, rego.Input(e.input))
	}
	if e.coverEnabled {
		opts = append(opts, rego.QueryTracer(e.coverTracer))
	}

	rs, err := rego.New(opts...).Eval(ctx)
	if err != nil {
		return Result{}, &EvalError{Query: query, Message: "evaluation failed", Cause: err}
	}

	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Result{Defined: false}, nil
	}

	return Result{Value: rs[0].Expressions[0].Value, Defined: true}, nil
}

// Packages returns the sorted package paths of all compiled modules.
func (e *Engine) Packages() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]bool, len(e.modules))
	packages := make([]string, 0, len(e.modules))
	for _, module := range e.modules {
		path := module.Package.Path.String()
		if !seen[path] {
			seen[path] = true
			packages = append(packages, path)
		}
	}

	sort.Strings(packages)
	return packages
}

// Rules returns the rule inventory for every registered policy, keyed
// by policy name. The inventory is re-derived from the stored source
// text on every call.
func (e *Engine) Rules() map[string][]inspect.Rule {
	e.mu.RLock()
	snapshot := e.sources.Snapshot()
	e.mu.RUnlock()

	start := time.Now()
	rules := inspect.ExtractAll(snapshot)

	if e.metrics != nil {
		e.metrics.RecordExtraction(time.Since(start))
	}
	return rules
}

// Sources returns the engine's policy source store.
func (e *Engine) Sources() *store.SourceStore {
	return e.sources
}

// mergeObjects merges src into dst recursively. Object values merge,
// everything else overwrites.
func mergeObjects(dst, src map[string]any) {
	for key, value := range src {
		if srcObj, ok := value.(map[string]any); ok {
			if dstObj, ok := dst[key].(map[string]any); ok {
				mergeObjects(dstObj, srcObj)
				continue
			}
		}
		dst[key] = value
	}
}
