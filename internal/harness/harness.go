package harness

import (
	"fmt"
	"io"
	"log/slog"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/roach88/reval/reactive"
	"golang.org/x/text/unicode/norm"
)

// TraceEvent is one entry in a scenario's execution trace.
type TraceEvent struct {
	Seq   int    `json:"seq"`
	Type  string `json:"type"`
	Expr  string `json:"expr,omitempty"`
	Path  string `json:"path,omitempty"`
	Label string `json:"label,omitempty"`
	Value string `json:"value,omitempty"`
	Error string `json:"error,omitempty"`
}

// Trace event types.
const (
	EventEval          = "eval"
	EventObserveInit   = "observe_init"
	EventObserveUpdate = "observe_update"
	EventWrite         = "write"
	EventCompose       = "compose"
	EventCleanup       = "cleanup"
	EventTrigger       = "trigger"
	EventError         = "error"
)

// Result holds the outcome of running a scenario.
type Result struct {
	// Trace is the ordered event log.
	Trace []TraceEvent

	// Failures lists expectation and assertion mismatches. Evaluation
	// errors during a step land in the trace, not here, unless the
	// step carried an expectation.
	Failures []string
}

// Passed reports whether the scenario ran with no failures.
func (r *Result) Passed() bool { return len(r.Failures) == 0 }

// runner executes one scenario.
type runner struct {
	scenario *Scenario
	scopes   []*reactive.State
	trace    []TraceEvent
	failures []string
	seq      int
}

// Run executes a scenario and returns its trace and failures. A
// non-nil error means the scenario itself is unrunnable (bad scope
// nesting, state creation failure), not that an expectation failed.
func Run(scenario *Scenario) (*Result, error) {
	// One identifier per scope keeps golden traces stable across runs.
	tokens := []string{"state-0001"}
	n := 1
	for _, step := range scenario.Steps {
		if step.Compose != nil {
			n++
			tokens = append(tokens, fmt.Sprintf("state-%04d", n))
		}
	}

	root := reactive.CreateState(
		normalizeState(scenario.State),
		reactive.WithIDGenerator(reactive.NewFixedGenerator(tokens...)),
		reactive.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)

	r := &runner{scenario: scenario, scopes: []*reactive.State{root}}
	for i, step := range scenario.Steps {
		if err := r.runStep(i, step); err != nil {
			return nil, err
		}
	}
	r.runAssertions()

	return &Result{Trace: r.trace, Failures: r.failures}, nil
}

// current returns the innermost scope.
func (r *runner) current() *reactive.State {
	return r.scopes[len(r.scopes)-1]
}

func (r *runner) emit(ev TraceEvent) {
	ev.Seq = r.seq
	r.seq++
	r.trace = append(r.trace, ev)
}

func (r *runner) fail(format string, args ...any) {
	r.failures = append(r.failures, fmt.Sprintf(format, args...))
}

func (r *runner) runStep(index int, step Step) error {
	switch {
	case step.Eval != "":
		r.runEval(index, step)
	case step.Observe != "":
		r.runObserve(step)
	case step.Write != nil:
		r.runWrite(step)
	case step.Compose != nil:
		r.runCompose(step)
	case step.Cleanup:
		if len(r.scopes) == 1 {
			return fmt.Errorf("steps[%d]: cleanup with no composed scope", index)
		}
		child := r.scopes[len(r.scopes)-1]
		parent := r.scopes[len(r.scopes)-2]
		r.scopes = r.scopes[:len(r.scopes)-1]
		if err := reactive.Cleanup(parent, child); err != nil {
			return fmt.Errorf("steps[%d]: cleanup: %w", index, err)
		}
		r.emit(TraceEvent{Type: EventCleanup, Label: child.ID()})
	case step.Trigger != "":
		if err := reactive.Trigger(r.current(), step.Trigger); err != nil {
			r.emit(TraceEvent{Type: EventError, Path: step.Trigger, Error: err.Error()})
			return nil
		}
		r.emit(TraceEvent{Type: EventTrigger, Path: step.Trigger})
	}
	return nil
}

func (r *runner) runEval(index int, step Step) {
	value, err := reactive.Evaluate(r.current(), step.Eval, step.AllowWrites)
	if err != nil {
		r.emit(TraceEvent{Type: EventError, Expr: step.Eval, Error: err.Error()})
		if step.Expect != nil {
			r.fail("steps[%d]: eval %q failed: %v", index, step.Eval, err)
		}
		return
	}

	r.emit(TraceEvent{Type: EventEval, Expr: step.Eval, Value: renderValue(value)})
	if step.Expect != nil && !valuesEqual(value, step.Expect) {
		r.fail("steps[%d]: eval %q = %s, expected %s",
			index, step.Eval, renderValue(value), renderValue(normalizeValue(step.Expect)))
	}
}

func (r *runner) runObserve(step Step) {
	label := step.As
	if label == "" {
		label = step.Observe
	}

	first := true
	err := reactive.Observe(r.current(), step.Observe, func(value any, err error) {
		eventType := EventObserveUpdate
		if first {
			eventType = EventObserveInit
			first = false
		}
		if err != nil {
			r.emit(TraceEvent{Type: eventType, Expr: step.Observe, Label: label, Error: err.Error()})
			return
		}
		r.emit(TraceEvent{Type: eventType, Expr: step.Observe, Label: label, Value: renderValue(value)})
	})
	if err != nil {
		r.emit(TraceEvent{Type: EventError, Expr: step.Observe, Label: label, Error: err.Error()})
	}
}

func (r *runner) runWrite(step Step) {
	set, err := reactive.GetSetter(r.current(), step.Write.Path)
	if err != nil {
		r.emit(TraceEvent{Type: EventError, Path: step.Write.Path, Error: err.Error()})
		return
	}
	value := normalizeValue(step.Write.Value)
	if err := set(value); err != nil {
		r.emit(TraceEvent{Type: EventError, Path: step.Write.Path, Error: err.Error()})
		return
	}
	r.emit(TraceEvent{Type: EventWrite, Path: step.Write.Path, Value: renderValue(value)})
}

func (r *runner) runCompose(step Step) {
	aliases := make(map[string]any, len(step.Compose.Aliases)+len(step.Compose.Values))
	for name, src := range step.Compose.Aliases {
		aliases[name] = src
	}
	for name, value := range step.Compose.Values {
		aliases[name] = normalizeValue(value)
	}

	child := reactive.Compose(r.current(), aliases)
	r.scopes = append(r.scopes, child)

	names := make([]string, 0, len(aliases))
	for name := range aliases {
		names = append(names, name)
	}
	sort.Strings(names)
	r.emit(TraceEvent{Type: EventCompose, Label: child.ID(), Value: strings.Join(names, ",")})
}

func (r *runner) runAssertions() {
	for i, assertion := range r.scenario.Assertions {
		value, err := reactive.Evaluate(r.current(), assertion.Expr, false)
		if err != nil {
			r.fail("assertions[%d]: eval %q failed: %v", i, assertion.Expr, err)
			continue
		}
		if !valuesEqual(value, assertion.Expect) {
			r.fail("assertions[%d]: %q = %s, expected %s",
				i, assertion.Expr, renderValue(value), renderValue(normalizeValue(assertion.Expect)))
		}
	}
}

// valuesEqual compares an evaluation result against an expected value
// from YAML, normalizing both to evaluator-native shapes first.
func valuesEqual(got, expected any) bool {
	return reflect.DeepEqual(plainValue(got), normalizeValue(expected))
}

// plainValue strips container wrappers so comparisons and rendering
// see the underlying data.
func plainValue(v any) any {
	if c, ok := v.(*reactive.Container); ok {
		return c.Plain()
	}
	return v
}

// normalizeState normalizes a decoded YAML mapping for CreateState.
func normalizeState(state map[string]any) map[string]any {
	out, _ := normalizeValue(state).(map[string]any)
	if out == nil {
		out = map[string]any{}
	}
	return out
}

// normalizeValue rewrites decoded YAML values into evaluator-native
// shapes: string-keyed maps, []any slices, float64 numbers.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[fmt.Sprintf("%v", k)] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case uint64:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return val
	}
}

// renderValue renders a value deterministically: object keys sorted,
// strings NFC-normalized and quoted, integral floats without a
// fraction. Used for trace events so golden files are stable even
// when scenario inputs use different Unicode forms of the same text.
func renderValue(v any) string {
	switch val := plainValue(v).(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'g', -1, 64)
	case string:
		return strconv.Quote(norm.NFC.String(val))
	case []any:
		parts := make([]string, len(val))
		for i, item := range val {
			parts[i] = renderValue(item)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = strconv.Quote(norm.NFC.String(k)) + ": " + renderValue(val[k])
		}
		return "{" + strings.Join(parts, ", ") + "}"
	default:
		return fmt.Sprintf("%v", val)
	}
}
