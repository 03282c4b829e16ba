package broadcast

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/cel-go/cel"

	"github.com/rzbill/pushsub/internal/subscription"
)

// Filter is a compiled CEL expression selecting subscriptions. The
// expression sees provider, feature, id (strings), registered_ms and
// now_ms (ints) and must evaluate to a bool.
type Filter struct {
	expr string
	prog cel.Program
}

// NewFilter compiles expr. An empty expression yields a nil Filter, which
// matches everything.
func NewFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	env, err := cel.NewEnv(
		cel.Variable("provider", cel.StringType),
		cel.Variable("feature", cel.StringType),
		cel.Variable("id", cel.StringType),
		cel.Variable("registered_ms", cel.IntType),
		cel.Variable("now_ms", cel.IntType),
	)
	if err != nil {
		return nil, err
	}
	ast, iss := env.Parse(expr)
	if iss != nil && iss.Err() != nil {
		return nil, iss.Err()
	}
	checked, iss2 := env.Check(ast)
	if iss2 != nil && iss2.Err() != nil {
		return nil, iss2.Err()
	}
	if !checked.OutputType().IsExactType(cel.BoolType) {
		return nil, fmt.Errorf("broadcast: filter must evaluate to bool, got %s", checked.OutputType())
	}
	prog, err := env.Program(checked)
	if err != nil {
		return nil, err
	}
	return &Filter{expr: expr, prog: prog}, nil
}

// String returns the source expression.
func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match evaluates the filter for sub. A nil Filter matches everything.
func (f *Filter) Match(sub subscription.Subscription, now time.Time) (bool, error) {
	if f == nil {
		return true, nil
	}
	var registered int64
	if !sub.RegisteredAt.IsZero() {
		registered = sub.RegisteredAt.UnixMilli()
	}
	out, _, err := f.prog.Eval(map[string]any{
		"provider":      sub.Provider,
		"feature":       sub.Feature,
		"id":            sub.ID,
		"registered_ms": registered,
		"now_ms":        now.UnixMilli(),
	})
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	return ok && b, nil
}
