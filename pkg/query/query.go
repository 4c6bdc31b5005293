// Package query evaluates FHIRPath expressions over messages mapped to FHIR
// R4 resources. Compiled expressions are kept in an LRU cache.
package query

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/gofhir/fhirpath"
	"github.com/gofhir/fhirpath/funcs"
	"github.com/gofhir/fhirpath/types"

	"github.com/gofhir/hl7v2/cache"
	"github.com/gofhir/hl7v2/pkg/fhirmap"
	"github.com/gofhir/hl7v2/pkg/tree"
)

// ErrNoMessage is returned when querying a nil tree.
var ErrNoMessage = errors.New("no message to query")

var silenceTrace sync.Once

// Evaluator compiles and evaluates FHIRPath expressions.
// It is safe for concurrent use.
type Evaluator struct {
	exprs *cache.LRU[string, *fhirpath.Expression]
}

// New creates an evaluator caching up to capacity compiled expressions.
// A capacity below one uses cache.DefaultCapacity.
func New(capacity int) *Evaluator {
	silenceTrace.Do(func() {
		// trace() output goes nowhere.
		funcs.SetTraceLogger(funcs.NullTraceLogger{})
	})
	if capacity < 1 {
		capacity = cache.DefaultCapacity
	}
	return &Evaluator{exprs: cache.New[string, *fhirpath.Expression](capacity)}
}

// Compile returns the compiled form of expr, from the cache when possible.
// Expressions that fail to compile are not cached.
func (e *Evaluator) Compile(expr string) (*fhirpath.Expression, error) {
	return e.exprs.GetOrLoad(expr, func() (*fhirpath.Expression, error) {
		compiled, err := fhirpath.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("failed to compile FHIRPath expression '%s': %w", expr, err)
		}
		return compiled, nil
	})
}

// Evaluate evaluates expr against a resource given as JSON bytes, a JSON
// string, or any value that marshals to a JSON object.
func (e *Evaluator) Evaluate(expr string, resource any) (fhirpath.Collection, error) {
	resourceBytes, err := toJSON(resource)
	if err != nil {
		return nil, fmt.Errorf("failed to convert resource to JSON: %w", err)
	}

	compiled, err := e.Compile(expr)
	if err != nil {
		return nil, err
	}

	result, err := compiled.Evaluate(resourceBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate FHIRPath expression '%s': %w", expr, err)
	}
	return result, nil
}

// EvaluateBool evaluates expr with FHIRPath truthiness: empty is false, a
// single boolean is its value, anything else is true.
func (e *Evaluator) EvaluateBool(expr string, resource any) (bool, error) {
	result, err := e.Evaluate(expr, resource)
	if err != nil {
		return false, err
	}
	return toBool(result), nil
}

// EvaluateStrings evaluates expr and returns the string form of each item.
func (e *Evaluator) EvaluateStrings(expr string, resource any) ([]string, error) {
	result, err := e.Evaluate(expr, resource)
	if err != nil {
		return nil, err
	}
	return Strings(result), nil
}

// Query maps a parsed message to a collection Bundle and evaluates expr
// against it.
func (e *Evaluator) Query(ctx context.Context, expr string, root *tree.Node) (fhirpath.Collection, error) {
	if root == nil {
		return nil, ErrNoMessage
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b, err := fhirmap.Marshal(fhirmap.Bundle(root))
	if err != nil {
		return nil, fmt.Errorf("failed to map message: %w", err)
	}
	return e.Evaluate(expr, b)
}

// Stats returns the expression cache statistics.
func (e *Evaluator) Stats() cache.Stats {
	return e.exprs.Stats()
}

// ClearCache drops every compiled expression.
func (e *Evaluator) ClearCache() {
	e.exprs.Purge()
}

// Strings returns the string form of each item of a result.
func Strings(result fhirpath.Collection) []string {
	out := make([]string, 0, len(result))
	for _, v := range result {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

func toJSON(resource any) ([]byte, error) {
	switch v := resource.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return json.Marshal(v)
	}
}

func toBool(result fhirpath.Collection) bool {
	if len(result) == 0 {
		return false
	}
	if len(result) == 1 {
		if b, ok := result[0].(types.Boolean); ok {
			return b.Bool()
		}
	}
	return true
}
