package sandbox

import (
	"fmt"
	"math"

	"github.com/karthik2365/data-cleaning/internal/domain"

	starlarkmath "go.starlark.net/lib/math"
	"go.starlark.net/starlark"
)

// execPredeclared builds the execution environment: the working table
// under its internal name, the pure math module, and the two numeric
// builtins the universe lacks. Everything else scripts can reach comes
// from the interpreter's own pure universe, gated by the validator.
func execPredeclared(work *domain.Table) starlark.StringDict {
	return starlark.StringDict{
		inputGlobal: newTableValue(work),
		"math":      starlarkmath.Module,
		"sum":       starlark.NewBuiltin("sum", builtinSum),
		"round":     starlark.NewBuiltin("round", builtinRound),
	}
}

// builtinSum adds the numbers of an iterable. None elements are skipped so
// columns with missing cells sum cleanly; booleans count as 0 or 1. The
// result is an int unless a float contributed.
func builtinSum(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var iterable starlark.Iterable
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "iterable", &iterable); err != nil {
		return nil, err
	}

	var (
		intSum   int64
		floatSum float64
		isFloat  bool
	)
	it := iterable.Iterate()
	defer it.Done()
	var elem starlark.Value
	for it.Next(&elem) {
		switch e := elem.(type) {
		case starlark.NoneType:
		case starlark.Bool:
			if e {
				intSum++
			}
		case starlark.Int:
			i, ok := e.Int64()
			if !ok {
				return nil, fmt.Errorf("sum: integer out of range")
			}
			intSum += i
		case starlark.Float:
			isFloat = true
			floatSum += float64(e)
		default:
			return nil, fmt.Errorf("sum: cannot add %s", elem.Type())
		}
	}
	if isFloat {
		return starlark.Float(float64(intSum) + floatSum), nil
	}
	return starlark.MakeInt64(intSum), nil
}

// builtinRound rounds half away from zero. With no ndigits the result is
// an int; with ndigits the result keeps that many decimal places.
func builtinRound(_ *starlark.Thread, b *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	var x starlark.Value
	ndigits := 0
	if err := starlark.UnpackArgs(b.Name(), args, kwargs, "x", &x, "ndigits?", &ndigits); err != nil {
		return nil, err
	}
	switch v := x.(type) {
	case starlark.Int:
		return v, nil
	case starlark.Float:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, fmt.Errorf("round: cannot round non-finite number %v", v)
		}
		if ndigits <= 0 {
			r := math.Round(f)
			if r < math.MinInt64 || r > math.MaxInt64 {
				return nil, fmt.Errorf("round: result out of range")
			}
			return starlark.MakeInt64(int64(r)), nil
		}
		shift := math.Pow(10, float64(ndigits))
		return starlark.Float(math.Round(f*shift) / shift), nil
	}
	return nil, fmt.Errorf("round: got %s, want int or float", x.Type())
}
