/*
Copyright © 2019 the InMAP authors.
This file is part of the ufunc library.

ufunc is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

ufunc is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with ufunc.  If not, see <http://www.gnu.org/licenses/>.
*/

package ufuncutil

import (
	"fmt"
	"math"

	"github.com/Knetic/govaluate"
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/ufunc"
)

// exprFunctions are the functions available within expressions.
// Functions include:
//
// 'exp(x)' which applies the exponential function e^x.
//
// 'log(x)' and 'log10(x)' which apply the natural and base-10
// logarithms.
//
// 'sqrt(x)', 'abs(x)', and 'pow(x, y)'.
//
// 'min(x, y)' and 'max(x, y)' which take element-wise minimums and
// maximums.
func exprFunctions() map[string]govaluate.ExpressionFunction {
	one := func(name string, f func(float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 1 {
				return nil, fmt.Errorf("ufunc: got %d arguments for function '%s', but needs 1", len(arg), name)
			}
			v, ok := arg[0].(float64)
			if !ok {
				return nil, fmt.Errorf("ufunc: function '%s' needs a number but got %T", name, arg[0])
			}
			return f(v), nil
		}
	}
	two := func(name string, f func(float64, float64) float64) govaluate.ExpressionFunction {
		return func(arg ...interface{}) (interface{}, error) {
			if len(arg) != 2 {
				return nil, fmt.Errorf("ufunc: got %d arguments for function '%s', but needs 2", len(arg), name)
			}
			x, okx := arg[0].(float64)
			y, oky := arg[1].(float64)
			if !okx || !oky {
				return nil, fmt.Errorf("ufunc: function '%s' needs numbers but got %T and %T", name, arg[0], arg[1])
			}
			return f(x, y), nil
		}
	}
	return map[string]govaluate.ExpressionFunction{
		"exp":   one("exp", math.Exp),
		"log":   one("log", math.Log),
		"log10": one("log10", math.Log10),
		"sqrt":  one("sqrt", math.Sqrt),
		"abs":   one("abs", math.Abs),
		"pow":   two("pow", math.Pow),
		"min":   two("min", math.Min),
		"max":   two("max", math.Max),
	}
}

// exprKernel evaluates an expression once per element of the
// broadcast inputs.
type exprKernel struct {
	expr  *govaluate.EvaluableExpression
	names []string
}

// NewExprKernel compiles expression into a vectorized kernel. The
// variables within the expression refer to inputs by name: names
// gives the name of each input, in order.
func NewExprKernel(expression string, names []string) (ufunc.Kernel, error) {
	e, err := govaluate.NewEvaluableExpressionWithFunctions(expression, exprFunctions())
	if err != nil {
		return nil, fmt.Errorf("ufunc: parsing expression: %v", err)
	}
	known := make(map[string]bool)
	for _, n := range names {
		known[n] = true
	}
	for _, v := range e.Vars() {
		if !known[v] {
			return nil, fmt.Errorf("ufunc: expression variable %q does not match any input name %v", v, names)
		}
	}
	return &exprKernel{expr: e, names: names}, nil
}

// Call implements the ufunc.Kernel interface.
func (k *exprKernel) Call(in []*sparse.DenseArray) ([]*sparse.DenseArray, error) {
	if len(in) != len(k.names) {
		return nil, fmt.Errorf("expression kernel needs %d inputs but got %d", len(k.names), len(in))
	}
	out := sparse.ZerosDense(in[0].Shape...)
	params := make(map[string]interface{}, len(k.names))
	for i := range out.Elements {
		for j, n := range k.names {
			params[n] = in[j].Elements[i]
		}
		v, err := k.expr.Evaluate(params)
		if err != nil {
			return nil, err
		}
		f, ok := v.(float64)
		if !ok {
			return nil, fmt.Errorf("expression returned %T; it needs to return a number", v)
		}
		out.Elements[i] = f
	}
	return []*sparse.DenseArray{out}, nil
}
