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
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strings"

	"github.com/lnashier/viper"

	"github.com/spatialmodel/ufunc"
	"github.com/spatialmodel/ufunc/ndio"
)

// Describe writes a listing of the data variables in the NetCDF file
// at path to w.
func Describe(w io.Writer, path string) error {
	r, err := os.Open(path)
	if err != nil {
		return err
	}
	defer r.Close()
	f, err := ndio.Open(r)
	if err != nil {
		return err
	}
	vars := f.Variables()
	sort.Strings(vars)
	for _, v := range vars {
		dims := f.Header.Dimensions(v)
		lengths := f.Header.Lengths(v)
		parts := make([]string, len(dims))
		for i, d := range dims {
			parts[i] = fmt.Sprintf("%s:%d", d, lengths[i])
		}
		line := fmt.Sprintf("%s(%s)", v, strings.Join(parts, ", "))
		if u, ok := f.Header.GetAttribute(v, "units").(string); ok && u != "" {
			line += " [" + u + "]"
		}
		if d, ok := f.Header.GetAttribute(v, "description").(string); ok && d != "" {
			line += " " + d
		}
		fmt.Fprintln(w, line)
	}
	return nil
}

// Apply executes the operation specified by cfg: either a reduction
// of each listed variable over the configured dimensions, or an
// element-by-element expression combining all of the listed
// variables.
func Apply(cfg *viper.Viper) error {
	inputFile, err := checkInputFile(cfg.GetString("InputFile"))
	if err != nil {
		return err
	}
	outputFile, err := checkOutputFile(cfg.GetString("OutputFile"))
	if err != nil {
		return err
	}
	vars, err := checkVariables(cfg.GetStringSlice("Variables"))
	if err != nil {
		return err
	}
	workers, err := checkWorkers(cfg.Get("Workers"))
	if err != nil {
		return err
	}

	r, err := os.Open(inputFile)
	if err != nil {
		return err
	}
	defer r.Close()
	f, err := ndio.Open(r)
	if err != nil {
		return err
	}
	inputs := make([]*ufunc.Array, len(vars))
	for i, v := range vars {
		if inputs[i], err = f.Read(v); err != nil {
			return err
		}
	}

	var results []*ufunc.Array
	if expr := cfg.GetString("Expr"); expr != "" {
		results, err = applyExpr(expr, cfg.GetString("OutputName"), workers, vars, inputs)
	} else {
		results, err = applyReduction(cfg.GetString("Reduction"), cfg.GetStringSlice("Over"), workers, inputs)
	}
	if err != nil {
		return err
	}

	w, err := os.Create(outputFile)
	if err != nil {
		return err
	}
	defer w.Close()
	if err := ndio.Write(w, results...); err != nil {
		return err
	}
	log.Println("wrote", outputFile)
	return nil
}

// applyReduction collapses the over dimensions of each input
// separately.
func applyReduction(name string, over []string, workers int, inputs []*ufunc.Array) ([]*ufunc.Array, error) {
	kernel, err := checkReduction(name)
	if err != nil {
		return nil, err
	}
	if len(over) == 0 {
		return nil, fmt.Errorf("ufunc: a reduction needs at least one dimension in the Over configuration")
	}
	op := &ufunc.Op{
		InputCoreDims: [][]string{over},
		Workers:       workers,
	}
	results := make([]*ufunc.Array, len(inputs))
	for i, in := range inputs {
		log.Println("reducing", in.Name)
		res, err := op.Apply(context.Background(), kernel, in)
		if err != nil {
			return nil, err
		}
		results[i] = res[0]
		results[i].Name = in.Name + "_" + name
		results[i].Units = in.Units
	}
	return results, nil
}

// applyExpr evaluates an expression element-by-element over the
// broadcast inputs.
func applyExpr(expr, outputName string, workers int, names []string, inputs []*ufunc.Array) ([]*ufunc.Array, error) {
	kernel, err := NewExprKernel(expr, names)
	if err != nil {
		return nil, err
	}
	op := &ufunc.Op{
		InputCoreDims: make([][]string, len(inputs)),
		Mode:          ufunc.Vectorized,
		Workers:       workers,
	}
	log.Println("evaluating", expr)
	res, err := op.Apply(context.Background(), kernel, inputs...)
	if err != nil {
		return nil, err
	}
	res[0].Name = outputName
	if res[0].Name == "" {
		res[0].Name = "result"
	}
	res[0].Description = expr
	return res, nil
}
