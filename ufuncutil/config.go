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
	"os"
	"path/filepath"

	"github.com/spf13/cast"

	"github.com/spatialmodel/ufunc"
)

// checkInputFile makes sure that the input file is specified and
// exists, expanding any environment variables.
func checkInputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an input file configuration variable (for example: InputFile="data.nc")`)
	}
	f = os.ExpandEnv(f)
	if _, err := os.Stat(f); err != nil {
		return f, fmt.Errorf("ufunc: the InputFile doesn't exist: %v", err)
	}
	return f, nil
}

// checkOutputFile makes sure that the output file is specified and its
// directory exists, expanding any environment variables.
func checkOutputFile(f string) (string, error) {
	if f == "" {
		return "", fmt.Errorf(`you need to specify an output file configuration variable (for example: OutputFile="result.nc")`)
	}
	f = os.ExpandEnv(f)
	outdir := filepath.Dir(f)
	if _, err := os.Stat(outdir); err != nil {
		return f, fmt.Errorf("ufunc: the OutputFile directory doesn't exist: %v", err)
	}
	return f, nil
}

// checkVariables expands environment variables in the variable list
// and ensures that at least one variable was specified.
func checkVariables(vars []string) ([]string, error) {
	if len(vars) == 0 {
		return nil, fmt.Errorf("there are no variables specified. Please fill in " +
			"the Variables configuration and try again.")
	}
	for i := range vars {
		vars[i] = os.ExpandEnv(vars[i])
	}
	return vars, nil
}

// checkReduction ensures that an available reduction was named.
func checkReduction(name string) (ufunc.Kernel, error) {
	k, ok := ufunc.Reductions[name]
	if !ok {
		var names []string
		for n := range ufunc.Reductions {
			names = append(names, n)
		}
		return nil, fmt.Errorf("ufunc: no reduction named %q; available reductions are %v", name, names)
	}
	return k, nil
}

// checkWorkers converts the worker count configuration value.
func checkWorkers(v interface{}) (int, error) {
	w, err := cast.ToIntE(v)
	if err != nil {
		return 0, fmt.Errorf("ufunc: invalid Workers value: %v", err)
	}
	return w, nil
}
