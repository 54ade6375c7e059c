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
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCheckInputFile(t *testing.T) {
	if _, err := checkInputFile(""); err == nil {
		t.Error("want an error for an empty input file")
	}
	if _, err := checkInputFile(filepath.Join(t.TempDir(), "missing.nc")); err == nil {
		t.Error("want an error for a nonexistent input file")
	}
	f := filepath.Join(t.TempDir(), "in.nc")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}
	have, err := checkInputFile(f)
	if err != nil {
		t.Fatal(err)
	}
	if have != f {
		t.Errorf("want %s but have %s", f, have)
	}
}

func TestCheckInputFileExpand(t *testing.T) {
	dir := t.TempDir()
	f := filepath.Join(dir, "in.nc")
	if err := os.WriteFile(f, nil, 0644); err != nil {
		t.Fatal(err)
	}
	os.Setenv("UFUNC_TEST_DIR", dir)
	defer os.Unsetenv("UFUNC_TEST_DIR")
	have, err := checkInputFile(filepath.Join("${UFUNC_TEST_DIR}", "in.nc"))
	if err != nil {
		t.Fatal(err)
	}
	if have != f {
		t.Errorf("want %s but have %s", f, have)
	}
}

func TestCheckOutputFile(t *testing.T) {
	if _, err := checkOutputFile(""); err == nil {
		t.Error("want an error for an empty output file")
	}
	if _, err := checkOutputFile(filepath.Join(t.TempDir(), "missing", "out.nc")); err == nil {
		t.Error("want an error for a nonexistent output directory")
	}
	f := filepath.Join(t.TempDir(), "out.nc")
	if have, err := checkOutputFile(f); err != nil {
		t.Fatal(err)
	} else if have != f {
		t.Errorf("want %s but have %s", f, have)
	}
}

func TestCheckVariables(t *testing.T) {
	if _, err := checkVariables(nil); err == nil {
		t.Error("want an error for an empty variable list")
	}
	have, err := checkVariables([]string{"so4", "no3"})
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"so4", "no3"}; !reflect.DeepEqual(have, want) {
		t.Errorf("want %v but have %v", want, have)
	}
}

func TestCheckReduction(t *testing.T) {
	for _, name := range []string{"sum", "min", "max", "mean", "stddev"} {
		if _, err := checkReduction(name); err != nil {
			t.Errorf("%s: %v", name, err)
		}
	}
	if _, err := checkReduction("median"); err == nil {
		t.Error("want an error for an unknown reduction")
	}
}

func TestCheckWorkers(t *testing.T) {
	if have, err := checkWorkers(4); err != nil || have != 4 {
		t.Errorf("want 4, <nil> but have %d, %v", have, err)
	}
	if have, err := checkWorkers("2"); err != nil || have != 2 {
		t.Errorf("want 2, <nil> but have %d, %v", have, err)
	}
	if have, err := checkWorkers(nil); err != nil || have != 0 {
		t.Errorf("want 0, <nil> but have %d, %v", have, err)
	}
	if _, err := checkWorkers("lots"); err == nil {
		t.Error("want an error for a non-numeric worker count")
	}
}
