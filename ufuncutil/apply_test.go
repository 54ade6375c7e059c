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
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/lnashier/viper"

	"github.com/spatialmodel/ufunc"
	"github.com/spatialmodel/ufunc/ndio"
)

// writeTestFile creates a NetCDF file holding a temperature variable
// with shape [lat:2, lon:3] and values 1 through 6.
func writeTestFile(t *testing.T, path string) {
	t.Helper()
	temperature := testInput(t, "temperature", []int{2, 3}, "lat", "lon")
	temperature.Units = "K"
	temperature.Coords = map[string][]float64{"lat": {10, 20}}
	w, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()
	if err := ndio.Write(w, temperature); err != nil {
		t.Fatal(err)
	}
}

func readResult(t *testing.T, path, name string) *ufunc.Array {
	t.Helper()
	r, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	f, err := ndio.Open(r)
	if err != nil {
		t.Fatal(err)
	}
	a, err := f.Read(name)
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestApplyReduction(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.nc")
	out := filepath.Join(dir, "out.nc")
	writeTestFile(t, in)

	cfg := viper.New()
	cfg.Set("InputFile", in)
	cfg.Set("OutputFile", out)
	cfg.Set("Variables", []string{"temperature"})
	cfg.Set("Over", []string{"lon"})
	cfg.Set("Reduction", "sum")
	cfg.Set("Workers", 1)
	if err := Apply(cfg); err != nil {
		t.Fatal(err)
	}

	res := readResult(t, out, "temperature_sum")
	if !reflect.DeepEqual(res.Dims, []string{"lat"}) {
		t.Fatalf("want dims [lat] but have %v", res.Dims)
	}
	if want := []float64{6, 15}; !reflect.DeepEqual(res.Elements, want) {
		t.Errorf("want %v but have %v", want, res.Elements)
	}
	if res.Units != "K" {
		t.Errorf("want units K but have %q", res.Units)
	}
	if want := []float64{10, 20}; !reflect.DeepEqual(res.Coords["lat"], want) {
		t.Errorf("want lat coordinates %v but have %v", want, res.Coords["lat"])
	}
}

func TestApplyExpr(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "in.nc")
	out := filepath.Join(dir, "out.nc")
	writeTestFile(t, in)

	cfg := viper.New()
	cfg.Set("InputFile", in)
	cfg.Set("OutputFile", out)
	cfg.Set("Variables", []string{"temperature"})
	cfg.Set("Expr", "temperature * 2 + 1")
	cfg.Set("OutputName", "scaled")
	if err := Apply(cfg); err != nil {
		t.Fatal(err)
	}

	res := readResult(t, out, "scaled")
	if !reflect.DeepEqual(res.Dims, []string{"lat", "lon"}) {
		t.Fatalf("want dims [lat lon] but have %v", res.Dims)
	}
	if want := []float64{3, 5, 7, 9, 11, 13}; !reflect.DeepEqual(res.Elements, want) {
		t.Errorf("want %v but have %v", want, res.Elements)
	}
	if res.Description != "temperature * 2 + 1" {
		t.Errorf("unexpected description %q", res.Description)
	}
}

func TestApplyMissingConfig(t *testing.T) {
	cfg := viper.New()
	if err := Apply(cfg); err == nil {
		t.Error("want an error when no input file is configured")
	}
}

func TestDescribe(t *testing.T) {
	in := filepath.Join(t.TempDir(), "in.nc")
	writeTestFile(t, in)
	var b bytes.Buffer
	if err := Describe(&b, in); err != nil {
		t.Fatal(err)
	}
	have := b.String()
	if !strings.Contains(have, "temperature(lat:2, lon:3) [K]") {
		t.Errorf("unexpected listing %q", have)
	}
	if strings.Contains(have, "lat(") {
		t.Errorf("coordinate variables should not be listed: %q", have)
	}
}
