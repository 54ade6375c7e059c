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

package ufunc

import (
	"reflect"
	"testing"
)

func TestGatherTranspose(t *testing.T) {
	// Gathering with permuted strides transposes the array.
	src := iotaDense(2, 3) // row-major [[0 1 2] [3 4 5]]
	st := strides(src.Shape)
	have := gather(src.Elements, 0, []int{3, 2}, []int{st[1], st[0]})
	want := []float64{0, 3, 1, 4, 2, 5}
	if !reflect.DeepEqual(have.Elements, want) {
		t.Errorf("want %v but have %v", want, have.Elements)
	}
}

func TestGatherBroadcast(t *testing.T) {
	// A zero stride repeats elements along the axis.
	src := iotaDense(3)
	have := gather(src.Elements, 0, []int{2, 3}, []int{0, 1})
	want := []float64{0, 1, 2, 0, 1, 2}
	if !reflect.DeepEqual(have.Elements, want) {
		t.Errorf("want %v but have %v", want, have.Elements)
	}
}

func TestGatherScalar(t *testing.T) {
	src := []float64{7, 8, 9}
	have := gather(src, 1, nil, nil)
	if len(have.Elements) != 1 || have.Elements[0] != 8 {
		t.Errorf("want [8] but have %v", have.Elements)
	}
}

func TestBatchMaterialization(t *testing.T) {
	// batch must place frame dimensions first, expanding absent
	// ones, and the input's core dimensions last.
	a := mustArray(t, iotaDense(2, 3), "y", "x")
	op := &Op{InputCoreDims: [][]string{{"y"}}}
	p, err := op.buildPlan([]*Array{a})
	if err != nil {
		t.Fatal(err)
	}
	b := p.inputs[0].batch(p.frameShape)
	if !reflect.DeepEqual(b.Shape, []int{3, 2}) {
		t.Fatalf("want shape [3 2] but have %v", b.Shape)
	}
	for x := 0; x < 3; x++ {
		for y := 0; y < 2; y++ {
			if b.Get(x, y) != a.Get(y, x) {
				t.Errorf("element (%d,%d) not transposed", x, y)
			}
		}
	}
}
