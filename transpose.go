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

import "github.com/ctessum/sparse"

// gather copies the elements of src selected by base, shape, and
// per-axis strides into a new contiguous array of the given shape.
// A zero stride repeats the same elements along that axis, which is
// how absent dimensions are broadcast without physical duplication
// in the source.
func gather(src []float64, base int, shape, axisStrides []int) *sparse.DenseArray {
	out := sparse.ZerosDense(shape...)
	n := len(out.Elements)
	idx := make([]int, len(shape))
	off := base
	for i := 0; i < n; i++ {
		out.Elements[i] = src[off]
		for k := len(shape) - 1; k >= 0; k-- {
			idx[k]++
			off += axisStrides[k]
			if idx[k] < shape[k] {
				break
			}
			idx[k] = 0
			off -= axisStrides[k] * shape[k]
		}
	}
	return out
}

// coreBlock extracts the core-dimension-only sub-array of one input
// for the broadcast cell at the given frame index.
func (ip *inputPlan) coreBlock(frameIdx []int) *sparse.DenseArray {
	base := offset(frameIdx, ip.loopStrides)
	return gather(ip.arr.Elements, base, ip.coreShape, ip.coreStrides)
}

// batch materializes the fully transposed input for vectorized
// application: loop dimensions leading in frame order (broadcast
// stretches expanded) followed by the input's core dimensions in
// requested order.
func (ip *inputPlan) batch(frameShape []int) *sparse.DenseArray {
	shape := append(append([]int{}, frameShape...), ip.coreShape...)
	axisStrides := append(append([]int{}, ip.loopStrides...), ip.coreStrides...)
	return gather(ip.arr.Elements, 0, shape, axisStrides)
}
