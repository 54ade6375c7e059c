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

import "fmt"

// plan holds everything derived from one invocation's inputs before
// any kernel call: the broadcast frame, per-input axis reorderings
// expressed as strides, and the expected output layout. It is built
// once per call and discarded when the call returns.
type plan struct {
	// frameDims are the loop dimensions of all inputs, in
	// first-seen order, and frameShape holds their broadcast-
	// reconciled sizes.
	frameDims  []string
	frameShape []int
	nCells     int

	inputs  []inputPlan
	outputs []outputPlan

	// excluded dimensions are exempt from size reconciliation and
	// may be resized by the kernel.
	excluded map[string]bool

	// knownSizes holds the reconciled size of every non-excluded
	// core dimension, for post-call size validation.
	knownSizes map[string]int
}

// inputPlan describes how to view one input with loop dimensions
// leading in frame order and core dimensions trailing in the
// requested order.
type inputPlan struct {
	arr *Array

	// loopStrides has one element stride per frame dimension.
	// A zero stride marks a dimension the input doesn't have, or
	// has with size 1 while the frame is larger; stepping the
	// frame then revisits the same elements (a broadcast stretch,
	// with no physical copy).
	loopStrides []int

	coreDims    []string
	coreShape   []int
	coreStrides []int
	coreSize    int
}

// outputPlan describes the declared core dimensions of one output.
// A size of -1 means the size isn't known until the kernel has run
// (a new dimension with no configured size, or an excluded one).
type outputPlan struct {
	coreDims  []string
	coreShape []int
}

func (o *outputPlan) resolved() bool {
	for _, s := range o.coreShape {
		if s < 0 {
			return false
		}
	}
	return true
}

// buildPlan validates the inputs against the invocation configuration
// and derives the invocation plan. All validation failures happen
// here, before any kernel call.
func (op *Op) buildPlan(inputs []*Array) (*plan, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("ufunc: no inputs")
	}
	inCore := op.InputCoreDims
	if inCore == nil {
		inCore = make([][]string, len(inputs))
	}
	if len(inCore) != len(inputs) {
		return nil, fmt.Errorf("ufunc: %d inputs but %d input core dimension lists",
			len(inputs), len(inCore))
	}
	outCore := op.OutputCoreDims
	if outCore == nil {
		outCore = [][]string{{}}
	}

	p := &plan{
		excluded:   make(map[string]bool),
		knownSizes: make(map[string]int),
	}
	for _, d := range op.ExcludeDims {
		p.excluded[d] = true
	}

	// Classify each input's dimensions as core or loop, and check
	// that every requested core dimension exists and that shared
	// core dimensions agree on size.
	coreOwner := make(map[string]int) // input that first contributed each core dim
	isCore := make(map[string]bool)
	for i, arr := range inputs {
		seen := make(map[string]bool)
		for _, d := range inCore[i] {
			if seen[d] {
				return nil, fmt.Errorf("ufunc: dimension %q repeated in core dimensions of %s",
					d, arr.label(i))
			}
			seen[d] = true
			ax := arr.dimIndex(d)
			if ax < 0 {
				return nil, &MissingDimensionError{Dim: d, Array: arr.label(i)}
			}
			size := arr.Shape[ax]
			if !p.excluded[d] {
				if prev, ok := p.knownSizes[d]; ok && prev != size {
					j := coreOwner[d]
					return nil, &SizeMismatchError{
						Dim:    d,
						Array1: inputs[j].label(j), Size1: prev,
						Array2: arr.label(i), Size2: size,
					}
				} else if !ok {
					p.knownSizes[d] = size
					coreOwner[d] = i
				}
			}
			isCore[d] = true
		}
	}

	// The remaining dimensions form the broadcast frame, ordered by
	// first appearance and reconciled by broadcasting rules.
	frameSize := make(map[string]int)
	for i, arr := range inputs {
		core := make(map[string]bool)
		for _, d := range inCore[i] {
			core[d] = true
		}
		for ax, d := range arr.Dims {
			if core[d] {
				continue
			}
			if isCore[d] {
				return nil, fmt.Errorf("ufunc: dimension %q is a core dimension of one input but a loop dimension of %s",
					d, arr.label(i))
			}
			size := arr.Shape[ax]
			prev, ok := frameSize[d]
			switch {
			case !ok:
				p.frameDims = append(p.frameDims, d)
				frameSize[d] = size
			case prev == size:
			case prev == 1:
				frameSize[d] = size
			case size == 1:
			default:
				return nil, &BroadcastError{Dim: d, Size1: prev, Size2: size}
			}
		}
	}
	p.frameShape = make([]int, len(p.frameDims))
	for i, d := range p.frameDims {
		p.frameShape[i] = frameSize[d]
	}
	p.nCells = shapeSize(p.frameShape)

	// Per-input axis reordering, expressed as strides into the
	// original storage: one stride per frame dimension (zero for
	// broadcast stretches) followed by one per core dimension.
	for i, arr := range inputs {
		st := strides(arr.Shape)
		ip := inputPlan{
			arr:         arr,
			loopStrides: make([]int, len(p.frameDims)),
			coreDims:    inCore[i],
		}
		for k, d := range p.frameDims {
			ax := arr.dimIndex(d)
			if ax < 0 || (arr.Shape[ax] == 1 && p.frameShape[k] > 1) {
				ip.loopStrides[k] = 0
			} else {
				ip.loopStrides[k] = st[ax]
			}
		}
		for _, d := range ip.coreDims {
			ax := arr.dimIndex(d)
			ip.coreShape = append(ip.coreShape, arr.Shape[ax])
			ip.coreStrides = append(ip.coreStrides, st[ax])
		}
		ip.coreSize = shapeSize(ip.coreShape)
		p.inputs = append(p.inputs, ip)
	}

	// Output core dimension sizes, where they can be known before
	// the kernel runs.
	for j, dims := range outCore {
		o := outputPlan{coreDims: dims, coreShape: make([]int, len(dims))}
		seen := make(map[string]bool)
		for k, d := range dims {
			if seen[d] {
				return nil, fmt.Errorf("ufunc: dimension %q repeated in core dimensions of output %d", d, j)
			}
			seen[d] = true
			if _, ok := frameSize[d]; ok {
				return nil, fmt.Errorf("ufunc: output %d core dimension %q is also a loop dimension", j, d)
			}
			switch size, ok := op.OutputSizes[d]; {
			case ok:
				o.coreShape[k] = size
			case !p.excluded[d]:
				if size, ok := p.knownSizes[d]; ok {
					o.coreShape[k] = size
				} else {
					o.coreShape[k] = -1
				}
			default:
				o.coreShape[k] = -1
			}
		}
		p.outputs = append(p.outputs, o)
	}

	// With an empty frame the kernel never runs in loop mode, so
	// sizes that would be learned from its first result can never
	// be resolved.
	if p.nCells == 0 && op.Mode == Loop {
		for j := range p.outputs {
			if !p.outputs[j].resolved() {
				return nil, fmt.Errorf("ufunc: output %d: cannot determine the size of core dimensions %v with an empty broadcast frame; specify OutputSizes",
					j, p.outputs[j].coreDims)
			}
		}
	}

	return p, nil
}

// frameCoords returns the coordinate labels to attach to the frame
// dimension named d of an output, taken from the first input that
// spans the full dimension.
func (p *plan) frameCoords(d string, size int) []float64 {
	for _, ip := range p.inputs {
		if s, ok := ip.arr.DimSize(d); ok && s == size {
			if c, ok := ip.arr.Coords[d]; ok {
				return c
			}
		}
	}
	return nil
}

// coreCoords returns the coordinate labels for an output core
// dimension named d, provided its size survived the call unchanged.
func (p *plan) coreCoords(d string, size int) []float64 {
	if p.excluded[d] {
		return nil
	}
	if s, ok := p.knownSizes[d]; !ok || s != size {
		return nil
	}
	for _, ip := range p.inputs {
		if s, ok := ip.arr.DimSize(d); ok && s == size {
			if c, ok := ip.arr.Coords[d]; ok {
				return c
			}
		}
	}
	return nil
}
