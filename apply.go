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
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/ctessum/sparse"
)

// Mode selects how the kernel is invoked.
type Mode int

const (
	// Loop calls the kernel once per broadcast cell, passing each
	// input's core-dimension-only sub-array for that cell. The
	// kernel must return one array per output with exactly the
	// declared output core dimensions.
	Loop Mode = iota

	// Vectorized calls the kernel exactly once, passing each input
	// as a whole with loop dimensions leading and core dimensions
	// trailing. The kernel must treat its leading axes as
	// independent batches, and must return arrays whose leading
	// axes are the full broadcast frame followed by the declared
	// output core dimensions.
	Vectorized
)

// Kernel is a function applied to array data. Whether it receives one
// cell at a time or the whole batch is determined by the Op's Mode.
type Kernel interface {
	Call(inputs []*sparse.DenseArray) ([]*sparse.DenseArray, error)
}

// KernelFunc adapts an ordinary function to the Kernel interface.
type KernelFunc func(inputs []*sparse.DenseArray) ([]*sparse.DenseArray, error)

// Call implements the Kernel interface.
func (f KernelFunc) Call(inputs []*sparse.DenseArray) ([]*sparse.DenseArray, error) {
	return f(inputs)
}

// Op configures one style of kernel invocation. An Op holds no state
// between calls and may be reused and shared between goroutines.
type Op struct {
	// InputCoreDims names each input's core dimensions, one list
	// per input, in the axis order the kernel expects. Dimensions
	// not listed are loop dimensions and are broadcast. A nil
	// value means no input has core dimensions.
	InputCoreDims [][]string

	// OutputCoreDims names each output's core dimensions. A nil
	// value means one output with no core dimensions.
	OutputCoreDims [][]string

	// ExcludeDims lists dimensions that are exempt from size
	// reconciliation between inputs and may be resized by the
	// kernel.
	ExcludeDims []string

	// OutputSizes gives sizes for output core dimensions that do
	// not appear in any input.
	OutputSizes map[string]int

	// Mode selects between per-cell and single-call application.
	Mode Mode

	// Workers bounds the number of goroutines used for Loop mode.
	// If Workers < 1, runtime.GOMAXPROCS(0) goroutines are used.
	// Vectorized mode ignores it.
	Workers int
}

// Apply invokes kernel on the inputs according to the configuration
// in op. It returns one labeled array per declared output, with the
// broadcast frame as leading dimensions and the declared output core
// dimensions trailing. On any error no outputs are returned.
//
// In Loop mode, canceling ctx aborts the remaining broadcast cells.
func (op *Op) Apply(ctx context.Context, kernel Kernel, inputs ...*Array) ([]*Array, error) {
	p, err := op.buildPlan(inputs)
	if err != nil {
		return nil, err
	}
	switch op.Mode {
	case Loop:
		return op.applyLoop(ctx, p, kernel)
	case Vectorized:
		return op.applyVectorized(ctx, p, kernel)
	default:
		return nil, fmt.Errorf("ufunc: invalid mode %d", op.Mode)
	}
}

// callCell runs the kernel on the broadcast cell with flat index c.
func callCell(p *plan, kernel Kernel, c int) ([]*sparse.DenseArray, error) {
	frameIdx := unravel(c, p.frameShape)
	blocks := make([]*sparse.DenseArray, len(p.inputs))
	for i := range p.inputs {
		blocks[i] = p.inputs[i].coreBlock(frameIdx)
	}
	res, err := kernel.Call(blocks)
	if err != nil {
		return nil, &KernelError{Cell: frameIdx, Err: err}
	}
	if len(res) != len(p.outputs) {
		return nil, fmt.Errorf("ufunc: kernel returned %d arrays; expected %d",
			len(res), len(p.outputs))
	}
	return res, nil
}

// checkCell validates one cell's results against the declared output
// core dimensions. If resolve is true, sizes that could not be known
// before the kernel ran are taken from the results; otherwise every
// size must match exactly.
func (p *plan) checkCell(res []*sparse.DenseArray, resolve bool) error {
	for j, o := range p.outputs {
		if len(res[j].Shape) != len(o.coreDims) {
			return &UnexpectedRankError{
				Output:       j,
				ExpectedDims: o.coreDims,
				Rank:         len(res[j].Shape),
			}
		}
		for k, d := range o.coreDims {
			got := res[j].Shape[k]
			if o.coreShape[k] < 0 {
				if !resolve {
					// The resolving pass runs first; an
					// unresolved size here is a bug.
					panic(fmt.Errorf("ufunc: unresolved size for output dimension %q", d))
				}
				p.outputs[j].coreShape[k] = got
			} else if got != o.coreShape[k] {
				return &UnexpectedSizeError{Dim: d, Expected: o.coreShape[k], Size: got}
			}
		}
	}
	return nil
}

// allocOutputs allocates the full output arrays, with the broadcast
// frame leading and each output's core dimensions trailing.
func (p *plan) allocOutputs() []*sparse.DenseArray {
	outs := make([]*sparse.DenseArray, len(p.outputs))
	for j, o := range p.outputs {
		shape := append(append([]int{}, p.frameShape...), o.coreShape...)
		outs[j] = sparse.ZerosDense(shape...)
	}
	return outs
}

// storeCell writes one cell's results into their output slots. Cells
// occupy disjoint slices of the outputs, so concurrent stores for
// different cells don't contend.
func (p *plan) storeCell(outs, res []*sparse.DenseArray, c int) {
	for j := range p.outputs {
		n := shapeSize(p.outputs[j].coreShape)
		copy(outs[j].Elements[c*n:(c+1)*n], res[j].Elements)
	}
}

func (op *Op) applyLoop(ctx context.Context, p *plan, kernel Kernel) ([]*Array, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var outs []*sparse.DenseArray
	if p.nCells == 0 {
		// Nothing to compute; the plan guarantees the output
		// sizes are already known.
		outs = p.allocOutputs()
		return p.reconstruct(outs), nil
	}

	// The first cell runs synchronously so that output core
	// dimension sizes that depend on the kernel can be fixed
	// before the pool starts.
	res, err := callCell(p, kernel, 0)
	if err != nil {
		return nil, err
	}
	if err := p.checkCell(res, true); err != nil {
		return nil, err
	}
	outs = p.allocOutputs()
	p.storeCell(outs, res, 0)

	nprocs := op.Workers
	if nprocs < 1 {
		nprocs = runtime.GOMAXPROCS(0)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(nprocs)
	for pp := 0; pp < nprocs; pp++ {
		go func(pp int) {
			defer wg.Done()
			for c := 1 + pp; c < p.nCells; c += nprocs {
				if ctx.Err() != nil {
					return
				}
				res, err := callCell(p, kernel, c)
				if err == nil {
					err = p.checkCell(res, false)
				}
				if err != nil {
					select {
					case errCh <- err:
					default:
					}
					cancel()
					return
				}
				p.storeCell(outs, res, c)
			}
		}(pp)
	}
	wg.Wait()

	select {
	case err := <-errCh:
		return nil, err
	default:
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.reconstruct(outs), nil
}

func (op *Op) applyVectorized(ctx context.Context, p *plan, kernel Kernel) ([]*Array, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	blocks := make([]*sparse.DenseArray, len(p.inputs))
	for i := range p.inputs {
		blocks[i] = p.inputs[i].batch(p.frameShape)
	}
	res, err := kernel.Call(blocks)
	if err != nil {
		return nil, &KernelError{Err: err}
	}
	if len(res) != len(p.outputs) {
		return nil, fmt.Errorf("ufunc: kernel returned %d arrays; expected %d",
			len(res), len(p.outputs))
	}

	frameRank := len(p.frameDims)
	for j, o := range p.outputs {
		shape := res[j].Shape
		if len(shape) != frameRank+len(o.coreDims) {
			return nil, &UnexpectedRankError{
				Output:       j,
				ExpectedDims: o.coreDims,
				LoopRank:     frameRank,
				Rank:         len(shape),
			}
		}
		for i, d := range p.frameDims {
			if shape[i] != p.frameShape[i] {
				return nil, &UnexpectedSizeError{Dim: d, Expected: p.frameShape[i], Size: shape[i]}
			}
		}
		for k, d := range o.coreDims {
			got := shape[frameRank+k]
			if o.coreShape[k] < 0 {
				p.outputs[j].coreShape[k] = got
			} else if got != o.coreShape[k] {
				return nil, &UnexpectedSizeError{Dim: d, Expected: o.coreShape[k], Size: got}
			}
		}
	}
	return p.reconstruct(res), nil
}

// reconstruct attaches dimension names and coordinate labels to the
// raw output arrays.
func (p *plan) reconstruct(outs []*sparse.DenseArray) []*Array {
	results := make([]*Array, len(outs))
	for j, o := range p.outputs {
		dims := append(append([]string{}, p.frameDims...), o.coreDims...)
		arr := &Array{DenseArray: outs[j], Dims: dims}
		for i, d := range p.frameDims {
			if c := p.frameCoords(d, p.frameShape[i]); c != nil {
				if arr.Coords == nil {
					arr.Coords = make(map[string][]float64)
				}
				arr.Coords[d] = c
			}
		}
		for k, d := range o.coreDims {
			if c := p.coreCoords(d, o.coreShape[k]); c != nil {
				if arr.Coords == nil {
					arr.Coords = make(map[string][]float64)
				}
				arr.Coords[d] = c
			}
		}
		results[j] = arr
	}
	return results
}
