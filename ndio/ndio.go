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

// Package ndio reads and writes labeled arrays as NetCDF files.
// Dimension names are taken from the NetCDF dimensions, and a 1-d
// variable with the same name as its dimension is treated as that
// dimension's coordinate labels, following the usual NetCDF
// convention.
package ndio

import (
	"context"
	"fmt"
	"sync"

	"github.com/ctessum/cdf"
	"github.com/ctessum/requestcache"
	"github.com/ctessum/sparse"

	"github.com/spatialmodel/ufunc"
)

// File allows the interaction with a NetCDF-formatted file of
// labeled arrays.
type File struct {
	cdf.File

	// CacheSize specifies the number of variables to be held in
	// the memory cache. Repeated reads of the same variable are
	// served from the cache. The default is 20. CacheSize can
	// only be changed before the first read.
	CacheSize int

	cache     *requestcache.Cache
	cacheInit sync.Once
}

// Open creates a File from the NetCDF data in r.
func Open(r cdf.ReaderWriterAt) (*File, error) {
	cf, err := cdf.Open(r)
	if err != nil {
		return nil, fmt.Errorf("ndio: opening file: %v", err)
	}
	return &File{File: *cf, CacheSize: 20}, nil
}

// Variables returns the names of the data variables in the file,
// leaving out coordinate variables.
func (f *File) Variables() []string {
	var vars []string
	for _, v := range f.Header.Variables() {
		if f.isCoord(v) {
			continue
		}
		vars = append(vars, v)
	}
	return vars
}

// isCoord reports whether v is a coordinate variable: a 1-d variable
// named after its only dimension.
func (f *File) isCoord(v string) bool {
	dims := f.Header.Dimensions(v)
	return len(dims) == 1 && dims[0] == v
}

// Read reads the variable named name, labeling its axes with the
// file's dimension names and attaching coordinate labels where the
// file has coordinate variables. Results are cached; any changes to
// the returned array may also alter the cached data.
func (f *File) Read(name string) (*ufunc.Array, error) {
	f.cacheInit.Do(func() {
		f.cache = requestcache.NewCache(
			func(ctx context.Context, request interface{}) (interface{}, error) {
				return f.readVar(request.(string))
			},
			1, requestcache.Deduplicate(), requestcache.Memory(f.CacheSize))
	})
	req := f.cache.NewRequest(context.TODO(), name, name)
	result, err := req.Result()
	if err != nil {
		return nil, err
	}
	return result.(*ufunc.Array), nil
}

// readVar reads one variable in full.
func (f *File) readVar(name string) (*ufunc.Array, error) {
	if !f.hasVariable(name) {
		return nil, fmt.Errorf("ndio: variable %q is not in the file", name)
	}
	dims := f.Header.Dimensions(name)
	lengths := f.Header.Lengths(name)
	elements, err := f.readFull(name)
	if err != nil {
		return nil, err
	}
	data := sparse.ZerosDense(lengths...)
	copy(data.Elements, elements)
	arr, err := ufunc.NewArray(data, dims...)
	if err != nil {
		return nil, fmt.Errorf("ndio: variable %q: %v", name, err)
	}
	arr.Name = name
	if u, ok := f.Header.GetAttribute(name, "units").(string); ok {
		arr.Units = u
	}
	if d, ok := f.Header.GetAttribute(name, "description").(string); ok {
		arr.Description = d
	}
	for _, d := range dims {
		if d == name || !f.hasVariable(d) || !f.isCoord(d) {
			continue
		}
		c, err := f.readFull(d)
		if err != nil {
			return nil, err
		}
		if arr.Coords == nil {
			arr.Coords = make(map[string][]float64)
		}
		arr.Coords[d] = c
	}
	return arr, nil
}

func (f *File) hasVariable(name string) bool {
	for _, v := range f.Header.Variables() {
		if v == name {
			return true
		}
	}
	return false
}

// readFull reads a whole variable, widening its elements to float64.
func (f *File) readFull(name string) ([]float64, error) {
	r := f.File.Reader(name, nil, nil)
	buf := r.Zero(-1)
	if _, err := r.Read(buf); err != nil {
		return nil, fmt.Errorf("ndio: reading variable %q: %v", name, err)
	}
	switch b := buf.(type) {
	case []float64:
		return b, nil
	case []float32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int32:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int16:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	case []int8:
		o := make([]float64, len(b))
		for i, v := range b {
			o[i] = float64(v)
		}
		return o, nil
	default:
		return nil, fmt.Errorf("ndio: variable %q has unsupported type %T", name, buf)
	}
}

// Write writes the given arrays to w in NetCDF format. Every array
// must have a unique name, and dimensions shared between arrays must
// have equal sizes. Coordinate labels are written as coordinate
// variables.
func Write(w cdf.ReaderWriterAt, arrays ...*ufunc.Array) error {
	if len(arrays) == 0 {
		return fmt.Errorf("ndio: no arrays to write")
	}

	// The union of all dimensions, in first-seen order.
	var dimNames []string
	dimSizes := make(map[string]int)
	coords := make(map[string][]float64)
	names := make(map[string]bool)
	for _, arr := range arrays {
		if arr.Name == "" {
			return fmt.Errorf("ndio: cannot write an array without a name")
		}
		if names[arr.Name] {
			return fmt.Errorf("ndio: duplicate array name %q", arr.Name)
		}
		names[arr.Name] = true
		for i, d := range arr.Dims {
			size := arr.Shape[i]
			if prev, ok := dimSizes[d]; ok {
				if prev != size {
					return fmt.Errorf("ndio: dimension %q has conflicting sizes %d and %d", d, prev, size)
				}
			} else {
				dimNames = append(dimNames, d)
				dimSizes[d] = size
			}
			if c, ok := arr.Coords[d]; ok {
				if _, ok := coords[d]; !ok {
					coords[d] = c
				}
			}
		}
	}
	lengths := make([]int, len(dimNames))
	for i, d := range dimNames {
		lengths[i] = dimSizes[d]
	}

	h := cdf.NewHeader(dimNames, lengths)
	for _, d := range dimNames {
		if _, ok := coords[d]; ok && !names[d] {
			h.AddVariable(d, []string{d}, []float64{0})
		}
	}
	for _, arr := range arrays {
		h.AddVariable(arr.Name, arr.Dims, []float64{0})
		if arr.Units != "" {
			h.AddAttribute(arr.Name, "units", arr.Units)
		}
		if arr.Description != "" {
			h.AddAttribute(arr.Name, "description", arr.Description)
		}
	}
	h.Define()

	f, err := cdf.Create(w, h)
	if err != nil {
		return fmt.Errorf("ndio: creating file: %v", err)
	}
	for d, c := range coords {
		if names[d] {
			continue
		}
		if err := writeVar(f, d, c); err != nil {
			return err
		}
	}
	for _, arr := range arrays {
		if err := writeVar(f, arr.Name, arr.Elements); err != nil {
			return err
		}
	}
	return nil
}

func writeVar(f *cdf.File, name string, data []float64) error {
	end := f.Header.Lengths(name)
	start := make([]int, len(end))
	w := f.Writer(name, start, end)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("ndio: writing variable %q: %v", name, err)
	}
	return nil
}
