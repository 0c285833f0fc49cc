package field

import (
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/grid"
)

// Kind is the numeric descriptor selecting a Field's element
// representation. Every Kind is backed by the same []complex128
// storage; RealScalar fields simply keep Im()==0 and are read back
// through Re.
type Kind int

const (
	RealScalar Kind = iota
	ComplexScalar
	SpinTuple
)

// Field is a single function over a real-space grid. NComp is 1 for
// scalar fields and 1/2/4 for spin components.
type Field struct {
	Grid  *grid.Real
	Kind  Kind
	NComp int
	Data  []complex128 // length Grid.Size()*NComp, point-major.
}

// NewField allocates a zeroed field of the given kind over r.
func NewField(r *grid.Real, kind Kind) *Field {
	ncomp := 1
	if kind == SpinTuple {
		ncomp = 1
	}
	return &Field{Grid: r, Kind: kind, NComp: ncomp, Data: make([]complex128, r.Size()*ncomp)}
}

// NewSpinField allocates a spin-resolved field with nComp in {1,2,4}.
func NewSpinField(r *grid.Real, nComp int) (*Field, error) {
	if nComp != 1 && nComp != 2 && nComp != 4 {
		return nil, errs.BadConfigurationf("field: spin component count must be 1, 2 or 4, got %d", nComp)
	}
	return &Field{Grid: r, Kind: SpinTuple, NComp: nComp, Data: make([]complex128, r.Size()*nComp)}, nil
}

// Clone returns a new field with the same shape and fresh, independent
// storage.
func (f *Field) Clone() *Field {
	out := &Field{Grid: f.Grid, Kind: f.Kind, NComp: f.NComp, Data: make([]complex128, len(f.Data))}
	copy(out.Data, f.Data)
	return out
}

// ZerosLike returns a new field with the same shape, zeroed.
func (f *Field) ZerosLike() *Field {
	return &Field{Grid: f.Grid, Kind: f.Kind, NComp: f.NComp, Data: make([]complex128, len(f.Data))}
}

// At returns the value of component comp at point idx.
func (f *Field) At(idx, comp int) complex128 { return f.Data[idx*f.NComp+comp] }

// Set assigns the value of component comp at point idx.
func (f *Field) Set(idx, comp int, v complex128) { f.Data[idx*f.NComp+comp] = v }

// Map applies k to every (point,component) pair in place. On a device
// build this loop body is what would be dispatched to the accelerator
// kernel instead.
func (f *Field) Map(k func(idx, comp int, v complex128) complex128) {
	for idx := 0; idx < f.Grid.Size(); idx++ {
		for c := 0; c < f.NComp; c++ {
			i := idx*f.NComp + c
			f.Data[i] = k(idx, c, f.Data[i])
		}
	}
}

// AddScaled computes f += alpha*g in place.
func (f *Field) AddScaled(alpha complex128, g *Field) error {
	if err := f.Grid.RequireSameShape(g.Grid); err != nil {
		return err
	}
	if f.NComp != g.NComp {
		return errs.ShapeMismatchf("field: component counts differ: %d vs %d", f.NComp, g.NComp)
	}
	for i := range f.Data {
		f.Data[i] += alpha * g.Data[i]
	}
	return nil
}

// MulPointwise multiplies f by a real scalar field's values component
// by component, used to apply a local potential.
func (f *Field) MulPointwise(v *Field) error {
	if err := f.Grid.RequireSameShape(v.Grid); err != nil {
		return err
	}
	if v.NComp != 1 {
		return errs.ShapeMismatchf("field: potential must be a scalar field, has %d components", v.NComp)
	}
	for idx := 0; idx < f.Grid.Size(); idx++ {
		scale := v.Data[idx]
		for c := 0; c < f.NComp; c++ {
			i := idx*f.NComp + c
			f.Data[i] *= scale
		}
	}
	return nil
}
