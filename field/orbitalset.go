package field

import (
	"math"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/linalg"
)

// OrbitalSet is a batch of functions over a shared grid: grid points
// split on the domain axis, orbital indices split on the states axis.
// Every set carries its cell, k-point, and spin label.
type OrbitalSet struct {
	Grid    *grid.Real
	Cell    *cell.Cell
	KPoint  [3]float64
	Spin    int
	NStates int // global state count

	Proc *ProcessGrid
	Comm Communicator

	// LocalStart/LocalCount is this rank's slice of [0,NStates).
	LocalStart, LocalCount int

	// Data is laid out state-major: Data[local_state*npoints + point].
	Data []complex128
}

// NewOrbitalSet allocates an empty (zeroed) orbital set over r for
// nStates global states, owned entirely by a single process.
func NewOrbitalSet(r *grid.Real, c *cell.Cell, nStates, spin int, kpoint [3]float64) *OrbitalSet {
	proc := Single()
	start, count := proc.LocalStates(nStates)
	return &OrbitalSet{
		Grid: r, Cell: c, KPoint: kpoint, Spin: spin, NStates: nStates,
		Proc: proc, Comm: LocalCommunicator{},
		LocalStart: start, LocalCount: count,
		Data: make([]complex128, count*r.Size()),
	}
}

// Clone returns a new orbital set with the same shape and fresh storage.
func (o *OrbitalSet) Clone() *OrbitalSet {
	out := *o
	out.Data = make([]complex128, len(o.Data))
	copy(out.Data, o.Data)
	return &out
}

// ZerosLike returns a new orbital set with the same shape, zeroed.
func (o *OrbitalSet) ZerosLike() *OrbitalSet {
	out := *o
	out.Data = make([]complex128, len(o.Data))
	return &out
}

// State returns the local slice backing global state index ist. It
// panics if ist is not owned by this rank; callers check Owns first.
func (o *OrbitalSet) State(ist int) []complex128 {
	local := ist - o.LocalStart
	n := o.Grid.Size()
	return o.Data[local*n : (local+1)*n]
}

// Owns reports whether global state index ist is local to this rank.
func (o *OrbitalSet) Owns(ist int) bool {
	return ist >= o.LocalStart && ist < o.LocalStart+o.LocalCount
}

// RequireSameShape validates that two orbital sets share a grid and
// state count, the precondition for overlap/Hamiltonian application.
// The spin labels are not compared.
func (o *OrbitalSet) RequireSameShape(other *OrbitalSet) error {
	if err := o.Grid.RequireSameShape(other.Grid); err != nil {
		return err
	}
	if o.NStates != other.NStates {
		return errs.ShapeMismatchf("orbitalset: state counts differ: %d vs %d", o.NStates, other.NStates)
	}
	return nil
}

// OverlapDiagonal returns <phi_i|psi_i> for each locally-owned state i,
// the per-state inner product the steepest-descent refinement and the
// real-time norm check both need.
func (o *OrbitalSet) OverlapDiagonal(psi *OrbitalSet) ([]complex128, error) {
	if err := o.RequireSameShape(psi); err != nil {
		return nil, err
	}
	n := o.Grid.Size()
	out := make([]complex128, o.LocalCount)
	for li := 0; li < o.LocalCount; li++ {
		a := o.Data[li*n : (li+1)*n]
		b := psi.Data[li*n : (li+1)*n]
		out[li] = linalg.Dot(n, func(i int) complex128 { return a[i] }, func(i int) complex128 { return b[i] })
	}
	return out, nil
}

// GramMatrix builds the local-to-this-rank x NStates overlap block
// phi^dagger * psi, flattened row-major (LocalCount x NStates), the
// input to subspace diagonalization.
func (o *OrbitalSet) GramMatrix(psi *OrbitalSet) ([]complex128, error) {
	if err := o.RequireSameShape(psi); err != nil {
		return nil, err
	}
	n := o.Grid.Size()
	out := make([]complex128, o.LocalCount*psi.NStates)
	for li := 0; li < o.LocalCount; li++ {
		a := o.Data[li*n : (li+1)*n]
		for lj := 0; lj < psi.LocalCount; lj++ {
			b := psi.Data[lj*n : (lj+1)*n]
			out[li*psi.NStates+psi.LocalStart+lj] = linalg.Dot(n, func(i int) complex128 { return a[i] }, func(i int) complex128 { return b[i] })
		}
	}
	return out, nil
}

// Orthonormalize Gram-Schmidt orthonormalizes the locally-owned states
// in place, driving max_ij |<phi_i|phi_j> - delta_ij| toward zero. Only
// correct for a single-process state axis; a distributed
// implementation would QR-decompose across the states communicator.
func (o *OrbitalSet) Orthonormalize() {
	n := o.Grid.Size()
	for i := 0; i < o.LocalCount; i++ {
		vi := o.Data[i*n : (i+1)*n]
		for j := 0; j < i; j++ {
			vj := o.Data[j*n : (j+1)*n]
			proj := linalg.Dot(n, func(k int) complex128 { return vj[k] }, func(k int) complex128 { return vi[k] })
			for k := range vi {
				vi[k] -= proj * vj[k]
			}
		}
		norm2 := linalg.Dot(n, func(k int) complex128 { return vi[k] }, func(k int) complex128 { return vi[k] })
		if real(norm2) <= 0 {
			continue
		}
		scale := complex(1/sqrtReal(norm2), 0)
		for k := range vi {
			vi[k] *= scale
		}
	}
}

func sqrtReal(c complex128) float64 {
	r := real(c)
	if r < 0 {
		r = 0
	}
	return math.Sqrt(r)
}
