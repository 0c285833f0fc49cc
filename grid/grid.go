// Package grid implements the real-space/reciprocal-space grid pair: a
// uniform grid over a Cell, its dual FFT representation, and the
// spherical-cutoff mask that throws away reciprocal components above
// the plane-wave cutoff energy.
package grid

import (
	"math"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/errs"
)

// Real is a uniform real-space grid over a Cell with per-axis point
// count N. One axis (DomainAxis) may be split contiguously across the
// "domain" process axis.
type Real struct {
	Cell *cell.Cell
	N    [3]int

	// DomainAxis is the axis (0,1,2) split across processes; -1 if the
	// grid lives entirely on one process.
	DomainAxis int
	// Offset and Local are the first index and count along DomainAxis
	// owned by this rank.
	Offset, Local int
}

// NewReal builds a real-space grid satisfying the Nyquist spacing bound
// h_i <= pi*sqrt(1/(2*ecut)) for a plane-wave cutoff ecut in Hartree.
func NewReal(c *cell.Cell, n [3]int, ecut float64) (*Real, error) {
	if ecut <= 0 {
		return nil, errs.BadConfigurationf("grid: cutoff energy must be positive, got %g", ecut)
	}
	for i := 0; i < 3; i++ {
		if n[i] <= 0 {
			return nil, errs.BadConfigurationf("grid: axis %d size must be positive, got %d", i, n[i])
		}
		length := norm3(c.A[i])
		h := length / float64(n[i])
		maxH := math.Pi * math.Sqrt(1.0/(2.0*ecut))
		if h > maxH+1e-9 {
			return nil, errs.BadConfigurationf("grid: axis %d spacing %.6f exceeds cutoff-limited spacing %.6f", i, h, maxH)
		}
	}
	return &Real{Cell: c, N: n, DomainAxis: -1, Offset: 0, Local: n[0]}, nil
}

// Size is the total number of grid points.
func (r *Real) Size() int { return r.N[0] * r.N[1] * r.N[2] }

// Spacing returns the per-axis grid spacing h_i = |a_i|/n_i.
func (r *Real) Spacing() [3]float64 {
	var h [3]float64
	for i := 0; i < 3; i++ {
		h[i] = norm3(r.Cell.A[i]) / float64(r.N[i])
	}
	return h
}

// Index packs a 3-D grid coordinate into the flat row-major index used
// by every Field/OrbitalSet backing array: ((ix*N1)+iy)*N2+iz.
func (r *Real) Index(ix, iy, iz int) int {
	return (ix*r.N[1]+iy)*r.N[2] + iz
}

// CartesianAt returns the cartesian Bohr position of grid point
// (ix,iy,iz), assuming the grid origin coincides with the cell origin.
func (r *Real) CartesianAt(ix, iy, iz int) [3]float64 {
	frac := [3]float64{
		float64(ix) / float64(r.N[0]),
		float64(iy) / float64(r.N[1]),
		float64(iz) / float64(r.N[2]),
	}
	return r.Cell.ToCartesian(frac)
}

// Coords unpacks a flat index back into (ix,iy,iz).
func (r *Real) Coords(idx int) (ix, iy, iz int) {
	iz = idx % r.N[2]
	idx /= r.N[2]
	iy = idx % r.N[1]
	ix = idx / r.N[1]
	return
}

// SameShape reports whether two grids have identical sizes.
func (r *Real) SameShape(o *Real) bool {
	return r.N == o.N
}

// RequireSameShape returns a shape-mismatch error if the grids disagree.
func (r *Real) RequireSameShape(o *Real) error {
	if !r.SameShape(o) {
		return errs.ShapeMismatchf("grid sizes differ: %v vs %v", r.N, o.N)
	}
	return nil
}

// Reciprocal is the dual of a Real grid: a coordinate (gx,gy,gz) per
// point plus an optional spherical cutoff mask.
type Reciprocal struct {
	Real *Real
	// Ecut, if > 0, causes Mask to zero any point with |G|^2/2 > Ecut
	// after a forward transform.
	Ecut float64
}

// NewReciprocal builds the reciprocal dual of r, optionally attaching a
// spherical cutoff at ecut (Hartree). ecut <= 0 disables the mask.
func NewReciprocal(r *Real, ecut float64) *Reciprocal {
	return &Reciprocal{Real: r, Ecut: ecut}
}

// freqIndex maps a 0-based FFT bin j in [0,n) to its signed frequency
// index in (-n/2, n/2], the usual FFT convention.
func freqIndex(j, n int) int {
	if j <= n/2 {
		return j
	}
	return j - n
}

// GVector returns the cartesian reciprocal vector G at grid point
// (ix,iy,iz), G = sum_i freq_i(ix) * b_i.
func (g *Reciprocal) GVector(ix, iy, iz int) [3]float64 {
	b := g.Real.Cell.ReciprocalVectors()
	fx := float64(freqIndex(ix, g.Real.N[0]))
	fy := float64(freqIndex(iy, g.Real.N[1]))
	fz := float64(freqIndex(iz, g.Real.N[2]))
	var out [3]float64
	for i := 0; i < 3; i++ {
		out[i] = fx*b[0][i] + fy*b[1][i] + fz*b[2][i]
	}
	return out
}

// G2 returns |G|^2 at grid point (ix,iy,iz).
func (g *Reciprocal) G2(ix, iy, iz int) float64 {
	v := g.GVector(ix, iy, iz)
	return v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
}

// IsZero reports whether (ix,iy,iz) is the G=0 component.
func (g *Reciprocal) IsZero(ix, iy, iz int) bool {
	return ix == 0 && iy == 0 && iz == 0
}

// Mask zeros every component of data (length r.Size()) whose |G|^2/2
// exceeds Ecut. A no-op when Ecut <= 0.
func (g *Reciprocal) Mask(data []complex128) {
	if g.Ecut <= 0 {
		return
	}
	r := g.Real
	for ix := 0; ix < r.N[0]; ix++ {
		for iy := 0; iy < r.N[1]; iy++ {
			for iz := 0; iz < r.N[2]; iz++ {
				if g.G2(ix, iy, iz)/2 > g.Ecut {
					data[r.Index(ix, iy, iz)] = 0
				}
			}
		}
	}
}

func norm3(v [3]float64) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
