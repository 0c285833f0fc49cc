// Package cell implements the simulation cell: a triple of lattice
// vectors, a periodicity dimension, and the metric conversions between
// covariant, contravariant, and cartesian coordinates. Implemented with
// gonum's dense linear algebra, the same library leaned on for every
// matrix operation elsewhere in this module.
package cell

import (
	"math"

	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"github.com/qsim/rtdft/errs"
)

// Cell is a 3-D parallelepiped defined by three lattice vectors, plus a
// periodicity dimension in [0,3].
type Cell struct {
	A [3][3]float64 // A[i] is the i-th lattice vector in cartesian Bohr.
	// Periodicity is the number of periodic dimensions, 0..3.
	Periodicity int

	volume  float64
	metric  *mat.Dense // covariant metric g_ij = a_i . a_j
	recipA  [3][3]float64
	inverse *mat.Dense
}

// New builds a Cell from three lattice vectors, rejecting linearly
// dependent or degenerate-volume inputs.
func New(a1, a2, a3 [3]float64, periodicity int) (*Cell, error) {
	if periodicity < 0 || periodicity > 3 {
		return nil, errs.BadConfigurationf("periodicity %d out of range [0,3]", periodicity)
	}
	c := &Cell{A: [3][3]float64{a1, a2, a3}, Periodicity: periodicity}
	if err := c.init(); err != nil {
		return nil, err
	}
	return c, nil
}

// Cubic builds a cubic cell of side length l.
func Cubic(l float64, periodicity int) (*Cell, error) {
	return New([3]float64{l, 0, 0}, [3]float64{0, l, 0}, [3]float64{0, 0, l}, periodicity)
}

// Orthorhombic builds a rectangular cell with independent side lengths.
func Orthorhombic(lx, ly, lz float64, periodicity int) (*Cell, error) {
	return New([3]float64{lx, 0, 0}, [3]float64{0, ly, 0}, [3]float64{0, 0, lz}, periodicity)
}

func (c *Cell) init() error {
	rows := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		rows.SetRow(i, c.A[i][:])
	}

	c.volume = mat.Det(rows)
	if math.Abs(c.volume) < 1e-12 {
		return errs.BadConfigurationf("lattice vectors are linearly dependent (volume %.3e)", c.volume)
	}
	if c.volume < 0 {
		c.volume = -c.volume
	}

	c.metric = mat.NewDense(3, 3, nil)
	c.metric.Mul(rows, rows.T())

	var inv mat.Dense
	if err := inv.Inverse(rows); err != nil {
		return errors.Wrap(err, "cell: lattice matrix not invertible")
	}
	c.inverse = &inv

	// Reciprocal lattice vectors b_i satisfy a_i . b_j = 2*pi*delta_ij,
	// i.e. B = 2*pi*(A^-1)^T.
	var recip mat.Dense
	recip.Scale(2*math.Pi, inv.T())
	for i := 0; i < 3; i++ {
		row := mat.Row(nil, i, &recip)
		copy(c.recipA[i][:], row)
	}

	return nil
}

// Volume is the cell volume in Bohr^3.
func (c *Cell) Volume() float64 { return c.volume }

// ReciprocalVectors returns the three reciprocal lattice vectors.
func (c *Cell) ReciprocalVectors() [3][3]float64 { return c.recipA }

// ToCartesian converts a contravariant (fractional) coordinate to
// cartesian Bohr.
func (c *Cell) ToCartesian(frac [3]float64) [3]float64 {
	var out [3]float64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			out[i] += frac[j] * c.A[j][i]
		}
	}
	return out
}

// ToFractional converts a cartesian coordinate to fractional (crystal)
// coordinates using the cached inverse lattice matrix.
func (c *Cell) ToFractional(cart [3]float64) [3]float64 {
	v := mat.NewVecDense(3, cart[:])
	var out mat.VecDense
	out.MulVec(c.inverse.T(), v)
	return [3]float64{out.AtVec(0), out.AtVec(1), out.AtVec(2)}
}

// Metric returns the covariant metric tensor g_ij = a_i . a_j.
func (c *Cell) Metric() *mat.Dense { return c.metric }
