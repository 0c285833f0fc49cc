package pseudo

import (
	"math"

	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

// Projector is the per-atom non-local operator: a sphere of grid points
// within the species cutoff radius of the atom, a dense (n_lm x
// n_points) matrix holding radial*spherical-harmonic values, and the KB
// coefficient for each lm row.
type Projector struct {
	AtomIndex int
	NLM       int
	Points    []int // flat grid indices in Points, the sphere S_a
	Matrix    []complex128
	KB        []float64
}

// Build constructs the projector for one atom at cartesian position pos
// on grid r, using the minimum-image displacement along the periodic
// axes of r.Cell so atoms near a periodic boundary see their full
// sphere.
func Build(r *grid.Real, atomIndex int, species Species, pos [3]float64) (*Projector, error) {
	if species.RCut <= 0 {
		return nil, errs.BadConfigurationf("pseudo: species %q has non-positive projector radius", species.Name)
	}

	var points []int
	var offsets [][3]float64
	for ix := 0; ix < r.N[0]; ix++ {
		for iy := 0; iy < r.N[1]; iy++ {
			for iz := 0; iz < r.N[2]; iz++ {
				gridPos := r.CartesianAt(ix, iy, iz)
				disp := minimumImage(r, gridPos, pos)
				d := math.Sqrt(disp[0]*disp[0] + disp[1]*disp[1] + disp[2]*disp[2])
				if d <= species.RCut {
					points = append(points, r.Index(ix, iy, iz))
					offsets = append(offsets, disp)
				}
			}
		}
	}

	p := &Projector{AtomIndex: atomIndex, NLM: species.NumProjectorsLM(), Points: points}
	p.Matrix = make([]complex128, p.NLM*len(points))
	p.KB = make([]float64, p.NLM)

	row := 0
	for _, ch := range species.Channels {
		for m := -ch.L; m <= ch.L; m++ {
			for ip, off := range offsets {
				d := math.Sqrt(off[0]*off[0] + off[1]*off[1] + off[2]*off[2])
				y, err := RealYlm(ch.L, m, off[0], off[1], off[2])
				if err != nil {
					return nil, err
				}
				p.Matrix[row*len(points)+ip] = complex(ch.Radial(d)*y, 0)
			}
			p.KB[row] = ch.KB
			row++
		}
	}
	return p, nil
}

// minimumImage returns a - b, wrapped along the cell's periodic axes so
// the shortest displacement is chosen.
func minimumImage(r *grid.Real, a, b [3]float64) [3]float64 {
	var disp [3]float64
	for i := 0; i < 3; i++ {
		disp[i] = a[i] - b[i]
	}
	if r.Cell.Periodicity == 0 {
		return disp
	}
	frac := r.Cell.ToFractional(disp)
	for i := 0; i < r.Cell.Periodicity; i++ {
		frac[i] -= math.Round(frac[i])
	}
	return r.Cell.ToCartesian(frac)
}

// Apply implements the gather/project/all-reduce/scale/backproject/
// scatter-add sequence: out += sum_a P_a^T * diag(KB_a) * (dV * P_a * phi|_{S_a}).
// comm's AllReduceSumVec is invoked per atom per state, modeling the
// "processes that share the sphere" reduction; a single-process
// communicator makes it a no-op.
func Apply(projectors []*Projector, phi *field.OrbitalSet, dV float64, comm field.Communicator, out *field.OrbitalSet) error {
	if err := phi.RequireSameShape(out); err != nil {
		return err
	}
	n := phi.Grid.Size()
	for li := 0; li < phi.LocalCount; li++ {
		psi := phi.Data[li*n : (li+1)*n]
		dst := out.Data[li*n : (li+1)*n]
		for _, p := range projectors {
			c := make([]complex128, p.NLM)
			for row := 0; row < p.NLM; row++ {
				var s complex128
				for ip, gi := range p.Points {
					s += p.Matrix[row*len(p.Points)+ip] * psi[gi]
				}
				c[row] = s * complex(dV, 0)
			}
			c = comm.AllReduceSumVec(c)
			for row := range c {
				c[row] *= complex(p.KB[row], 0)
			}
			for ip, gi := range p.Points {
				var s complex128
				for row := 0; row < p.NLM; row++ {
					s += p.Matrix[row*len(p.Points)+ip] * c[row]
				}
				dst[gi] += s
			}
		}
	}
	return nil
}
