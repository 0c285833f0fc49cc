package pseudo

import "github.com/qsim/rtdft/field"

// BatchedMatrix collapses a set of per-atom projectors into uniform-size
// arrays (max sphere size, max n_lm) zero-padded at the edges: trading
// memory for a single pass over a flat, coalesced layout instead of one
// ragged projector at a time.
type BatchedMatrix struct {
	NAtoms, MaxLM, MaxPoints int
	Points                   []int        // NAtoms*MaxPoints, padded with -1
	Matrix                   []complex128 // NAtoms*MaxLM*MaxPoints, row-major per atom
	KB                       []float64    // NAtoms*MaxLM
	NLM                      []int
	NPoints                  []int
}

// NewBatchedMatrix packs projectors into a zero-padded batch.
func NewBatchedMatrix(projectors []*Projector) *BatchedMatrix {
	b := &BatchedMatrix{NAtoms: len(projectors)}
	for _, p := range projectors {
		if p.NLM > b.MaxLM {
			b.MaxLM = p.NLM
		}
		if len(p.Points) > b.MaxPoints {
			b.MaxPoints = len(p.Points)
		}
	}
	b.Points = make([]int, b.NAtoms*b.MaxPoints)
	for i := range b.Points {
		b.Points[i] = -1
	}
	b.Matrix = make([]complex128, b.NAtoms*b.MaxLM*b.MaxPoints)
	b.KB = make([]float64, b.NAtoms*b.MaxLM)
	b.NLM = make([]int, b.NAtoms)
	b.NPoints = make([]int, b.NAtoms)

	for a, p := range projectors {
		b.NLM[a] = p.NLM
		b.NPoints[a] = len(p.Points)
		for ip, gi := range p.Points {
			b.Points[a*b.MaxPoints+ip] = gi
		}
		for row := 0; row < p.NLM; row++ {
			b.KB[a*b.MaxLM+row] = p.KB[row]
			for ip := range p.Points {
				b.Matrix[(a*b.MaxLM+row)*b.MaxPoints+ip] = p.Matrix[row*len(p.Points)+ip]
			}
		}
	}
	return b
}

// Apply runs the batched gather/project/scale/backproject/scatter-add
// sequence over the uniform padded arrays, skipping padded (-1) point
// slots, for every locally-owned state of phi.
func (b *BatchedMatrix) Apply(phi *field.OrbitalSet, dV float64, comm field.Communicator, out *field.OrbitalSet) error {
	if err := phi.RequireSameShape(out); err != nil {
		return err
	}
	n := phi.Grid.Size()
	c := make([]complex128, b.MaxLM)
	for li := 0; li < phi.LocalCount; li++ {
		psi := phi.Data[li*n : (li+1)*n]
		dst := out.Data[li*n : (li+1)*n]
		for a := 0; a < b.NAtoms; a++ {
			for row := range c {
				c[row] = 0
			}
			for row := 0; row < b.NLM[a]; row++ {
				var s complex128
				mrow := b.Matrix[(a*b.MaxLM+row)*b.MaxPoints : (a*b.MaxLM+row)*b.MaxPoints+b.MaxPoints]
				prow := b.Points[a*b.MaxPoints : a*b.MaxPoints+b.MaxPoints]
				for ip := 0; ip < b.NPoints[a]; ip++ {
					s += mrow[ip] * psi[prow[ip]]
				}
				c[row] = s * complex(dV, 0)
			}
			reduced := comm.AllReduceSumVec(c[:b.NLM[a]])
			for row := range reduced {
				reduced[row] *= complex(b.KB[a*b.MaxLM+row], 0)
			}
			for ip := 0; ip < b.NPoints[a]; ip++ {
				gi := b.Points[a*b.MaxPoints+ip]
				var s complex128
				for row := 0; row < b.NLM[a]; row++ {
					s += b.Matrix[(a*b.MaxLM+row)*b.MaxPoints+ip] * reduced[row]
				}
				dst[gi] += s
			}
		}
	}
	return nil
}
