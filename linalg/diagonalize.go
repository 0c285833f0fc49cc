package linalg

import (
	"encoding/binary"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/qsim/rtdft/errs"
)

// Eigensystem is the output of a Hermitian diagonalization: ascending
// eigenvalues and their eigenvectors as columns of Vectors (length
// n*n, column-major: Vectors[j*n+i] is component i of eigenvector j).
type Eigensystem struct {
	Values  []float64
	Vectors []complex128
	N       int
}

// DiagonalizeHermitian factors the n x n Hermitian matrix h (row-major,
// h[i*n+j]) into ascending eigenvalues and eigenvectors, via the
// classical complex-to-real doubling trick: a Hermitian H = A + iB maps
// to the real symmetric 2n x 2n matrix [[A,-B],[B,A]], whose spectrum is
// the spectrum of H with every eigenvalue doubled. gonum's mat package
// has no complex Hermitian eigensolver (mat.EigenSym is real-only), so
// this doubling is how the pack's only dense-algebra library (used for
// exactdiag/mat.go and MirzaevaIV-goHF's mat.EigenSym in the retrieval
// pack) is pressed into solving the complex case instead of hand-rolling
// a full eigensolver.
func DiagonalizeHermitian(n int, h []complex128) (*Eigensystem, error) {
	if len(h) != n*n {
		return nil, errs.ShapeMismatchf("diagonalize: matrix data length %d != n*n=%d", len(h), n*n)
	}

	m := mat.NewSymDense(2*n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := h[i*n+j]
			a, b := real(v), imag(v)
			m.SetSym(i, j, a)
			m.SetSym(n+i, n+j, a)
			m.SetSym(i, n+j, -b)
			m.SetSym(n+i, j, b)
		}
	}

	var es mat.EigenSym
	if ok := es.Factorize(m, true); !ok {
		return nil, errs.NotPositiveDefinitef("diagonalize: EigenSym factorization failed")
	}

	allVals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	type idxVal struct {
		idx int
		val float64
	}
	order := make([]idxVal, 2*n)
	for i, v := range allVals {
		order[i] = idxVal{i, v}
	}
	sort.Slice(order, func(a, b int) bool { return order[a].val < order[b].val })

	out := &Eigensystem{N: n, Values: make([]float64, n), Vectors: make([]complex128, n*n)}
	for k := 0; k < n; k++ {
		col := order[2*k].idx
		out.Values[k] = order[2*k].val
		for i := 0; i < n; i++ {
			re := vecs.At(i, col)
			im := vecs.At(n+i, col)
			out.Vectors[k*n+i] = complex(re, im)
		}
		normalizeColumn(out.Vectors[k*n : k*n+n])
	}
	return out, nil
}

// DiagonalizeSymmetric diagonalizes a real symmetric n x n matrix.
func DiagonalizeSymmetric(n int, a []float64) (*Eigensystem, error) {
	if len(a) != n*n {
		return nil, errs.ShapeMismatchf("diagonalize: matrix data length %d != n*n=%d", len(a), n*n)
	}
	m := mat.NewSymDense(n, append([]float64(nil), a...))
	var es mat.EigenSym
	if ok := es.Factorize(m, true); !ok {
		return nil, errs.NotPositiveDefinitef("diagonalize: EigenSym factorization failed")
	}
	vals := es.Values(nil)
	var vecs mat.Dense
	es.VectorsTo(&vecs)

	out := &Eigensystem{N: n, Values: append([]float64(nil), vals...), Vectors: make([]complex128, n*n)}
	for k := 0; k < n; k++ {
		for i := 0; i < n; i++ {
			out.Vectors[k*n+i] = complex(vecs.At(i, k), 0)
		}
	}
	return out, nil
}

func normalizeColumn(v []complex128) {
	var norm2 float64
	for _, c := range v {
		norm2 += real(c)*real(c) + imag(c)*imag(c)
	}
	if norm2 == 0 {
		return
	}
	norm := math.Sqrt(norm2)
	for i := range v {
		v[i] /= complex(norm, 0)
	}
}

// Broadcaster is the minimal collective surface DiagonalizeCollective
// needs. field.Communicator satisfies it structurally.
type Broadcaster interface {
	Rank() int
	Bcast(src []byte, root int) []byte
}

// DiagonalizeCollective factors h only on the root process of comm and
// broadcasts the result, guaranteeing bitwise-identical eigenpairs on
// every rank.
func DiagonalizeCollective(comm Broadcaster, n int, h []complex128) (*Eigensystem, error) {
	var payload []byte
	var localErr error
	if comm.Rank() == 0 {
		es, err := DiagonalizeHermitian(n, h)
		if err != nil {
			localErr = err
		} else {
			payload = encodeEigensystem(es)
		}
	}
	payload = comm.Bcast(payload, 0)
	if localErr != nil {
		return nil, localErr
	}
	return decodeEigensystem(payload), nil
}

func encodeEigensystem(es *Eigensystem) []byte {
	buf := make([]byte, 4+8*len(es.Values)+16*len(es.Vectors))
	binary.LittleEndian.PutUint32(buf[0:4], uint32(es.N))
	off := 4
	for _, v := range es.Values {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(v))
		off += 8
	}
	for _, c := range es.Vectors {
		binary.LittleEndian.PutUint64(buf[off:off+8], math.Float64bits(real(c)))
		binary.LittleEndian.PutUint64(buf[off+8:off+16], math.Float64bits(imag(c)))
		off += 16
	}
	return buf
}

func decodeEigensystem(buf []byte) *Eigensystem {
	n := int(binary.LittleEndian.Uint32(buf[0:4]))
	off := 4
	vals := make([]float64, n)
	for i := range vals {
		vals[i] = math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		off += 8
	}
	vecs := make([]complex128, n*n)
	for i := range vecs {
		re := math.Float64frombits(binary.LittleEndian.Uint64(buf[off : off+8]))
		im := math.Float64frombits(binary.LittleEndian.Uint64(buf[off+8 : off+16]))
		vecs[i] = complex(re, im)
		off += 16
	}
	return &Eigensystem{N: n, Values: vals, Vectors: vecs}
}
