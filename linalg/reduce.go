// Package linalg implements the parallel reductions and dense algebra
// shims the engine builds on: a device-aware sum/dot reduction, Hermitian
// diagonalization with guaranteed-identical eigenpairs across ranks,
// and Cholesky factorization.
package linalg

import (
	"runtime"
	"sync"
)

// Kernel is a pure index->value function, the shape every element-wise
// compute kernel takes (design note: "keep all element-wise kernels as
// pure functions of index -> value").
type Kernel func(i int) complex128

// Reduce computes sum_{i=0}^{N-1} k(i) using a two-level tree reduction:
// goroutines split [0,N) into contiguous chunks (block-local partial
// sums, "shared buffer" in the device analogy), then the partial sums
// are combined sequentially. Determinism across worker counts is not
// guaranteed beyond an O(N*ulp) rounding bound.
func Reduce(n int, k Kernel) complex128 {
	if n <= 0 {
		return 0
	}
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers <= 1 {
		return reduceRange(0, n, k)
	}

	chunk := (n + workers - 1) / workers
	partials := make([]complex128, workers)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		start := w * chunk
		if start >= n {
			continue
		}
		end := start + chunk
		if end > n {
			end = n
		}
		wg.Add(1)
		go func(w, start, end int) {
			defer wg.Done()
			partials[w] = reduceRange(start, end, k)
		}(w, start, end)
	}
	wg.Wait()

	var total complex128
	for _, p := range partials {
		total += p
	}
	return total
}

func reduceRange(start, end int, k Kernel) complex128 {
	var acc complex128
	for i := start; i < end; i++ {
		acc += k(i)
	}
	return acc
}

// ReduceReal is Reduce specialized to a real-valued accumulator, used
// for norms and densities where the imaginary part is known to cancel.
func ReduceReal(n int, k func(i int) float64) float64 {
	c := Reduce(n, func(i int) complex128 { return complex(k(i), 0) })
	return real(c)
}

// Dot computes sum_i conj(a(i))*b(i), the inner product kernel behind
// orbital overlaps and density-matrix contractions.
func Dot(n int, a, b Kernel) complex128 {
	return Reduce(n, func(i int) complex128 {
		return cconj(a(i)) * b(i)
	})
}

func cconj(v complex128) complex128 { return complex(real(v), -imag(v)) }
