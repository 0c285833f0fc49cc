// Package field implements the distributed field containers: Field and
// OrbitalSet values partitioned over a 2-D Cartesian process grid whose
// axes are "states" and "domain".
package field

import "github.com/qsim/rtdft/errs"

// ProcessGrid is a 2-D Cartesian communicator with a "states" axis and
// a "domain" axis. PStates and PDomain are the axis sizes; RankStates
// and RankDomain are this process's coordinates.
type ProcessGrid struct {
	PStates, PDomain       int
	RankStates, RankDomain int
}

// NewProcessGrid builds a PStates x PDomain grid and places this
// process at (rankStates, rankDomain).
func NewProcessGrid(pStates, pDomain, rankStates, rankDomain int) (*ProcessGrid, error) {
	if pStates <= 0 || pDomain <= 0 {
		return nil, errs.BadConfigurationf("process grid dimensions must be positive, got (%d,%d)", pStates, pDomain)
	}
	if rankStates < 0 || rankStates >= pStates || rankDomain < 0 || rankDomain >= pDomain {
		return nil, errs.BadConfigurationf("process coordinate (%d,%d) out of range for grid (%d,%d)", rankStates, rankDomain, pStates, pDomain)
	}
	return &ProcessGrid{PStates: pStates, PDomain: pDomain, RankStates: rankStates, RankDomain: rankDomain}, nil
}

// Single returns the trivial 1x1 process grid used when no distributed
// communicator is configured.
func Single() *ProcessGrid {
	return &ProcessGrid{PStates: 1, PDomain: 1}
}

// BlockSize returns ceil(total/nproc), the local block size under a
// contiguous-block partition of total items across nproc ranks.
func BlockSize(total, nproc int) int {
	if nproc <= 0 {
		return total
	}
	return (total + nproc - 1) / nproc
}

// LocalRange returns the [start, start+count) slice of [0,total) owned
// by rank out of nproc, using contiguous blocks with the last process
// holding the remainder.
func LocalRange(total, nproc, rank int) (start, count int) {
	block := BlockSize(total, nproc)
	start = rank * block
	if start > total {
		start = total
	}
	end := start + block
	if end > total {
		end = total
	}
	return start, end - start
}

// Owner returns which rank out of nproc owns global index idx under the
// contiguous-block partition.
func Owner(idx, total, nproc int) int {
	block := BlockSize(total, nproc)
	if block == 0 {
		return 0
	}
	owner := idx / block
	if owner >= nproc {
		owner = nproc - 1
	}
	return owner
}

// LocalStates returns the [start,count) of orbital-index range owned by
// this process for a set of nStates total states.
func (g *ProcessGrid) LocalStates(nStates int) (start, count int) {
	return LocalRange(nStates, g.PStates, g.RankStates)
}

// LocalDomain returns the [start,count) of grid-point range owned by
// this process for a grid of nPoints total points along the split axis.
func (g *ProcessGrid) LocalDomain(nPoints int) (start, count int) {
	return LocalRange(nPoints, g.PDomain, g.RankDomain)
}
