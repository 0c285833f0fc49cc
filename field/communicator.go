package field

import "github.com/qsim/rtdft/errs"

// Communicator is the collective surface every blocking operation goes
// through: FFT all-to-all across the domain axis, dot/sum/norm
// all-reduce, projector and EXX ring-rotate across the states axis, and
// diagonalization broadcast from a k-point root.
//
// LocalCommunicator is the single-process implementation shipped here;
// a multi-process transport satisfying the same interface is a
// deployment concern, not a core-engine one.
type Communicator interface {
	Rank() int
	Size() int

	// AllReduceSum combines a per-rank partial sum into the identical
	// total on every rank.
	AllReduceSum(partial complex128) complex128

	// AllReduceSumVec is the vector form of AllReduceSum.
	AllReduceSumVec(partial []complex128) []complex128

	// Bcast broadcasts src from root to every rank's return value.
	Bcast(src []byte, root int) []byte

	// RingRotate advances buf one step around the ring of ranks,
	// returning what was received from the left neighbor. Used by the
	// non-local projector application and the exact-exchange sweep.
	RingRotate(buf []complex128) []complex128
}

// LocalCommunicator is the trivial Rank=0,Size=1 communicator: every
// collective degenerates to a local no-op, which is the correct
// behavior of a single-process ring/all-reduce/broadcast.
type LocalCommunicator struct{}

func (LocalCommunicator) Rank() int { return 0 }
func (LocalCommunicator) Size() int { return 1 }

func (LocalCommunicator) AllReduceSum(partial complex128) complex128 { return partial }

func (LocalCommunicator) AllReduceSumVec(partial []complex128) []complex128 { return partial }

func (LocalCommunicator) Bcast(src []byte, root int) []byte { return src }

func (LocalCommunicator) RingRotate(buf []complex128) []complex128 { return buf }

// CollectiveAbort turns a fatal error on one rank into a collective
// abort by broadcasting a flag before any rank throws, so the program
// fails deterministically on every rank.
func CollectiveAbort(comm Communicator, err error) error {
	flag := []byte{0}
	if err != nil {
		flag[0] = 1
	}
	flag = comm.Bcast(flag, 0)
	if flag[0] == 1 {
		if err != nil {
			return err
		}
		return errs.IOFailuref("collective abort signaled by root with no local error")
	}
	return nil
}
