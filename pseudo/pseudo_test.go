package pseudo

import (
	"math"
	"testing"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

func gaussianChannel(l int, kb float64) ChannelSpec {
	return ChannelSpec{L: l, KB: kb, Radial: func(r float64) float64 {
		return math.Exp(-r * r)
	}}
}

func TestBuildSphereContainsCenter(t *testing.T) {
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{10, 10, 10}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	sp := Species{Name: "H", Valence: 1, RCut: 2.0, Channels: []ChannelSpec{gaussianChannel(0, -1.0), gaussianChannel(1, 0.5)}}
	p, err := Build(r, 0, sp, [3]float64{5, 5, 5})
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Points) == 0 {
		t.Fatal("expected a non-empty sphere")
	}
	if p.NLM != 1+3 {
		t.Fatalf("expected 1 s-channel + 3 p-channels = 4 rows, got %d", p.NLM)
	}
}

func TestApplyHermitianDiagonal(t *testing.T) {
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{10, 10, 10}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	sp := Species{Name: "H", Valence: 1, RCut: 2.0, Channels: []ChannelSpec{gaussianChannel(0, -2.0)}}
	p, err := Build(r, 0, sp, [3]float64{5, 5, 5})
	if err != nil {
		t.Fatal(err)
	}

	phi := field.NewOrbitalSet(r, c, 1, 0, [3]float64{})
	for i := range phi.Data {
		phi.Data[i] = complex(float64(i%3)+1, 0)
	}
	out := phi.ZerosLike()
	dV := c.Volume() / float64(r.Size())
	if err := Apply([]*Projector{p}, phi, dV, field.LocalCommunicator{}, out); err != nil {
		t.Fatal(err)
	}

	// <phi|V_NL|phi> should be real since KB is real and V_NL is Hermitian.
	var acc complex128
	for i := range phi.Data {
		acc += complexConj(phi.Data[i]) * out.Data[i]
	}
	if math.Abs(imag(acc)) > 1e-9 {
		t.Fatalf("expected real expectation value, got %v", acc)
	}
}

func TestBatchedMatrixMatchesApply(t *testing.T) {
	c, err := cell.Cubic(10, 3)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{8, 8, 8}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	sp := Species{Name: "H", Valence: 1, RCut: 1.5, Channels: []ChannelSpec{gaussianChannel(0, -1.0)}}
	p1, err := Build(r, 0, sp, [3]float64{2, 2, 2})
	if err != nil {
		t.Fatal(err)
	}
	p2, err := Build(r, 1, sp, [3]float64{6, 6, 6})
	if err != nil {
		t.Fatal(err)
	}

	phi := field.NewOrbitalSet(r, c, 2, 0, [3]float64{})
	for i := range phi.Data {
		phi.Data[i] = complex(float64(i%5)*0.1, float64(i%3)*0.1)
	}
	dV := c.Volume() / float64(r.Size())

	out1 := phi.ZerosLike()
	if err := Apply([]*Projector{p1, p2}, phi, dV, field.LocalCommunicator{}, out1); err != nil {
		t.Fatal(err)
	}

	batch := NewBatchedMatrix([]*Projector{p1, p2})
	out2 := phi.ZerosLike()
	if err := batch.Apply(phi, dV, field.LocalCommunicator{}, out2); err != nil {
		t.Fatal(err)
	}

	for i := range out1.Data {
		d := out1.Data[i] - out2.Data[i]
		if math.Hypot(real(d), imag(d)) > 1e-9 {
			t.Fatalf("batched result diverges from per-atom result at %d: %v vs %v", i, out1.Data[i], out2.Data[i])
		}
	}
}

func complexConj(v complex128) complex128 { return complex(real(v), -imag(v)) }
