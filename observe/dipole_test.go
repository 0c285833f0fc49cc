package observe

import (
	"math"
	"testing"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

func TestDipoleOfOffCenterPointChargeLikeDensity(t *testing.T) {
	t.Parallel()
	c, err := cell.Cubic(10, 0)
	if err != nil {
		t.Fatal(err)
	}
	r, err := grid.NewReal(c, [3]int{8, 8, 8}, 1.0)
	if err != nil {
		t.Fatal(err)
	}
	dV := r.Cell.Volume() / float64(r.Size())

	dens, err := field.NewDensity(r, 1)
	if err != nil {
		t.Fatal(err)
	}

	n := r.Size()
	shiftX := 1.0
	for idx := 0; idx < n; idx++ {
		ix, iy, iz := r.Coords(idx)
		pos := r.CartesianAt(ix, iy, iz)
		d2 := (pos[0]-5-shiftX)*(pos[0]-5-shiftX) + (pos[1]-5)*(pos[1]-5) + (pos[2]-5)*(pos[2]-5)
		dens.Field.Data[idx] = complex(math.Exp(-d2), 0)
	}

	// Dipole measures r from the cell origin, so a density centred at 5
	// along y and z contributes charge*5 there, and the +x shift pushes
	// the x component above charge*5.
	dip := Dipole(dens, r, dV)
	q := dens.TotalCharge(dV)
	if dip[0] <= 5*q {
		t.Fatalf("expected the x dipole component to exceed 5*charge=%v from charge shifted to +x, got %v", 5*q, dip[0])
	}
	if math.Abs(dip[1]-5*q) > 1e-6 || math.Abs(dip[2]-5*q) > 1e-6 {
		t.Fatalf("expected y/z dipole equal to 5*charge=%v for a density symmetric in yz about 5, got %v", 5*q, dip)
	}
}
