package pseudo

import (
	"math"

	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
)

// Atom is the minimal per-atom input the local potential and projector
// builders need: a species lookup key and a cartesian position.
type Atom struct {
	Species string
	Pos     [3]float64
}

// LocalPotential sums each atom's species.Local radial potential,
// evaluated at the minimum-image distance from every grid point, into a
// single scalar field: V_loc(r) = sum_a v_a(|r - R_a|).
func LocalPotential(r *grid.Real, atoms []Atom, species map[string]Species) (*field.Field, error) {
	out := field.NewField(r, field.RealScalar)
	for _, a := range atoms {
		sp, ok := species[a.Species]
		if !ok {
			return nil, errs.BadConfigurationf("pseudo: unknown species %q", a.Species)
		}
		if sp.Local == nil {
			continue
		}
		for ix := 0; ix < r.N[0]; ix++ {
			for iy := 0; iy < r.N[1]; iy++ {
				for iz := 0; iz < r.N[2]; iz++ {
					gridPos := r.CartesianAt(ix, iy, iz)
					disp := minimumImage(r, gridPos, a.Pos)
					d := math.Sqrt(disp[0]*disp[0] + disp[1]*disp[1] + disp[2]*disp[2])
					idx := r.Index(ix, iy, iz)
					out.Data[idx] += complex(sp.Local(d), 0)
				}
			}
		}
	}
	return out, nil
}

// BuildProjectors constructs one Projector per atom from its species
// table, skipping species with no non-local channels.
func BuildProjectors(r *grid.Real, atoms []Atom, species map[string]Species) ([]*Projector, error) {
	var out []*Projector
	for i, a := range atoms {
		sp, ok := species[a.Species]
		if !ok {
			return nil, errs.BadConfigurationf("pseudo: unknown species %q", a.Species)
		}
		if len(sp.Channels) == 0 {
			continue
		}
		p, err := Build(r, i, sp, a.Pos)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
