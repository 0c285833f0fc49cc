package pseudo

// RadialForm is a tabulated or analytic radial function, evaluated at a
// distance from the nucleus in Bohr. Real pseudopotential tables (UPF
// parsing, etc.) are an external collaborator; this engine only needs
// the evaluated callback.
type RadialForm func(r float64) float64

// ChannelSpec describes one Kleinman-Bylander projector channel: its
// angular momentum, radial shape, and KB coefficient d_l (Hartree).
type ChannelSpec struct {
	L      int
	Radial RadialForm
	KB     float64
}

// Species is the per-element atomic potential: a local ionic potential
// radial form, a valence electron count, a projector cutoff radius, and
// the list of non-local channels.
type Species struct {
	Name     string
	Valence  float64
	RCut     float64
	Local    RadialForm
	Channels []ChannelSpec
}

// NumProjectorsLM returns the total number of (l,m) projector rows,
// summing 2l+1 over every channel.
func (s Species) NumProjectorsLM() int {
	n := 0
	for _, c := range s.Channels {
		n += 2*c.L + 1
	}
	return n
}
