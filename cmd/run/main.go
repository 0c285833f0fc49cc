// Command run is the command-line surface over a ground-state
// calculation: persist a cell, an ion list, and the electrons/theory
// option bundles into a run directory, then run self-consistency and
// report the result, split into subcommands since a multi-stage
// calculation setup needs more than one flag set.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/cmplx"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/qsim/rtdft/cell"
	"github.com/qsim/rtdft/errs"
	"github.com/qsim/rtdft/exchange"
	"github.com/qsim/rtdft/field"
	"github.com/qsim/rtdft/grid"
	"github.com/qsim/rtdft/hamiltonian"
	"github.com/qsim/rtdft/ion"
	"github.com/qsim/rtdft/observe"
	"github.com/qsim/rtdft/options"
	"github.com/qsim/rtdft/perturbation"
	"github.com/qsim/rtdft/poisson"
	"github.com/qsim/rtdft/pseudo"
	"github.com/qsim/rtdft/realtime"
	"github.com/qsim/rtdft/restart"
	"github.com/qsim/rtdft/scf"
	"github.com/qsim/rtdft/units"
	"github.com/qsim/rtdft/xc"
)

func main() {
	log.SetFlags(log.Lmicroseconds | log.Llongfile | log.LstdFlags)

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: run <cell|ions|electrons|theory|run|result> [flags]")
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "cell":
		err = cmdCell(os.Args[2:])
	case "ions":
		err = cmdIons(os.Args[2:])
	case "electrons":
		err = cmdElectrons(os.Args[2:])
	case "theory":
		err = cmdTheory(os.Args[2:])
	case "run":
		err = cmdRun(os.Args[2:])
	case "result":
		err = cmdResult(os.Args[2:])
	default:
		err = errs.BadConfigurationf("unknown subcommand %q", os.Args[1])
	}

	if err != nil {
		log.Printf("%+v", err)
		os.Exit(1)
	}
	os.Exit(0)
}

const (
	cellDir      = "cell"
	ionsFile     = "ions.txt"
	ionsUnitFile = "ions.unit"
	electronsDir = "options/electrons"
	theoryDir    = "options/theory"
	realTimeDir  = "options/realtime"
	restartDir   = "restart"
	resultFile   = "result.sqlite"
)

// cmdCell persists a cubic simulation cell's side length and
// periodicity as plain-text files, the same one-value-per-file idiom
// the options package already uses.
func cmdCell(args []string) error {
	fs := flag.NewFlagSet("cell", flag.ExitOnError)
	dir := fs.String("d", filepath.Join("runs", "default"), "run directory")
	length := fs.Float64("length", 10.0, "cubic cell side length")
	unit := fs.String("unit", "bohr", "length unit: bohr|angstrom")
	periodicity := fs.Int("periodicity", 0, "number of periodic dimensions, 0..3")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "")
	}
	lengthUnit, ok := units.ParseLengthUnit(*unit)
	if !ok {
		return errs.BadConfigurationf("cell: unknown length unit %q", *unit)
	}
	*length = units.ToBohr(*length, lengthUnit)

	c, err := cell.Cubic(*length, *periodicity)
	if err != nil {
		return errors.Wrap(err, "")
	}

	out := filepath.Join(*dir, cellDir)
	if err := os.MkdirAll(out, 0o755); err != nil {
		return errs.IOFailuref("cell: cannot create %q: %v", out, err)
	}
	if err := os.WriteFile(filepath.Join(out, "length"), []byte(fmt.Sprintf("%.17e\n", *length)), 0o644); err != nil {
		return errs.IOFailuref("cell: cannot write length: %v", err)
	}
	if err := os.WriteFile(filepath.Join(out, "periodicity"), []byte(strconv.Itoa(*periodicity)+"\n"), 0o644); err != nil {
		return errs.IOFailuref("cell: cannot write periodicity: %v", err)
	}

	fmt.Printf("cell: volume = %.17e\n", c.Volume())
	return nil
}

func loadCell(dir string) (*cell.Cell, error) {
	in := filepath.Join(dir, cellDir)
	lengthBytes, err := os.ReadFile(filepath.Join(in, "length"))
	if err != nil {
		return nil, errs.IOFailuref("cell: cannot read length from %q: %v", in, err)
	}
	length, err := strconv.ParseFloat(strings.TrimSpace(string(lengthBytes)), 64)
	if err != nil {
		return nil, errs.IOFailuref("cell: length file is not a number: %v", err)
	}
	periodicity := 0
	if b, err := os.ReadFile(filepath.Join(in, "periodicity")); err == nil {
		periodicity, _ = strconv.Atoi(strings.TrimSpace(string(b)))
	}
	return cell.Cubic(length, periodicity)
}

// cmdIons reads a plain-text list of atoms — one line per atom, fields
// "species charge x y z" — and copies it verbatim into the run
// directory, the same bare-scalar-per-line format the rest of the
// options surface favors over a structured encoding.
func cmdIons(args []string) error {
	fs := flag.NewFlagSet("ions", flag.ExitOnError)
	dir := fs.String("d", filepath.Join("runs", "default"), "run directory")
	file := fs.String("file", "", "path to an atom list: one 'species charge x y z' line per atom")
	unit := fs.String("unit", "bohr", "coordinate unit the file is written in: bohr|angstrom")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "")
	}
	if *file == "" {
		return errs.BadConfigurationf("ions: -file is required")
	}
	if _, ok := units.ParseLengthUnit(*unit); !ok {
		return errs.BadConfigurationf("ions: unknown coordinate unit %q", *unit)
	}

	data, err := os.ReadFile(*file)
	if err != nil {
		return errs.IOFailuref("ions: cannot read %q: %v", *file, err)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		return errs.IOFailuref("ions: cannot create %q: %v", *dir, err)
	}
	out := filepath.Join(*dir, ionsFile)
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return errs.IOFailuref("ions: cannot write %q: %v", out, err)
	}
	return os.WriteFile(filepath.Join(*dir, ionsUnitFile), []byte(*unit+"\n"), 0o644)
}

func loadIons(dir string, c *cell.Cell) (*ion.System, error) {
	path := filepath.Join(dir, ionsFile)
	f, err := os.Open(path)
	if err != nil {
		return nil, errs.IOFailuref("ions: cannot open %q: %v", path, err)
	}
	defer f.Close()

	lengthUnit := units.Bohr
	if b, err := os.ReadFile(filepath.Join(dir, ionsUnitFile)); err == nil {
		if u, ok := units.ParseLengthUnit(strings.TrimSpace(string(b))); ok {
			lengthUnit = u
		}
	}

	sys := &ion.System{Cell: c}
	scanner := bufio.NewScanner(f)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) != 5 {
			return nil, errs.BadConfigurationf("ions: %s:%d: expected 'species charge x y z', got %q", path, lineNo, line)
		}
		charge, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, errs.BadConfigurationf("ions: %s:%d: bad charge: %v", path, lineNo, err)
		}
		var pos [3]float64
		for i := 0; i < 3; i++ {
			pos[i], err = strconv.ParseFloat(fields[2+i], 64)
			if err != nil {
				return nil, errs.BadConfigurationf("ions: %s:%d: bad coordinate: %v", path, lineNo, err)
			}
			pos[i] = units.ToBohr(pos[i], lengthUnit)
		}
		sys.Atoms = append(sys.Atoms, ion.Atom{Species: fields[0], Charge: charge, Pos: pos})
	}
	if err := scanner.Err(); err != nil {
		return nil, errs.IOFailuref("ions: error reading %q: %v", path, err)
	}
	return sys, nil
}

func cmdElectrons(args []string) error {
	fs := flag.NewFlagSet("electrons", flag.ExitOnError)
	dir := fs.String("d", filepath.Join("runs", "default"), "run directory")
	extraStates := fs.Int("extra-states", 0, "number of extra empty states")
	temperature := fs.Float64("temperature", 0.001, "Fermi-Dirac smearing temperature")
	temperatureUnit := fs.String("temperature-unit", "hartree", "hartree|kelvin")
	spin := fs.String("spin", "unpolarized", "unpolarized|polarized|non_collinear")
	ecut := fs.Float64("cutoff", 0, "plane-wave cutoff energy, Hartree (derives the grid spacing if >0)")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "")
	}
	tUnit, ok := units.ParseTemperatureUnit(*temperatureUnit)
	if !ok {
		return errs.BadConfigurationf("electrons: unknown temperature unit %q", *temperatureUnit)
	}
	*temperature = units.ToHartreeTemperature(*temperature, tUnit)

	e := options.Electrons{}.ExtraStates(*extraStates).Temperature(*temperature)
	switch *spin {
	case "polarized":
		e = e.SpinPolarized()
	case "non_collinear":
		e = e.SpinNonCollinear()
	default:
		e = e.SpinUnpolarized()
	}
	if *ecut > 0 {
		e = e.Cutoff(*ecut)
	}

	out := filepath.Join(*dir, electronsDir)
	return e.Save(out)
}

func cmdTheory(args []string) error {
	fs := flag.NewFlagSet("theory", flag.ExitOnError)
	dir := fs.String("d", filepath.Join("runs", "default"), "run directory")
	kind := fs.String("functional", "lda", "non_interacting|hartree|lda|hartree_fock")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "")
	}

	var th options.Theory
	switch *kind {
	case "non_interacting":
		th = th.NonInteracting()
	case "hartree":
		th = th.Hartree()
	case "hartree_fock":
		th = th.HartreeFock()
	case "lda":
		th = th.LDA()
	default:
		return errs.BadConfigurationf("theory: unknown functional %q", *kind)
	}

	out := filepath.Join(*dir, theoryDir)
	return th.Save(out)
}

// buildSpecies turns every distinct species name present in sys into a
// synthetic local-only pseudopotential, a soft-Coulomb radial form
// with no non-local channels. Real pseudopotential tables (UPF
// parsing) are an external collaborator this engine does not own; the
// synthetic species lets the full ground-state pipeline run
// end-to-end against an analytic local potential instead.
func buildSpecies(sys *ion.System) map[string]pseudo.Species {
	out := make(map[string]pseudo.Species)
	for _, a := range sys.Atoms {
		if _, ok := out[a.Species]; ok {
			continue
		}
		charge := a.Charge
		out[a.Species] = pseudo.Species{
			Name:    a.Species,
			Valence: charge,
			RCut:    0,
			Local: func(r float64) float64 {
				return -charge / math.Sqrt(r*r+0.3*0.3)
			},
		}
	}
	return out
}

func cmdRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	dir := fs.String("d", filepath.Join("runs", "default"), "run directory")
	n := fs.Int("n", 16, "grid points per axis")
	ecut := fs.Float64("ecut", 4.0, "plane-wave energy cutoff, Hartree")
	nElectrons := fs.Float64("nelectrons", 0, "number of electrons (0 = sum of ion charges)")
	maxIter := fs.Int("maxiter", 60, "maximum SCF iterations")
	refineSteps := fs.Int("refine-steps", 3, "steepest-descent refinement steps per SCF iteration")
	propagate := fs.Bool("propagate", false, "continue with a real-time propagation after self-consistency, using the saved options/realtime bundle")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "")
	}

	c, err := loadCell(*dir)
	if err != nil {
		return err
	}
	sys, err := loadIons(*dir, c)
	if err != nil {
		return err
	}
	electronsOpts, err := options.LoadElectrons(filepath.Join(*dir, electronsDir))
	if err != nil {
		return err
	}
	theoryOpts, err := options.LoadTheory(filepath.Join(*dir, theoryDir))
	if err != nil {
		return err
	}

	r, err := grid.NewReal(c, [3]int{*n, *n, *n}, *ecut)
	if err != nil {
		return err
	}
	dV := r.Cell.Volume() / float64(r.Size())

	species := buildSpecies(sys)
	pseudoAtoms := make([]pseudo.Atom, len(sys.Atoms))
	for i, a := range sys.Atoms {
		pseudoAtoms[i] = pseudo.Atom{Species: a.Species, Pos: a.Pos}
	}
	vIonLocal, err := pseudo.LocalPotential(r, pseudoAtoms, species)
	if err != nil {
		return err
	}
	projectors, err := pseudo.BuildProjectors(r, pseudoAtoms, species)
	if err != nil {
		return err
	}

	ps, err := poisson.NewSolver(r, 0.5*math.Cbrt(c.Volume()))
	if err != nil {
		return err
	}

	// Only the LDA pair (Slater exchange, PW92 correlation) is
	// implemented; any gradient-corrected or hybrid selection other
	// than hartree_fock falls back to it rather than leaving the
	// functional silently unset.
	var term xc.Term
	if theoryOpts.ExchangeValue() != "none" || theoryOpts.CorrelationValue() != "none" {
		if theoryOpts.ExchangeValue() != "hartree_fock" {
			term = xc.Term{Exchange: xc.SlaterExchange{}, Correlation: xc.PW92Correlation{}}
		}
	}

	var exch *exchange.Operator
	if coeff, cerr := theoryOpts.ExchangeCoefficient(); cerr == nil && coeff > 0 {
		exch = exchange.NewOperator(ps, coeff, false)
	}

	nChannels := electronsOpts.NumSpinComponentsValue()
	nStates := 0
	totalCharge := 0.0
	for _, a := range sys.Atoms {
		totalCharge += a.Charge
	}
	electronCount := *nElectrons
	if electronCount <= 0 {
		electronCount = totalCharge
	}
	nStates = int(math.Ceil(electronCount/2)) + electronsOpts.ExtraStatesValue()
	if nStates < 1 {
		nStates = 1
	}

	orbitals := make([]*field.OrbitalSet, nChannels)
	for s := 0; s < nChannels; s++ {
		phi := field.NewOrbitalSet(r, c, nStates, s, [3]float64{})
		seedOrbitals(phi)
		phi.Orthonormalize()
		orbitals[s] = phi
	}

	density, err := field.NewDensity(r, nChannels)
	if err != nil {
		return err
	}
	weightPerState := electronCount / float64(nChannels*nStates)
	for s, phi := range orbitals {
		spinComp := 0
		if nChannels == 2 {
			spinComp = s
		}
		for ist := 0; ist < phi.LocalCount; ist++ {
			if err := density.AccumulateOrbital(phi.State(ist), weightPerState, spinComp); err != nil {
				return err
			}
		}
	}

	ham, err := hamiltonian.New(r, [3]float64{}, vIonLocal, projectors, ps, term, exch, perturbation.None{}, field.LocalCommunicator{})
	if err != nil {
		return err
	}

	cfg := scf.Config{
		MaxIterations:   *maxIter,
		RefinementSteps: *refineSteps,
		NElectrons:      electronCount,
		Temperature:     electronsOpts.TemperatureValue(),
		EnergyTol:       1e-6,
		DensityTol:      1e-4,
		MixAlpha:        0.3,
		MixHistory:      6,
		EwaldAlpha:      0.3,
		EwaldRCut:       8,
		EwaldGCut:       6,
	}
	if cfg.Temperature <= 0 {
		cfg.Temperature = 0.001
	}

	driver := scf.NewDriver(ham, sys, r, dV, cfg)
	state := &scf.State{Density: density, Orbitals: orbitals}

	finalState, runErr := driver.Run(state)
	notConverged := errs.Is(runErr, errs.NotConverged)
	if runErr != nil && !notConverged {
		return runErr
	}

	if err := persistResult(*dir, r, finalState); err != nil {
		return err
	}

	fmt.Printf("scf: iterations = %d\n", finalState.Iteration)
	fmt.Printf("scf: converged = %v\n", !notConverged)
	fmt.Printf("energy.total = %.17e\n", finalState.Energy.Total)

	if *propagate && !notConverged {
		if err := runPropagation(*dir, ham, sys, r, dV, species, projectors, finalState); err != nil {
			return err
		}
	}

	if notConverged {
		return runErr
	}
	return nil
}

// runPropagation loads the persisted options/realtime bundle (or its
// defaults if none was saved) and continues the converged ground
// state into a real-time run, collecting the x component of the
// electronic dipole moment at every step and recording the step count
// and the peak frequency and magnitude of its spectrum into the result
// store; the dipole series and the full spectrum are not stored.
func runPropagation(dir string, ham *hamiltonian.Hamiltonian, sys *ion.System, r *grid.Real, dV float64, species map[string]pseudo.Species, projectors []*pseudo.Projector, ground *scf.State) error {
	rtOpts, err := options.LoadRealTime(filepath.Join(dir, realTimeDir))
	if err != nil {
		return err
	}
	cfg := rtOpts.ToConfig()

	driver := realtime.NewDriver(ham, sys, r, dV, cfg)
	driver.Species = species
	driver.Projectors = projectors
	driver.EwaldAlpha, driver.EwaldRCut, driver.EwaldGCut = 0.3, 8, 6

	state := &realtime.State{
		Density:     ground.Density,
		CoreDensity: ground.CoreDensity,
		Orbitals:    ground.Orbitals,
		Occupations: ground.Occupations,
	}

	times := make([]float64, 0, cfg.NumSteps+1)
	dipoleX := make([]float64, 0, cfg.NumSteps+1)
	observer := func(snap realtime.Snapshot) {
		times = append(times, snap.Time)
		dipoleX = append(dipoleX, snap.Dipole[0])
	}

	if _, err := driver.Propagate(state, realtime.FixedIonPropagator{}, observer); err != nil {
		return err
	}

	store, err := restart.OpenResultStore(filepath.Join(dir, resultFile))
	if err != nil {
		return err
	}
	defer store.Close()
	if err := store.Set("realtime.num_steps", float64(len(times)-1)); err != nil {
		return err
	}
	if len(times) >= 2 {
		maxw := 2.0
		spectrum, err := observe.SpectrumReal(maxw, 0.01, times, dipoleX)
		if err != nil {
			return err
		}
		peakIdx, peakMag := 0, 0.0
		for i, v := range spectrum {
			if m := cmplx.Abs(v); m > peakMag {
				peakIdx, peakMag = i, m
			}
		}
		if err := store.Set("realtime.dipole_spectrum_peak_frequency", 0.01*float64(peakIdx)); err != nil {
			return err
		}
		if err := store.Set("realtime.dipole_spectrum_peak_magnitude", peakMag); err != nil {
			return err
		}
	}
	fmt.Printf("realtime: steps = %d\n", len(times)-1)
	return nil
}

// seedOrbitals fills phi with a smooth, position-dependent but
// deterministic pattern, enough variation for Gram-Schmidt to produce
// a linearly independent initial guess without reaching for a random
// number generator whose seed would have to be threaded through for
// reproducibility.
func seedOrbitals(phi *field.OrbitalSet) {
	n := phi.Grid.Size()
	for li := 0; li < phi.LocalCount; li++ {
		ist := phi.LocalStart + li
		for idx := 0; idx < n; idx++ {
			phase := float64((idx+1)*(ist+1)) * 0.618033988749895
			phi.Data[li*n+idx] = complex(math.Cos(phase), math.Sin(phase)*0.1)
		}
	}
}

func persistResult(dir string, r *grid.Real, state *scf.State) error {
	store, err := restart.OpenResultStore(filepath.Join(dir, resultFile))
	if err != nil {
		return err
	}
	defer store.Close()

	rec := restart.EnergyRecord{
		Eigsum:         state.Energy.Eigsum,
		Hartree:        state.Energy.Hartree,
		XC:             state.Energy.XC,
		NVxc:           state.Energy.NVxc,
		IonIon:         state.Energy.IonIon,
		CoreCorrection: state.Energy.CoreCorrection,
		EXX:            state.Energy.EXX,
		Total:          state.Energy.Total,
	}
	if err := store.SetEnergy(rec); err != nil {
		return err
	}
	if err := store.Set("scf.iterations", float64(state.Iteration)); err != nil {
		return err
	}
	if state.Mu != 0 {
		if err := store.Set("scf.mu", state.Mu); err != nil {
			return err
		}
	}

	header := restart.Header{
		GridN:     [3]int32{int32(r.N[0]), int32(r.N[1]), int32(r.N[2])},
		CellA:     r.Cell.A,
		NSpin:     int32(len(state.Orbitals)),
		NKPoints:  1,
		NStates:   int32(state.Orbitals[0].NStates),
		Precision: restart.PrecisionC128,
	}
	var data []complex128
	for _, phi := range state.Orbitals {
		data = append(data, phi.Data...)
	}
	return restart.WriteOrbitals(filepath.Join(dir, restartDir), header, data)
}

func cmdResult(args []string) error {
	fs := flag.NewFlagSet("result", flag.ExitOnError)
	dir := fs.String("d", filepath.Join("runs", "default"), "run directory")
	if err := fs.Parse(args); err != nil {
		return errors.Wrap(err, "")
	}

	store, err := restart.OpenResultStore(filepath.Join(*dir, resultFile))
	if err != nil {
		return err
	}
	defer store.Close()

	names := []string{
		"energy.total", "energy.eigsum", "energy.hartree", "energy.xc", "energy.nvxc",
		"energy.ion_ion", "energy.core_correction", "energy.exx",
		"scf.iterations", "scf.mu",
	}
	for _, name := range names {
		v, ok, err := store.Get(name)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		fmt.Printf("%s = %.17e\n", name, v)
	}
	return nil
}
