package main

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qsim/rtdft/ion"
	"github.com/qsim/rtdft/options"
	"github.com/qsim/rtdft/units"
)

func TestCellSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if err := cmdCell([]string{"-d", dir, "-length", "12.5", "-periodicity", "0"}); err != nil {
		t.Fatal(err)
	}
	c, err := loadCell(dir)
	if err != nil {
		t.Fatal(err)
	}
	if got := c.A[0][0]; got != 12.5 {
		t.Fatalf("cell edge length = %v, want 12.5", got)
	}
}

func TestCellAcceptsAngstromUnit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if err := cmdCell([]string{"-d", dir, "-length", "5", "-unit", "angstrom", "-periodicity", "0"}); err != nil {
		t.Fatal(err)
	}
	c, err := loadCell(dir)
	if err != nil {
		t.Fatal(err)
	}
	want := 5 * units.BohrPerAngstrom
	if got := c.A[0][0]; math.Abs(got-want) > 1e-9 {
		t.Fatalf("cell edge length = %v, want %v Bohr", got, want)
	}
}

func TestIonsAcceptsAngstromUnit(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	atomFile := filepath.Join(dir, "atoms.txt")
	if err := os.WriteFile(atomFile, []byte("H 1.0 1.0 2.0 3.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	runDir := filepath.Join(dir, "run")
	if err := cmdIons([]string{"-d", runDir, "-file", atomFile, "-unit", "angstrom"}); err != nil {
		t.Fatal(err)
	}
	if err := cmdCell([]string{"-d", runDir, "-length", "20", "-periodicity", "0"}); err != nil {
		t.Fatal(err)
	}
	c, err := loadCell(runDir)
	if err != nil {
		t.Fatal(err)
	}
	sys, err := loadIons(runDir, c)
	if err != nil {
		t.Fatal(err)
	}
	want := 1.0 * units.BohrPerAngstrom
	if math.Abs(sys.Atoms[0].Pos[0]-want) > 1e-9 {
		t.Fatalf("x coordinate = %v, want %v Bohr", sys.Atoms[0].Pos[0], want)
	}
}

func TestElectronsAcceptsKelvinTemperature(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if err := cmdElectrons([]string{"-d", dir, "-temperature", "300", "-temperature-unit", "kelvin"}); err != nil {
		t.Fatal(err)
	}
	e, err := options.LoadElectrons(filepath.Join(dir, electronsDir))
	if err != nil {
		t.Fatal(err)
	}
	want := 300 * units.HartreePerKelvin
	if math.Abs(e.TemperatureValue()-want) > 1e-12 {
		t.Fatalf("temperature = %v Hartree, want %v", e.TemperatureValue(), want)
	}
}

func TestIonsSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	atomFile := filepath.Join(dir, "atoms.txt")
	content := "# a comment line\nH 1.0 1.0 2.0 3.0\nHe 2.0 4.0 5.0 6.0\n"
	if err := os.WriteFile(atomFile, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	runDir := filepath.Join(dir, "run")
	if err := cmdIons([]string{"-d", runDir, "-file", atomFile}); err != nil {
		t.Fatal(err)
	}
	if err := cmdCell([]string{"-d", runDir, "-length", "10", "-periodicity", "0"}); err != nil {
		t.Fatal(err)
	}
	c, err := loadCell(runDir)
	if err != nil {
		t.Fatal(err)
	}
	sys, err := loadIons(runDir, c)
	if err != nil {
		t.Fatal(err)
	}

	want := []ion.Atom{
		{Species: "H", Charge: 1.0, Pos: [3]float64{1.0, 2.0, 3.0}},
		{Species: "He", Charge: 2.0, Pos: [3]float64{4.0, 5.0, 6.0}},
	}
	if len(sys.Atoms) != len(want) {
		t.Fatalf("got %d atoms, want %d", len(sys.Atoms), len(want))
	}
	for i, a := range sys.Atoms {
		if a != want[i] {
			t.Fatalf("atom %d = %+v, want %+v", i, a, want[i])
		}
	}
}

func TestIonsRejectsMalformedLine(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	atomFile := filepath.Join(dir, "atoms.txt")
	if err := os.WriteFile(atomFile, []byte("H 1.0 2.0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	runDir := filepath.Join(dir, "run")
	if err := cmdIons([]string{"-d", runDir, "-file", atomFile}); err != nil {
		t.Fatal(err)
	}
	if err := cmdCell([]string{"-d", runDir, "-length", "10", "-periodicity", "0"}); err != nil {
		t.Fatal(err)
	}
	c, err := loadCell(runDir)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := loadIons(runDir, c); err == nil {
		t.Fatal("expected an error for a malformed atom line")
	}
}

func TestBuildSpeciesOneEntryPerDistinctName(t *testing.T) {
	t.Parallel()
	sys := &ion.System{Atoms: []ion.Atom{
		{Species: "H", Charge: 1.0, Pos: [3]float64{0, 0, 0}},
		{Species: "H", Charge: 1.0, Pos: [3]float64{1, 0, 0}},
		{Species: "He", Charge: 2.0, Pos: [3]float64{2, 0, 0}},
	}}
	species := buildSpecies(sys)
	if len(species) != 2 {
		t.Fatalf("got %d species, want 2", len(species))
	}
	if species["H"].Valence != 1.0 || species["He"].Valence != 2.0 {
		t.Fatalf("unexpected valence charges: %+v", species)
	}
	if species["H"].Local(0) >= 0 {
		t.Fatalf("local potential should be attractive at the origin, got %v", species["H"].Local(0))
	}
}

func TestElectronsAndTheorySaveLoadThroughCLI(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if err := cmdElectrons([]string{"-d", dir, "-extra-states", "2", "-temperature", "0.002", "-spin", "polarized"}); err != nil {
		t.Fatal(err)
	}
	if err := cmdTheory([]string{"-d", dir, "-functional", "lda"}); err != nil {
		t.Fatal(err)
	}

	e, err := options.LoadElectrons(filepath.Join(dir, electronsDir))
	if err != nil {
		t.Fatal(err)
	}
	if e.ExtraStatesValue() != 2 {
		t.Fatalf("extra states = %d, want 2", e.ExtraStatesValue())
	}
	if e.NumSpinComponentsValue() != 2 {
		t.Fatalf("spin components = %d, want 2", e.NumSpinComponentsValue())
	}

	th, err := options.LoadTheory(filepath.Join(dir, theoryDir))
	if err != nil {
		t.Fatal(err)
	}
	if th.ExchangeValue() != "lda" {
		t.Fatalf("exchange = %q, want lda", th.ExchangeValue())
	}
}
