package options

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/qsim/rtdft/realtime"
)

func TestTheoryDefaults(t *testing.T) {
	t.Parallel()
	var th Theory
	if !th.HartreePotentialValue() {
		t.Fatal("expected hartree potential on by default")
	}
	if th.ExchangeValue() != "pbe" || th.CorrelationValue() != "pbe" {
		t.Fatalf("got exchange=%s correlation=%s, want pbe/pbe", th.ExchangeValue(), th.CorrelationValue())
	}
	if _, err := th.ExchangeCoefficient(); err == nil {
		t.Fatal("expected an error for a functional without a closed-form coefficient")
	}
}

func TestTheoryNonInteracting(t *testing.T) {
	t.Parallel()
	th := Theory{}.NonInteracting()
	if th.SelfConsistent() {
		t.Fatal("non-interacting theory should not be self-consistent")
	}
	coeff, err := th.ExchangeCoefficient()
	if err != nil {
		t.Fatal(err)
	}
	if coeff != 0 {
		t.Fatalf("got %v, want 0", coeff)
	}
	if th.HasInducedVectorPotential() {
		t.Fatal("unexpected induced vector potential")
	}
}

func TestTheoryHartreeFock(t *testing.T) {
	t.Parallel()
	th := Theory{}.HartreeFock()
	coeff, err := th.ExchangeCoefficient()
	if err != nil {
		t.Fatal(err)
	}
	if coeff != 1 {
		t.Fatalf("got %v, want 1", coeff)
	}
}

func TestTheoryInducedVectorPotential(t *testing.T) {
	t.Parallel()
	th := Theory{}.InducedVectorPotential(-4 * math.Pi)
	if !th.HasInducedVectorPotential() {
		t.Fatal("expected induced vector potential to be set")
	}
	if th.AlphaValue() != -4*math.Pi {
		t.Fatalf("got %v, want -4*pi", th.AlphaValue())
	}
}

func TestTheorySaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "theory")
	th := Theory{}.PBE0().InducedVectorPotential(0.2)
	if err := th.Save(dir); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadTheory(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ExchangeValue() != "pbe0" {
		t.Fatalf("got exchange=%s, want pbe0", loaded.ExchangeValue())
	}
	if loaded.AlphaValue() != 0.2 {
		t.Fatalf("got alpha=%v, want 0.2", loaded.AlphaValue())
	}
}

func TestTheoryLoadMissingDirectoryUsesDefaults(t *testing.T) {
	t.Parallel()
	loaded, err := LoadTheory(filepath.Join(t.TempDir(), "does-not-exist"))
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ExchangeValue() != "pbe" {
		t.Fatalf("got %s, want pbe default", loaded.ExchangeValue())
	}
}

func TestElectronsDefaults(t *testing.T) {
	t.Parallel()
	var e Electrons
	if e.ExtraStatesValue() != 0 {
		t.Fatalf("got %d, want 0", e.ExtraStatesValue())
	}
	if e.SpinValue() != Unpolarized || e.NumSpinComponentsValue() != 1 {
		t.Fatal("expected unpolarized, one spin component by default")
	}
	if e.DensityFactorValue() != 1.0 {
		t.Fatalf("got %v, want 1.0", e.DensityFactorValue())
	}
}

func TestElectronsCutoffDerivesSpacing(t *testing.T) {
	t.Parallel()
	e := Electrons{}.Cutoff(23.1)
	spacing, ok := e.SpacingValue()
	if !ok {
		t.Fatal("expected spacing to be set")
	}
	want := math.Pi * math.Sqrt(0.5/23.1)
	if math.Abs(spacing-want) > 1e-12 {
		t.Fatalf("got %v, want %v", spacing, want)
	}
}

func TestElectronsSaveLoadRoundTrip(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "electrons")
	e := Electrons{}.ExtraStates(666).SpinNonCollinear().Temperature(0.02)
	if err := e.Save(dir); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadElectrons(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ExtraStatesValue() != 666 {
		t.Fatalf("got %d, want 666", loaded.ExtraStatesValue())
	}
	if loaded.SpinValue() != NonCollinear {
		t.Fatalf("got %v, want non-collinear", loaded.SpinValue())
	}
	if loaded.TemperatureValue() != 0.02 {
		t.Fatalf("got %v, want 0.02", loaded.TemperatureValue())
	}
}

func TestElectronsUnknownFileIsIgnored(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	e := Electrons{}.ExtraStates(3)
	if err := e.Save(dir); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "not_a_real_option"), []byte("garbage"), 0o644); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadElectrons(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.ExtraStatesValue() != 3 {
		t.Fatalf("got %d, want 3", loaded.ExtraStatesValue())
	}
}

func TestRealTimeDefaults(t *testing.T) {
	t.Parallel()
	var rt RealTime
	if rt.DtValue() != 0.01 {
		t.Fatalf("got %v, want 0.01", rt.DtValue())
	}
	if rt.NumStepsValue() != 100 {
		t.Fatalf("got %d, want 100", rt.NumStepsValue())
	}
	if rt.PropagatorValue() != realtime.ETRS {
		t.Fatal("expected ETRS by default")
	}
}

func TestRealTimeCompositionAndSaveLoad(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "real_time")
	rt := RealTime{}.NumSteps(1000).Dt(0.05).CrankNicolson()
	if rt.NumStepsValue() != 1000 || rt.DtValue() != 0.05 || rt.PropagatorValue() != realtime.CrankNicolson {
		t.Fatal("composition did not stick before saving")
	}
	if err := rt.Save(dir); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadRealTime(dir)
	if err != nil {
		t.Fatal(err)
	}
	if loaded.NumStepsValue() != 1000 || loaded.DtValue() != 0.05 || loaded.PropagatorValue() != realtime.CrankNicolson {
		t.Fatalf("round trip mismatch: %+v", loaded)
	}
	cfg := loaded.ToConfig()
	if cfg.NumSteps != 1000 || cfg.Dt != 0.05 || cfg.Propagator != realtime.CrankNicolson {
		t.Fatalf("ToConfig mismatch: %+v", cfg)
	}
}
