package restart

import (
	"path/filepath"
	"testing"
)

func TestWriteReadOrbitalsRoundTrip(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "orbitals")

	h := Header{
		GridN:     [3]int32{2, 2, 2},
		CellA:     [3][3]float64{{10, 0, 0}, {0, 10, 0}, {0, 0, 10}},
		NSpin:     1,
		NKPoints:  1,
		NStates:   2,
		Precision: PrecisionC128,
	}
	n := 1 * 1 * 2 * 2 * 2 * 2
	data := make([]complex128, n)
	for i := range data {
		data[i] = complex(float64(i), -float64(i)*0.5)
	}

	if Done(dir) {
		t.Fatal("a fresh directory should not be done")
	}

	if err := WriteOrbitals(dir, h, data); err != nil {
		t.Fatal(err)
	}

	if !Done(dir) {
		t.Fatal("expected the done marker after a successful write")
	}

	gotHeader, gotData, err := ReadOrbitals(dir)
	if err != nil {
		t.Fatal(err)
	}
	if gotHeader.NStates != h.NStates || gotHeader.NSpin != h.NSpin || gotHeader.GridN != h.GridN {
		t.Fatalf("header mismatch: got %+v, want %+v", gotHeader, h)
	}
	if len(gotData) != len(data) {
		t.Fatalf("got %d values, want %d", len(gotData), len(data))
	}
	for i := range data {
		if gotData[i] != data[i] {
			t.Fatalf("value %d: got %v, want %v", i, gotData[i], data[i])
		}
	}
}

func TestWriteOrbitalsRejectsShapeMismatch(t *testing.T) {
	t.Parallel()
	dir := filepath.Join(t.TempDir(), "orbitals")
	h := Header{GridN: [3]int32{2, 2, 2}, NSpin: 1, NKPoints: 1, NStates: 1}
	if err := WriteOrbitals(dir, h, make([]complex128, 3)); err == nil {
		t.Fatal("expected a shape-mismatch error")
	}
}

func TestResultStoreSetGetRoundTrip(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "result.sqlite")
	store, err := OpenResultStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	if err := store.Set("scf.iterations", 12); err != nil {
		t.Fatal(err)
	}
	v, ok, err := store.Get("scf.iterations")
	if err != nil {
		t.Fatal(err)
	}
	if !ok || v != 12 {
		t.Fatalf("got (%v, %v), want (12, true)", v, ok)
	}

	if _, ok, err := store.Get("never.set"); err != nil || ok {
		t.Fatalf("got ok=%v err=%v, want ok=false err=nil", ok, err)
	}
}

func TestResultStoreSetEnergy(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "result.sqlite")
	store, err := OpenResultStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	rec := EnergyRecord{Eigsum: 1, Hartree: 2, XC: 3, NVxc: 4, IonIon: 5, CoreCorrection: 6, EXX: 7, Total: 8}
	if err := store.SetEnergy(rec); err != nil {
		t.Fatal(err)
	}
	total, ok, err := store.Get("energy.total")
	if err != nil || !ok || total != 8 {
		t.Fatalf("got (%v, %v, %v), want (8, true, nil)", total, ok, err)
	}
}
