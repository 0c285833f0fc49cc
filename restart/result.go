package restart

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
)

const tableMetrics = "metrics"

// ResultStore is a sqlite-backed directory of scalar run metrics —
// total energy and its components, the chemical potential, density
// residual norm, iteration count — keyed by name, mirroring the
// teacher's DiskMatrix pattern of treating a single sqlite file as an
// on-disk map.
type ResultStore struct {
	Path string
	db   *sql.DB
}

// OpenResultStore opens (creating if absent) the sqlite file at path
// and ensures its metrics table exists.
func OpenResultStore(path string) (*ResultStore, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, errors.Wrap(err, "")
	}
	if err := prepareMetricsTable(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "")
	}
	return &ResultStore{Path: path, db: db}, nil
}

func prepareMetricsTable(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (name TEXT PRIMARY KEY, value REAL) STRICT`, tableMetrics)
	if _, err := db.ExecContext(ctx, sqlStr); err != nil {
		return errors.Wrap(err, "")
	}
	return nil
}

func (s *ResultStore) Close() error {
	return errors.Wrap(s.db.Close(), "")
}

// Set records (or replaces) one named scalar metric.
func (s *ResultStore) Set(name string, value float64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`INSERT OR REPLACE INTO %s (name, value) VALUES (?, ?)`, tableMetrics)
	if _, err := s.db.ExecContext(ctx, sqlStr, name, value); err != nil {
		return errors.Wrap(err, fmt.Sprintf("%s name=%q", sqlStr, name))
	}
	return nil
}

// SetEnergy records every component of an energy breakdown under a
// fixed set of metric names, saving the caller from repeating the
// name strings at every call site.
func (s *ResultStore) SetEnergy(e EnergyRecord) error {
	fields := map[string]float64{
		"energy.eigsum":          e.Eigsum,
		"energy.hartree":         e.Hartree,
		"energy.xc":              e.XC,
		"energy.nvxc":            e.NVxc,
		"energy.ion_ion":         e.IonIon,
		"energy.core_correction": e.CoreCorrection,
		"energy.exx":             e.EXX,
		"energy.total":           e.Total,
	}
	for name, v := range fields {
		if err := s.Set(name, v); err != nil {
			return err
		}
	}
	return nil
}

// Get reads one named scalar metric; ok is false if it was never set.
func (s *ResultStore) Get(name string) (value float64, ok bool, err error) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	sqlStr := fmt.Sprintf(`SELECT value FROM %s WHERE name = ?`, tableMetrics)
	row := s.db.QueryRowContext(ctx, sqlStr, name)
	if err := row.Scan(&value); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, fmt.Sprintf("%s name=%q", sqlStr, name))
	}
	return value, true, nil
}

// EnergyRecord is the scalar breakdown the self-consistency and
// real-time drivers both produce, matching scf.Energy/the realtime
// package's inline total-energy bookkeeping field for field.
type EnergyRecord struct {
	Eigsum         float64
	Hartree        float64
	XC             float64
	NVxc           float64
	IonIon         float64
	CoreCorrection float64
	EXX            float64
	Total          float64
}
