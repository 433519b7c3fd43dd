package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/lake-health/lakecalc-ai/internal/formulas"
	"github.com/lake-health/lakecalc-ai/internal/selector"
)

// DB is the SQLite-backed catalog, for deployments that manage their lens
// inventory outside the embedded snapshot.
type DB struct {
	conn *sqlx.DB
}

// Open opens or creates the catalog database at path.
func Open(path string) (*DB, error) {
	conn, err := sqlx.Open("sqlite", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open catalog db: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("migrate catalog db: %w", err)
	}
	return db, nil
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS families (
		id TEXT PRIMARY KEY,
		brand TEXT NOT NULL,
		name TEXT NOT NULL,
		a_constant REAL NOT NULL,
		haigis_a0 REAL,
		haigis_a1 REAL,
		haigis_a2 REAL
	);

	CREATE TABLE IF NOT EXISTS toric_models (
		family_id TEXT NOT NULL REFERENCES families(id),
		sku TEXT NOT NULL,
		iol_cyl REAL NOT NULL,
		corneal_cyl REAL NOT NULL,
		PRIMARY KEY (family_id, sku)
	);

	CREATE INDEX IF NOT EXISTS idx_toric_family ON toric_models(family_id);
	`
	_, err := db.conn.Exec(schema)
	return err
}

// Seed replaces the database contents with the given families. Used to
// bootstrap a fresh database from the embedded snapshot.
func (db *DB) Seed(ctx context.Context, families []Family) error {
	tx, err := db.conn.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM toric_models"); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM families"); err != nil {
		return err
	}

	for _, f := range families {
		var a0, a1, a2 any
		if f.Haigis != nil {
			a0, a1, a2 = f.Haigis.A0, f.Haigis.A1, f.Haigis.A2
		}
		if _, err := tx.Exec(
			`INSERT INTO families (id, brand, name, a_constant, haigis_a0, haigis_a1, haigis_a2)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			f.ID, f.Brand, f.Name, f.AConstant, a0, a1, a2); err != nil {
			return fmt.Errorf("seed family %s: %w", f.ID, err)
		}
		for _, t := range f.Toric {
			if _, err := tx.Exec(
				`INSERT INTO toric_models (family_id, sku, iol_cyl, corneal_cyl) VALUES (?, ?, ?, ?)`,
				f.ID, t.SKU, t.IOLCyl, t.CornealCyl); err != nil {
				return fmt.Errorf("seed toric %s/%s: %w", f.ID, t.SKU, err)
			}
		}
	}
	return tx.Commit()
}

type familyRow struct {
	ID        string          `db:"id"`
	Brand     string          `db:"brand"`
	Name      string          `db:"name"`
	AConstant float64         `db:"a_constant"`
	HaigisA0  sql.NullFloat64 `db:"haigis_a0"`
	HaigisA1  sql.NullFloat64 `db:"haigis_a1"`
	HaigisA2  sql.NullFloat64 `db:"haigis_a2"`
}

func (r familyRow) family() Family {
	f := Family{ID: r.ID, Brand: r.Brand, Name: r.Name, AConstant: r.AConstant}
	if r.HaigisA0.Valid {
		f.Haigis = &HaigisConstants{A0: r.HaigisA0.Float64, A1: r.HaigisA1.Float64, A2: r.HaigisA2.Float64}
	}
	return f
}

// Families returns every family sorted by ID, toric models included.
func (db *DB) Families(ctx context.Context) ([]Family, error) {
	var rows []familyRow
	if err := db.conn.SelectContext(ctx, &rows, "SELECT * FROM families ORDER BY id"); err != nil {
		return nil, err
	}
	out := make([]Family, 0, len(rows))
	for _, r := range rows {
		f := r.family()
		toric, err := db.toricModels(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		f.Toric = toric
		out = append(out, f)
	}
	return out, nil
}

// ToricFamilies returns the families with at least one toric model, sorted
// by ID.
func (db *DB) ToricFamilies(ctx context.Context) ([]Family, error) {
	var rows []familyRow
	err := db.conn.SelectContext(ctx, &rows,
		`SELECT * FROM families f
		 WHERE EXISTS (SELECT 1 FROM toric_models t WHERE t.family_id = f.id)
		 ORDER BY id`)
	if err != nil {
		return nil, err
	}
	out := make([]Family, 0, len(rows))
	for _, r := range rows {
		f := r.family()
		f.Toric, err = db.toricModels(ctx, f.ID)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, nil
}

// Family returns one family by ID.
func (db *DB) Family(ctx context.Context, id string) (Family, error) {
	var row familyRow
	err := db.conn.GetContext(ctx, &row, "SELECT * FROM families WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return Family{}, fmt.Errorf("%w: %s", ErrFamilyNotFound, id)
	}
	if err != nil {
		return Family{}, err
	}
	f := row.family()
	f.Toric, err = db.toricModels(ctx, id)
	if err != nil {
		return Family{}, err
	}
	return f, nil
}

func (db *DB) toricModels(ctx context.Context, familyID string) ([]ToricModel, error) {
	var models []ToricModel
	err := db.conn.SelectContext(ctx, &models,
		"SELECT sku, iol_cyl, corneal_cyl FROM toric_models WHERE family_id = ? ORDER BY corneal_cyl", familyID)
	return models, err
}

// ToricPowers returns the family's toric options as corneal-plane selector
// inputs.
func (db *DB) ToricPowers(ctx context.Context, familyID string) ([]selector.Option, error) {
	f, err := db.Family(ctx, familyID)
	if err != nil {
		return nil, err
	}
	return optionsFor(f), nil
}

// Constants returns the family's lens constants.
func (db *DB) Constants(ctx context.Context, familyID string) (formulas.Constants, error) {
	f, err := db.Family(ctx, familyID)
	if err != nil {
		return formulas.Constants{}, err
	}
	return constantsFor(f), nil
}
