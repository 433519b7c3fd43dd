package main

import (
	"context"

	"github.com/lake-health/lakecalc-ai/internal/catalog"
)

// openStore returns the catalog backing the command: the embedded snapshot,
// or a SQLite database when --db is set. A fresh database is seeded from the
// snapshot so the tool works out of the box.
func openStore(ctx context.Context, dbPath string) (catalog.Service, func() error, error) {
	mem, err := catalog.NewMemory()
	if err != nil {
		return nil, nil, err
	}
	if dbPath == "" {
		return mem, func() error { return nil }, nil
	}

	db, err := catalog.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}
	families, err := db.Families(ctx)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	if len(families) == 0 {
		seed, err := mem.Families(ctx)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		if err := db.Seed(ctx, seed); err != nil {
			db.Close()
			return nil, nil, err
		}
	}
	return db, db.Close, nil
}
