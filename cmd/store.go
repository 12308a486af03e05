package main

import (
	"context"

	"github.com/geoandina/hazmap/internal/store"
)

// initStore opens the run registry and applies migrations.
func initStore(ctx context.Context) (store.Store, error) {
	dsn := cfg.Store.Path
	if dsn == "" {
		dsn = "hazmap.db"
	}
	st, err := store.NewSQLite(dsn)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}
