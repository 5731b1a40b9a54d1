package model_test

import (
	"context"
	"database/sql"
	"testing"

	"kiosco/src-client/model"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := sql.Open(sqliteshim.ShimName, ":memory:")
	if err != nil {
		t.Fatal(err)
	}
	bundb := bun.NewDB(db, sqlitedialect.New())
	if err := model.CreateSchema(bundb); err != nil {
		t.Fatal(err)
	}
	return bundb
}

func TestStoredToken(t *testing.T) {
	bundb := newTestDB(t)
	ctx := context.Background()

	// case: empty slot reads as no token
	func() {
		raw, err := model.LoadToken(ctx, bundb)
		if err != nil {
			t.Error(err)
		}
		if raw != "" {
			t.Error("expected empty token, got", raw)
		}
	}()

	// case: save then load round-trips
	func() {
		if err := model.SaveToken(ctx, bundb, "aaa.bbb.ccc"); err != nil {
			t.Error(err)
		}
		raw, err := model.LoadToken(ctx, bundb)
		if err != nil {
			t.Error(err)
		}
		if raw != "aaa.bbb.ccc" {
			t.Error("wrong token", raw)
		}
	}()

	// case: saving again replaces the slot, never adds a row
	func() {
		if err := model.SaveToken(ctx, bundb, "ddd.eee.fff"); err != nil {
			t.Error(err)
		}
		raw, err := model.LoadToken(ctx, bundb)
		if err != nil {
			t.Error(err)
		}
		if raw != "ddd.eee.fff" {
			t.Error("wrong token after replace", raw)
		}
		count, err := bundb.NewSelect().
			Model((*model.StoredToken)(nil)).
			Count(ctx)
		if err != nil {
			t.Error(err)
		}
		if count != 1 {
			t.Error("token slot should hold exactly one row, got", count)
		}
	}()

	// case: empty token is rejected
	func() {
		if err := model.SaveToken(ctx, bundb, ""); err == nil {
			t.Error("expected error saving empty token")
		}
	}()

	// case: clear empties the slot
	func() {
		if err := model.ClearToken(ctx, bundb); err != nil {
			t.Error(err)
		}
		raw, err := model.LoadToken(ctx, bundb)
		if err != nil {
			t.Error(err)
		}
		if raw != "" {
			t.Error("expected empty token after clear, got", raw)
		}
	}()
}
