package datastore

import (
	"context"
	_ "embed"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// sampleProducts is the demo inventory loaded by Seed.
var sampleProducts = []Record{
	{"name": "ノートパソコン", "price": 89800, "description": "Core i5搭載の高性能ノートPC", "stock": 10},
	{"name": "ワイヤレスマウス", "price": 2980, "description": "Bluetooth対応ワイヤレスマウス", "stock": 50},
	{"name": "キーボード", "price": 4980, "description": "メカニカルキーボード", "stock": 30},
	{"name": "モニター", "price": 19800, "description": "23.8インチフルHDディスプレイ", "stock": 15},
	{"name": "USBメモリ", "price": 1980, "description": "32GB USB3.0対応", "stock": 100},
}

// InitSchema creates the products table if it does not exist. The
// embedded schema targets SQLite; deployments on other drivers provision
// the table themselves and disable init in config.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// Seed replaces the contents of the products table with the sample
// inventory. Mirrors the demo's initializer, which rebuilds the database
// from scratch on every run.
func (s *Store) Seed(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM products"); err != nil {
		return fmt.Errorf("clear products: %w", err)
	}
	for _, rec := range sampleProducts {
		if err := s.insertRow(ctx, "products", rec); err != nil {
			return fmt.Errorf("seed product %v: %w", rec["name"], err)
		}
	}
	return nil
}
