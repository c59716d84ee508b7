package testutil

import (
	"context"
	"database/sql/driver"
	"testing"
)

func TestStubDBUpsertsDeletesAndQueries(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()

	if err := conn.Ping(ctx); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	upsert := "INSERT INTO snapshots(key,payload) VALUES($1,$2) ON CONFLICT(key) DO UPDATE SET payload=EXCLUDED.payload"
	for _, payload := range []string{"one", "two"} {
		if _, err := conn.ExecContext(ctx, upsert, []driver.NamedValue{{Value: "k"}, {Value: payload}}); err != nil {
			t.Fatalf("ExecContext insert: %v", err)
		}
	}
	rows := conn.Rows("snapshots")
	if len(rows) != 1 || rows[0]["payload"] != "two" {
		t.Fatalf("expected single upserted row, got %v", rows)
	}

	q, err := conn.QueryContext(ctx, "SELECT key, payload FROM snapshots", nil)
	if err != nil {
		t.Fatalf("QueryContext: %v", err)
	}
	dest := make([]driver.Value, 2)
	if err := q.Next(dest); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if dest[0] != "k" || dest[1] != "two" {
		t.Fatalf("unexpected row values: %v", dest)
	}

	res, err := conn.ExecContext(ctx, "DELETE FROM snapshots WHERE key = $1", []driver.NamedValue{{Value: "k"}})
	if err != nil {
		t.Fatalf("ExecContext delete: %v", err)
	}
	if n, _ := res.RowsAffected(); n != 1 {
		t.Fatalf("expected one deleted row, got %d", n)
	}
	if len(conn.Rows("snapshots")) != 0 {
		t.Fatalf("expected table empty after delete")
	}
}

func TestStubDBFailureToggles(t *testing.T) {
	ctx := context.Background()
	_, conn := NewStubDB()
	conn.FailPing = true
	if err := conn.Ping(ctx); err == nil {
		t.Fatalf("expected ping failure")
	}
	conn.FailTables = map[string]bool{"snapshots": true}
	if _, err := conn.QueryContext(ctx, "SELECT key FROM snapshots", nil); err == nil {
		t.Fatalf("expected query failure")
	}
	if _, err := conn.ExecContext(ctx, "DELETE FROM snapshots WHERE key = $1", []driver.NamedValue{{Value: "k"}}); err == nil {
		t.Fatalf("expected delete failure")
	}
	if _, err := conn.QueryContext(ctx, "UPDATE snapshots", nil); err == nil {
		t.Fatalf("expected parse failure")
	}
}
