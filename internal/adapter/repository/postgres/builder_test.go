package postgres

import (
	"reflect"
	"testing"
)

func TestInsertBuilder(t *testing.T) {
	sql, args := Insert("accounts").
		Set("id", "acc-1").
		Set("business_name", "Acme").
		Set("balance", int64(10000)).
		Build()

	want := "INSERT INTO accounts (id, business_name, balance) VALUES ($1, $2, $3)"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"acc-1", "Acme", int64(10000)}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestInsertBuilder_Returning(t *testing.T) {
	sql, _ := Insert("api_keys").
		Set("id", "key-1").
		Returning("id, created_at").
		Build()

	want := "INSERT INTO api_keys (id) VALUES ($1) RETURNING id, created_at"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
}

func TestUpdateBuilder(t *testing.T) {
	sql, args := Update("accounts").
		Set("balance", int64(500)).
		Set("updated_at", "now").
		Where("id = ?", "acc-1").
		Build()

	want := "UPDATE accounts SET balance = $1, updated_at = $2 WHERE id = $3"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{int64(500), "now", "acc-1"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestUpdateBuilder_SetExprAndMultipleConditions(t *testing.T) {
	sql, args := Update("webhooks").
		SetExpr("consecutive_failures = consecutive_failures + 1").
		Set("last_failure_at", "ts").
		Where("id = ?", "wh-1").
		Where("account_id = ?", "acc-1").
		Build()

	want := "UPDATE webhooks SET consecutive_failures = consecutive_failures + 1, " +
		"last_failure_at = $1 WHERE id = $2 AND account_id = $3"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"ts", "wh-1", "acc-1"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectBuilder(t *testing.T) {
	sql, args := Select("id, status").
		From("transactions").
		Where("parent_tx_key = ?", "txgroup_01").
		OrderBy("created_at ASC").
		Build()

	want := "SELECT id, status FROM transactions WHERE parent_tx_key = $1 ORDER BY created_at ASC"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"txgroup_01"}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectBuilder_LimitOffsetNumbering(t *testing.T) {
	sql, args := Select("*").
		From("transactions").
		Where("from_account_id = ? OR to_account_id = ?", "acc-1", "acc-1").
		OrderBy("created_at DESC").
		Limit(50).
		Offset(100).
		Build()

	want := "SELECT * FROM transactions WHERE from_account_id = $1 OR to_account_id = $2 " +
		"ORDER BY created_at DESC LIMIT $3 OFFSET $4"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
	if !reflect.DeepEqual(args, []any{"acc-1", "acc-1", 50, 100}) {
		t.Fatalf("unexpected args: %v", args)
	}
}

func TestSelectBuilder_ForUpdate(t *testing.T) {
	sql, _ := Select("*").
		From("accounts").
		Where("id = ANY(?)", []string{"acc-1", "acc-2"}).
		OrderBy("id ASC").
		ForUpdate().
		Build()

	want := "SELECT * FROM accounts WHERE id = ANY($1) ORDER BY id ASC FOR UPDATE"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
}

func TestSelectBuilder_ForUpdateSkipLocked(t *testing.T) {
	sql, _ := Select("id").
		From("webhook_deliveries").
		Where("status = ?", "pending").
		Where("next_retry_at <= ?", "now").
		Limit(10).
		ForUpdateSkipLocked().
		Build()

	want := "SELECT id FROM webhook_deliveries WHERE status = $1 AND next_retry_at <= $2 " +
		"LIMIT $3 FOR UPDATE SKIP LOCKED"
	if sql != want {
		t.Fatalf("sql mismatch:\n got %s\nwant %s", sql, want)
	}
}
