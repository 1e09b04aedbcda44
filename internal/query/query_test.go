package query

import (
	"errors"
	"reflect"
	"testing"

	"ledger/internal/schema"
)

func TestSelect(t *testing.T) {
	st, err := Select(schema.Categories).Where(Eq("type", "Expense")).OrderBy("name", false).Limit(10).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `SELECT "id", "name", "type" FROM "category" WHERE "type" = ? ORDER BY "name" LIMIT ?`
	if st.SQL != want {
		t.Fatalf("SQL = %s\nwant  %s", st.SQL, want)
	}
	if !reflect.DeepEqual(st.Args, []any{"Expense", 10}) {
		t.Fatalf("Args = %v", st.Args)
	}
	if st.Kind != Read || st.Table != "category" {
		t.Fatalf("Kind/Table = %v/%s", st.Kind, st.Table)
	}
	if !reflect.DeepEqual(st.Columns, []string{"id", "name", "type"}) {
		t.Fatalf("Columns = %v", st.Columns)
	}
}

func TestSelectUnknownColumn(t *testing.T) {
	_, err := Select(schema.Goals, "id", "balance").Build()
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn, got %v", err)
	}
	_, err = Select(schema.Goals).Where(Eq("owner", 1)).Build()
	if !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected ErrUnknownColumn for condition, got %v", err)
	}
}

func TestInsert(t *testing.T) {
	st, err := Insert(schema.Transactions).
		Set("amount", -4.5).
		Set("account_id", int64(1)).
		Set("category_id", int64(2)).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `INSERT INTO "transaction" ("amount", "account_id", "category_id") VALUES (?, ?, ?)`
	if st.SQL != want || st.Kind != Write {
		t.Fatalf("got %s (%v)", st.SQL, st.Kind)
	}
	if len(st.Columns) != 0 {
		t.Fatalf("plain insert should not declare result columns: %v", st.Columns)
	}
}

func TestInsertReturning(t *testing.T) {
	st, err := Insert(schema.Categories).Set("name", "Rent").Set("type", "Expense").Returning().Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `INSERT INTO "category" ("name", "type") VALUES (?, ?) RETURNING "id", "name", "type"`
	if st.SQL != want {
		t.Fatalf("SQL = %s", st.SQL)
	}
	if st.Kind != Returning || !st.Kind.ReturnsRows() {
		t.Fatalf("Kind = %v", st.Kind)
	}
}

func TestInsertDefaults(t *testing.T) {
	st, err := Insert(schema.Goals).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if st.SQL != `INSERT INTO "goal" DEFAULT VALUES` {
		t.Fatalf("SQL = %s", st.SQL)
	}
}

func TestUpdate(t *testing.T) {
	st, err := Update(schema.Accounts).Set("name", "Joint").Set("color", nil).Where(Eq("id", int64(7))).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `UPDATE "account" SET "name" = ?, "color" = ? WHERE "id" = ?`
	if st.SQL != want {
		t.Fatalf("SQL = %s", st.SQL)
	}
	if !reflect.DeepEqual(st.Args, []any{"Joint", nil, int64(7)}) {
		t.Fatalf("Args = %v", st.Args)
	}

	if _, err := Update(schema.Accounts).Set("name", "x").Build(); !errors.Is(err, ErrUnboundedWrite) {
		t.Fatalf("expected ErrUnboundedWrite, got %v", err)
	}
	if _, err := Update(schema.Accounts).Where(Eq("id", 1)).Build(); !errors.Is(err, ErrNoAssignments) {
		t.Fatalf("expected ErrNoAssignments, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	st, err := Delete(schema.Budgets).Where(Eq("id", int64(3))).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if st.SQL != `DELETE FROM "budget" WHERE "id" = ?` || st.Kind != Write {
		t.Fatalf("got %s (%v)", st.SQL, st.Kind)
	}
	if _, err := Delete(schema.Budgets).Build(); !errors.Is(err, ErrUnboundedWrite) {
		t.Fatalf("expected ErrUnboundedWrite, got %v", err)
	}
}

func TestIsNull(t *testing.T) {
	st, err := Select(schema.Budgets, "id").Where(IsNull("category_id")).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if st.SQL != `SELECT "id" FROM "budget" WHERE "category_id" IS NULL` || len(st.Args) != 0 {
		t.Fatalf("got %s %v", st.SQL, st.Args)
	}
}

func TestRelated(t *testing.T) {
	many, _ := schema.FindRelation("account", "transactions")
	st, err := Related(many, int64(5)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if st.Table != "transaction" || !reflect.DeepEqual(st.Args, []any{int64(5)}) {
		t.Fatalf("unexpected related statement: %+v", st)
	}

	one, _ := schema.FindRelation("transaction", "account")
	st, err = Related(one, int64(9)).Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	want := `SELECT "id", "name", "type", "color", "currency", "icon", "description", "initial_balance", "current_balance", "status", "created_at", "updated_at" FROM "account" WHERE "id" = ? LIMIT ?`
	if st.SQL != want {
		t.Fatalf("SQL = %s", st.SQL)
	}

	if _, err := Related(one).Build(); err == nil {
		t.Fatal("expected key count error")
	}
}
