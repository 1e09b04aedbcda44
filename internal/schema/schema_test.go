package schema

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitMigrationMatchesDeclarations(t *testing.T) {
	raw, err := migrationsFS.ReadFile(InitMigration)
	if err != nil {
		t.Fatalf("read init migration: %v", err)
	}
	if got, want := string(raw), CreateAllSQL(); got != want {
		t.Fatalf("init migration drifted from declarations\n--- migration\n%s\n--- declared\n%s", got, want)
	}
}

func TestCreateSQLQuotesReservedNames(t *testing.T) {
	ddl := Transactions.CreateSQL()
	if !strings.HasPrefix(ddl, `CREATE TABLE "transaction" (`) {
		t.Fatalf("unexpected DDL header: %s", ddl)
	}
	if !strings.Contains(ddl, `"account_id" INTEGER NOT NULL REFERENCES "account"("id")`) {
		t.Fatalf("missing account foreign key in DDL:\n%s", ddl)
	}
	if !strings.Contains(Budgets.CreateSQL(), `"category_id" INTEGER REFERENCES "category"("id")`) {
		t.Fatalf("budget category should be a nullable foreign key")
	}
}

func TestRelationsResolve(t *testing.T) {
	for _, r := range Relations() {
		src, ok := Lookup(r.Source)
		if !ok {
			t.Fatalf("relation %s.%s: unknown source", r.Source, r.Name)
		}
		dst, ok := Lookup(r.Target)
		if !ok {
			t.Fatalf("relation %s.%s: unknown target", r.Source, r.Name)
		}
		if len(r.Fields) != len(r.References) {
			t.Fatalf("relation %s.%s: fields/references length mismatch", r.Source, r.Name)
		}
		for i := range r.Fields {
			if _, ok := src.Column(r.Fields[i]); !ok {
				t.Fatalf("relation %s.%s: no column %s", r.Source, r.Name, r.Fields[i])
			}
			if _, ok := dst.Column(r.References[i]); !ok {
				t.Fatalf("relation %s.%s: no column %s on %s", r.Source, r.Name, r.References[i], r.Target)
			}
		}
	}

	if got := len(RelationsOf("category")); got != 2 {
		t.Fatalf("category relations = %d, want 2", got)
	}
	rel, ok := FindRelation("budget", "category")
	if !ok || rel.Kind != One || !rel.Optional {
		t.Fatalf("budget.category should be an optional one-relation, got %+v", rel)
	}
}

type columnInfo struct {
	name    string
	typ     string
	notNull bool
	pk      bool
}

func TestMigratedLayout(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "layout.db")
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	// Applying twice is a no-op.
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("second RunMigrations: %v", err)
	}

	v, dirty, err := Version(dsn)
	if err != nil || dirty || v != 2 {
		t.Fatalf("Version() = %d, %v, %v; want 2, false, nil", v, dirty, err)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	for _, table := range Tables() {
		rows, err := db.Query("SELECT name, type, \"notnull\", pk FROM pragma_table_info(?)", table.Name)
		if err != nil {
			t.Fatalf("table_info %s: %v", table.Name, err)
		}
		var got []columnInfo
		for rows.Next() {
			var ci columnInfo
			if err := rows.Scan(&ci.name, &ci.typ, &ci.notNull, &ci.pk); err != nil {
				t.Fatalf("scan: %v", err)
			}
			got = append(got, ci)
		}
		rows.Close()

		if len(got) != len(table.Columns) {
			t.Fatalf("%s: %d columns migrated, %d declared", table.Name, len(got), len(table.Columns))
		}
		for i, c := range table.Columns {
			want := columnInfo{name: c.Name, typ: string(c.Type), notNull: c.NotNull, pk: c.PrimaryKey}
			if got[i] != want {
				t.Errorf("%s column %d: got %+v, want %+v", table.Name, i, got[i], want)
			}
		}

		var fkCount int
		if err := db.QueryRow("SELECT count(*) FROM pragma_foreign_key_list(?)", table.Name).Scan(&fkCount); err != nil {
			t.Fatalf("foreign_key_list %s: %v", table.Name, err)
		}
		if fkCount != len(table.ForeignKeys()) {
			t.Errorf("%s: %d foreign keys migrated, %d declared", table.Name, fkCount, len(table.ForeignKeys()))
		}
	}
}

func TestEnumChecksAreEnforced(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "enum.db")
	if err := RunMigrations(dsn); err != nil {
		t.Fatalf("RunMigrations: %v", err)
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`INSERT INTO "account" ("name", "type") VALUES ('Wallet', 'Asset')`); err != nil {
		t.Fatalf("valid insert failed: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO "account" ("name", "type") VALUES ('Wallet', 'Equity')`); err == nil {
		t.Fatal("expected CHECK constraint failure for account type")
	}
	if _, err := db.Exec(`INSERT INTO "budget" ("name", "amount", "period_type", "start_date") VALUES ('b', 1, 'daily', '2025-01-01')`); err == nil {
		t.Fatal("expected CHECK constraint failure for period type")
	}
}
