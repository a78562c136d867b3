//go:build integration

package evaluator_test

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"testing"
	"time"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/OmprakashShyamalan/QueryBench/evaluator"
	"github.com/OmprakashShyamalan/QueryBench/internal/dbtest"
	"github.com/OmprakashShyamalan/QueryBench/internal/rand"
)

func setupIntegration(t *testing.T) (*evaluator.Evaluator, string) {
	t.Helper()
	dsn := dbtest.DSN(t)

	table := "qb_it_" + rand.AlphanumString(8)

	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	stmts := []string{
		"CREATE TABLE " + table + " (id INT PRIMARY KEY, name NVARCHAR(50) NOT NULL, amount DECIMAL(10,5) NULL)",
		"INSERT INTO " + table + " VALUES (1, 'a', 1.00005)",
		"INSERT INTO " + table + " VALUES (2, 'b', NULL)",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			t.Fatal(err)
		}
	}
	t.Cleanup(func() { db.Exec("DROP TABLE " + table) })

	cfg := &evaluator.Config{
		QueryTimeout:           evaluator.DefaultQueryTimeout,
		MaxResultRows:          evaluator.DefaultMaxResultRows,
		RunRateLimit:           100,
		MaxConcurrentRuns:      evaluator.DefaultMaxConcurrentRuns,
		DecimalPrecision:       evaluator.DefaultDecimalPrecision,
		CaseInsensitiveColumns: true,
		StripStrings:           true,
		Primary:                evaluator.ConnectionSpec{Label: "primary", ConnStr: dsn},
	}
	ev := evaluator.NewEvaluator(cfg, slog.Default())
	t.Cleanup(func() { ev.Close() })
	return ev, table
}

func TestIntegrationEvaluate(t *testing.T) {
	ev, table := setupIntegration(t)
	ctx := context.Background()

	sub := evaluator.Submission{
		UserID:         "it-user",
		QuestionID:     "it-q1",
		ParticipantSQL: "SELECT id, name FROM " + table + " ORDER BY id",
		SolutionSQL:    "SELECT id, name FROM " + table + " ORDER BY id",
	}
	v := ev.Evaluate(ctx, sub)
	if v.Status != evaluator.StatusCorrect {
		t.Fatalf("got %s (%s) - expected CORRECT", v.Status, v.Feedback)
	}
	if v.Metadata == nil || v.Metadata.RowsReturned != 2 {
		t.Fatalf("unexpected metadata: %+v", v.Metadata)
	}
}

func TestIntegrationExecuteNormalization(t *testing.T) {
	ev, table := setupIntegration(t)
	ctx := context.Background()

	res, err := ev.Execute(ctx, "SELECT id AS Id, amount FROM "+table+" ORDER BY id", "it-user", evaluator.Target{})
	if err != nil {
		t.Fatal(err)
	}
	if res.Columns[0] != "id" || res.Columns[1] != "amount" {
		t.Fatalf("unexpected columns: %v", res.Columns)
	}
	if got := res.Rows[0][1]; got != 1.0001 {
		t.Fatalf("decimal cell %v (%T) - expected 1.0001", got, got)
	}
	if got := res.Rows[1][1]; got != nil {
		t.Fatalf("null cell %v - expected nil", got)
	}
}

func TestIntegrationExecuteRowCap(t *testing.T) {
	ev, table := setupIntegration(t)
	ev.Config().MaxResultRows = 1

	res, err := ev.Execute(context.Background(), "SELECT id FROM "+table+" ORDER BY id", "it-user", evaluator.Target{})
	if err != nil {
		t.Fatal(err)
	}
	if res.NumRows() != 1 {
		t.Fatalf("rows %d - expected cap of 1", res.NumRows())
	}
}

func TestIntegrationExecuteSanitizedError(t *testing.T) {
	ev, _ := setupIntegration(t)

	_, err := ev.Execute(context.Background(), "SELECT id FROM qb_it_no_such_table ORDER BY id", "it-user", evaluator.Target{})
	if err == nil {
		t.Fatal("expected execution error")
	}
	execErr, ok := err.(*evaluator.ExecError)
	if !ok {
		t.Fatalf("got %T - expected *ExecError", err)
	}
	if !strings.Contains(execErr.Feedback, "Table or column not found") {
		t.Fatalf("unexpected feedback: %q", execErr.Feedback)
	}
	if strings.Contains(execErr.Feedback, "qb_it_no_such_table") {
		t.Fatalf("feedback leaks the raw driver message: %q", execErr.Feedback)
	}
}

func TestIntegrationInspectSchema(t *testing.T) {
	ev, table := setupIntegration(t)

	snapshot := ev.InspectSchema(context.Background(), evaluator.Target{ForcePrimary: true})
	if snapshot.Error != "" {
		t.Fatalf("unexpected snapshot error: %s", snapshot.Error)
	}
	for _, tab := range snapshot.Tables {
		if tab.Name != table {
			continue
		}
		if len(tab.Columns) != 3 {
			t.Fatalf("columns %d - expected 3", len(tab.Columns))
		}
		id := tab.Columns[0]
		if id.Name != "id" || id.Type != "INT" || !id.IsPrimaryKey || id.IsNullable {
			t.Fatalf("unexpected id column: %+v", id)
		}
		amount := tab.Columns[2]
		if !amount.IsNullable || amount.Type != "DECIMAL" {
			t.Fatalf("unexpected amount column: %+v", amount)
		}
		return
	}
	t.Fatalf("table %s not found in snapshot", table)
}
