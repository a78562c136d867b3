package evaluator

import "testing"

func TestRewriteTopN(t *testing.T) {
	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "plain select",
			query: "SELECT id, name FROM t ORDER BY id",
			want:  "SELECT TOP (100) id, name FROM t ORDER BY id",
		},
		{
			name:  "lowercase select",
			query: "select id from t order by id",
			want:  "select TOP (100) id from t order by id",
		},
		{
			name:  "distinct keeps its place",
			query: "SELECT DISTINCT name FROM t ORDER BY name",
			want:  "SELECT DISTINCT TOP (100) name FROM t ORDER BY name",
		},
		{
			name:  "trailing semicolon stripped",
			query: "SELECT id FROM t ORDER BY id;",
			want:  "SELECT TOP (100) id FROM t ORDER BY id",
		},
		{
			name:  "single leading cte",
			query: "WITH c AS (SELECT id FROM t) SELECT id FROM c ORDER BY id",
			want:  "WITH c AS (SELECT id FROM t) SELECT TOP (100) id FROM c ORDER BY id",
		},
		{
			name:  "multiline query",
			query: "WITH c AS (\n SELECT id FROM t\n) SELECT id\nFROM c ORDER BY id",
			want:  "WITH c AS (\n SELECT id FROM t\n) SELECT TOP (100) id\nFROM c ORDER BY id",
		},
		{
			name:  "wrapper fallback for non-matching query",
			query: "(SELECT id FROM t)",
			want:  "SELECT TOP (100) * FROM ((SELECT id FROM t)) AS q",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			if got := RewriteTopN(test.query, 100); got != test.want {
				t.Fatalf("got\n%s\nexpected\n%s", got, test.want)
			}
		})
	}
}

func TestRewriteTopNIdempotent(t *testing.T) {
	queries := []string{
		"SELECT id FROM t ORDER BY id",
		"SELECT DISTINCT name FROM t ORDER BY name",
		"WITH c AS (SELECT id FROM t) SELECT id FROM c ORDER BY id",
		"(SELECT id FROM t)",
	}
	for _, q := range queries {
		once := RewriteTopN(q, 100)
		twice := RewriteTopN(once, 100)
		if once != twice {
			t.Fatalf("%s: rewrite not idempotent\nonce:  %s\ntwice: %s", q, once, twice)
		}
	}
}

func TestRewriteTopNCap(t *testing.T) {
	if got := RewriteTopN("SELECT id FROM t ORDER BY id", 5); got != "SELECT TOP (5) id FROM t ORDER BY id" {
		t.Fatalf("unexpected rewrite: %s", got)
	}
}
