package evaluator

import (
	"context"
	"strings"
)

// schemaQuery extracts tables, columns, types, nullability, primary keys
// and foreign keys from the SQL Server system catalog. The output column
// order is contractual: the row parser below is positional.
const schemaQuery = `
    SELECT
        t.name AS table_name,
        c.name AS column_name,
        ty.name AS data_type,
        c.is_nullable,
        CASE WHEN pk.column_id IS NOT NULL THEN 1 ELSE 0 END AS is_primary_key,
        fk.referenced_table,
        fk.referenced_column
    FROM sys.tables t
    INNER JOIN sys.columns c ON t.object_id = c.object_id
    INNER JOIN sys.types ty ON c.user_type_id = ty.user_type_id
    LEFT JOIN (
        SELECT i.object_id, ic.column_id
        FROM sys.indexes i
        INNER JOIN sys.index_columns ic ON i.object_id = ic.object_id AND i.index_id = ic.index_id
        WHERE i.is_primary_key = 1
    ) pk ON t.object_id = pk.object_id AND c.column_id = pk.column_id
    LEFT JOIN (
        SELECT
            fkc.parent_object_id,
            fkc.parent_column_id,
            rt.name AS referenced_table,
            rc.name AS referenced_column
        FROM sys.foreign_key_columns fkc
        INNER JOIN sys.tables rt ON fkc.referenced_object_id = rt.object_id
        INNER JOIN sys.columns rc ON fkc.referenced_object_id = rc.object_id AND fkc.referenced_column_id = rc.column_id
    ) fk ON t.object_id = fk.parent_object_id AND c.column_id = fk.parent_column_id
    WHERE t.is_ms_shipped = 0
    ORDER BY t.name, c.column_id;
    `

// A ColumnRef names the table and column a foreign key points at.
type ColumnRef struct {
	Table  string `json:"table"`
	Column string `json:"column"`
}

// A SchemaColumn describes one column of an inspected table.
type SchemaColumn struct {
	Name         string     `json:"name"`
	Type         string     `json:"type"` // uppercased data type.
	IsNullable   bool       `json:"isNullable"`
	IsPrimaryKey bool       `json:"isPrimaryKey"`
	IsForeignKey bool       `json:"isForeignKey"`
	References   *ColumnRef `json:"references,omitempty"`
}

// A SchemaTable describes one inspected table with its columns in
// catalog order.
type SchemaTable struct {
	Name    string         `json:"name"`
	Columns []SchemaColumn `json:"columns"`
}

// A SchemaSnapshot is the inspected metadata of a target database. On
// failure Error carries the message and Tables is empty, never nil.
type SchemaSnapshot struct {
	Error  string        `json:"error,omitempty"`
	Tables []SchemaTable `json:"tables"`
}

/*
InspectSchema extracts the table/column/key metadata of the target
database. It never fails to the caller: any error is returned inside the
snapshot with an empty table list.
*/
func (ev *Evaluator) InspectSchema(ctx context.Context, target Target) *SchemaSnapshot {
	failed := func(err error) *SchemaSnapshot {
		ev.logger.Error("schema inspection failed", "error", err)
		return &SchemaSnapshot{Error: err.Error(), Tables: []SchemaTable{}}
	}

	conn, _, err := ev.connect(ctx, target)
	if err != nil {
		return failed(err)
	}
	defer conn.Close()

	qctx, cancel := context.WithTimeout(ctx, ev.cfg.QueryTimeout)
	defer cancel()

	rows, err := conn.QueryContext(qctx, schemaQuery)
	if err != nil {
		return failed(err)
	}
	defer rows.Close()

	snapshot := &SchemaSnapshot{Tables: []SchemaTable{}}
	tableIdx := map[string]int{} // table name -> index, first-seen order.

	for rows.Next() {
		var (
			tableName, columnName, dataType string
			isNullable, isPrimaryKey        bool
			refTable, refColumn             *string
		)
		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &isPrimaryKey, &refTable, &refColumn); err != nil {
			return failed(err)
		}

		col := SchemaColumn{
			Name:         columnName,
			Type:         strings.ToUpper(dataType),
			IsNullable:   isNullable,
			IsPrimaryKey: isPrimaryKey,
			IsForeignKey: refTable != nil,
		}
		if refTable != nil {
			ref := ColumnRef{Table: *refTable}
			if refColumn != nil {
				ref.Column = *refColumn
			}
			col.References = &ref
		}

		i, ok := tableIdx[tableName]
		if !ok {
			i = len(snapshot.Tables)
			tableIdx[tableName] = i
			snapshot.Tables = append(snapshot.Tables, SchemaTable{Name: tableName})
		}
		snapshot.Tables[i].Columns = append(snapshot.Tables[i].Columns, col)
	}
	if err := rows.Err(); err != nil {
		return failed(err)
	}
	return snapshot
}
