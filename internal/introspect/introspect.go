// Package introspect reads table, constraint and index definitions from a live
// PostgreSQL database.
package introspect

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Database loads the tables of the public schema.
func Database(ctx context.Context, databaseURL string) (*Schema, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() { _ = conn.Close(ctx) }()

	schema := &Schema{}

	loaders := []func(context.Context, *pgx.Conn, *Schema) error{
		loadTables,
		loadConstraints,
		loadIndexes,
	}

	for _, loader := range loaders {
		if err := loader(ctx, conn, schema); err != nil {
			return nil, err
		}
	}

	return schema, nil
}

func loadTables(ctx context.Context, conn *pgx.Conn, schema *Schema) error {
	rows, err := conn.Query(ctx, `
		SELECT
			c.table_name,
			c.column_name,
			c.data_type,
			c.is_nullable,
			c.column_default
		FROM information_schema.columns c
		JOIN information_schema.tables t ON c.table_name = t.table_name AND c.table_schema = t.table_schema
		WHERE c.table_schema = 'public'
		AND t.table_type = 'BASE TABLE'
		ORDER BY c.table_name, c.ordinal_position
	`)
	if err != nil {
		return fmt.Errorf("failed to query columns: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, columnName, dataType, isNullable string
		var columnDefault *string

		if err := rows.Scan(&tableName, &columnName, &dataType, &isNullable, &columnDefault); err != nil {
			return fmt.Errorf("failed to scan column: %w", err)
		}

		if n := len(schema.Tables); n == 0 || schema.Tables[n-1].Name != tableName {
			schema.Tables = append(schema.Tables, Table{Name: tableName})
		}
		table := &schema.Tables[len(schema.Tables)-1]

		col := Column{
			Name:     columnName,
			Type:     dataType,
			Nullable: isNullable == "YES",
		}
		if columnDefault != nil {
			col.Default = *columnDefault
		}
		table.Columns = append(table.Columns, col)
	}

	return rows.Err()
}

func loadConstraints(ctx context.Context, conn *pgx.Conn, schema *Schema) error {
	rows, err := conn.Query(ctx, `
		SELECT
			tc.table_name,
			tc.constraint_name,
			tc.constraint_type,
			string_agg(kcu.column_name, ',' ORDER BY kcu.ordinal_position) AS columns,
			ccu.table_name AS ref_table,
			string_agg(DISTINCT ccu.column_name, ',') AS ref_columns,
			rc.delete_rule
		FROM information_schema.table_constraints tc
		LEFT JOIN information_schema.key_column_usage kcu
			ON tc.constraint_name = kcu.constraint_name
			AND tc.table_schema = kcu.table_schema
			AND tc.table_name = kcu.table_name
		LEFT JOIN information_schema.constraint_column_usage ccu
			ON tc.constraint_name = ccu.constraint_name
			AND tc.table_schema = ccu.table_schema
			AND tc.constraint_type = 'FOREIGN KEY'
		LEFT JOIN information_schema.referential_constraints rc
			ON tc.constraint_name = rc.constraint_name
			AND tc.table_schema = rc.constraint_schema
		WHERE tc.table_schema = 'public'
		AND tc.constraint_type IN ('PRIMARY KEY', 'FOREIGN KEY', 'UNIQUE')
		GROUP BY tc.table_name, tc.constraint_name, tc.constraint_type, ccu.table_name, rc.delete_rule
		ORDER BY tc.table_name, tc.constraint_name
	`)
	if err != nil {
		return fmt.Errorf("failed to query constraints: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var tableName, constraintName, constraintType string
		var columns, refTable, refColumns, deleteRule *string

		if err := rows.Scan(&tableName, &constraintName, &constraintType, &columns, &refTable, &refColumns, &deleteRule); err != nil {
			return fmt.Errorf("failed to scan constraint: %w", err)
		}

		table, ok := schema.Table(tableName)
		if !ok {
			continue
		}

		constraint := Constraint{
			Name: constraintName,
			Type: constraintType,
		}
		if columns != nil && *columns != "" {
			constraint.Columns = strings.Split(*columns, ",")
		}
		if refTable != nil {
			constraint.RefTable = *refTable
		}
		if refColumns != nil && *refColumns != "" {
			constraint.RefColumns = strings.Split(*refColumns, ",")
		}
		if deleteRule != nil {
			constraint.OnDelete = *deleteRule
		}

		table.Constraints = append(table.Constraints, constraint)
	}

	return rows.Err()
}

// loadIndexes skips the indexes that back primary key and unique constraints.
func loadIndexes(ctx context.Context, conn *pgx.Conn, schema *Schema) error {
	rows, err := conn.Query(ctx, `
		SELECT
			i.relname AS index_name,
			t.relname AS table_name,
			ix.indisunique AS is_unique,
			array_agg(a.attname ORDER BY array_position(ix.indkey, a.attnum)) AS columns
		FROM pg_index ix
		JOIN pg_class i ON ix.indexrelid = i.oid
		JOIN pg_class t ON ix.indrelid = t.oid
		JOIN pg_namespace n ON t.relnamespace = n.oid
		LEFT JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE n.nspname = 'public'
		AND NOT ix.indisprimary
		AND NOT EXISTS (
			SELECT 1 FROM pg_constraint c
			WHERE c.conindid = ix.indexrelid AND c.contype = 'u'
		)
		GROUP BY i.relname, t.relname, ix.indisunique
		ORDER BY t.relname, i.relname
	`)
	if err != nil {
		return fmt.Errorf("failed to query indexes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var idx Index
		if err := rows.Scan(&idx.Name, &idx.Table, &idx.Unique, &idx.Columns); err != nil {
			return fmt.Errorf("failed to scan index: %w", err)
		}
		schema.Indexes = append(schema.Indexes, idx)
	}

	return rows.Err()
}
