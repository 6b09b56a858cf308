package db

import (
	"context"
	"fmt"
)

// SchemaCapabilities records which optional columns the deployed schema
// actually has. Introspected once at startup; repositories branch on these
// booleans instead of sniffing per-call error text.
type SchemaCapabilities struct {
	HasUserEmail       bool
	HasUserShirtNumber bool
}

// FullSchema is what a store migrated to the latest revision reports.
func FullSchema() SchemaCapabilities {
	return SchemaCapabilities{HasUserEmail: true, HasUserShirtNumber: true}
}

// DetectSchemaCapabilities checks information_schema for the optional users
// columns. Running against a store that predates the email/shirt_number
// migration is supported: reads degrade to nil fields, writes omit the
// missing columns.
func DetectSchemaCapabilities(ctx context.Context, q Querier) (SchemaCapabilities, error) {
	const query = `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = current_schema()
		  AND table_name = 'users'
		  AND column_name IN ('email', 'shirt_number')`

	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return SchemaCapabilities{}, fmt.Errorf("failed to introspect users schema: %w", err)
	}
	defer rows.Close()

	var caps SchemaCapabilities
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return SchemaCapabilities{}, fmt.Errorf("failed to scan column name: %w", err)
		}
		switch name {
		case "email":
			caps.HasUserEmail = true
		case "shirt_number":
			caps.HasUserShirtNumber = true
		}
	}
	if err := rows.Err(); err != nil {
		return SchemaCapabilities{}, err
	}

	return caps, nil
}
