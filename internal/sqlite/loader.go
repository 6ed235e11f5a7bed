// This file implements JSONL export and import of every table.
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// jsonlTableMapping maps JSONL filenames to their SQLite tables and column
// lists. The order matters: tables with foreign keys come after the tables
// they reference. The first columns form the primary key and drive export
// order.
var jsonlTableMapping = []struct {
	file    string
	table   string
	columns []string
	order   string
}{
	{"groups.jsonl", "groups", []string{"group_id", "name", "description"}, "group_id"},
	{"group_sets.jsonl", "group_sets", []string{"group_set_id", "name"}, "group_set_id"},
	{"plugins.jsonl", "plugins", []string{"plugin_id", "name", "description", "url"}, "plugin_id"},
	{"group_membership.jsonl", "group_membership", []string{"group_set_id", "group_id", "parent_id", "ordinal"}, "group_set_id, group_id"},
	{"plugin_membership.jsonl", "plugin_membership", []string{"group_set_id", "group_id", "plugin_id", "ordinal"}, "group_set_id, group_id, plugin_id"},
	{"loadouts.jsonl", "loadouts", []string{"loadout_id", "name", "group_set_id"}, "loadout_id"},
	{"loadout_plugins.jsonl", "loadout_plugins", []string{"loadout_id", "plugin_id"}, "loadout_id, plugin_id"},
}

// exportTables writes one JSONL file per table into dir, then the manifest.
// Each file is written atomically.
func exportTables(ctx context.Context, tx *sql.Tx, dir string) (manifestJSON, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return manifestJSON{}, fmt.Errorf("creating export directory: %w", err)
	}
	id, err := uuid.NewV7()
	if err != nil {
		return manifestJSON{}, fmt.Errorf("generating export id: %w", err)
	}
	manifest := manifestJSON{
		ExportID:   id.String(),
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Tables:     make(map[string]int, len(jsonlTableMapping)),
	}

	for _, mapping := range jsonlTableMapping {
		records, err := selectRecords(ctx, tx, mapping.table, mapping.columns, mapping.order)
		if err != nil {
			return manifestJSON{}, err
		}
		if err := writeJSONL(filepath.Join(dir, mapping.file), records); err != nil {
			return manifestJSON{}, fmt.Errorf("writing %s: %w", mapping.file, err)
		}
		manifest.Tables[mapping.file] = len(records)
	}

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return manifestJSON{}, fmt.Errorf("marshaling manifest: %w", err)
	}
	if err := writeJSONL(filepath.Join(dir, manifestFile), []json.RawMessage{data}); err != nil {
		return manifestJSON{}, fmt.Errorf("writing manifest: %w", err)
	}
	return manifest, nil
}

// selectRecords reads every row of table as a JSON object keyed by column.
func selectRecords(ctx context.Context, tx *sql.Tx, table string, columns []string, order string) ([]json.RawMessage, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s", strings.Join(columns, ", "), table, order)
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying %s for export: %w", table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s for export: %w", table, err)
		}
		rec := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				rec[col] = string(b)
				continue
			}
			rec[col] = values[i]
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("marshaling %s record: %w", table, err)
		}
		records = append(records, data)
	}
	return records, rows.Err()
}

// importTables replaces the content of every table with the JSONL files in
// dir. Missing files import as empty tables. Malformed lines are skipped;
// rows that violate a constraint fail the import.
func importTables(ctx context.Context, tx *sql.Tx, dir string) (int, error) {
	for _, mapping := range slices.Backward(jsonlTableMapping) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+mapping.table); err != nil {
			return 0, fmt.Errorf("clearing %s: %w", mapping.table, err)
		}
	}

	total := 0
	for _, mapping := range jsonlTableMapping {
		records, err := readJSONL(filepath.Join(dir, mapping.file))
		if err != nil {
			return 0, fmt.Errorf("reading %s: %w", mapping.file, err)
		}
		if len(records) == 0 {
			continue
		}
		n, err := insertRecords(ctx, tx, mapping.table, mapping.columns, records)
		if err != nil {
			return 0, fmt.Errorf("loading %s into %s: %w", mapping.file, mapping.table, err)
		}
		total += n
	}
	return total, nil
}

// insertRecords inserts parsed JSONL records into a SQLite table. Unknown
// fields in the JSON are ignored; only columns listed in the mapping are
// extracted.
func insertRecords(ctx context.Context, tx *sql.Tx, table string, columns []string, records []json.RawMessage) (int, error) {
	placeholders := make([]string, len(columns))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	insertSQL := fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)",
		table,
		strings.Join(columns, ", "),
		strings.Join(placeholders, ", "),
	)

	stmt, err := tx.PrepareContext(ctx, insertSQL)
	if err != nil {
		return 0, fmt.Errorf("preparing insert for %s: %w", table, err)
	}
	defer stmt.Close()

	inserted := 0
	for _, rec := range records {
		var obj map[string]any
		dec := json.NewDecoder(bytes.NewReader(rec))
		dec.UseNumber()
		if err := dec.Decode(&obj); err != nil {
			continue
		}

		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = columnValue(obj[col])
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return inserted, fmt.Errorf("inserting into %s: %w", table, err)
		}
		inserted++
	}
	return inserted, nil
}

// columnValue converts a decoded JSON value into a driver value. Integral
// numbers become int64 so id and ordinal columns keep their type.
func columnValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return val
	}
}
