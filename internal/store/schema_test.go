package store

import (
	"regexp"
	"strings"
	"testing"
)

// columnDef extracts the full definition line for a column in Schema.
func columnDef(t *testing.T, table, column string) string {
	t.Helper()
	tableRe := regexp.MustCompile(`(?s)CREATE TABLE IF NOT EXISTS ` + table + ` \((.*?)\);`)
	m := tableRe.FindStringSubmatch(Schema)
	if m == nil {
		t.Fatalf("table %s not found in schema", table)
	}
	for _, line := range strings.Split(m[1], "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(line), ","))
		if strings.HasPrefix(line, column+" ") {
			return line
		}
	}
	t.Fatalf("column %s.%s not found in schema", table, column)
	return ""
}

// Columns scanned into non-pointer Go fields must never be NULL, or the
// campaign read path fails on rows the DDL itself permits.
func TestSchemaNonNullableScanTargets(t *testing.T) {
	tests := []struct {
		table  string
		column string
	}{
		{table: "campaigns", column: "start_date"},
		{table: "campaigns", column: "created_at"},
		{table: "campaigns", column: "updated_at"},
		{table: "donations", column: "created_at"},
		{table: "donations", column: "updated_at"},
	}

	for _, tt := range tests {
		def := columnDef(t, tt.table, tt.column)
		if !strings.Contains(def, "NOT NULL") {
			t.Errorf("expected %s.%s to be NOT NULL, got %q", tt.table, tt.column, def)
		}
		if !strings.Contains(def, "DEFAULT") {
			t.Errorf("expected %s.%s to carry a default, got %q", tt.table, tt.column, def)
		}
	}
}

// These columns scan into pointers and stay nullable on purpose.
func TestSchemaNullableColumnsStayNullable(t *testing.T) {
	tests := []struct {
		table  string
		column string
	}{
		{table: "campaigns", column: "end_date"},
		{table: "donations", column: "receipt_sent_at"},
		{table: "users", column: "password_hash"},
	}

	for _, tt := range tests {
		def := columnDef(t, tt.table, tt.column)
		if strings.Contains(def, "NOT NULL") {
			t.Errorf("expected %s.%s to stay nullable, got %q", tt.table, tt.column, def)
		}
	}
}
