package persistence

import (
	"strings"
	"testing"
	"testing/fstest"
)

func TestExtractUpMigration(t *testing.T) {
	content := "-- +migrate Up\nCREATE TABLE a (id TEXT);\n-- +migrate Down\nDROP TABLE a;\n"
	up := ExtractUpMigration(content)
	if !strings.Contains(up, "CREATE TABLE a") {
		t.Fatalf("up = %q, want create statement", up)
	}
	if strings.Contains(up, "DROP TABLE") {
		t.Fatalf("up = %q, should stop at down marker", up)
	}
	if got := ExtractUpMigration("SELECT 1;"); got != "SELECT 1;" {
		t.Fatalf("unmarked = %q, want whole file", got)
	}
}

func TestLoadMigrationsSortsAndSkipsNonSQL(t *testing.T) {
	fsys := fstest.MapFS{
		"002_b.sql":    {Data: []byte("-- +migrate Up\nSELECT 2;")},
		"001_a.sql":    {Data: []byte("-- +migrate Up\nSELECT 1;")},
		"README.md":    {Data: []byte("docs")},
		"003_c.sql":    {Data: []byte("-- +migrate Up\n-- +migrate Down\nSELECT 3;")},
		"embed.go":     {Data: []byte("package migrations")},
		"nested/x.sql": {Data: []byte("SELECT 4;")},
	}
	list, err := LoadMigrations(fsys)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("migrations = %d, want 2", len(list))
	}
	if list[0].Name != "001_a.sql" || list[1].Name != "002_b.sql" {
		t.Fatalf("order = %s, %s", list[0].Name, list[1].Name)
	}
}
