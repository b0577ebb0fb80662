package migrations

import (
	"os"
	"path/filepath"
	"testing"
)

func TestVersionOf(t *testing.T) {
	tests := map[string]string{
		"001_applications.sql":                    "001",
		"migrations/002_application_comments.sql": "002",
		"010.sql":                                 "010.sql",
	}
	for in, want := range tests {
		if got := VersionOf(in); got != want {
			t.Errorf("VersionOf(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestSQLFilesSortedAndFiltered(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"002_b.sql", "001_a.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("SELECT 1;"), 0o600); err != nil {
			t.Fatalf("Failed to write %s: %v", name, err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "003_dir.sql"), 0o700); err != nil {
		t.Fatalf("Failed to create dir: %v", err)
	}

	files, err := SQLFiles(dir)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(files) != 2 || filepath.Base(files[0]) != "001_a.sql" || filepath.Base(files[1]) != "002_b.sql" {
		t.Errorf("Unexpected files: %v", files)
	}
}

func TestSQLFilesMissingDir(t *testing.T) {
	if _, err := SQLFiles(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("Expected error for missing directory")
	}
}

func TestShippedMigrationsAreOrdered(t *testing.T) {
	files, err := SQLFiles(filepath.Join("..", "..", "..", "migrations"))
	if err != nil {
		t.Fatalf("Expected shipped migrations, got %v", err)
	}
	if len(files) < 2 {
		t.Fatalf("Expected at least 2 migrations, got %d", len(files))
	}
	seen := map[string]bool{}
	for _, f := range files {
		v := VersionOf(f)
		if seen[v] {
			t.Errorf("Duplicate migration version %s", v)
		}
		seen[v] = true
	}
}
