package migrate

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func migrationFS(files map[string]string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for name, content := range files {
		fsys[name] = &fstest.MapFile{Data: []byte(content)}
	}
	return fsys
}

func TestGenerateSum(t *testing.T) {
	fsys := migrationFS(map[string]string{
		"001_first.sql":       "CREATE TABLE first (id INT);",
		"001_first.down.sql":  "DROP TABLE first;",
		"002_second.sql":      "CREATE TABLE second (id INT);",
		"002_second.down.sql": "DROP TABLE second;",
		"README.md":           "not a migration",
	})

	entries, err := GenerateSum(fsys)
	if err != nil {
		t.Fatalf("GenerateSum() error = %v", err)
	}

	if len(entries) != 4 {
		t.Errorf("expected 4 entries, got %d", len(entries))
	}

	for _, e := range entries {
		if e.Hash == "" {
			t.Errorf("entry %s has empty hash", e.Name)
		}
	}
}

func TestGenerateSum_NonExistentDir(t *testing.T) {
	entries, err := GenerateSum(os.DirFS("/nonexistent/path"))
	if err != nil {
		t.Fatalf("GenerateSum() error = %v", err)
	}

	if entries != nil {
		t.Errorf("expected nil entries for non-existent dir, got %v", entries)
	}
}

func TestGenerateSum_SortsFiles(t *testing.T) {
	fsys := migrationFS(map[string]string{
		"003_third.sql":  "SELECT 1;",
		"001_first.sql":  "SELECT 1;",
		"002_second.sql": "SELECT 1;",
	})

	entries, err := GenerateSum(fsys)
	if err != nil {
		t.Fatalf("GenerateSum() error = %v", err)
	}

	expected := []string{"001_first.sql", "002_second.sql", "003_third.sql"}
	if len(entries) != len(expected) {
		t.Fatalf("expected %d entries, got %d", len(expected), len(entries))
	}
	for i, e := range entries {
		if e.Name != expected[i] {
			t.Errorf("entry %d = %q, want %q", i, e.Name, expected[i])
		}
	}
}

func TestWriteAndReadSum(t *testing.T) {
	tmpDir := t.TempDir()

	entries := []SumEntry{
		{Name: "001_first.sql", Hash: "abc123"},
		{Name: "002_second.sql", Hash: "def456"},
	}

	if err := WriteSum(tmpDir, entries); err != nil {
		t.Fatalf("WriteSum() error = %v", err)
	}

	total, readEntries, err := ReadSum(os.DirFS(tmpDir))
	if err != nil {
		t.Fatalf("ReadSum() error = %v", err)
	}

	if total != totalHash(entries) {
		t.Errorf("total hash = %q, want %q", total, totalHash(entries))
	}

	if len(readEntries) != len(entries) {
		t.Fatalf("expected %d entries, got %d", len(entries), len(readEntries))
	}

	for i, e := range readEntries {
		if e != entries[i] {
			t.Errorf("entry %d = %+v, want %+v", i, e, entries[i])
		}
	}
}

func TestReadSum_NonExistent(t *testing.T) {
	total, entries, err := ReadSum(fstest.MapFS{})
	if err != nil {
		t.Fatalf("ReadSum() error = %v", err)
	}
	if total != "" {
		t.Errorf("expected empty total hash, got %q", total)
	}
	if entries != nil {
		t.Errorf("expected nil entries, got %v", entries)
	}
}

func TestReadSum_InvalidHeader(t *testing.T) {
	fsys := migrationFS(map[string]string{SumFile: "001_first.sql h1:abc\n"})

	if _, _, err := ReadSum(fsys); err == nil {
		t.Error("ReadSum() should reject a sum file without a total hash line")
	}
}

func TestValidateSum_Valid(t *testing.T) {
	tmpDir := t.TempDir()

	for name, content := range map[string]string{
		"001_first.sql":  "CREATE TABLE first (id INT);",
		"002_second.sql": "CREATE TABLE second (id INT);",
	} {
		if err := os.WriteFile(filepath.Join(tmpDir, name), []byte(content), 0644); err != nil {
			t.Fatalf("failed to write file: %v", err)
		}
	}

	if err := UpdateSum(tmpDir); err != nil {
		t.Fatalf("UpdateSum() error = %v", err)
	}

	if err := ValidateSum(os.DirFS(tmpDir)); err != nil {
		t.Errorf("ValidateSum() error = %v, want nil", err)
	}
}

func TestValidateSum_ModifiedFile(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "001_first.sql")

	if err := os.WriteFile(path, []byte("CREATE TABLE first (id INT);"), 0644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	if err := UpdateSum(tmpDir); err != nil {
		t.Fatalf("UpdateSum() error = %v", err)
	}

	if err := os.WriteFile(path, []byte("CREATE TABLE first (id INT, name TEXT);"), 0644); err != nil {
		t.Fatalf("failed to modify file: %v", err)
	}

	if err := ValidateSum(os.DirFS(tmpDir)); err == nil {
		t.Error("ValidateSum() should return error for modified file")
	}
}

func TestValidateSum_TamperedTotal(t *testing.T) {
	fsys := migrationFS(map[string]string{
		"001_first.sql": "SELECT 1;",
		SumFile:         "h1:bogus\n001_first.sql h1:" + hashContent([]byte("SELECT 1;")) + "\n",
	})

	if err := ValidateSum(fsys); err == nil {
		t.Error("ValidateSum() should detect a tampered total hash")
	}
}

func TestValidateSum_NoSumFile(t *testing.T) {
	fsys := migrationFS(map[string]string{"001_first.sql": "CREATE TABLE first (id INT);"})

	if err := ValidateSum(fsys); err != nil {
		t.Errorf("ValidateSum() should not error when no sum file exists, got: %v", err)
	}
}

func TestValidateSum_Embedded(t *testing.T) {
	if err := ValidateSum(Embedded()); err != nil {
		t.Errorf("embedded migrations do not match %s: %v", SumFile, err)
	}
}
