package migrate

import (
	"bufio"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const SumFile = "typewriter.sum"

type SumEntry struct {
	Name string
	Hash string
}

func GenerateSum(fsys fs.FS) ([]SumEntry, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var sqlFiles []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		sqlFiles = append(sqlFiles, entry.Name())
	}

	sort.Strings(sqlFiles)

	var sumEntries []SumEntry
	for _, name := range sqlFiles {
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", name, err)
		}
		sumEntries = append(sumEntries, SumEntry{Name: name, Hash: hashContent(content)})
	}

	return sumEntries, nil
}

func totalHash(entries []SumEntry) string {
	var allHashes []byte
	for _, entry := range entries {
		allHashes = append(allHashes, []byte(entry.Hash)...)
	}
	return hashContent(allHashes)
}

// WriteSum writes the sum file into a migrations directory on disk.
func WriteSum(migrationsDir string, entries []SumEntry) error {
	if len(entries) == 0 {
		return nil
	}

	f, err := os.Create(filepath.Join(migrationsDir, SumFile))
	if err != nil {
		return fmt.Errorf("failed to create sum file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if _, err := fmt.Fprintf(f, "h1:%s\n", totalHash(entries)); err != nil {
		return err
	}

	for _, entry := range entries {
		if _, err := fmt.Fprintf(f, "%s h1:%s\n", entry.Name, entry.Hash); err != nil {
			return err
		}
	}

	return nil
}

func ReadSum(fsys fs.FS) (string, []SumEntry, error) {
	f, err := fsys.Open(SumFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, nil
		}
		return "", nil, fmt.Errorf("failed to open sum file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var total string
	var entries []SumEntry

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		lineNum++

		if lineNum == 1 {
			if !strings.HasPrefix(line, "h1:") {
				return "", nil, fmt.Errorf("invalid sum file: first line must be total hash")
			}
			total = strings.TrimPrefix(line, "h1:")
			continue
		}

		parts := strings.SplitN(line, " ", 2)
		if len(parts) != 2 {
			return "", nil, fmt.Errorf("invalid sum file line %d: %s", lineNum, line)
		}

		entries = append(entries, SumEntry{Name: parts[0], Hash: strings.TrimPrefix(parts[1], "h1:")})
	}

	if err := scanner.Err(); err != nil {
		return "", nil, fmt.Errorf("failed to read sum file: %w", err)
	}

	return total, entries, nil
}

// ValidateSum checks the recorded hashes against the migration files. Files
// missing from the sum file are not an error.
func ValidateSum(fsys fs.FS) error {
	storedTotal, storedEntries, err := ReadSum(fsys)
	if err != nil {
		return err
	}

	if storedTotal == "" && len(storedEntries) == 0 {
		return nil
	}

	currentEntries, err := GenerateSum(fsys)
	if err != nil {
		return err
	}

	storedMap := make(map[string]string)
	for _, e := range storedEntries {
		storedMap[e.Name] = e.Hash
	}

	for _, current := range currentEntries {
		stored, exists := storedMap[current.Name]
		if !exists {
			continue
		}
		if stored != current.Hash {
			return fmt.Errorf("migration %s has been modified (hash mismatch)", current.Name)
		}
	}

	if storedTotal != totalHash(storedEntries) {
		return fmt.Errorf("sum file has been tampered with (total hash mismatch)")
	}

	return nil
}

func hashContent(content []byte) string {
	h := sha256.Sum256(content)
	return base64.StdEncoding.EncodeToString(h[:])
}

func UpdateSum(migrationsDir string) error {
	entries, err := GenerateSum(os.DirFS(migrationsDir))
	if err != nil {
		return err
	}
	return WriteSum(migrationsDir, entries)
}
