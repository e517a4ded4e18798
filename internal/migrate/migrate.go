package migrate

import (
	"context"
	"crypto/sha256"
	"embed"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

//go:embed migrations/*.sql migrations/typewriter.sum
var embedded embed.FS

// Embedded returns the schema migrations compiled into the binary.
func Embedded() fs.FS {
	sub, err := fs.Sub(embedded, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

type Migration struct {
	Name      string    `json:"name"`
	Content   string    `json:"-"`
	Checksum  string    `json:"checksum,omitempty"`
	AppliedAt time.Time `json:"appliedAt"`
	Modified  bool      `json:"modified"`
}

const migrationsTable = "typewriter_migrations"

func ComputeChecksum(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

func EnsureMigrationsTable(ctx context.Context, conn *pgx.Conn) error {
	_, err := conn.Exec(ctx, fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			name TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			checksum TEXT
		)
	`, migrationsTable))
	return err
}

func GetApplied(ctx context.Context, databaseURL string) ([]Migration, error) {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if err := EnsureMigrationsTable(ctx, conn); err != nil {
		return nil, err
	}

	rows, err := conn.Query(ctx, fmt.Sprintf(`
		SELECT name, applied_at, COALESCE(checksum, '')
		FROM %s
		ORDER BY name
	`, migrationsTable))
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}
	defer rows.Close()

	var migrations []Migration
	for rows.Next() {
		var m Migration
		if err := rows.Scan(&m.Name, &m.AppliedAt, &m.Checksum); err != nil {
			return nil, fmt.Errorf("failed to scan migration: %w", err)
		}
		migrations = append(migrations, m)
	}

	return migrations, rows.Err()
}

func isUpMigration(name string) bool {
	return strings.HasSuffix(name, ".sql") && !strings.HasSuffix(name, ".down.sql")
}

func GetPending(ctx context.Context, databaseURL string, fsys fs.FS) ([]Migration, error) {
	applied, err := GetApplied(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	appliedMap := make(map[string]Migration)
	for _, m := range applied {
		appliedMap[m.Name] = m
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read migrations: %w", err)
	}

	var pending []Migration
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !isUpMigration(name) {
			continue
		}

		if _, exists := appliedMap[name]; exists {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration %s: %w", name, err)
		}

		pending = append(pending, Migration{
			Name:     name,
			Content:  string(content),
			Checksum: ComputeChecksum(string(content)),
		})
	}

	sort.Slice(pending, func(i, j int) bool {
		return pending[i].Name < pending[j].Name
	})

	return pending, nil
}

func GetAppliedWithStatus(ctx context.Context, databaseURL string, fsys fs.FS) ([]Migration, error) {
	applied, err := GetApplied(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	for i, m := range applied {
		content, err := fs.ReadFile(fsys, m.Name)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				applied[i].Modified = true
				continue
			}
			return nil, fmt.Errorf("failed to read migration %s: %w", m.Name, err)
		}

		applied[i].Content = string(content)
		if m.Checksum != "" && m.Checksum != ComputeChecksum(string(content)) {
			applied[i].Modified = true
		}
	}

	return applied, nil
}

func HasModifiedMigrations(ctx context.Context, databaseURL string, fsys fs.FS) ([]Migration, error) {
	applied, err := GetAppliedWithStatus(ctx, databaseURL, fsys)
	if err != nil {
		return nil, err
	}

	var modified []Migration
	for _, m := range applied {
		if m.Modified {
			modified = append(modified, m)
		}
	}

	return modified, nil
}

func Apply(ctx context.Context, databaseURL string, m Migration) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	if err := EnsureMigrationsTable(ctx, conn); err != nil {
		return fmt.Errorf("failed to ensure migrations table: %w", err)
	}

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.Content); err != nil {
		return fmt.Errorf("failed to execute migration: %w", err)
	}

	checksum := m.Checksum
	if checksum == "" {
		checksum = ComputeChecksum(m.Content)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		INSERT INTO %s (name, checksum) VALUES ($1, $2)
	`, migrationsTable), m.Name, checksum); err != nil {
		return fmt.Errorf("failed to record migration: %w", err)
	}

	return tx.Commit(ctx)
}

// ErrModifiedHistory is returned by Up when an applied migration no longer
// matches its recorded checksum and force was not requested.
var ErrModifiedHistory = errors.New("refusing to apply migrations with modified history")

type UpOptions struct {
	DryRun bool
	Force  bool
}

// Up applies every pending migration in name order and returns the ones it
// applied, or would apply when DryRun is set.
func Up(ctx context.Context, databaseURL string, fsys fs.FS, opts UpOptions) ([]Migration, error) {
	if err := ValidateSum(fsys); err != nil && !opts.Force {
		return nil, fmt.Errorf("sum file validation failed: %w", err)
	}

	modified, err := HasModifiedMigrations(ctx, databaseURL, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to check for modified migrations: %w", err)
	}
	if len(modified) > 0 && !opts.Force {
		names := make([]string, 0, len(modified))
		for _, m := range modified {
			names = append(names, m.Name)
		}
		return nil, fmt.Errorf("%w: %s", ErrModifiedHistory, strings.Join(names, ", "))
	}

	pending, err := GetPending(ctx, databaseURL, fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending migrations: %w", err)
	}

	if opts.DryRun {
		return pending, nil
	}

	for i, m := range pending {
		if err := Apply(ctx, databaseURL, m); err != nil {
			return pending[:i], fmt.Errorf("failed to apply migration %s: %w", m.Name, err)
		}
	}

	return pending, nil
}

func GetLastApplied(ctx context.Context, databaseURL string) (*Migration, error) {
	applied, err := GetApplied(ctx, databaseURL)
	if err != nil {
		return nil, err
	}
	if len(applied) == 0 {
		return nil, nil
	}
	return &applied[len(applied)-1], nil
}

func GetRollbackable(ctx context.Context, databaseURL string, fsys fs.FS, count int) ([]Migration, error) {
	applied, err := GetApplied(ctx, databaseURL)
	if err != nil {
		return nil, err
	}

	if len(applied) == 0 {
		return nil, nil
	}

	if count > len(applied) {
		count = len(applied)
	}

	var rollbackable []Migration
	for i := len(applied) - 1; i >= len(applied)-count; i-- {
		m := applied[i]
		downName := strings.TrimSuffix(m.Name, ".sql") + ".down.sql"

		content, err := fs.ReadFile(fsys, downName)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("down migration not found: %s", downName)
			}
			return nil, fmt.Errorf("failed to read down migration %s: %w", downName, err)
		}

		rollbackable = append(rollbackable, Migration{
			Name:    m.Name,
			Content: string(content),
		})
	}

	return rollbackable, nil
}

func Rollback(ctx context.Context, databaseURL string, m Migration) error {
	conn, err := pgx.Connect(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, m.Content); err != nil {
		return fmt.Errorf("failed to execute rollback: %w", err)
	}

	if _, err := tx.Exec(ctx, fmt.Sprintf(`
		DELETE FROM %s WHERE name = $1
	`, migrationsTable), m.Name); err != nil {
		return fmt.Errorf("failed to remove migration record: %w", err)
	}

	return tx.Commit(ctx)
}
