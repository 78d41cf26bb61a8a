// Package catalog stores the category taxonomy (code to human-readable name)
// in SQLite, seeded from an embedded list on first open.
package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
	"go.yaml.in/yaml/v3"
)

//go:embed taxonomy.yaml
var taxonomyYAML []byte

// Category is one taxonomy entry.
type Category struct {
	Code string `json:"code" yaml:"code"`
	Name string `json:"name" yaml:"name"`
}

// Catalog manages the category table.
type Catalog struct {
	db  *sql.DB
	log logrus.FieldLogger
}

// Open opens or creates the catalog database at path and seeds any missing
// taxonomy entries. An empty path keeps the catalog in memory.
func Open(ctx context.Context, path string, logger logrus.FieldLogger) (*Catalog, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating catalog directory: %w", err)
		}
		dsn = path + "?_journal_mode=WAL"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	// One connection: an in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	c := &Catalog{db: db, log: logger.WithField("component", "catalog")}
	if err := c.createSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	seeded, err := c.seed(ctx)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"path": path, "seeded": seeded}).Info("Category catalog ready")
	return c, nil
}

// Close releases the database connection.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) createSchema(ctx context.Context) error {
	_, err := c.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS category (
		code TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating category table: %w", err)
	}
	return nil
}

// seed inserts the embedded taxonomy, keeping rows that already exist.
func (c *Catalog) seed(ctx context.Context) (int, error) {
	categories, err := parseTaxonomy(taxonomyYAML)
	if err != nil {
		return 0, err
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO category (code, name) VALUES (?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing seed statement: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, cat := range categories {
		res, err := stmt.ExecContext(ctx, cat.Code, cat.Name)
		if err != nil {
			return 0, fmt.Errorf("seeding %s: %w", cat.Code, err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing seed: %w", err)
	}
	return inserted, nil
}

func parseTaxonomy(data []byte) ([]Category, error) {
	var doc struct {
		Categories []Category `yaml:"categories"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing taxonomy: %w", err)
	}
	for _, cat := range doc.Categories {
		if cat.Code == "" || cat.Name == "" {
			return nil, fmt.Errorf("taxonomy entry %+v is incomplete", cat)
		}
	}
	return doc.Categories, nil
}

// Name returns the human-readable name for code. ok is false for unknown codes.
func (c *Catalog) Name(ctx context.Context, code string) (name string, ok bool, err error) {
	err = c.db.QueryRowContext(ctx, `SELECT name FROM category WHERE code = ?`, code).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("looking up category %s: %w", code, err)
	}
	return name, true, nil
}

// Put inserts or renames a category.
func (c *Catalog) Put(ctx context.Context, cat Category) error {
	if cat.Code == "" || cat.Name == "" {
		return fmt.Errorf("category needs a code and a name")
	}
	_, err := c.db.ExecContext(ctx,
		`INSERT INTO category (code, name) VALUES (?, ?)
		 ON CONFLICT(code) DO UPDATE SET name = excluded.name`, cat.Code, cat.Name)
	if err != nil {
		return fmt.Errorf("storing category %s: %w", cat.Code, err)
	}
	return nil
}

// All returns every category ordered by code.
func (c *Catalog) All(ctx context.Context) ([]Category, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT code, name FROM category ORDER BY code`)
	if err != nil {
		return nil, fmt.Errorf("listing categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var cat Category
		if err := rows.Scan(&cat.Code, &cat.Name); err != nil {
			return nil, fmt.Errorf("scanning category: %w", err)
		}
		out = append(out, cat)
	}
	return out, rows.Err()
}
