// Package sqlstore implements domain.PostStore on database/sql for
// PostgreSQL (lib/pq) and SQLite (modernc.org/sqlite).
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/blackmichael/blog-admin/internal/domain"
)

// Dialect describes the differences between the supported SQL backends.
type Dialect struct {
	// Driver is the database/sql driver name.
	Driver string

	// Numbered reports whether the driver expects $1-style placeholders
	// instead of '?'.
	Numbered bool
}

var (
	Postgres = Dialect{Driver: "postgres", Numbered: true}
	SQLite   = Dialect{Driver: "sqlite"}
)

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Store implements domain.PostStore. Timestamps are kept as Unix
// milliseconds so both dialects round-trip them identically.
type Store struct {
	db      *sql.DB
	dialect Dialect
	table   string
}

// Open connects using the given dialect and DSN, verifies the connection,
// creates the posts table if it is missing and returns a new Store. The
// caller should call Close when the store is no longer needed.
func Open(ctx context.Context, dialect Dialect, dsn, table string) (*Store, error) {
	if !tableName.MatchString(table) {
		return nil, fmt.Errorf("invalid table name %q", table)
	}

	db, err := sql.Open(dialect.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dialect == SQLite {
		// SQLite serialises writers; a single connection avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &Store{db: db, dialect: dialect, table: table}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS ` + s.table + ` (
			id         TEXT PRIMARY KEY,
			title      TEXT NOT NULL,
			slug       TEXT NOT NULL,
			excerpt    TEXT NOT NULL,
			content    TEXT NOT NULL,
			published  BOOLEAN NOT NULL DEFAULT FALSE,
			created_at BIGINT NOT NULL,
			updated_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS ` + s.table + `_created_at_idx ON ` + s.table + ` (created_at DESC)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// ListPosts returns every post ordered by created_at descending.
func (s *Store) ListPosts(ctx context.Context) ([]domain.Post, error) {
	rows, err := s.db.QueryContext(ctx, s.query(`
		SELECT id, title, slug, excerpt, content, published, created_at, updated_at
		FROM %s
		ORDER BY created_at DESC, id DESC`))
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	var posts []domain.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return posts, nil
}

// GetPost retrieves a post by id.
func (s *Store) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	row := s.db.QueryRowContext(ctx, s.query(`
		SELECT id, title, slug, excerpt, content, published, created_at, updated_at
		FROM %s
		WHERE id = ?`), id)

	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get post %s: %w", id, err)
	}
	return p, nil
}

// InsertPost inserts a new post under a fresh UUID.
func (s *Store) InsertPost(ctx context.Context, post *domain.Post) (string, error) {
	id := uuid.NewString()

	_, err := s.db.ExecContext(ctx, s.query(`
		INSERT INTO %s (id, title, slug, excerpt, content, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`),
		id,
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		post.Published,
		post.CreatedAt.UnixMilli(),
		post.UpdatedAt.UnixMilli(),
	)
	if err != nil {
		return "", fmt.Errorf("insert post: %w", err)
	}
	return id, nil
}

// UpdatePost overwrites the editable columns of a post.
func (s *Store) UpdatePost(ctx context.Context, id string, post *domain.Post) error {
	res, err := s.db.ExecContext(ctx, s.query(`
		UPDATE %s
		SET title = ?, slug = ?, excerpt = ?, content = ?, published = ?, updated_at = ?
		WHERE id = ?`),
		post.Title,
		post.Slug,
		post.Excerpt,
		post.Content,
		post.Published,
		post.UpdatedAt.UnixMilli(),
		id,
	)
	if err != nil {
		return fmt.Errorf("update post %s: %w", id, err)
	}
	return requireAffected(res)
}

// DeletePost removes a post by id.
func (s *Store) DeletePost(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, s.query(`DELETE FROM %s WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete post %s: %w", id, err)
	}
	return requireAffected(res)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(row scanner) (*domain.Post, error) {
	var (
		p                    domain.Post
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&p.ID,
		&p.Title,
		&p.Slug,
		&p.Excerpt,
		&p.Content,
		&p.Published,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.CreatedAt = time.UnixMilli(createdAt).UTC()
	p.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// query fills in the table name and rewrites '?' placeholders for dialects
// that number them.
func (s *Store) query(q string) string {
	return rebind(s.dialect, fmt.Sprintf(q, s.table))
}

func rebind(d Dialect, q string) string {
	if !d.Numbered {
		return q
	}

	var b strings.Builder
	b.Grow(len(q) + 8)
	n := 0
	for _, r := range q {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
