// Package sqldb implements storage.Storage on database/sql for SQLite and
// PostgreSQL.
package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"readtracker/internal/models"
	"readtracker/internal/storage"
	"readtracker/migrations"
)

// Dialect selects the SQL flavour of a DB
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// DB is a database/sql backed store
type DB struct {
	db      *sql.DB
	dialect Dialect
}

var _ storage.Storage = (*DB)(nil)

// OpenSQLite opens (creating if needed) the SQLite database file at path
func OpenSQLite(ctx context.Context, path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping SQLite database: %w", err)
	}
	return New(db, DialectSQLite), nil
}

// OpenPostgres connects to PostgreSQL through the pgx driver
func OpenPostgres(ctx context.Context, url string) (*DB, error) {
	db, err := sql.Open("pgx", url)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL connection: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL: %w", err)
	}
	return New(db, DialectPostgres), nil
}

// New wraps an open connection pool
func New(db *sql.DB, dialect Dialect) *DB {
	return &DB{db: db, dialect: dialect}
}

// Initialize applies the embedded migrations of the dialect
func (s *DB) Initialize(ctx context.Context) error {
	dialect := migrations.DialectSQLite
	if s.dialect == DialectPostgres {
		dialect = migrations.DialectPostgres
	}
	return migrations.Up(ctx, s.db, dialect)
}

const bookColumns = `id, title, author, genre, total_pages, status, start_date, end_date`

// CreateBook inserts a book and returns its ID
func (s *DB) CreateBook(ctx context.Context, book models.Book) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO books (title, author, genre, total_pages, status, start_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		book.Title, book.Author, book.Genre, book.TotalPages, string(book.Status),
		nullDate(book.StartDate), nullDate(book.EndDate),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create book: %w", err)
	}
	return id, nil
}

// UpdateBook overwrites every column of an existing book
func (s *DB) UpdateBook(ctx context.Context, book models.Book) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`
		UPDATE books
		SET title = ?, author = ?, genre = ?, total_pages = ?, status = ?, start_date = ?, end_date = ?
		WHERE id = ?`),
		book.Title, book.Author, book.Genre, book.TotalPages, string(book.Status),
		nullDate(book.StartDate), nullDate(book.EndDate), book.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return expectRow(res, "book", book.ID)
}

// DeleteBook removes a book and its log entries in one transaction
func (s *DB) DeleteBook(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM reading_log WHERE book_id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete reading log: %w", err)
	}
	res, err := tx.ExecContext(ctx, s.rebind(`DELETE FROM books WHERE id = ?`), id)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	if err := expectRow(res, "book", id); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBook returns the book with the given ID
func (s *DB) GetBook(ctx context.Context, id int64) (models.Book, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+bookColumns+` FROM books WHERE id = ?`), id)
	book, err := scanBook(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Book{}, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}
	if err != nil {
		return models.Book{}, fmt.Errorf("failed to get book: %w", err)
	}
	return book, nil
}

// ListBooks returns all books ordered by title
func (s *DB) ListBooks(ctx context.Context) ([]models.Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title, id`)
}

// ListBooksByStatus returns the books in status ordered by title
func (s *DB) ListBooksByStatus(ctx context.Context, status models.Status) ([]models.Book, error) {
	return s.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE status = ? ORDER BY title, id`, string(status))
}

func (s *DB) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		book, err := scanBook(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate books: %w", err)
	}
	return books, nil
}

// AddLogEntry stores a reading session for an existing book
func (s *DB) AddLogEntry(ctx context.Context, entry models.LogEntry) (int64, error) {
	if _, err := s.GetBook(ctx, entry.BookID); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx, s.rebind(`
		INSERT INTO reading_log (book_id, log_date, pages_read, notes)
		VALUES (?, ?, ?, ?)
		RETURNING id`),
		entry.BookID, models.FormatDate(entry.LogDate), entry.PagesRead, strings.TrimSpace(entry.Notes),
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to add log entry: %w", err)
	}
	return id, nil
}

// ListLogEntries returns the filtered log joined with book titles, newest first
func (s *DB) ListLogEntries(ctx context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	query := `
		SELECT l.id, l.book_id, COALESCE(b.title, ''), l.log_date, l.pages_read, l.notes
		FROM reading_log l
		LEFT JOIN books b ON b.id = l.book_id
		WHERE 1 = 1`
	var args []any
	if filter.BookID != 0 {
		query += ` AND l.book_id = ?`
		args = append(args, filter.BookID)
	}
	if filter.From != nil {
		query += ` AND l.log_date >= ?`
		args = append(args, models.FormatDate(*filter.From))
	}
	if filter.To != nil {
		query += ` AND l.log_date <= ?`
		args = append(args, models.FormatDate(*filter.To))
	}
	query += ` ORDER BY l.log_date DESC, l.id DESC`

	rows, err := s.db.QueryContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		var (
			entry   models.LogEntry
			logDate string
		)
		if err := rows.Scan(&entry.ID, &entry.BookID, &entry.BookTitle, &logDate, &entry.PagesRead, &entry.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		// Malformed text stays a zero date and is ignored by the aggregates
		entry.LogDate, _ = models.ParseDate(logDate)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate log entries: %w", err)
	}
	return entries, nil
}

// SumPagesForBook returns the pages logged for a book
func (s *DB) SumPagesForBook(ctx context.Context, bookID int64) (int, error) {
	var total int64
	err := s.db.QueryRowContext(ctx,
		s.rebind(`SELECT COALESCE(SUM(pages_read), 0) FROM reading_log WHERE book_id = ?`), bookID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to sum pages: %w", err)
	}
	return int(total), nil
}

// Close closes the connection pool
func (s *DB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// rebind rewrites ? placeholders as $n for PostgreSQL
func (s *DB) rebind(query string) string {
	if s.dialect != DialectPostgres {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
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

type scanner interface {
	Scan(dest ...any) error
}

func scanBook(row scanner) (models.Book, error) {
	var (
		book       models.Book
		status     string
		start, end sql.NullString
	)
	if err := row.Scan(&book.ID, &book.Title, &book.Author, &book.Genre, &book.TotalPages, &status, &start, &end); err != nil {
		return models.Book{}, err
	}
	book.Status = models.Status(status)
	book.StartDate = models.ParseOptionalDate(start.String)
	book.EndDate = models.ParseOptionalDate(end.String)
	return book, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil || t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: models.FormatDate(*t), Valid: true}
}

func expectRow(res sql.Result, kind string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", kind, id, storage.ErrNotFound)
	}
	return nil
}
