package ch

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"readtracker/internal/models"
	"readtracker/internal/storage"
	"readtracker/migrations"

	"github.com/ClickHouse/clickhouse-go/v2"
)

// ClickHouseDB stores books and the reading log in ClickHouse.
// ClickHouse has no sequences, so IDs are allocated as max(id)+1 while
// holding idMu; a single writer process is assumed.
type ClickHouseDB struct {
	conn    clickhouse.Conn
	options *clickhouse.Options
	idMu    sync.Mutex
}

var _ storage.Storage = (*ClickHouseDB)(nil)

// NewClickHouseDB creates a new ClickHouse database connection
func NewClickHouseDB(host string, port int, database, user, password string, useTLS bool) (*ClickHouseDB, error) {
	addr := fmt.Sprintf("%s:%d", host, port)

	options := &clickhouse.Options{
		Addr:     []string{addr},
		Protocol: clickhouse.Native,
		Auth: clickhouse.Auth{
			Database: database,
			Username: user,
			Password: password,
		},
	}

	// Configure TLS if enabled
	if useTLS {
		options.TLS = &tls.Config{
			InsecureSkipVerify: false,
		}
	}

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse: %w", err)
	}

	// Test the connection
	if err := conn.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	return &ClickHouseDB{conn: conn, options: options}, nil
}

// Initialize applies the embedded ClickHouse migrations through a
// database/sql handle on the same server
func (db *ClickHouseDB) Initialize(ctx context.Context) error {
	sqlDB := clickhouse.OpenDB(db.options)
	defer sqlDB.Close()

	return migrations.Up(ctx, sqlDB, migrations.DialectClickHouse)
}

// mutationContext makes ALTER ... UPDATE/DELETE wait until the mutation is applied
func mutationContext(ctx context.Context) context.Context {
	return clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"mutations_sync": 1,
	}))
}

func (db *ClickHouseDB) nextID(ctx context.Context, table string) (int64, error) {
	var maxID int64
	if err := db.conn.QueryRow(ctx, `SELECT max(id) FROM `+table).Scan(&maxID); err != nil {
		return 0, fmt.Errorf("failed to allocate %s id: %w", table, err)
	}
	return maxID + 1, nil
}

// CreateBook inserts a book under the next free ID
func (db *ClickHouseDB) CreateBook(ctx context.Context, book models.Book) (int64, error) {
	db.idMu.Lock()
	defer db.idMu.Unlock()

	id, err := db.nextID(ctx, "books")
	if err != nil {
		return 0, err
	}

	err = db.conn.Exec(ctx, `INSERT INTO books (id, title, author, genre, total_pages, status, start_date, end_date) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, book.Title, book.Author, book.Genre, int64(book.TotalPages), string(book.Status),
		models.FormatOptionalDate(book.StartDate), models.FormatOptionalDate(book.EndDate))
	if err != nil {
		return 0, fmt.Errorf("failed to create book: %w", err)
	}
	return id, nil
}

// UpdateBook rewrites every column of an existing book
func (db *ClickHouseDB) UpdateBook(ctx context.Context, book models.Book) error {
	if _, err := db.GetBook(ctx, book.ID); err != nil {
		return err
	}

	err := db.conn.Exec(mutationContext(ctx),
		`ALTER TABLE books UPDATE title = ?, author = ?, genre = ?, total_pages = ?, status = ?, start_date = ?, end_date = ? WHERE id = ?`,
		book.Title, book.Author, book.Genre, int64(book.TotalPages), string(book.Status),
		models.FormatOptionalDate(book.StartDate), models.FormatOptionalDate(book.EndDate), book.ID)
	if err != nil {
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// DeleteBook removes the book's log entries, then the book
func (db *ClickHouseDB) DeleteBook(ctx context.Context, id int64) error {
	if _, err := db.GetBook(ctx, id); err != nil {
		return err
	}

	mctx := mutationContext(ctx)
	if err := db.conn.Exec(mctx, `ALTER TABLE reading_log DELETE WHERE book_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete reading log: %w", err)
	}
	if err := db.conn.Exec(mctx, `ALTER TABLE books DELETE WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

const bookColumns = `id, title, author, genre, total_pages, status, start_date, end_date`

// GetBook returns a single book
func (db *ClickHouseDB) GetBook(ctx context.Context, id int64) (models.Book, error) {
	books, err := db.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ? LIMIT 1`, id)
	if err != nil {
		return models.Book{}, err
	}
	if len(books) == 0 {
		return models.Book{}, fmt.Errorf("book %d: %w", id, storage.ErrNotFound)
	}
	return books[0], nil
}

// ListBooks returns all books ordered by title
func (db *ClickHouseDB) ListBooks(ctx context.Context) ([]models.Book, error) {
	return db.queryBooks(ctx, `SELECT `+bookColumns+` FROM books ORDER BY title, id`)
}

// ListBooksByStatus returns the books in status ordered by title
func (db *ClickHouseDB) ListBooksByStatus(ctx context.Context, status models.Status) ([]models.Book, error) {
	return db.queryBooks(ctx, `SELECT `+bookColumns+` FROM books WHERE status = ? ORDER BY title, id`, string(status))
}

func (db *ClickHouseDB) queryBooks(ctx context.Context, query string, args ...any) ([]models.Book, error) {
	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []models.Book{}
	for rows.Next() {
		var (
			book       models.Book
			totalPages int64
			status     string
			start, end string
		)
		if err := rows.Scan(&book.ID, &book.Title, &book.Author, &book.Genre, &totalPages, &status, &start, &end); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		book.TotalPages = int(totalPages)
		book.Status = models.Status(status)
		book.StartDate = models.ParseOptionalDate(start)
		book.EndDate = models.ParseOptionalDate(end)
		books = append(books, book)
	}
	return books, rows.Err()
}

// AddLogEntry records a reading session for an existing book
func (db *ClickHouseDB) AddLogEntry(ctx context.Context, entry models.LogEntry) (int64, error) {
	if _, err := db.GetBook(ctx, entry.BookID); err != nil {
		return 0, err
	}

	db.idMu.Lock()
	defer db.idMu.Unlock()

	id, err := db.nextID(ctx, "reading_log")
	if err != nil {
		return 0, err
	}

	err = db.conn.Exec(ctx, `INSERT INTO reading_log (id, book_id, log_date, pages_read, notes) VALUES (?, ?, ?, ?, ?)`,
		id, entry.BookID, models.FormatDate(entry.LogDate), int64(entry.PagesRead), strings.TrimSpace(entry.Notes))
	if err != nil {
		return 0, fmt.Errorf("failed to add log entry: %w", err)
	}
	return id, nil
}

// ListLogEntries returns the filtered log joined with book titles, newest first
func (db *ClickHouseDB) ListLogEntries(ctx context.Context, filter storage.LogFilter) ([]models.LogEntry, error) {
	query := `SELECT l.id, l.book_id, b.title, l.log_date, l.pages_read, l.notes
		FROM reading_log AS l
		LEFT JOIN books AS b ON b.id = l.book_id
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

	rows, err := db.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list log entries: %w", err)
	}
	defer rows.Close()

	entries := []models.LogEntry{}
	for rows.Next() {
		var (
			entry     models.LogEntry
			logDate   string
			pagesRead int64
		)
		if err := rows.Scan(&entry.ID, &entry.BookID, &entry.BookTitle, &logDate, &pagesRead, &entry.Notes); err != nil {
			return nil, fmt.Errorf("failed to scan log entry: %w", err)
		}
		entry.LogDate, _ = models.ParseDate(logDate)
		entry.PagesRead = int(pagesRead)
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// SumPagesForBook returns the pages logged for a book
func (db *ClickHouseDB) SumPagesForBook(ctx context.Context, bookID int64) (int, error) {
	var total int64
	err := db.conn.QueryRow(ctx, `SELECT sum(pages_read) FROM reading_log WHERE book_id = ?`, bookID).Scan(&total)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to sum pages: %w", err)
	}
	return int(total), nil
}

// Close closes the database connection
func (db *ClickHouseDB) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
