package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrValidation is wrapped by every Validate failure
var ErrValidation = errors.New("validation failed")

// Status is the lifecycle state of a book
type Status string

const (
	StatusWishlist  Status = "wishlist"
	StatusReading   Status = "reading"
	StatusCompleted Status = "completed"
	StatusAbandoned Status = "abandoned"
)

// Statuses lists every valid status in display order
var Statuses = []Status{StatusWishlist, StatusReading, StatusCompleted, StatusAbandoned}

// ParseStatus parses a status name, ignoring case and surrounding spaces
func ParseStatus(s string) (Status, bool) {
	candidate := Status(strings.ToLower(strings.TrimSpace(s)))
	for _, status := range Statuses {
		if status == candidate {
			return status, true
		}
	}
	return "", false
}

// HasStartDate reports whether books in this status carry a start date
func (s Status) HasStartDate() bool {
	return s == StatusReading || s == StatusCompleted || s == StatusAbandoned
}

// HasEndDate reports whether books in this status carry an end date
func (s Status) HasEndDate() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

// Book represents a tracked title
type Book struct {
	ID         int64      `json:"id"`
	Title      string     `json:"title"`
	Author     string     `json:"author"`
	Genre      string     `json:"genre,omitempty"`
	TotalPages int        `json:"total_pages"`
	Status     Status     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
}

// Validate checks the fields every stored book must have
func (b Book) Validate() error {
	if strings.TrimSpace(b.Title) == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if strings.TrimSpace(b.Author) == "" {
		return fmt.Errorf("%w: author is required", ErrValidation)
	}
	if b.TotalPages <= 0 {
		return fmt.Errorf("%w: total pages must be positive", ErrValidation)
	}
	if _, ok := ParseStatus(string(b.Status)); !ok {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, b.Status)
	}
	return nil
}

// NormalizeDates drops the dates the book's status does not allow
func (b *Book) NormalizeDates() {
	if !b.Status.HasStartDate() {
		b.StartDate = nil
	}
	if !b.Status.HasEndDate() {
		b.EndDate = nil
	}
}

// LogEntry represents one reading session
type LogEntry struct {
	ID        int64     `json:"id"`
	BookID    int64     `json:"book_id"`
	BookTitle string    `json:"book_title,omitempty"`
	LogDate   time.Time `json:"log_date"`
	PagesRead int       `json:"pages_read"`
	Notes     string    `json:"notes,omitempty"`
}

// Validate checks the fields every stored log entry must have
func (e LogEntry) Validate() error {
	if e.BookID <= 0 {
		return fmt.Errorf("%w: book is required", ErrValidation)
	}
	if e.LogDate.IsZero() {
		return fmt.Errorf("%w: log date is required", ErrValidation)
	}
	if e.PagesRead <= 0 {
		return fmt.Errorf("%w: pages read must be positive", ErrValidation)
	}
	return nil
}
