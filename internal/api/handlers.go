package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"readtracker/internal/models"
	"readtracker/internal/stats"
	"readtracker/internal/storage"
	"readtracker/internal/transfer"
)

// maxImportSize caps the size of an uploaded CSV
const maxImportSize = 10 << 20

// BookRequest is the body of POST /api/books and PUT /api/books/{id}.
// Dates use YYYY-MM-DD.
type BookRequest struct {
	Title      string `json:"title"`
	Author     string `json:"author"`
	Genre      string `json:"genre"`
	TotalPages int    `json:"total_pages"`
	Status     string `json:"status"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

func (req BookRequest) book() (models.Book, error) {
	status, ok := models.ParseStatus(req.Status)
	if !ok {
		return models.Book{}, fmt.Errorf("%w: unknown status %q", models.ErrValidation, req.Status)
	}
	start, err := optionalDate("start_date", req.StartDate)
	if err != nil {
		return models.Book{}, err
	}
	end, err := optionalDate("end_date", req.EndDate)
	if err != nil {
		return models.Book{}, err
	}
	return models.Book{
		Title:      req.Title,
		Author:     req.Author,
		Genre:      req.Genre,
		TotalPages: req.TotalPages,
		Status:     status,
		StartDate:  start,
		EndDate:    end,
	}, nil
}

// LogRequest is the body of POST /api/logs. An empty date means today.
type LogRequest struct {
	BookID    int64  `json:"book_id"`
	LogDate   string `json:"log_date"`
	PagesRead int    `json:"pages_read"`
	Notes     string `json:"notes"`
}

func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	var (
		books []models.Book
		err   error
	)
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, ok := models.ParseStatus(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("unknown status %q", raw))
			return
		}
		books, err = s.svc.BooksByStatus(r.Context(), status)
	} else {
		books, err = s.svc.Books(r.Context())
	}
	if err != nil {
		s.fail(w, r, err, "Failed to fetch books")
		return
	}
	writeJSON(w, http.StatusOK, books)
}

func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	var req BookRequest
	if !s.decode(w, r, &req) {
		return
	}
	book, err := req.book()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := s.svc.AddBook(r.Context(), book)
	if err != nil {
		s.fail(w, r, err, "Failed to create book")
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	book, err := s.svc.Book(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch book")
		return
	}
	writeJSON(w, http.StatusOK, book)
}

func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req BookRequest
	if !s.decode(w, r, &req) {
		return
	}
	book, err := req.book()
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	book.ID = id

	updated, err := s.svc.UpdateBook(r.Context(), book)
	if err != nil {
		s.fail(w, r, err, "Failed to update book")
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteBook(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := s.svc.DeleteBook(r.Context(), id); err != nil {
		s.fail(w, r, err, "Failed to delete book")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBookProgress(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	progress, err := s.svc.BookProgress(r.Context(), id)
	if err != nil {
		s.fail(w, r, err, "Failed to compute progress")
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handleListLogs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var filter storage.LogFilter
	var err error
	if filter.BookID, err = queryInt64(query.Get("book_id")); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid book_id: %w", err))
		return
	}
	if filter.From, err = optionalDate("from", query.Get("from")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if filter.To, err = optionalDate("to", query.Get("to")); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	limit, err := queryInt(query.Get("limit"))
	if err != nil || limit < 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid limit %q", query.Get("limit")))
		return
	}

	logs, err := s.svc.Logs(r.Context(), filter)
	if err != nil {
		s.fail(w, r, err, "Failed to fetch reading log")
		return
	}
	if limit > 0 && len(logs) > limit {
		logs = logs[:limit]
	}
	writeJSON(w, http.StatusOK, logs)
}

func (s *Server) handleCreateLog(w http.ResponseWriter, r *http.Request) {
	var req LogRequest
	if !s.decode(w, r, &req) {
		return
	}

	logDate := s.svc.Today()
	if req.LogDate != "" {
		date, ok := models.ParseDate(req.LogDate)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid log_date %q (use YYYY-MM-DD)", req.LogDate))
			return
		}
		logDate = date
	}

	result, err := s.svc.LogReading(r.Context(), models.LogEntry{
		BookID:    req.BookID,
		LogDate:   logDate,
		PagesRead: req.PagesRead,
		Notes:     req.Notes,
	})
	if err != nil {
		s.fail(w, r, err, "Failed to log reading")
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	year, err := queryInt(r.URL.Query().Get("year"))
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid year: %w", err))
		return
	}
	dashboard, err := s.svc.Dashboard(r.Context(), year)
	if err != nil {
		s.fail(w, r, err, "Failed to compute dashboard")
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	statistics, err := s.svc.Statistics(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to compute statistics")
		return
	}
	writeJSON(w, http.StatusOK, statistics)
}

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var goals stats.Goals
	year, err := queryInt(query.Get("year"))
	if err == nil {
		goals.BooksPerYear, err = queryInt(query.Get("books_per_year"))
	}
	if err == nil {
		goals.PagesPerDay, err = queryInt(query.Get("pages_per_day"))
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid goal parameters: %w", err))
		return
	}

	report, err := s.svc.GoalReport(r.Context(), goals, year)
	if err != nil {
		s.fail(w, r, err, "Failed to compute goals")
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	suggestions, err := s.svc.Suggestions(r.Context())
	if err != nil {
		s.fail(w, r, err, "Failed to compute suggestions")
		return
	}
	writeJSON(w, http.StatusOK, suggestions)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	format, err := transfer.ParseFormat(valueOr(query.Get("format"), string(transfer.FormatCSV)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	dataset, err := transfer.ParseDataset(valueOr(query.Get("data"), string(transfer.DatasetBooks)))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	var buf bytes.Buffer
	if err := s.svc.Export(r.Context(), &buf, format, dataset); err != nil {
		s.fail(w, r, err, "Failed to export")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{
		"filename": transfer.FileName(format, dataset),
	}))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportSize)

	var src io.Reader = r.Body
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
		file, _, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("missing file upload: %w", err))
			return
		}
		defer file.Close()
		src = file
	}

	report, err := s.svc.Import(r.Context(), src)
	if err != nil {
		s.fail(w, r, err, "Failed to import")
		return
	}

	requestLogger(r.Context(), s.logger).Info("CSV imported via API",
		zap.Int("imported", report.Imported),
		zap.Int("skipped", report.Skipped),
		zap.Int("failed", report.Failed),
	)
	writeJSON(w, http.StatusOK, report)
}

// decode reads a JSON body, answering 400 when it is malformed
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		requestLogger(r.Context(), s.logger).Warn("Failed to decode request body", zap.Error(err))
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request body"))
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id %q", chi.URLParam(r, "id")))
		return 0, false
	}
	return id, true
}

func optionalDate(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	date, ok := models.ParseDate(value)
	if !ok {
		return nil, fmt.Errorf("%w: invalid %s %q (use YYYY-MM-DD)", models.ErrValidation, name, value)
	}
	return &date, nil
}

func queryInt(value string) (int, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.Atoi(value)
}

func queryInt64(value string) (int64, error) {
	if value == "" {
		return 0, nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
