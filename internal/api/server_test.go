package api

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"readtracker/internal/models"
	"readtracker/internal/stats"
	"readtracker/internal/storage/stubs"
	"readtracker/internal/tracker"
)

var today = time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)

func newTestRouter(t *testing.T, opts Options) (chi.Router, *stubs.MockDB) {
	t.Helper()
	ctx := context.Background()
	db := stubs.NewMockDB()
	require.NoError(t, db.Initialize(ctx))
	require.NoError(t, db.Seed(ctx, today))

	svc := tracker.New(db, zap.NewNop(), tracker.WithClock(func() time.Time { return today }))
	return NewRouter(svc, zap.NewNop(), opts), db
}

func do(t *testing.T, h http.Handler, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	router, _ := newTestRouter(t, Options{})

	rec := do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))
}

func TestBooksEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, Options{})

	rec := do(t, router, http.MethodGet, "/api/books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	books := decodeBody[[]models.Book](t, rec)
	assert.Len(t, books, 4)

	rec = do(t, router, http.MethodGet, "/api/books?status=wishlist", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.Book](t, rec), 2)

	rec = do(t, router, http.MethodPost, "/api/books", BookRequest{
		Title:      "Emma",
		Author:     "Jane Austen",
		Genre:      "Romance",
		TotalPages: 474,
		Status:     "Reading",
		StartDate:  "2024-06-01",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decodeBody[models.Book](t, rec)
	assert.Positive(t, created.ID)
	assert.Equal(t, models.StatusReading, created.Status)
	require.NotNil(t, created.StartDate)

	rec = do(t, router, http.MethodGet, "/api/books/"+itoa(created.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Emma", decodeBody[models.Book](t, rec).Title)

	rec = do(t, router, http.MethodPut, "/api/books/"+itoa(created.ID), BookRequest{
		Title:      "Emma",
		Author:     "Jane Austen",
		TotalPages: 474,
		Status:     "completed",
		StartDate:  "2024-06-01",
		EndDate:    "2024-06-09",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, models.StatusCompleted, decodeBody[models.Book](t, rec).Status)

	rec = do(t, router, http.MethodDelete, "/api/books/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/books/"+itoa(created.ID), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBooksEndpoints_Errors(t *testing.T) {
	router, _ := newTestRouter(t, Options{})

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{name: "bad id", method: http.MethodGet, target: "/api/books/abc", want: http.StatusBadRequest},
		{name: "unknown id", method: http.MethodGet, target: "/api/books/999", want: http.StatusNotFound},
		{name: "malformed body", method: http.MethodPost, target: "/api/books", body: "{", want: http.StatusBadRequest},
		{name: "unknown status", method: http.MethodPost, target: "/api/books", body: BookRequest{Title: "X", Author: "Y", TotalPages: 1, Status: "lendo"}, want: http.StatusBadRequest},
		{name: "missing title", method: http.MethodPost, target: "/api/books", body: BookRequest{Author: "Y", TotalPages: 1, Status: "wishlist"}, want: http.StatusBadRequest},
		{name: "bad date", method: http.MethodPost, target: "/api/books", body: BookRequest{Title: "X", Author: "Y", TotalPages: 1, Status: "reading", StartDate: "06/01/2024"}, want: http.StatusBadRequest},
		{name: "update unknown", method: http.MethodPut, target: "/api/books/999", body: BookRequest{Title: "X", Author: "Y", TotalPages: 1, Status: "wishlist"}, want: http.StatusNotFound},
		{name: "delete unknown", method: http.MethodDelete, target: "/api/books/999", want: http.StatusNotFound},
		{name: "bad status filter", method: http.MethodGet, target: "/api/books?status=lost", want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.Contains(t, rec.Header().Get("Content-Type"), "application/json")
			assert.NotEmpty(t, decodeBody[errorResponse](t, rec).Error)
		})
	}
}

func TestLogsEndpoints(t *testing.T) {
	router, db := newTestRouter(t, Options{})
	dune := findBook(t, db, "Dune")

	rec := do(t, router, http.MethodGet, "/api/logs?book_id="+itoa(dune.ID)+"&limit=2", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	logs := decodeBody[[]models.LogEntry](t, rec)
	require.Len(t, logs, 2)
	assert.Equal(t, "2024-06-09", models.FormatDate(logs[0].LogDate))

	rec = do(t, router, http.MethodGet, "/api/logs?from=2024-06-08&to=2024-06-09", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[[]models.LogEntry](t, rec), 2)

	rec = do(t, router, http.MethodPost, "/api/logs", LogRequest{BookID: dune.ID, PagesRead: 40, Notes: "night reading"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	result := decodeBody[tracker.LogResult](t, rec)
	assert.Equal(t, today.Format(models.DateLayout), models.FormatDate(result.Entry.LogDate), "empty date means today")
	assert.Equal(t, 190, result.Progress.PagesRead)

	rec = do(t, router, http.MethodGet, "/api/books/"+itoa(dune.ID)+"/progress", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 190, decodeBody[stats.Progress](t, rec).PagesRead)
}

func TestLogsEndpoints_Errors(t *testing.T) {
	router, _ := newTestRouter(t, Options{})

	tests := []struct {
		name   string
		method string
		target string
		body   any
		want   int
	}{
		{name: "bad book filter", method: http.MethodGet, target: "/api/logs?book_id=x", want: http.StatusBadRequest},
		{name: "bad from", method: http.MethodGet, target: "/api/logs?from=yesterday", want: http.StatusBadRequest},
		{name: "negative limit", method: http.MethodGet, target: "/api/logs?limit=-1", want: http.StatusBadRequest},
		{name: "unknown book", method: http.MethodPost, target: "/api/logs", body: LogRequest{BookID: 999, PagesRead: 10}, want: http.StatusNotFound},
		{name: "no pages", method: http.MethodPost, target: "/api/logs", body: LogRequest{BookID: 1}, want: http.StatusBadRequest},
		{name: "bad date", method: http.MethodPost, target: "/api/logs", body: LogRequest{BookID: 1, PagesRead: 1, LogDate: "tomorrow"}, want: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, router, tt.method, tt.target, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestReportEndpoints(t *testing.T) {
	router, _ := newTestRouter(t, Options{})

	rec := do(t, router, http.MethodGet, "/api/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dashboard := decodeBody[tracker.Dashboard](t, rec)
	assert.Equal(t, 2024, dashboard.Summary.Year)
	assert.Equal(t, 150, dashboard.Summary.PagesRead)
	assert.Len(t, dashboard.Monthly, 6)
	require.Len(t, dashboard.Reading, 1)
	assert.Equal(t, "Dune", dashboard.Reading[0].Title)

	rec = do(t, router, http.MethodGet, "/api/dashboard?year=abc", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/statistics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	statistics := decodeBody[tracker.Statistics](t, rec)
	assert.Len(t, statistics.Weekday, 7)
	assert.Len(t, statistics.Cumulative, 6)

	rec = do(t, router, http.MethodGet, "/api/goals?books_per_year=12&pages_per_day=20", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	goals := decodeBody[stats.GoalProgress](t, rec)
	assert.True(t, goals.Books.Set)
	assert.True(t, goals.PagesPerDay.Met)

	rec = do(t, router, http.MethodGet, "/api/goals?pages_per_day=many", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/suggestions", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	suggestions := decodeBody[stats.Suggestions](t, rec)
	assert.True(t, suggestions.Matched)
	assert.Equal(t, "Fantasy", suggestions.Genre)
}

func TestExportEndpoint(t *testing.T) {
	router, _ := newTestRouter(t, Options{})

	rec := do(t, router, http.MethodGet, "/api/export?format=csv&data=books", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "books_export.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "id,title,author"))

	rec = do(t, router, http.MethodGet, "/api/export?format=xlsx&data=both", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "reading_tracker_export.xlsx")
	assert.NotZero(t, rec.Body.Len())

	rec = do(t, router, http.MethodGet, "/api/export?format=csv&data=both", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodGet, "/api/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestImportEndpoint(t *testing.T) {
	router, db := newTestRouter(t, Options{})

	csvBody := "title,author,total_pages,status\n" +
		"Dune,Frank Herbert,412,reading\n" +
		"Emma,Jane Austen,474,wishlist\n"

	rec := do(t, router, http.MethodPost, "/api/import", csvBody)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	report := decodeBody[struct {
		Imported int `json:"imported"`
		Skipped  int `json:"skipped"`
	}](t, rec)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 1, report.Skipped)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", "books.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte("title;author;total_pages;status\nUlysses;James Joyce;730;wishlist\n"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/import", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	books, err := db.ListBooks(context.Background())
	require.NoError(t, err)
	assert.Len(t, books, 6)

	rec = do(t, router, http.MethodPost, "/api/import", "title,author,total_pages,status\nX,Y,1,lendo\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, router, http.MethodPost, "/api/import", "name,pages\nX,1\n")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequiredWhenConfigured(t *testing.T) {
	validator := NewInitDataValidator("bot-token", []int64{42})
	validator.now = func() time.Time { return time.Unix(1_700_000_100, 0) }
	router, _ := newTestRouter(t, Options{Auth: validator})

	rec := do(t, router, http.MethodGet, "/api/books", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code, "health stays public")

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "tma "+signedInitData("bot-token", 42, 1_700_000_000))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRateLimitedRouter(t *testing.T) {
	router, _ := newTestRouter(t, Options{RateLimiter: NewRateLimiter(1, 2)})

	codes := make([]int, 0, 3)
	for range 3 {
		codes = append(codes, do(t, router, http.MethodGet, "/api/suggestions", nil).Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func findBook(t *testing.T, db *stubs.MockDB, title string) models.Book {
	t.Helper()
	books, err := db.ListBooks(context.Background())
	require.NoError(t, err)
	for _, book := range books {
		if book.Title == title {
			return book
		}
	}
	t.Fatalf("book %q not seeded", title)
	return models.Book{}
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
