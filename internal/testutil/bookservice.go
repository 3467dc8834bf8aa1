package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

type Book struct {
	ISBN   string `json:"isbn"`
	Title  string `json:"title"`
	Author string `json:"author"`
}

var (
	Gatsby = Book{ISBN: "978-0-7432-7356-5", Title: "The Great Gatsby", Author: "F. Scott Fitzgerald"}
	Orwell = Book{ISBN: "978-0-452-28423-4", Title: "1984", Author: "George Orwell"}
	Harper = Book{ISBN: "978-0-06-112008-4", Title: "To Kill a Mockingbird", Author: "Harper Lee"}
)

// BookService is an in-memory stand-in for the book management API. It
// records every request it serves so tests can assert on order and encoding.
type BookService struct {
	mu     sync.Mutex
	byISBN map[string]Book
	calls  []string // RequestURI, in arrival order

	failStatus int
	failLeft   int

	inFlight    int
	maxInFlight int
}

func NewBookService(books ...Book) *BookService {
	s := &BookService{byISBN: make(map[string]Book)}
	for _, b := range books {
		s.byISBN[b.ISBN] = b
	}
	return s
}

// Fail makes the next n requests answer with status.
func (s *BookService) Fail(status, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failStatus, s.failLeft = status, n
}

func (s *BookService) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

// MaxInFlight is the highest number of requests served concurrently.
func (s *BookService) MaxInFlight() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.maxInFlight
}

func (s *BookService) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(s.record)
	r.Route("/api/books", func(r chi.Router) {
		r.Get("/", s.list)
		r.Get("/isbn/{isbn}", s.getByISBN)
		r.Get("/author/{author}", s.match(func(b Book, needle string) bool { return contains(b.Author, needle) }, "author"))
		r.Get("/title/{title}", s.match(func(b Book, needle string) bool { return contains(b.Title, needle) }, "title"))
	})
	return r
}

// NewServer starts s behind an httptest server and returns the base URL the
// client should use.
func NewServer(t *testing.T, s *BookService) string {
	t.Helper()
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts.URL + "/api"
}

func (s *BookService) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.calls = append(s.calls, r.RequestURI)
		s.inFlight++
		if s.inFlight > s.maxInFlight {
			s.maxInFlight = s.inFlight
		}
		status := 0
		if s.failLeft > 0 {
			s.failLeft--
			status = s.failStatus
		}
		s.mu.Unlock()

		defer func() {
			s.mu.Lock()
			s.inFlight--
			s.mu.Unlock()
		}()

		if status != 0 {
			writeJSON(w, status, map[string]string{"message": http.StatusText(status)})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *BookService) list(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.snapshot(func(Book) bool { return true }))
}

func (s *BookService) getByISBN(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")
	s.mu.Lock()
	b, ok := s.byISBN[isbn]
	s.mu.Unlock()
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "Book not found"})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

func (s *BookService) match(fn func(Book, string) bool, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		needle := chi.URLParam(r, param)
		writeJSON(w, http.StatusOK, s.snapshot(func(b Book) bool { return fn(b, needle) }))
	}
}

func (s *BookService) snapshot(keep func(Book) bool) []Book {
	s.mu.Lock()
	out := make([]Book, 0, len(s.byISBN))
	for _, b := range s.byISBN {
		if keep(b) {
			out = append(out, b)
		}
	}
	s.mu.Unlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ISBN < out[j].ISBN })
	return out
}

func contains(s, needle string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(needle))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
