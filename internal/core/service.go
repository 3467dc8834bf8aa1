package core

import (
	"book-client/internal/core/model"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

type BookQueries interface {
	GetBooks(ctx context.Context) (model.BookData, error)
	GetByISBN(ctx context.Context, isbn string) (model.BookData, error)
	GetByAuthor(ctx context.Context, author string) (model.BookData, error)
	GetByTitle(ctx context.Context, title string) (model.BookData, error)
}

var DefaultRunParams = model.RunParams{
	ISBN:   "978-0-7432-7356-5",
	Author: "F. Scott Fitzgerald",
	Title:  "1984",
}

type Runner struct {
	Queries BookQueries
	Params  model.RunParams
	Out     io.Writer
	log     *slog.Logger
}

func NewRunner(q BookQueries, params model.RunParams, out io.Writer, logger *slog.Logger) *Runner {
	if params.ISBN == "" {
		params.ISBN = DefaultRunParams.ISBN
	}
	if params.Author == "" {
		params.Author = DefaultRunParams.Author
	}
	if params.Title == "" {
		params.Title = DefaultRunParams.Title
	}
	if out == nil {
		out = io.Discard
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Runner{Queries: q, Params: params, Out: out, log: logger}
}

type step struct {
	name   string
	header string
	call   func(ctx context.Context) (model.BookData, error)
}

// Run executes the four queries one after another and prints each result.
// A failed step is reported and the run moves on; only ctx cancellation
// stops it early.
func (r *Runner) Run(ctx context.Context) []model.Outcome {
	steps := []step{
		{"books", "Getting all books", r.Queries.GetBooks},
		{"isbn", fmt.Sprintf("Getting book by ISBN %s", r.Params.ISBN), func(ctx context.Context) (model.BookData, error) {
			return r.Queries.GetByISBN(ctx, r.Params.ISBN)
		}},
		{"author", fmt.Sprintf("Getting books by author %q", r.Params.Author), func(ctx context.Context) (model.BookData, error) {
			return r.Queries.GetByAuthor(ctx, r.Params.Author)
		}},
		{"title", fmt.Sprintf("Getting books by title %q", r.Params.Title), func(ctx context.Context) (model.BookData, error) {
			return r.Queries.GetByTitle(ctx, r.Params.Title)
		}},
	}

	r.printf("%s\nRunning Book Management API Client Tests\n%s\n", rule("=", 50), rule("=", 50))

	out := make([]model.Outcome, 0, len(steps))
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			r.log.WarnContext(ctx, "run cancelled", "step", s.name, "error", err.Error())
			break
		}

		r.printf("%s...\n", s.header)
		data, err := s.call(ctx)
		out = append(out, model.Outcome{Name: s.name, Data: data, Err: err})

		switch {
		case err != nil:
			r.printf("Error: %v\n", err)
		case model.IsEmpty(data):
			r.printf("No books found.\n")
		default:
			r.printf("%s\n", indent(data))
		}
		r.printf("\n%s\n\n", rule("-", 30))
	}

	failed := 0
	for _, o := range out {
		if o.Err != nil {
			failed++
		}
	}
	r.log.InfoContext(ctx, "run finished", "steps", len(out), "failed", failed)
	r.printf("All tests completed!\n")
	return out
}

func (r *Runner) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(r.Out, format, args...)
}

func rule(ch string, n int) string { return strings.Repeat(ch, n) }

// indent pretty prints a JSON body with two spaces, or returns it unchanged
// if it cannot be indented.
func indent(d model.BookData) string {
	var buf bytes.Buffer
	if err := json.Indent(&buf, d, "", "  "); err != nil {
		return string(d)
	}
	return buf.String()
}
