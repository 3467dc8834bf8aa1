package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// All core models live here together for simplicity.

var (
	ErrNotFound    = errors.New("not_found")
	ErrUpstream    = errors.New("upstream")
	ErrInvalidBody = errors.New("invalid_body")
)

// BookData is a response body exactly as the book service sent it.
type BookData = json.RawMessage

// IsEmpty reports whether a successful response carried no books.
func IsEmpty(d BookData) bool {
	t := bytes.TrimSpace(d)
	if len(t) == 0 {
		return true
	}
	// null decodes into both as nil
	var arr []json.RawMessage
	if err := json.Unmarshal(t, &arr); err == nil {
		return len(arr) == 0
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(t, &obj); err == nil {
		return len(obj) == 0
	}
	return false
}

// RequestError describes a failed query against the book service.
type RequestError struct {
	Op         string // getBooks | getByISBN | getByAuthor | getByTitle
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *RequestError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *RequestError) Unwrap() error { return e.Err }

// Lookup parameters used by a full run of the client.
type RunParams struct {
	ISBN   string
	Author string
	Title  string
}

type Outcome struct {
	Name string
	Data BookData
	Err  error
}
