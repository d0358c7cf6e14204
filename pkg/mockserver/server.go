package mockserver

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getmockd/sidepost/pkg/httputil"
	"github.com/getmockd/sidepost/pkg/logging"
	"github.com/getmockd/sidepost/pkg/sidepost"
)

// DefaultMaxBodySize is the request body limit used when none is set (1 MB).
const DefaultMaxBodySize = 1 << 20

// Server serves a Store over HTTP as a sideposting-aware JSON:API backend.
type Server struct {
	store       *Store
	observer    Observer
	log         *slog.Logger
	maxBodySize int64
	mux         *http.ServeMux
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithObserver sets the observer notified of every operation.
func WithObserver(o Observer) ServerOption {
	return func(s *Server) { s.observer = o }
}

// WithLogger sets the server logger.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) { s.log = logging.Component(l, "mockserver") }
}

// WithMaxBodySize limits request bodies to n bytes.
func WithMaxBodySize(n int64) ServerOption {
	return func(s *Server) {
		if n > 0 {
			s.maxBodySize = n
		}
	}
}

// NewServer returns a handler serving store.
func NewServer(store *Store, opts ...ServerOption) *Server {
	s := &Server{
		store:       store,
		observer:    NoopObserver{},
		log:         logging.Nop(),
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(s)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /__sidepost/reset", s.handleReset)
	mux.HandleFunc("GET /{type}", s.handleList)
	mux.HandleFunc("POST /{type}", s.handleCreate)
	mux.HandleFunc("GET /{type}/{id}", s.handleGet)
	mux.HandleFunc("PATCH /{type}/{id}", s.handleUpdate)
	mux.HandleFunc("DELETE /{type}/{id}", s.handleDelete)
	s.mux = mux
	return s
}

// Store returns the backing store.
func (s *Server) Store() *Store { return s.store }

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	typ := r.PathValue("type")

	items, err := s.store.List(typ)
	if err != nil {
		s.fail(w, typ, "list", err)
		return
	}
	items = ParseListQuery(r.URL.Query()).Apply(items)

	s.observer.OnList(typ, len(items), time.Since(start))
	httputil.WriteDocument(w, http.StatusOK, RenderList(items))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	typ, itemID := r.PathValue("type"), r.PathValue("id")

	item, err := s.store.Get(typ, itemID)
	if err != nil {
		s.fail(w, typ, "read", err)
		return
	}

	s.observer.OnRead(typ, itemID, time.Since(start))
	httputil.WriteDocument(w, http.StatusOK, s.store.Render(item))
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	typ := r.PathValue("type")

	doc, err := s.readDocument(w, r)
	if err != nil {
		s.fail(w, typ, "create", err)
		return
	}
	if doc.Data.Type != typ {
		s.fail(w, typ, "create", &ConflictError{Type: typ})
		return
	}

	result, err := s.store.Create(doc)
	if err != nil {
		s.fail(w, typ, "create", err)
		return
	}

	s.observer.OnSave(typ, result.Item.ID, result.Changes, time.Since(start))
	w.Header().Set("Location", "/"+typ+"/"+result.Item.ID)
	httputil.WriteDocument(w, http.StatusCreated, s.store.Render(result.Item))
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	typ, itemID := r.PathValue("type"), r.PathValue("id")

	doc, err := s.readDocument(w, r)
	if err != nil {
		s.fail(w, typ, "update", err)
		return
	}

	result, err := s.store.Update(typ, itemID, doc)
	if err != nil {
		s.fail(w, typ, "update", err)
		return
	}

	s.observer.OnSave(typ, itemID, result.Changes, time.Since(start))
	httputil.WriteDocument(w, http.StatusOK, s.store.Render(result.Item))
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	typ, itemID := r.PathValue("type"), r.PathValue("id")

	if err := s.store.Delete(typ, itemID); err != nil {
		s.fail(w, typ, "delete", err)
		return
	}

	s.observer.OnDelete(typ, itemID, time.Since(start))
	httputil.WriteNoContent(w)
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	start := time.Now()
	if err := s.store.Reset(); err != nil {
		s.fail(w, "", "reset", err)
		return
	}
	s.observer.OnReset(s.store.Types(), time.Since(start))
	httputil.WriteNoContent(w)
}

// readDocument reads, schema-validates and decodes the request body.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) (*sidepost.Document, error) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodySize)
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			return nil, &PayloadTooLargeError{MaxSize: s.maxBodySize}
		}
		return nil, err
	}
	if err := sidepost.Validate(body); err != nil {
		var invalid *sidepost.ValidationError
		if errors.As(err, &invalid) {
			return nil, err
		}
		return nil, &ValidationError{Message: err.Error()}
	}
	doc, err := sidepost.Decode(body)
	if err != nil {
		return nil, &ValidationError{Message: err.Error()}
	}
	return doc, nil
}

func (s *Server) fail(w http.ResponseWriter, typ, operation string, err error) {
	s.observer.OnError(typ, operation, err)

	var invalid *sidepost.ValidationError
	if errors.As(err, &invalid) {
		objs := make([]httputil.ErrorObject, 0, len(invalid.Violations))
		for _, v := range invalid.Violations {
			objs = append(objs, httputil.ErrorObject{
				Code:   "invalid_document",
				Detail: v.Message,
				Source: &httputil.ErrorSource{Pointer: v.Path},
			})
		}
		httputil.WriteErrors(w, http.StatusBadRequest, objs...)
		return
	}

	status := httputil.StatusOf(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "type", typ, "operation", operation, "error", err)
	}
	httputil.WriteError(w, errorCode(err), err)
}

func errorCode(err error) string {
	var (
		notFound *NotFoundError
		invalid  *ValidationError
		conflict *ConflictError
		tooLarge *PayloadTooLargeError
	)
	switch {
	case errors.As(err, &notFound):
		return "not_found"
	case errors.As(err, &invalid):
		return "invalid_document"
	case errors.As(err, &conflict):
		return "conflict"
	case errors.As(err, &tooLarge):
		return "body_too_large"
	default:
		return "internal_error"
	}
}
