package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/getmockd/sidepost/pkg/httputil"
	"github.com/getmockd/sidepost/pkg/logging"
	"github.com/getmockd/sidepost/pkg/naming"
	"github.com/getmockd/sidepost/pkg/record"
	"github.com/getmockd/sidepost/pkg/sidepost"
)

// Client saves records of one store to a JSON:API server.
type Client struct {
	baseURL    string
	store      *record.Store
	httpClient *http.Client
	formatter  naming.Formatter
	log        *slog.Logger
	headers    http.Header

	serializer *sidepost.Serializer
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the HTTP timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = timeout }
}

// WithFormatter sets the naming convention used on the wire.
func WithFormatter(f naming.Formatter) Option {
	return func(c *Client) {
		if f != nil {
			c.formatter = f
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.log = l }
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers.Add(key, value) }
}

// New creates a client for the server at baseURL, e.g.
// "http://localhost:4200/api".
func New(baseURL string, store *record.Store, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		store:      store,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		formatter:  naming.Default(),
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.log = logging.Component(c.log, "client")
	c.serializer = sidepost.NewSerializer(c.formatter, c.log)
	return c
}

// Store returns the record store the client reads and updates.
func (c *Client) Store() *record.Store { return c.store }

// SaveOptions control one Save.
type SaveOptions struct {
	// Relationships is the relationships directive shorthand; see
	// directive.Compile.
	Relationships any

	// Attributes are literal root attributes merged over the computed ones.
	Attributes map[string]any

	// OmitAttributes drops the root attributes block.
	OmitAttributes bool

	// Plain sends a stock JSON:API document without sideposting.
	Plain bool

	// KeepRelations skips the post-save reconciliation. The visited
	// records stay recorded on the root, so sidepost.Reconcile can still
	// be called later.
	KeepRelations bool
}

// SaveResult is the outcome of a successful Save.
type SaveResult struct {
	// Record is the saved root, now holding its server id.
	Record *record.Record
	// Request and Response are the documents sent and received.
	Request  *sidepost.Document
	Response *sidepost.Document
	// Reconciliation is nil when KeepRelations was set.
	Reconciliation *sidepost.Reconciliation
}

// Save sends rec and the requested relationships to the server. New
// records are POSTed to /{type}, persisted ones PATCHed to /{type}/{id}.
// A server 204 answer to a PATCH commits the root's attributes as sent.
//
// When the request fails the record graph is left untouched. An error while
// applying the response may leave the graph partly updated: the root can
// already hold its server id and committed attributes.
func (c *Client) Save(ctx context.Context, rec *record.Record, opts SaveOptions) (*SaveResult, error) {
	if rec == nil {
		return nil, errors.New("save: record is nil")
	}

	doc, err := c.serializer.Serialize(rec, sidepost.Options{
		Sideposting:    !opts.Plain,
		OmitAttributes: opts.OmitAttributes,
		Attributes:     opts.Attributes,
		Relationships:  opts.Relationships,
	})
	if err != nil {
		return nil, err
	}

	typ := c.formatter.TypeForModel(rec.ModelName())
	method, path := http.MethodPost, "/"+url.PathEscape(typ)
	if !rec.IsNew() {
		method, path = http.MethodPatch, path+"/"+url.PathEscape(rec.ID())
	}

	resp, err := c.send(ctx, method, path, doc)
	if err != nil {
		return nil, err
	}

	saved := rec
	if resp == nil {
		if rec.IsNew() {
			return nil, fmt.Errorf("save: %s %s: server returned no document for a new record", method, path)
		}
		c.store.Commit(rec)
	} else {
		saved, err = c.serializer.Push(c.store, resp, rec)
		if err != nil {
			return nil, fmt.Errorf("save: applying response: %w", err)
		}
	}

	result := &SaveResult{Record: saved, Request: doc, Response: resp}
	if opts.Plain {
		return result, nil
	}
	if !opts.KeepRelations {
		rc, err := sidepost.Reconcile(saved)
		if err != nil {
			return nil, fmt.Errorf("save: reconciling: %w", err)
		}
		result.Reconciliation = rc
		c.log.Debug("reconciled",
			"type", typ,
			"id", saved.ID(),
			"unloaded", len(rc.Unloaded),
			"disassociated", len(rc.Disassociated))
	}
	return result, nil
}

// Find loads one record and its included records into the store.
func (c *Client) Find(ctx context.Context, model, id string) (*record.Record, error) {
	if _, err := c.store.Schema().Model(model); err != nil {
		return nil, err
	}
	path := "/" + url.PathEscape(c.formatter.TypeForModel(model)) + "/" + url.PathEscape(id)
	doc, err := c.send(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	return c.serializer.Push(c.store, doc, c.store.Peek(model, id))
}

// Destroy deletes a persisted record on the server and unloads it.
func (c *Client) Destroy(ctx context.Context, rec *record.Record) error {
	if rec.IsNew() {
		rec.Unload()
		return nil
	}
	path := "/" + url.PathEscape(c.formatter.TypeForModel(rec.ModelName())) + "/" + url.PathEscape(rec.ID())
	if _, err := c.send(ctx, http.MethodDelete, path, nil); err != nil {
		return err
	}
	rec.Unload()
	return nil
}

// send performs one request and decodes the response document. A 204
// response yields a nil document.
func (c *Client) send(ctx context.Context, method, path string, doc *sidepost.Document) (*sidepost.Document, error) {
	var body io.Reader
	if doc != nil {
		raw, err := doc.Marshal()
		if err != nil {
			return nil, fmt.Errorf("encoding document: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	for key, vals := range c.headers {
		for _, v := range vals {
			req.Header.Add(key, v)
		}
	}
	if doc != nil {
		req.Header.Set("Content-Type", httputil.MediaTypeJSONAPI)
	}
	req.Header.Set("Accept", httputil.MediaTypeJSONAPI)

	start := time.Now()
	c.log.Debug("request", "method", method, "path", path)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &ConnectionError{BaseURL: c.baseURL, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	c.log.Debug("response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
		"duration", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(method, path, resp.StatusCode, raw)
	}
	if resp.StatusCode == http.StatusNoContent || len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}

	out, err := sidepost.Decode(raw)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	return out, nil
}

func parseError(method, path string, status int, body []byte) error {
	rerr := &ResponseError{Method: method, Path: path, StatusCode: status}
	var doc httputil.ErrorDocument
	if err := json.Unmarshal(body, &doc); err == nil && len(doc.Errors) > 0 {
		rerr.Errors = doc.Errors
		return rerr
	}
	rerr.Body = strings.TrimSpace(string(body))
	return rerr
}
