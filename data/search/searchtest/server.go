// Package searchtest provides an in-memory HTTP stand-in for an
// OpenSearch/Elasticsearch node, good enough for the index, bulk and match
// query calls revsearch makes.
//
// Matching is plain substring search of the query text in the text field;
// the score is the number of occurrences. It does not tokenize.
package searchtest

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
)

// Request is a recorded call.
type Request struct {
	Method          string
	Path            string
	Query           string
	Body            []byte
	ContentEncoding string
	Username        string
	Password        string
}

// Server is a fake engine node.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	indices  map[string]*index
	requests []Request
	// Reject maps document ids to a rejection reason for bulk requests.
	Reject map[string]string
}

type index struct {
	body []byte
	docs map[string]map[string]any
}

// NewServer starts a fake engine. It is closed with t.Cleanup by the caller.
func NewServer() *Server {
	s := &Server{
		indices: make(map[string]*index),
		Reject:  make(map[string]string),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// NewTLSServer starts a fake engine behind a self-signed certificate.
func NewTLSServer() *Server {
	s := &Server{
		indices: make(map[string]*index),
		Reject:  make(map[string]string),
	}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(s.handle))
	return s
}

// Requests returns a copy of the recorded calls.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Request(nil), s.requests...)
}

// LastRequest returns the most recent call whose path ends with suffix.
func (s *Server) LastRequest(method, suffix string) (Request, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.requests) - 1; i >= 0; i-- {
		r := s.requests[i]
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			return r, true
		}
	}
	return Request{}, false
}

// Count returns how many calls matched method and path suffix.
func (s *Server) Count(method, suffix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.requests {
		if r.Method == method && strings.HasSuffix(r.Path, suffix) {
			n++
		}
	}
	return n
}

// IndexBody returns the create body of name, if the index exists.
func (s *Server) IndexBody(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx, ok := s.indices[name]
	if !ok {
		return nil, false
	}
	return idx.body, true
}

// Docs returns the number of documents stored in name.
func (s *Server) Docs(name string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if idx, ok := s.indices[name]; ok {
		return len(idx.docs)
	}
	return 0
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	body, err := readBody(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "parse_exception", err.Error(), "")
		return
	}
	user, pass, _ := r.BasicAuth()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, Request{
		Method:          r.Method,
		Path:            r.URL.Path,
		Query:           r.URL.RawQuery,
		Body:            body,
		ContentEncoding: r.Header.Get("Content-Encoding"),
		Username:        user,
		Password:        pass,
	})

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Elastic-Product", "Elasticsearch")

	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	switch {
	case r.URL.Path == "/":
		s.root(w, r)
	case len(parts) == 1 && parts[0] == "_bulk":
		s.bulk(w, "", body)
	case len(parts) == 1:
		s.index(w, r, parts[0], body)
	case len(parts) == 2 && parts[1] == "_bulk":
		s.bulk(w, parts[0], body)
	case len(parts) == 2 && parts[1] == "_search":
		s.search(w, parts[0], body)
	default:
		writeError(w, http.StatusBadRequest, "illegal_argument_exception", "unsupported path "+r.URL.Path, "")
	}
}

func (s *Server) root(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodHead {
		w.WriteHeader(http.StatusOK)
		return
	}
	_, _ = io.WriteString(w, `{"name":"fake","cluster_name":"searchtest","version":{"number":"8.0.0","distribution":"opensearch"},"tagline":"The OpenSearch Project: https://opensearch.org/"}`)
}

func (s *Server) index(w http.ResponseWriter, r *http.Request, name string, body []byte) {
	_, exists := s.indices[name]
	switch r.Method {
	case http.MethodHead:
		if exists {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusNotFound)
		}
	case http.MethodGet:
		if !exists {
			writeNotFound(w, name)
			return
		}
		_, _ = fmt.Fprintf(w, `{%q:{}}`, name)
	case http.MethodPut:
		if exists {
			writeError(w, http.StatusBadRequest, "resource_already_exists_exception",
				fmt.Sprintf("index [%s/abc] already exists", name), name)
			return
		}
		if len(body) > 0 && !json.Valid(body) {
			writeError(w, http.StatusBadRequest, "parse_exception", "invalid index body", name)
			return
		}
		s.indices[name] = &index{body: body, docs: make(map[string]map[string]any)}
		_, _ = fmt.Fprintf(w, `{"acknowledged":true,"shards_acknowledged":true,"index":%q}`, name)
	case http.MethodDelete:
		if !exists {
			writeNotFound(w, name)
			return
		}
		delete(s.indices, name)
		_, _ = io.WriteString(w, `{"acknowledged":true}`)
	default:
		writeError(w, http.StatusMethodNotAllowed, "illegal_argument_exception", "method not allowed", name)
	}
}

type bulkItem struct {
	Index  string          `json:"_index"`
	ID     string          `json:"_id"`
	Status int             `json:"status"`
	Result string          `json:"result,omitempty"`
	Error  *bulkItemReason `json:"error,omitempty"`
}

type bulkItemReason struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

func (s *Server) bulk(w http.ResponseWriter, defaultIndex string, body []byte) {
	var items []map[string]bulkItem
	hasErrors := false

	sc := bufio.NewScanner(bytes.NewReader(body))
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var action map[string]struct {
			Index string `json:"_index"`
			ID    string `json:"_id"`
		}
		if err := json.Unmarshal(line, &action); err != nil {
			writeError(w, http.StatusBadRequest, "parse_exception", "malformed action line", "")
			return
		}
		meta, ok := action["index"]
		if !ok {
			writeError(w, http.StatusBadRequest, "illegal_argument_exception", "only index actions are supported", "")
			return
		}
		if !sc.Scan() {
			writeError(w, http.StatusBadRequest, "parse_exception", "missing source line", "")
			return
		}
		var doc map[string]any
		if err := json.Unmarshal(sc.Bytes(), &doc); err != nil {
			writeError(w, http.StatusBadRequest, "parse_exception", "malformed source line", "")
			return
		}

		name := meta.Index
		if name == "" {
			name = defaultIndex
		}
		item := bulkItem{Index: name, ID: meta.ID}
		if reason, rejected := s.Reject[meta.ID]; rejected {
			hasErrors = true
			item.Status = http.StatusBadRequest
			item.Error = &bulkItemReason{Type: "mapper_parsing_exception", Reason: reason}
		} else {
			idx, ok := s.indices[name]
			if !ok {
				idx = &index{docs: make(map[string]map[string]any)}
				s.indices[name] = idx
			}
			item.Status = http.StatusCreated
			item.Result = "created"
			if _, exists := idx.docs[meta.ID]; exists {
				item.Status = http.StatusOK
				item.Result = "updated"
			}
			idx.docs[meta.ID] = doc
		}
		items = append(items, map[string]bulkItem{"index": item})
	}

	_ = json.NewEncoder(w).Encode(map[string]any{
		"took":   1,
		"errors": hasErrors,
		"items":  items,
	})
}

type searchHit struct {
	Index  string         `json:"_index"`
	ID     string         `json:"_id"`
	Score  float64        `json:"_score"`
	Source map[string]any `json:"_source"`
}

func (s *Server) search(w http.ResponseWriter, name string, body []byte) {
	idx, ok := s.indices[name]
	if !ok {
		writeNotFound(w, name)
		return
	}

	var req struct {
		Size  *int `json:"size"`
		Query struct {
			Match map[string]struct {
				Query    string `json:"query"`
				Analyzer string `json:"analyzer"`
			} `json:"match"`
		} `json:"query"`
	}
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "parsing_exception", "malformed query", name)
		return
	}
	size := 10
	if req.Size != nil {
		size = *req.Size
	}

	hits := []searchHit{}
	for field, m := range req.Query.Match {
		q := strings.TrimSpace(m.Query)
		if q == "" {
			continue
		}
		for id, doc := range idx.docs {
			text, _ := doc[field].(string)
			if n := strings.Count(text, q); n > 0 {
				hits = append(hits, searchHit{Index: name, ID: id, Score: float64(n), Source: doc})
			}
		}
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	total := len(hits)
	if len(hits) > size {
		hits = hits[:size]
	}

	var maxScore any
	if len(hits) > 0 {
		maxScore = hits[0].Score
	}
	_ = json.NewEncoder(w).Encode(map[string]any{
		"took":      1,
		"timed_out": false,
		"_shards":   map[string]int{"total": 1, "successful": 1, "skipped": 0, "failed": 0},
		"hits": map[string]any{
			"total":     map[string]any{"value": total, "relation": "eq"},
			"max_score": maxScore,
			"hits":      hits,
		},
	})
}

func readBody(r *http.Request) ([]byte, error) {
	if r.Body == nil {
		return nil, nil
	}
	defer func() { _ = r.Body.Close() }()
	var reader io.Reader = r.Body
	if r.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(r.Body)
		if err != nil {
			return nil, err
		}
		defer func() { _ = gz.Close() }()
		reader = gz
	}
	return io.ReadAll(reader)
}

func writeNotFound(w http.ResponseWriter, name string) {
	writeError(w, http.StatusNotFound, "index_not_found_exception", "no such index ["+name+"]", name)
}

func writeError(w http.ResponseWriter, status int, typ, reason, name string) {
	w.WriteHeader(status)
	cause := map[string]any{"type": typ, "reason": reason}
	if name != "" {
		cause["index"] = name
	}
	errBody := map[string]any{"root_cause": []any{cause}, "type": typ, "reason": reason}
	if name != "" {
		errBody["index"] = name
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"error": errBody, "status": status})
}
