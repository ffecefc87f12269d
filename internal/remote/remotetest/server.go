// Package remotetest runs an in-process stand-in for the todo GraphQL
// endpoint. It understands the four operations the client sends.
package remotetest

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"

	"github.com/goccy/go-json"
)

// Record is a todo as the server stores it.
type Record struct {
	ID         string `json:"_id"`
	Text       string `json:"text"`
	Visibility bool   `json:"visibility"`
	CreatedAt  int64  `json:"createdAt"`
}

// Call is one request the server received.
type Call struct {
	Op        string
	Variables map[string]any
	Auth      string
}

type Server struct {
	*httptest.Server

	mu      sync.Mutex
	records []Record
	calls   []Call
	nextID  int
	fail    map[string]int // op -> status to answer with
	gate    chan struct{}  // when set, create blocks until closed
}

func NewServer(seed ...Record) *Server {
	s := &Server{records: append([]Record(nil), seed...), fail: map[string]int{}, nextID: 100}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// Fail makes every request for op answer with status. Zero clears it.
func (s *Server) Fail(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if status == 0 {
		delete(s.fail, op)
		return
	}
	s.fail[op] = status
}

// HoldCreates blocks create requests until the returned func is called.
// Injected failures for create are answered after the release.
func (s *Server) HoldCreates() (release func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	gate := make(chan struct{})
	s.gate = gate
	var once sync.Once
	return func() { once.Do(func() { close(gate) }) }
}

func (s *Server) Records() []Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Record(nil), s.records...)
}

func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call(nil), s.calls...)
}

// CallsFor filters Calls by operation name.
func (s *Server) CallsFor(op string) []Call {
	var out []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	var req struct {
		Query     string         `json:"query"`
		Variables map[string]any `json:"variables"`
	}
	if err := json.Unmarshal(b, &req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	op := opOf(req.Query)

	s.mu.Lock()
	s.calls = append(s.calls, Call{Op: op, Variables: req.Variables, Auth: r.Header.Get("Authorization")})
	status, failing := s.fail[op]
	gate := s.gate
	s.mu.Unlock()

	if op == "create" && gate != nil {
		<-gate
	}
	if failing {
		http.Error(w, "injected failure", status)
		return
	}

	s.mu.Lock()
	data, err := s.apply(op, req.Variables)
	s.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		_ = json.NewEncoder(w).Encode(map[string]any{"data": nil, "errors": []map[string]string{{"message": err.Error()}}})
		return
	}
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func (s *Server) apply(op string, vars map[string]any) (map[string]any, error) {
	switch op {
	case "find":
		return map[string]any{"find": append([]Record{}, s.records...)}, nil
	case "create":
		s.nextID++
		rec := Record{ID: fmt.Sprintf("srv-%d", s.nextID), CreatedAt: int64(s.nextID)}
		rec.Text, _ = vars["text"].(string)
		rec.Visibility, _ = vars["visibility"].(bool)
		s.records = append(s.records, rec)
		return map[string]any{"create": rec.ID}, nil
	case "update":
		id, _ := vars["_id"].(string)
		for i := range s.records {
			if s.records[i].ID != id {
				continue
			}
			if v, ok := vars["text"].(string); ok {
				s.records[i].Text = v
			}
			if v, ok := vars["visibility"].(bool); ok {
				s.records[i].Visibility = v
			}
			return map[string]any{"update": true}, nil
		}
		return nil, fmt.Errorf("no todo %q", id)
	case "delete":
		id, _ := vars["_id"].(string)
		for i := range s.records {
			if s.records[i].ID == id {
				s.records = append(s.records[:i], s.records[i+1:]...)
				return map[string]any{"delete": true}, nil
			}
		}
		return nil, fmt.Errorf("no todo %q", id)
	}
	return nil, fmt.Errorf("unknown operation")
}

func opOf(query string) string {
	for _, op := range []string{"find", "create", "update", "delete"} {
		if strings.Contains(query, op+"(") || strings.Contains(query, op+" {") || strings.Contains(query, op+"{") {
			return op
		}
	}
	return ""
}
