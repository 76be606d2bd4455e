// Package trellotest provides an in-process fake of the Trello API for tests.
package trellotest

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
)

const (
	APIKey = "test-key"
	Token  = "test-token"
)

// Card is a card stored on the fake.
type Card struct {
	ID      string
	BoardID string
	Name    string
	IDShort int
}

// Attachment is a recorded create-attachment call.
type Attachment struct {
	CardID string
	Name   string
	URL    string
}

// Server is a fake Trello API. Configure Boards, Cards and FailCards before
// issuing requests.
type Server struct {
	*httptest.Server

	Boards []map[string]string
	Cards  []Card

	// FailBoards makes the board listing answer with this status.
	FailBoards int
	// FailCards makes the lookup of a card id-short answer with a status.
	FailCards map[string]int
	// FailAttach makes attaching to a card id answer with a status.
	FailAttach map[string]int

	mu          sync.Mutex
	attachments []Attachment
	requests    []string
}

// NewServer starts a fake Trello server. It is closed when the test ends.
func NewServer(t testing.TB) *Server {
	s := &Server{FailCards: map[string]int{}, FailAttach: map[string]int{}}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /1/members/me/boards", s.listBoards)
	mux.HandleFunc("GET /1/boards/{board}/cards/{card}", s.getCard)
	mux.HandleFunc("GET /1/search", s.search)
	mux.HandleFunc("POST /1/cards/{card}/attachments", s.attach)

	s.Server = httptest.NewServer(s.authenticate(mux))
	t.Cleanup(s.Close)
	return s
}

// AddBoard registers a board.
func (s *Server) AddBoard(id, name, shortLink string) {
	s.Boards = append(s.Boards, map[string]string{"id": id, "name": name, "shortLink": shortLink})
}

// Attachments returns the attachments created so far.
func (s *Server) Attachments() []Attachment {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Attachment(nil), s.attachments...)
}

// Requests returns "METHOD path" for every request received.
func (s *Server) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests = append(s.requests, r.Method+" "+r.URL.Path)
		s.mu.Unlock()

		q := r.URL.Query()
		if q.Get("key") != APIKey || q.Get("token") != Token {
			http.Error(w, "invalid token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) listBoards(w http.ResponseWriter, r *http.Request) {
	if s.FailBoards != 0 {
		http.Error(w, "board listing failed", s.FailBoards)
		return
	}
	writeJSON(w, s.Boards)
}

func (s *Server) getCard(w http.ResponseWriter, r *http.Request) {
	idShort := r.PathValue("card")
	if status := s.FailCards[idShort]; status != 0 {
		http.Error(w, "card lookup failed", status)
		return
	}

	n, err := strconv.Atoi(idShort)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	for _, c := range s.Cards {
		if c.BoardID == r.PathValue("board") && c.IDShort == n {
			writeJSON(w, wire(c))
			return
		}
	}
	http.Error(w, "The requested resource was not found.", http.StatusNotFound)
}

func (s *Server) search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("query")
	if status := s.FailCards[query]; status != 0 {
		http.Error(w, "search failed", status)
		return
	}

	// Trello's search is fuzzy; return every card whose number contains the query.
	cards := []map[string]any{}
	for _, c := range s.Cards {
		if strings.Contains(strconv.Itoa(c.IDShort), query) {
			cards = append(cards, wire(c))
		}
	}
	writeJSON(w, map[string]any{"cards": cards})
}

func (s *Server) attach(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("card")
	if status := s.FailAttach[id]; status != 0 {
		http.Error(w, "attach failed", status)
		return
	}

	q := r.URL.Query()
	a := Attachment{CardID: id, Name: q.Get("name"), URL: q.Get("url")}
	s.mu.Lock()
	s.attachments = append(s.attachments, a)
	s.mu.Unlock()

	writeJSON(w, map[string]any{"id": "att-" + strconv.Itoa(len(s.Attachments())), "url": a.URL, "name": a.Name})
}

func wire(c Card) map[string]any {
	return map[string]any{"id": c.ID, "name": c.Name, "idShort": c.IDShort}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
