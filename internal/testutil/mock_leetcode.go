// Package testutil provides testing utilities for the contest status pipeline.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"
)

// MockQuestion is one problem served by MockLeetCode.
type MockQuestion struct {
	Title      string
	Slug       string
	FrontendID string
	Difficulty string
	// Status is the raw GraphQL status; empty is served as null.
	Status string
}

// MockLeetCode serves the contest info and GraphQL endpoints from in-memory data.
type MockLeetCode struct {
	server *httptest.Server

	mu             sync.RWMutex
	contests       map[string][]MockQuestion
	contestStatus  map[string]int
	problemStatus  map[string]int
	delay          time.Duration
	requestCount   int
	graphqlHeaders []http.Header
	graphqlBodies  []map[string]any

	inflight    int
	maxInflight int
}

// NewMockLeetCode creates and starts a mock server.
func NewMockLeetCode() *MockLeetCode {
	m := &MockLeetCode{
		contests:      make(map[string][]MockQuestion),
		contestStatus: make(map[string]int),
		problemStatus: make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/contest/api/info/", m.handleContestInfo)
	mux.HandleFunc("/graphql", m.handleGraphQL)

	m.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.enter()
		defer m.leave()

		m.mu.RLock()
		delay := m.delay
		m.mu.RUnlock()
		if delay > 0 {
			time.Sleep(delay)
		}

		mux.ServeHTTP(w, r)
	}))

	return m
}

// URL returns the mock server URL.
func (m *MockLeetCode) URL() string {
	return m.server.URL
}

// Close shuts down the mock server.
func (m *MockLeetCode) Close() {
	m.server.Close()
}

// AddContest registers a contest and its questions.
func (m *MockLeetCode) AddContest(slug string, questions ...MockQuestion) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contests[slug] = questions
}

// FailContest makes the contest info endpoint answer status for slug.
func (m *MockLeetCode) FailContest(slug string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contestStatus[slug] = status
}

// FailProblem makes the GraphQL endpoint answer status for slug.
func (m *MockLeetCode) FailProblem(slug string, status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.problemStatus[slug] = status
}

// SetDelay adds a fixed latency to every response.
func (m *MockLeetCode) SetDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.delay = d
}

// GetRequestCount returns the number of requests made to the server.
func (m *MockLeetCode) GetRequestCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.requestCount
}

// MaxInflight returns the highest number of concurrently served requests.
func (m *MockLeetCode) MaxInflight() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.maxInflight
}

// GraphQLHeaders returns the headers of every GraphQL request received.
func (m *MockLeetCode) GraphQLHeaders() []http.Header {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]http.Header(nil), m.graphqlHeaders...)
}

// GraphQLBodies returns the decoded bodies of every GraphQL request received.
func (m *MockLeetCode) GraphQLBodies() []map[string]any {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]map[string]any(nil), m.graphqlBodies...)
}

func (m *MockLeetCode) enter() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount++
	m.inflight++
	if m.inflight > m.maxInflight {
		m.maxInflight = m.inflight
	}
}

func (m *MockLeetCode) leave() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.inflight--
}

func (m *MockLeetCode) handleContestInfo(w http.ResponseWriter, r *http.Request) {
	slug := strings.Trim(strings.TrimPrefix(r.URL.Path, "/contest/api/info/"), "/")

	m.mu.RLock()
	status, failing := m.contestStatus[slug]
	questions, known := m.contests[slug]
	m.mu.RUnlock()

	if failing {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	if !known {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "contest not found"})
		return
	}

	records := make([]map[string]any, 0, len(questions))
	for i, q := range questions {
		records = append(records, map[string]any{
			"id":          i + 1,
			"question_id": 1000 + i,
			"credit":      3,
			"title":       q.Title,
			"title_slug":  q.Slug,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"contest":   map[string]any{"title_slug": slug},
		"questions": records,
	})
}

func (m *MockLeetCode) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "POST only"})
		return
	}

	var payload map[string]any
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	m.mu.Lock()
	m.graphqlHeaders = append(m.graphqlHeaders, r.Header.Clone())
	m.graphqlBodies = append(m.graphqlBodies, payload)
	m.mu.Unlock()

	variables, _ := payload["variables"].(map[string]any)
	slug, _ := variables["titleSlug"].(string)

	m.mu.RLock()
	status, failing := m.problemStatus[slug]
	q, found := m.findQuestion(slug)
	m.mu.RUnlock()

	if failing {
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	if !found {
		writeJSON(w, http.StatusOK, map[string]any{"data": map[string]any{"question": nil}})
		return
	}

	var rawStatus any
	if q.Status != "" {
		rawStatus = q.Status
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"data": map[string]any{
			"question": map[string]any{
				"title":              q.Title,
				"titleSlug":          q.Slug,
				"status":             rawStatus,
				"difficulty":         q.Difficulty,
				"questionFrontendId": q.FrontendID,
			},
		},
	})
}

// findQuestion must be called with m.mu held.
func (m *MockLeetCode) findQuestion(slug string) (MockQuestion, bool) {
	for _, questions := range m.contests {
		for _, q := range questions {
			if q.Slug == slug {
				return q, true
			}
		}
	}
	return MockQuestion{}, false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("mock server: encode response: %v\n", err)
	}
}

// Questions builds n questions for contest with the given statuses, cycling through
// statuses when fewer are given. Slugs are "<contest>-q<i>".
func Questions(contest string, n int, statuses ...string) []MockQuestion {
	difficulties := []string{"Easy", "Medium", "Medium", "Hard"}
	questions := make([]MockQuestion, n)
	for i := range questions {
		status := ""
		if len(statuses) > 0 {
			status = statuses[i%len(statuses)]
		}
		questions[i] = MockQuestion{
			Title:      fmt.Sprintf("%s problem %d", contest, i+1),
			Slug:       fmt.Sprintf("%s-q%d", contest, i+1),
			FrontendID: fmt.Sprintf("%d", 3000+i),
			Difficulty: difficulties[i%len(difficulties)],
			Status:     status,
		}
	}
	return questions
}
