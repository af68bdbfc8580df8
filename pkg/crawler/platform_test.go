package crawler

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// mockPlatform simulates the LXP API with configurable failures. Tokens are
// issued per sign-in, so tests can revoke the current one and watch the
// re-login path.
type mockPlatform struct {
	server *httptest.Server

	signIns int32

	mu           sync.Mutex
	validToken   string
	rejectLogins bool

	errorStatus map[string]int
	errorBudget map[string]int
	gates       map[string]chan struct{}
	pathHits    map[string]int

	listing  []listedSubject
	subjects map[int64]string
	lessons  map[int64]string
	files    map[string]mockFile
}

type listedSubject struct {
	ID    int64
	Title string
}

type mockFile struct {
	contentType string
	body        []byte
}

func newMockPlatform(t *testing.T) *mockPlatform {
	t.Helper()
	m := &mockPlatform{
		errorStatus: make(map[string]int),
		errorBudget: make(map[string]int),
		gates:       make(map[string]chan struct{}),
		pathHits:    make(map[string]int),
		subjects:    make(map[int64]string),
		lessons:     make(map[int64]string),
		files:       make(map[string]mockFile),
	}
	m.server = httptest.NewServer(http.HandlerFunc(m.handle))
	t.Cleanup(m.server.Close)
	return m
}

// seedFixture loads a small two-subject curriculum. Subject 7 carries the
// interesting shapes: a hidden step, a duplicate step, a step pointing at a
// chapter that does not exist, and lessons sharing an embedded photo.
func (m *mockPlatform) seedFixture() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.listing = []listedSubject{
		{ID: 7, Title: "Программирование"},
		{ID: 8, Title: "Базы данных"},
	}

	m.subjects[7] = `{
		"code": "CS-101",
		"title": "Программирование",
		"description": "<p>Основы программирования</p>",
		"teachers": [{"first_name": "Анна", "last_name": "Иванова", "middle_name": ""}],
		"groups": [{"name": "ИТ-21"}],
		"chapters": [
			{"id": 70, "title": "Введение"},
			{"id": 71, "title": "Циклы"}
		],
		"steps": [
			{"id": 700, "chapter_id": 70, "hidden": false},
			{"id": 701, "chapter_id": 70, "hidden": true},
			{"id": 700, "chapter_id": 70, "hidden": false},
			{"id": 799, "chapter_id": 999, "hidden": false},
			{"id": 710, "chapter_id": 71, "hidden": false}
		]
	}`
	m.subjects[8] = `{
		"code": "DB-201",
		"title": "Базы данных",
		"description": "<p>Реляционные базы</p>",
		"teachers": [],
		"groups": [],
		"chapters": [{"id": 80, "title": "SQL"}],
		"steps": [{"id": 800, "chapter_id": 80, "hidden": false}]
	}`

	m.lessons[700] = `{
		"title": "Первая программа",
		"public_text": "<h1>Intro</h1><p>Hi</p>",
		"public_photos": [{"id": 501, "normal": "/files/photo-501.jpg"}],
		"private_text": "<p>Дома: прочитать главу 1</p>",
		"private_links": [],
		"private_videos": [],
		"private_documents": [{"id": 601, "path": "/files/doc-601.pdf", "description": "Методичка"}],
		"sections": []
	}`
	m.lessons[710] = `{
		"title": "Циклы for",
		"public_text": "<p>Циклы повторяют действия</p>",
		"public_photos": [{"id": 501, "normal": "/files/photo-501.jpg"}],
		"private_text": "",
		"private_links": [],
		"private_videos": [],
		"private_documents": [],
		"sections": []
	}`
	m.lessons[800] = `{
		"title": "Выборка данных",
		"public_text": "<p>SELECT из таблиц</p>",
		"public_photos": [],
		"private_text": "",
		"private_links": [],
		"private_videos": [],
		"private_documents": [],
		"sections": []
	}`

	m.files["/files/photo-501.jpg"] = mockFile{"image/jpeg", []byte("jpeg-bytes-501")}
	m.files["/files/doc-601.pdf"] = mockFile{"application/pdf", []byte("%PDF-1.4 fake content")}
}

func (m *mockPlatform) handle(w http.ResponseWriter, r *http.Request) {
	m.countHit(r.URL.Path)

	if gate := m.gateFor(r.URL.Path); gate != nil {
		<-gate
	}

	if status, ok := m.takeError(r.URL.Path); ok {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"message":"injected failure %d"}`, status)
		return
	}

	switch {
	case r.URL.Path == "/api/v2/auth/sign-in":
		m.handleSignIn(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v2/users/"):
		m.withAuth(w, r, m.handleListing)
	case strings.HasPrefix(r.URL.Path, "/api/v2/subjects/"):
		m.withAuth(w, r, m.handleSubject)
	case strings.HasPrefix(r.URL.Path, "/api/v2/lessons/"):
		m.withAuth(w, r, m.handleLesson)
	case strings.HasPrefix(r.URL.Path, "/files/"):
		m.withAuth(w, r, m.handleFile)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (m *mockPlatform) handleSignIn(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.rejectLogins {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Invalid login or password"}`)
		return
	}

	n := atomic.AddInt32(&m.signIns, 1)
	m.validToken = fmt.Sprintf("tok-%d", n)

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"token":%q,"data":{"id":42}}`, m.validToken)
}

func (m *mockPlatform) withAuth(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	m.mu.Lock()
	token := m.validToken
	m.mu.Unlock()

	if token == "" || r.Header.Get("Authorization") != "Bearer "+token {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"message":"Unauthenticated."}`)
		return
	}
	next(w, r)
}

func (m *mockPlatform) handleListing(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// One subject per page keeps pagination observable.
	lastPage := len(m.listing)
	if lastPage < 1 {
		lastPage = 1
	}

	var rows []string
	if page <= len(m.listing) {
		s := m.listing[page-1]
		rows = append(rows, fmt.Sprintf(`{"id":%d,"title":%q}`, s.ID, s.Title))
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data":{"data":[%s],"last_page":%d}}`, strings.Join(rows, ","), lastPage)
}

func (m *mockPlatform) handleSubject(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	payload, ok := m.subjects[trailingID(r.URL.Path)]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Subject not found"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data":%s}`, payload)
}

func (m *mockPlatform) handleLesson(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	payload, ok := m.lessons[trailingID(r.URL.Path)]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Lesson not found"}`)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	fmt.Fprintf(w, `{"data":%s}`, payload)
}

func (m *mockPlatform) handleFile(w http.ResponseWriter, r *http.Request) {
	m.mu.Lock()
	file, ok := m.files[r.URL.Path]
	m.mu.Unlock()

	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", file.contentType)
	w.Write(file.body)
}

// failPath makes path respond with status. times <= 0 means every request.
func (m *mockPlatform) failPath(path string, status, times int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorStatus[path] = status
	if times > 0 {
		m.errorBudget[path] = times
	} else {
		delete(m.errorBudget, path)
	}
}

func (m *mockPlatform) takeError(path string) (int, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	status, ok := m.errorStatus[path]
	if !ok {
		return 0, false
	}
	if budget, limited := m.errorBudget[path]; limited {
		if budget <= 0 {
			return 0, false
		}
		m.errorBudget[path] = budget - 1
	}
	return status, true
}

// blockPath parks requests to path until release is called
func (m *mockPlatform) blockPath(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gates[path] = make(chan struct{})
}

func (m *mockPlatform) release(path string) {
	m.mu.Lock()
	gate, ok := m.gates[path]
	delete(m.gates, path)
	m.mu.Unlock()
	if ok {
		close(gate)
	}
}

func (m *mockPlatform) gateFor(path string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gates[path]
}

// revoke invalidates the current token, so the next authenticated request
// sees a 401 until someone signs in again
func (m *mockPlatform) revoke() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.validToken = "revoked"
}

func (m *mockPlatform) setRejectLogins(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejectLogins = v
}

func (m *mockPlatform) signInCount() int {
	return int(atomic.LoadInt32(&m.signIns))
}

func (m *mockPlatform) countHit(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pathHits[path]++
}

func (m *mockPlatform) hits(path string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pathHits[path]
}

func trailingID(path string) int64 {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	id, _ := strconv.ParseInt(parts[len(parts)-1], 10, 64)
	return id
}

// waitFor polls until cond holds, failing the test after a grace period
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}
