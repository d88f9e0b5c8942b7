package pipeline

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/dgallion1/lexgest/internal/chunker"
	"github.com/dgallion1/lexgest/internal/legal"
)

// Session groups the documents a user summarizes together. Each added input
// gets the next document index; indexes are never reused.
type Session struct {
	mu sync.Mutex

	ID        string
	CreatedAt time.Time
	UpdatedAt time.Time

	counter   chunker.DocCounter
	segmenter *chunker.Segmenter
	docs      []legal.Document
}

func NewSession(id string, seg *chunker.Segmenter) *Session {
	if id == "" {
		id = uuid.NewString()
	}
	if seg == nil {
		seg = chunker.NewSegmenter(chunker.DefaultConfig())
	}
	now := time.Now()
	return &Session{ID: id, CreatedAt: now, UpdatedAt: now, segmenter: seg}
}

// AddDocument segments text under a fresh document index. Empty text still
// consumes an index and yields a document with no paragraphs.
func (s *Session) AddDocument(name, text string) legal.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.counter.Next()
	doc := legal.Document{
		Index:      idx,
		Name:       name,
		Hash:       ContentHashHex([]byte(text)),
		Paragraphs: s.segmenter.Segment(text, idx),
		AddedAt:    time.Now().UTC(),
	}
	s.docs = append(s.docs, doc)
	s.UpdatedAt = time.Now()
	return doc
}

// RemoveDocument drops a document. Its index is not handed out again.
func (s *Session) RemoveDocument(index int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := slices.IndexFunc(s.docs, func(d legal.Document) bool { return d.Index == index })
	if i < 0 {
		return false
	}
	s.docs = slices.Delete(s.docs, i, i+1)
	s.UpdatedAt = time.Now()
	return true
}

// Documents returns a copy of the session's documents in index order.
func (s *Session) Documents() []legal.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.docs)
}

// Paragraphs returns every paragraph of the session in document order.
func (s *Session) Paragraphs() []legal.Paragraph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Paragraphs(s.docs)
}

// Paragraphs flattens docs into one paragraph list in document order.
func Paragraphs(docs []legal.Document) []legal.Paragraph {
	var out []legal.Paragraph
	for _, d := range docs {
		out = append(out, d.Paragraphs...)
	}
	return out
}

// DocumentInfo describes a document without its text.
type DocumentInfo struct {
	Index      int       `json:"index"`
	Name       string    `json:"name"`
	Paragraphs int       `json:"paragraphs"`
	Hash       string    `json:"content_hash,omitempty"`
	AddedAt    time.Time `json:"added_at"`
}

// SessionSnapshot is a JSON-safe view of a session.
type SessionSnapshot struct {
	ID           string         `json:"session_id"`
	Documents    []DocumentInfo `json:"documents"`
	LastDocument int            `json:"last_document_index"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

func (s *Session) Snapshot() SessionSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs := make([]DocumentInfo, len(s.docs))
	for i, d := range s.docs {
		docs[i] = DocumentInfo{Index: d.Index, Name: d.Name, Paragraphs: len(d.Paragraphs), Hash: d.Hash, AddedAt: d.AddedAt}
	}
	return SessionSnapshot{
		ID:           s.ID,
		Documents:    docs,
		LastDocument: s.counter.Last(),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func (s *Session) touch() {
	s.mu.Lock()
	s.UpdatedAt = time.Now()
	s.mu.Unlock()
}

func (s *Session) lastUpdate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.UpdatedAt
}

// SessionStore is a thread-safe in-memory session registry with TTL eviction.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[string]*Session
	ttl       time.Duration
	segmenter *chunker.Segmenter
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		sessions:  make(map[string]*Session),
		ttl:       ttl,
		segmenter: chunker.NewSegmenter(chunker.DefaultConfig()),
	}
}

// GetOrCreate returns the session with id, creating it when absent. An
// empty id always creates a new session.
func (s *SessionStore) GetOrCreate(id string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok && id != "" {
		sess.touch()
		return sess, false
	}
	sess := NewSession(id, s.segmenter)
	s.sessions[sess.ID] = sess
	return sess, true
}

func (s *SessionStore) Get(id string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sessions[id]
}

func (s *SessionStore) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	return ok
}

func (s *SessionStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Cleanup removes sessions idle for longer than the TTL.
func (s *SessionStore) Cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastUpdate()) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
