package session

import (
	"sync"
	"time"

	"github.com/crmarques/boardprompt/collection"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
)

// Session is the explicit per-session state: the credential, the resolved
// board context, and the monitored collections. It is created at session
// start, passed to the components that need it, and simply dropped at
// session end; nothing persists.
type Session struct {
	mu          sync.Mutex
	credential  server.Credential
	lastRefresh time.Time
	board       server.BoardInfo
	collections map[resource.Type]*collection.Collection
	order       []resource.Type
}

func NewSession(board server.BoardInfo, credential server.Credential) *Session {
	return &Session{
		credential:  credential,
		board:       board,
		collections: map[resource.Type]*collection.Collection{},
	}
}

// Register adds a collection to the session; later registrations of the
// same type replace the earlier one.
func (s *Session) Register(col *collection.Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	typ := col.Type()
	if _, exists := s.collections[typ]; !exists {
		s.order = append(s.order, typ)
	}
	s.collections[typ] = col
}

func (s *Session) Collection(typ resource.Type) (*collection.Collection, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	col, ok := s.collections[typ]
	return col, ok
}

// Collections returns the registered collections in registration order.
func (s *Session) Collections() []*collection.Collection {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*collection.Collection, 0, len(s.order))
	for _, typ := range s.order {
		out = append(out, s.collections[typ])
	}
	return out
}

func (s *Session) Board() server.BoardInfo {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.board
}

func (s *Session) Credential() server.Credential {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.credential
}

func (s *Session) SetCredential(credential server.Credential) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.credential = credential
}

func (s *Session) LastRefreshAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRefresh
}

func (s *Session) markRefreshed(at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRefresh = at
}

// Snapshots returns the current snapshot of every loaded collection.
func (s *Session) Snapshots() map[resource.Type]*resource.Snapshot {
	snapshots := map[resource.Type]*resource.Snapshot{}
	for _, col := range s.Collections() {
		if snap := col.Current(); snap != nil {
			snapshots[col.Type()] = snap
		}
	}
	return snapshots
}
