package session

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Store 메모리 세션 저장소
type Store struct {
	rwMutex  sync.RWMutex
	sessions map[string]*Session
	maxAge   time.Duration
}

// Get 세션 조회
func (st *Store) Get(id string) (*Session, bool) {
	st.rwMutex.RLock()
	s, ok := st.sessions[id]
	st.rwMutex.RUnlock()

	if ok {
		s.touch(time.Now())
	}
	return s, ok
}

// Create 새로운 세션 생성
func (st *Store) Create() *Session {
	s := &Session{
		ID:       uuid.New().String(),
		lastSeen: time.Now(),
	}

	st.rwMutex.Lock()
	st.sessions[s.ID] = s
	st.rwMutex.Unlock()

	return s
}

// GetOrCreate 세션이 없으면 새로 생성, 생성 여부를 함께 반환
func (st *Store) GetOrCreate(id string) (*Session, bool) {
	if id != "" {
		if s, ok := st.Get(id); ok {
			return s, false
		}
	}

	return st.Create(), true
}

// Len 세션 수
func (st *Store) Len() int {
	st.rwMutex.RLock()
	defer st.rwMutex.RUnlock()

	return len(st.sessions)
}

// Sweep maxAge 이상 사용되지 않은 세션 삭제
func (st *Store) Sweep(now time.Time) int {
	st.rwMutex.Lock()
	defer st.rwMutex.Unlock()

	deleted := 0
	for id, s := range st.sessions {
		if s.idleSince(now) > st.maxAge {
			delete(st.sessions, id)
			deleted++
		}
	}

	return deleted
}

// Run ctx가 끝날 때까지 주기적으로 Sweep 수행
func (st *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := st.Sweep(now); n > 0 {
				log.Printf("Swept %d idle sessions", n)
			}
		}
	}
}

// NewStore 새로운 세션 저장소 생성
func NewStore(maxAge time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*Session),
		maxAge:   maxAge,
	}
}
