package session

import (
	"context"
	"sync"
	"time"
)

// Session menyimpan state percakapan bot per chat id: langkah menu yang
// sedang aktif dan produk yang sedang dilirik. Murni UX transien — hilang
// berarti user mulai lagi dari menu utama, bukan kehilangan data.
type Session struct {
	ChatID    string
	Step      string
	ProductID string
	Email     string
	lastSeen  time.Time
}

type Store struct {
	mu       sync.Mutex
	sessions map[string]*Session
	idle     time.Duration
	sweep    time.Duration
}

// NewStore: idle timeout default 30 menit, sweep tiap 5 menit.
func NewStore(idle, sweep time.Duration) *Store {
	if idle <= 0 {
		idle = 30 * time.Minute
	}
	if sweep <= 0 {
		sweep = 5 * time.Minute
	}
	return &Store{
		sessions: make(map[string]*Session),
		idle:     idle,
		sweep:    sweep,
	}
}

// Get mengembalikan session aktif dan me-refresh idle timer-nya.
// Session yang sudah lewat idle dianggap tidak ada.
func (s *Store) Get(chatID string) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[chatID]
	if !ok {
		return nil, false
	}
	if time.Since(sess.lastSeen) > s.idle {
		delete(s.sessions, chatID)
		return nil, false
	}
	sess.lastSeen = time.Now()
	return sess, true
}

func (s *Store) Put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess.lastSeen = time.Now()
	s.sessions[sess.ChatID] = sess
}

func (s *Store) Delete(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Run menjalankan sweep periodik sampai ctx selesai.
func (s *Store) Run(ctx context.Context) {
	t := time.NewTicker(s.sweep)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			s.sweepOnce(time.Now())
		}
	}
}

func (s *Store) sweepOnce(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastSeen) > s.idle {
			delete(s.sessions, id)
		}
	}
}
