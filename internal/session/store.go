// Package session stores uploaded files between the analyze and commit steps
// of an import. Sessions live in Redis with a TTL; when Redis is unavailable
// an in-process map keeps single-instance deployments working.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned for unknown or expired sessions.
var ErrNotFound = errors.New("import session not found or expired")

const sessionTTL = 30 * time.Minute

// Upload is one stored file awaiting its confirmed mapping.
type Upload struct {
	FileName string `json:"fileName"`
	MimeType string `json:"mimeType"`
	Data     []byte `json:"data"`
}

type memoryEntry struct {
	upload    Upload
	expiresAt time.Time
}

// Store keeps uploads keyed by session ID.
type Store struct {
	redis *redis.Client

	mu     sync.Mutex
	memory map[string]memoryEntry
}

func NewStore(redisClient *redis.Client) *Store {
	return &Store{
		redis:  redisClient,
		memory: make(map[string]memoryEntry),
	}
}

func sessionKey(id string) string {
	return fmt.Sprintf("catalog:import:session:%s", id)
}

// Put stores an upload and returns its new session ID.
func (s *Store) Put(ctx context.Context, upload Upload) (string, error) {
	id := fmt.Sprintf("import_%d_%s", time.Now().UnixMilli(), uuid.New().String()[:8])

	if s.redis != nil {
		data, err := json.Marshal(upload)
		if err != nil {
			return "", err
		}
		if err := s.redis.Set(ctx, sessionKey(id), data, sessionTTL).Err(); err == nil {
			return id, nil
		}
		// fall through to memory on Redis failure
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.evictExpiredLocked()
	s.memory[id] = memoryEntry{upload: upload, expiresAt: time.Now().Add(sessionTTL)}
	return id, nil
}

// Get retrieves an upload by session ID.
func (s *Store) Get(ctx context.Context, id string) (*Upload, error) {
	if s.redis != nil {
		val, err := s.redis.Get(ctx, sessionKey(id)).Bytes()
		if err == nil {
			var upload Upload
			if err := json.Unmarshal(val, &upload); err != nil {
				return nil, err
			}
			return &upload, nil
		}
		// redis.Nil or a transport error: the session may still live in
		// the in-process fallback
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.memory[id]
	if !ok || time.Now().After(entry.expiresAt) {
		delete(s.memory, id)
		return nil, ErrNotFound
	}
	upload := entry.upload
	return &upload, nil
}

// Delete removes a session once its import completed.
func (s *Store) Delete(ctx context.Context, id string) {
	if s.redis != nil {
		s.redis.Del(ctx, sessionKey(id))
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.memory, id)
}

func (s *Store) evictExpiredLocked() {
	now := time.Now()
	for id, entry := range s.memory {
		if now.After(entry.expiresAt) {
			delete(s.memory, id)
		}
	}
}
