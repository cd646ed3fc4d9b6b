package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"atlas-booking/internal/wizard"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DraftStore keeps wizard drafts between requests. Get returns (nil, nil)
// for an unknown or expired draft.
type DraftStore interface {
	Save(ctx context.Context, d *wizard.Draft) error
	Get(ctx context.Context, id string) (*wizard.Draft, error)
	Delete(ctx context.Context, id string) error
}

type redisDraftStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisDraftStore(rdb *redis.Client, ttl time.Duration, log *zap.Logger) DraftStore {
	return &redisDraftStore{
		rdb: rdb,
		ttl: ttl,
		log: log.With(zap.String("store", "draft")),
	}
}

func draftKey(id string) string {
	return "wizard:draft:" + id
}

// Save writes the draft and refreshes its TTL.
func (s *redisDraftStore) Save(ctx context.Context, d *wizard.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshal draft %s: %w", d.ID, err)
	}

	if err := s.rdb.Set(ctx, draftKey(d.ID), payload, s.ttl).Err(); err != nil {
		s.log.Error("Failed to save draft", zap.Error(err), zap.String("draft_id", d.ID))
		return fmt.Errorf("save draft %s: %w", d.ID, err)
	}
	return nil
}

func (s *redisDraftStore) Get(ctx context.Context, id string) (*wizard.Draft, error) {
	payload, err := s.rdb.Get(ctx, draftKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		s.log.Error("Failed to load draft", zap.Error(err), zap.String("draft_id", id))
		return nil, fmt.Errorf("load draft %s: %w", id, err)
	}

	var d wizard.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, fmt.Errorf("decode draft %s: %w", id, err)
	}
	return &d, nil
}

func (s *redisDraftStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("delete draft %s: %w", id, err)
	}
	return nil
}

type memoryDraftStore struct {
	mu     sync.Mutex
	drafts map[string][]byte
}

// NewMemoryDraftStore keeps drafts in process memory, serialized the same
// way as the Redis store so callers never share a *Draft.
func NewMemoryDraftStore() DraftStore {
	return &memoryDraftStore{drafts: make(map[string][]byte)}
}

func (s *memoryDraftStore) Save(_ context.Context, d *wizard.Draft) error {
	payload, err := json.Marshal(d)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[d.ID] = payload
	s.mu.Unlock()
	return nil
}

func (s *memoryDraftStore) Get(_ context.Context, id string) (*wizard.Draft, error) {
	s.mu.Lock()
	payload, ok := s.drafts[id]
	s.mu.Unlock()
	if !ok {
		return nil, nil
	}

	var d wizard.Draft
	if err := json.Unmarshal(payload, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *memoryDraftStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.drafts, id)
	s.mu.Unlock()
	return nil
}
