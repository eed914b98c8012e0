// Package preview keeps parsed schedule imports until the user confirms them.
package preview

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"cmsadmin/internal/model"
	"cmsadmin/internal/spreadsheet"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "import:preview:"

var ErrNotFound = errors.New("import preview not found or expired")

// Preview is one parsed workbook waiting for confirmation
type Preview struct {
	ID         string                 `json:"id"`
	Owner      string                 `json:"owner"`
	FileName   string                 `json:"fileName"`
	Variant    spreadsheet.Variant    `json:"variant"`
	Records    []model.ScheduleImport `json:"records"`
	Mismatches []spreadsheet.Mismatch `json:"mismatches,omitempty"`
	CreatedAt  time.Time              `json:"createdAt"`
}

// Store persists previews for a limited time
type Store interface {
	Save(ctx context.Context, p *Preview) error
	Get(ctx context.Context, id string) (*Preview, error)
	Delete(ctx context.Context, id string) error
}

// New fills in the id and creation time of a preview
func New(owner, fileName string, v spreadsheet.Variant, report *spreadsheet.Report) *Preview {
	return &Preview{
		ID:         ulid.Make().String(),
		Owner:      owner,
		FileName:   fileName,
		Variant:    v,
		Records:    report.Records,
		Mismatches: report.Mismatches,
		CreatedAt:  time.Now().UTC(),
	}
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
	log *zap.Logger
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration, log *zap.Logger) *RedisStore {
	return &RedisStore{rdb: rdb, ttl: ttl, log: log}
}

func (s *RedisStore) Save(ctx context.Context, p *Preview) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	if err := s.rdb.Set(ctx, keyPrefix+p.ID, data, s.ttl).Err(); err != nil {
		s.log.Error("Failed to store import preview", zap.String("id", p.ID), zap.Error(err))
		return err
	}
	s.log.Debug("Stored import preview", zap.String("id", p.ID), zap.Int("records", len(p.Records)))
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*Preview, error) {
	data, err := s.rdb.Get(ctx, keyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	var p Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	return &p, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, keyPrefix+id).Err()
}

// MemoryStore is an in-process Store for single instance deployments
type MemoryStore struct {
	lru *expirable.LRU[string, []byte]
}

func NewMemoryStore(size int, ttl time.Duration) *MemoryStore {
	return &MemoryStore{lru: expirable.NewLRU[string, []byte](size, nil, ttl)}
}

func (s *MemoryStore) Save(_ context.Context, p *Preview) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode preview: %w", err)
	}
	s.lru.Add(p.ID, data)
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Preview, error) {
	data, ok := s.lru.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	var p Preview
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decode preview: %w", err)
	}
	return &p, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.lru.Remove(id)
	return nil
}
