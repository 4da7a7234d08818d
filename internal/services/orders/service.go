// Package orders archives finalized coffee orders.
package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/moonbeamcafe/barista/internal/infrastructure/redis"
	"github.com/moonbeamcafe/barista/internal/order"
	"github.com/rs/zerolog/log"
)

// ErrIncomplete rejects archiving an order that is missing required fields.
var ErrIncomplete = errors.New("orders: order is incomplete")

type Store interface {
	Set(ctx context.Context, key, value string) error
	Get(ctx context.Context, key string) (string, bool, error)
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu     sync.RWMutex
	orders map[string]string
}

// Service persists final orders to the configured store and optionally to
// a JSON file per order, named after the customer.
type Service struct {
	store Store
	dir   string
}

// NewService prefers Redis when reachable and falls back to memory. dir
// enables per-order file output when non-empty.
func NewService(redisService *redis.Service, dir string) *Service {
	var store Store
	if redisService != nil && redisService.Ping(context.Background()) == nil {
		store = &RedisStore{redisService: redisService}
	} else {
		store = newMemoryStore()
	}

	return &Service{store: store, dir: dir}
}

func newMemoryStore() *MemoryStore {
	return &MemoryStore{orders: make(map[string]string)}
}

func orderKey(name string) string {
	return "order:" + strings.ToLower(name)
}

func (rs *RedisStore) Set(ctx context.Context, key, value string) error {
	return rs.redisService.Set(ctx, key, value, 0)
}

func (rs *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := rs.redisService.Get(ctx, key)
	if err != nil {
		if redis.IsNotFound(err) {
			return "", false, nil
		}
		return "", false, err
	}
	return value, true, nil
}

func (ms *MemoryStore) Set(ctx context.Context, key, value string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.orders[key] = value
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	value, exists := ms.orders[key]
	return value, exists, nil
}

// Archive persists a finalized order keyed by the customer name. The file
// write is best-effort; only the store write can fail the call.
func (s *Service) Archive(ctx context.Context, st order.State) error {
	if !st.IsComplete() {
		return ErrIncomplete
	}

	normalized := st.Normalized()
	data, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding order: %w", err)
	}

	if err := s.store.Set(ctx, orderKey(normalized.Name), string(data)); err != nil {
		return fmt.Errorf("storing order: %w", err)
	}

	if s.dir != "" {
		filename := filepath.Join(s.dir, fmt.Sprintf("order_%s.json", strings.ToLower(normalized.Name)))
		if err := os.WriteFile(filename, data, 0o644); err != nil {
			log.Warn().Err(err).Str("file", filename).Msg("Failed to write order file")
		}
	}

	log.Info().Str("name", normalized.Name).Str("drink", normalized.DrinkType).Msg("Order archived")
	return nil
}

// Get returns the archived order for a customer name, nil when absent.
func (s *Service) Get(ctx context.Context, name string) (*order.State, error) {
	data, found, err := s.store.Get(ctx, orderKey(name))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	var st order.State
	if err := json.Unmarshal([]byte(data), &st); err != nil {
		return nil, fmt.Errorf("decoding archived order: %w", err)
	}
	return &st, nil
}
