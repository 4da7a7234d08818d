package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/moonbeamcafe/barista/internal/config"
	"github.com/moonbeamcafe/barista/internal/infrastructure/redis"
)

const sessionLifetime = 1 * time.Hour

// ErrInvalidToken is returned for tokens that fail signature or claim checks.
var ErrInvalidToken = errors.New("session: invalid room token")

// RoomClaims are the JWT claims of a room access token. A token admits one
// identity into one room.
type RoomClaims struct {
	jwt.RegisteredClaims
	Room     string `json:"room"`
	Identity string `json:"identity"`
}

// Record is the stored session state.
type Record struct {
	SessionID string    `json:"sessionId"`
	Room      string    `json:"room"`
	Identity  string    `json:"identity"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	Set(ctx context.Context, sessionID string, record *Record) error
	Get(ctx context.Context, sessionID string) (*Record, error)
	Delete(ctx context.Context, sessionID string) error
}

type RedisStore struct {
	redisService *redis.Service
}

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Record
}

// Service creates sessions, mints their room tokens and verifies tokens on
// the way back in.
type Service struct {
	store Store
}

// NewService prefers the Redis store when a reachable Redis service is
// provided and falls back to the in-memory store otherwise.
func NewService(redisService *redis.Service) *Service {
	var store Store
	if redisService != nil && redisService.Ping(context.Background()) == nil {
		store = &RedisStore{redisService: redisService}
	} else {
		store = newMemoryStore()
	}

	return &Service{store: store}
}

func newMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Record)}
}

func sessionKey(sessionID string) string {
	return "session:" + sessionID
}

// Redis store implementation

func (rs *RedisStore) Set(ctx context.Context, sessionID string, record *Record) error {
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return rs.redisService.Set(ctx, sessionKey(sessionID), string(data), sessionLifetime)
}

func (rs *RedisStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	data, err := rs.redisService.Get(ctx, sessionKey(sessionID))
	if err != nil {
		if redis.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}

	var record Record
	if err := json.Unmarshal([]byte(data), &record); err != nil {
		return nil, err
	}
	return &record, nil
}

func (rs *RedisStore) Delete(ctx context.Context, sessionID string) error {
	return rs.redisService.Delete(ctx, sessionKey(sessionID))
}

// Memory store implementation

func (ms *MemoryStore) Set(ctx context.Context, sessionID string, record *Record) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.sessions[sessionID] = record
	return nil
}

func (ms *MemoryStore) Get(ctx context.Context, sessionID string) (*Record, error) {
	ms.mu.RLock()
	defer ms.mu.RUnlock()
	record, exists := ms.sessions[sessionID]
	if !exists {
		return nil, nil
	}
	return record, nil
}

func (ms *MemoryStore) Delete(ctx context.Context, sessionID string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.sessions, sessionID)
	return nil
}

// Create stores a new session and returns its record plus a signed room
// token for the given identity.
func (s *Service) Create(ctx context.Context, roomName, identity string) (*Record, string, error) {
	record := &Record{
		SessionID: uuid.New().String(),
		Room:      roomName,
		Identity:  identity,
		CreatedAt: time.Now(),
	}

	if err := s.store.Set(ctx, record.SessionID, record); err != nil {
		return nil, "", fmt.Errorf("storing session: %w", err)
	}

	token, err := s.MintRoomToken(roomName, identity)
	if err != nil {
		return nil, "", err
	}
	return record, token, nil
}

// Get returns the stored session record, nil when unknown.
func (s *Service) Get(ctx context.Context, sessionID string) (*Record, error) {
	return s.store.Get(ctx, sessionID)
}

// End removes the session record.
func (s *Service) End(ctx context.Context, sessionID string) error {
	return s.store.Delete(ctx, sessionID)
}

// MintRoomToken signs a room access token for an identity. Used both for
// customer sessions and for the barista agent joining the same room.
func (s *Service) MintRoomToken(roomName, identity string) (string, error) {
	claims := &RoomClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(sessionLifetime)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ID:        uuid.New().String(),
		},
		Room:     roomName,
		Identity: identity,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(config.GetJWTSecret())
	if err != nil {
		return "", fmt.Errorf("signing room token: %w", err)
	}
	return signed, nil
}

// VerifyRoomToken parses and validates a room token.
func (s *Service) VerifyRoomToken(tokenString string) (*RoomClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &RoomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return config.GetJWTSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*RoomClaims)
	if !ok || !token.Valid || claims.Room == "" || claims.Identity == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
