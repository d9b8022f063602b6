package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore implements Store on Redis. Idle reclamation is delegated
// to key TTLs refreshed on every touch, so no sweep goroutine is
// needed. Operations keep the Store contract's total-function shape:
// transport failures are logged and degrade to no-ops or empty
// results.
type RedisStore struct {
	client     *redis.Client
	prefix     string
	maxHistory int
	timeout    time.Duration
}

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	// Addr is the Redis server address (host:port).
	Addr string
	// Password is the Redis password (optional).
	Password string
	// DB is the Redis database number.
	DB int
	// Prefix is the key prefix for all session keys (default: "coursechat:session:").
	Prefix string
	// MaxHistory is the number of exchanges retained per session.
	MaxHistory int
	// SessionTimeout is the idle duration after which keys expire.
	SessionTimeout time.Duration
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return newRedisStore(client, cfg), nil
}

// NewRedisStoreFromClient creates a Redis store from an existing
// client. This is useful for testing with miniredis.
func NewRedisStoreFromClient(client *redis.Client, cfg RedisConfig) *RedisStore {
	return newRedisStore(client, cfg)
}

func newRedisStore(client *redis.Client, cfg RedisConfig) *RedisStore {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "coursechat:session:"
	}
	maxHistory := cfg.MaxHistory
	if maxHistory <= 0 {
		maxHistory = 2
	}
	timeout := cfg.SessionTimeout
	if timeout <= 0 {
		timeout = 60 * time.Minute
	}

	return &RedisStore{
		client:     client,
		prefix:     prefix,
		maxHistory: maxHistory,
		timeout:    timeout,
	}
}

func (s *RedisStore) counterKey() string {
	return s.prefix + "counter"
}

func (s *RedisStore) messagesKey(sessionID string) string {
	return s.prefix + "messages:" + sessionID
}

func (s *RedisStore) opContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

// Create mints a fresh session id via a Redis counter.
func (s *RedisStore) Create() string {
	ctx, cancel := s.opContext()
	defer cancel()

	n, err := s.client.Incr(ctx, s.counterKey()).Result()
	if err != nil {
		log.Printf("redis session create failed: %v", err)
		return ""
	}
	return fmt.Sprintf("session_%d", n)
}

// AddMessage appends a message and trims to the history bound.
func (s *RedisStore) AddMessage(sessionID, role, content string) {
	s.append(sessionID, Message{Role: role, Content: content, Timestamp: time.Now().UTC()})
}

// AddExchange appends a user/assistant pair in one pipeline.
func (s *RedisStore) AddExchange(sessionID, userMessage, assistantMessage string) {
	now := time.Now().UTC()
	s.append(sessionID,
		Message{Role: RoleUser, Content: userMessage, Timestamp: now},
		Message{Role: RoleAssistant, Content: assistantMessage, Timestamp: now},
	)
}

func (s *RedisStore) append(sessionID string, messages ...Message) {
	ctx, cancel := s.opContext()
	defer cancel()

	key := s.messagesKey(sessionID)
	values := make([]any, 0, len(messages))
	for _, msg := range messages {
		data, err := json.Marshal(msg)
		if err != nil {
			log.Printf("redis session marshal failed: %v", err)
			return
		}
		values = append(values, data)
	}

	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, values...)
	pipe.LTrim(ctx, key, int64(-s.maxHistory*2), -1)
	pipe.Expire(ctx, key, s.timeout)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Printf("redis session append failed: %v", err)
	}
}

// History returns the formatted history and refreshes the key TTL.
func (s *RedisStore) History(sessionID string) (string, bool) {
	ctx, cancel := s.opContext()
	defer cancel()

	key := s.messagesKey(sessionID)
	raw, err := s.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		log.Printf("redis session history failed: %v", err)
		return "", false
	}
	if len(raw) == 0 {
		return "", false
	}

	messages := make([]Message, 0, len(raw))
	for _, item := range raw {
		var msg Message
		if err := json.Unmarshal([]byte(item), &msg); err != nil {
			log.Printf("redis session unmarshal failed: %v", err)
			continue
		}
		messages = append(messages, msg)
	}

	s.client.Expire(ctx, key, s.timeout)
	return formatHistory(messages), true
}

// Clear removes a session entirely; unknown ids are a no-op.
func (s *RedisStore) Clear(sessionID string) {
	ctx, cancel := s.opContext()
	defer cancel()

	if err := s.client.Del(ctx, s.messagesKey(sessionID)).Err(); err != nil {
		log.Printf("redis session clear failed: %v", err)
	}
}

// Stats scans session keys and counts messages.
func (s *RedisStore) Stats() Stats {
	ctx, cancel := s.opContext()
	defer cancel()

	var stats Stats
	iter := s.client.Scan(ctx, 0, s.messagesKey("*"), 100).Iterator()
	for iter.Next(ctx) {
		stats.TotalSessions++
		if n, err := s.client.LLen(ctx, iter.Val()).Result(); err == nil {
			stats.TotalMessages += int(n)
		}
	}
	if err := iter.Err(); err != nil {
		log.Printf("redis session stats failed: %v", err)
	}
	return stats
}

// Shutdown closes the Redis client.
func (s *RedisStore) Shutdown() {
	if err := s.client.Close(); err != nil {
		log.Printf("redis session close failed: %v", err)
	}
}
