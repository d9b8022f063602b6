package session

import (
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestStore(t *testing.T, cfg RedisConfig) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	store := NewRedisStoreFromClient(client, cfg)
	t.Cleanup(store.Shutdown)
	return store, mr
}

func TestRedisCreateMintsSequentialIDs(t *testing.T) {
	s, _ := newRedisTestStore(t, RedisConfig{})

	assert.Equal(t, "session_1", s.Create())
	assert.Equal(t, "session_2", s.Create())
	assert.Equal(t, "session_3", s.Create())
}

func TestRedisHistoryRoundTrip(t *testing.T) {
	s, _ := newRedisTestStore(t, RedisConfig{})

	id := s.Create()
	s.AddExchange(id, "Where is MCP covered?", "Lesson 3.")

	history, ok := s.History(id)
	require.True(t, ok)
	assert.Equal(t, "User: Where is MCP covered?\nAssistant: Lesson 3.", history)
}

func TestRedisHistoryUnknownSession(t *testing.T) {
	s, _ := newRedisTestStore(t, RedisConfig{})

	history, ok := s.History("session_999")
	assert.False(t, ok)
	assert.Empty(t, history)
}

func TestRedisTrimsToBound(t *testing.T) {
	s, _ := newRedisTestStore(t, RedisConfig{MaxHistory: 2})

	id := s.Create()
	for i := 1; i <= 3; i++ {
		s.AddExchange(id, fmt.Sprintf("q%d", i), fmt.Sprintf("a%d", i))
	}

	history, ok := s.History(id)
	require.True(t, ok)
	assert.Equal(t, "User: q2\nAssistant: a2\nUser: q3\nAssistant: a3", history)
}

func TestRedisClear(t *testing.T) {
	s, _ := newRedisTestStore(t, RedisConfig{})

	id := s.Create()
	s.AddExchange(id, "q", "a")
	s.Clear(id)

	_, ok := s.History(id)
	assert.False(t, ok)

	// Unknown ids are a no-op.
	s.Clear("never_existed")
}

func TestRedisSessionExpiry(t *testing.T) {
	s, mr := newRedisTestStore(t, RedisConfig{SessionTimeout: 10 * time.Minute})

	id := s.Create()
	s.AddExchange(id, "q", "a")

	mr.FastForward(11 * time.Minute)

	_, ok := s.History(id)
	assert.False(t, ok, "idle session should expire via key TTL")
}

func TestRedisTouchRefreshesTTL(t *testing.T) {
	s, mr := newRedisTestStore(t, RedisConfig{SessionTimeout: 10 * time.Minute})

	id := s.Create()
	s.AddExchange(id, "q", "a")

	mr.FastForward(8 * time.Minute)
	_, ok := s.History(id)
	require.True(t, ok)

	// The read reset the TTL, so the session survives past the
	// original deadline.
	mr.FastForward(8 * time.Minute)
	_, ok = s.History(id)
	assert.True(t, ok)
}

func TestRedisStats(t *testing.T) {
	s, _ := newRedisTestStore(t, RedisConfig{MaxHistory: 10})

	for i := 0; i < 3; i++ {
		id := s.Create()
		s.AddExchange(id, "q", "a")
	}

	stats := s.Stats()
	assert.Equal(t, 3, stats.TotalSessions)
	assert.Equal(t, 6, stats.TotalMessages)
}
