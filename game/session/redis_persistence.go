package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gomodule/redigo/redis"

	"github.com/wricardo/monopoly-game/game/service"
)

const defaultRedisPrefix = "monopoly"

// RedisPersistence implements SessionPersistence on Redis. Each session is a
// string key holding the JSON document; a set indexes the known ids.
type RedisPersistence struct {
	pool          *redis.Pool
	prefix        string
	ttl           time.Duration
	configManager service.ConfigManager
}

// NewRedisPool dials address lazily; address is host:port or a redis:// URL
func NewRedisPool(address string) *redis.Pool {
	return &redis.Pool{
		MaxIdle:     10,
		IdleTimeout: 60 * time.Second,
		Dial: func() (redis.Conn, error) {
			if strings.HasPrefix(address, "redis://") || strings.HasPrefix(address, "rediss://") {
				return redis.DialURL(address)
			}
			return redis.Dial("tcp", address)
		},
		TestOnBorrow: func(c redis.Conn, t time.Time) error {
			if time.Since(t) < time.Minute {
				return nil
			}
			_, err := c.Do("PING")
			return err
		},
	}
}

// NewRedisPersistence checks connectivity and returns the store. A zero ttl
// keeps sessions until deleted.
func NewRedisPersistence(pool *redis.Pool, prefix string, ttl time.Duration, configManager service.ConfigManager) (*RedisPersistence, error) {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}

	conn := pool.Get()
	defer conn.Close()
	if _, err := conn.Do("PING"); err != nil {
		return nil, fmt.Errorf("redis unavailable: %w", err)
	}

	return &RedisPersistence{
		pool:          pool,
		prefix:        prefix,
		ttl:           ttl,
		configManager: configManager,
	}, nil
}

// Save stores the session document and indexes its id
func (rp *RedisPersistence) Save(session *service.Session) error {
	if session == nil {
		return fmt.Errorf("session cannot be nil")
	}

	raw, err := encodeSession(session, configIDFor(rp.configManager, session.Config.Name))
	if err != nil {
		return err
	}

	conn := rp.pool.Get()
	defer conn.Close()

	id := strings.ToLower(session.ID)
	args := redis.Args{}.Add(rp.sessionKey(id), raw)
	if rp.ttl > 0 {
		args = args.Add("EX", int(rp.ttl.Seconds()))
	}

	conn.Send("MULTI")
	conn.Send("SET", args...)
	conn.Send("SADD", rp.indexKey(), id)
	if _, err := conn.Do("EXEC"); err != nil {
		return fmt.Errorf("failed to store session %s: %w", id, err)
	}
	return nil
}

// Load fetches and rebuilds a session
func (rp *RedisPersistence) Load(id string) (*service.Session, error) {
	conn := rp.pool.Get()
	defer conn.Close()

	raw, err := redis.Bytes(conn.Do("GET", rp.sessionKey(strings.ToLower(id))))
	if err != nil {
		if errors.Is(err, redis.ErrNil) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("failed to read session %s: %w", id, err)
	}
	return decodeSession(raw, rp.configManager)
}

// Delete removes the session document and its index entry
func (rp *RedisPersistence) Delete(id string) error {
	conn := rp.pool.Get()
	defer conn.Close()

	id = strings.ToLower(id)
	removed, err := redis.Int(conn.Do("DEL", rp.sessionKey(id)))
	if err != nil {
		return fmt.Errorf("failed to delete session %s: %w", id, err)
	}
	if _, err := conn.Do("SREM", rp.indexKey(), id); err != nil {
		return fmt.Errorf("failed to unindex session %s: %w", id, err)
	}
	if removed == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// ListAll returns the ids of sessions whose documents still exist. Index
// entries whose key expired are pruned on the way.
func (rp *RedisPersistence) ListAll() ([]string, error) {
	conn := rp.pool.Get()
	defer conn.Close()

	ids, err := redis.Strings(conn.Do("SMEMBERS", rp.indexKey()))
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		exists, err := redis.Bool(conn.Do("EXISTS", rp.sessionKey(id)))
		if err != nil {
			return nil, fmt.Errorf("failed to check session %s: %w", id, err)
		}
		if !exists {
			conn.Do("SREM", rp.indexKey(), id)
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

// Exists checks if a session document exists
func (rp *RedisPersistence) Exists(id string) bool {
	conn := rp.pool.Get()
	defer conn.Close()

	exists, err := redis.Bool(conn.Do("EXISTS", rp.sessionKey(strings.ToLower(id))))
	return err == nil && exists
}

func (rp *RedisPersistence) sessionKey(id string) string {
	return rp.prefix + ":session:" + id
}

func (rp *RedisPersistence) indexKey() string {
	return rp.prefix + ":sessions"
}
