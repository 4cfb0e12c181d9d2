package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-redis/redis/v8"
)

// SessionEntries is everything the session owner persists. Token and User
// are always written and cleared together.
type SessionEntries struct {
	Token       string `json:"token,omitempty"`
	User        string `json:"user,omitempty"`
	Preferences string `json:"preferences,omitempty"`
}

type SessionStore interface {
	LoadSession(ctx context.Context) (SessionEntries, error)
	SaveSession(ctx context.Context, entries SessionEntries) error
}

// FileSessionStore keeps the session in a single JSON file.
type FileSessionStore struct {
	path string
}

func NewFileSessionStore(path string) *FileSessionStore {
	return &FileSessionStore{path: path}
}

func (s *FileSessionStore) LoadSession(_ context.Context) (SessionEntries, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return SessionEntries{}, nil
	}
	if err != nil {
		return SessionEntries{}, fmt.Errorf("failed to read session file: %w", err)
	}
	var entries SessionEntries
	if err := json.Unmarshal(data, &entries); err != nil {
		return SessionEntries{}, fmt.Errorf("failed to decode session file: %w", err)
	}
	return entries, nil
}

// SaveSession replaces the file through a rename so readers never see a
// partially written session.
func (s *FileSessionStore) SaveSession(_ context.Context, entries SessionEntries) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create session dir: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace session file: %w", err)
	}
	return nil
}

// RedisSessionStore keeps the session as one hash so a deployment with
// several BFF replicas shares a single login.
type RedisSessionStore struct {
	client *redis.Client
	key    string
}

func NewRedisSessionStore(client *redis.Client, key string) *RedisSessionStore {
	return &RedisSessionStore{client: client, key: key}
}

func (s *RedisSessionStore) LoadSession(ctx context.Context) (SessionEntries, error) {
	fields, err := s.client.HGetAll(ctx, s.key).Result()
	if err != nil {
		return SessionEntries{}, fmt.Errorf("failed to load session from redis: %w", err)
	}
	return SessionEntries{
		Token:       fields["token"],
		User:        fields["user"],
		Preferences: fields["preferences"],
	}, nil
}

func (s *RedisSessionStore) SaveSession(ctx context.Context, entries SessionEntries) error {
	values := make(map[string]interface{}, 3)
	if entries.Token != "" {
		values["token"] = entries.Token
	}
	if entries.User != "" {
		values["user"] = entries.User
	}
	if entries.Preferences != "" {
		values["preferences"] = entries.Preferences
	}

	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(values) > 0 {
			pipe.HSet(ctx, s.key, values)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to save session to redis: %w", err)
	}
	return nil
}
