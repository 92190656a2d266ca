// Package store persists per-tenant connector settings in Redis as JSON
// blobs keyed by project id. A settings record exists if and only if the
// tenant completed the connect flow; a missing record means the integration
// is not configured, which callers treat as a terminal non-error condition.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "telegram-"

// ErrNotFound reports that no settings exist for a tenant.
var ErrNotFound = errors.New("settings not found")

// Settings is one tenant's connector configuration. JSON field names match
// the records written by earlier deployments and must not change.
type Settings struct {
	ProjectID       string `json:"project_id"`
	Token           string `json:"token"`
	TelegramToken   string `json:"telegram_token"`
	BotName         string `json:"bot_name"`
	SubscriptionID  string `json:"subscriptionId"`
	Secret          string `json:"secret"`
	DepartmentID    string `json:"department_id"`
	ShowInfoMessage bool   `json:"show_info_message"`
	Expired         bool   `json:"expired"`
	AppVersion      string `json:"app_version,omitempty"`
}

// Store is the async KV mapping the connector core depends on. There are no
// transactional guarantees; concurrent writers to the same tenant race and
// the last writer wins.
type Store interface {
	Get(ctx context.Context, projectID string) (*Settings, error)
	Set(ctx context.Context, projectID string, settings *Settings) error
	Remove(ctx context.Context, projectID string) error
}

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func settingsKey(projectID string) string {
	return keyPrefix + projectID
}

func (s *RedisStore) Get(ctx context.Context, projectID string) (*Settings, error) {
	data, err := s.rdb.Get(ctx, settingsKey(projectID)).Bytes()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}

	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	return &settings, nil
}

func (s *RedisStore) Set(ctx context.Context, projectID string, settings *Settings) error {
	data, err := json.Marshal(settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := s.rdb.Set(ctx, settingsKey(projectID), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

func (s *RedisStore) Remove(ctx context.Context, projectID string) error {
	if err := s.rdb.Del(ctx, settingsKey(projectID)).Err(); err != nil {
		return fmt.Errorf("failed to delete settings: %w", err)
	}
	return nil
}
