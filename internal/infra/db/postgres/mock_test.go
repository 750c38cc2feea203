//go:build !integration

package postgres

import (
	"context"
	"time"

	"code-redemption/internal/domain/model"
	"code-redemption/internal/domain/ports/repository"
	red "code-redemption/internal/infra/redis"
)

// --- Mocks for Cache Decorator Tests ---

// mockInnerCardRepo mocks the database repository that the card decorator wraps.
type mockInnerCardRepo struct {
	SaveFunc     func(ctx context.Context, tx repository.Tx, c *model.Card) error
	DeleteFunc   func(ctx context.Context, tx repository.Tx, id string) error
	FindByIDFunc func(ctx context.Context, tx repository.Tx, id string) (*model.Card, error)
	ListFunc     func(ctx context.Context, tx repository.Tx, includeInactive bool, channelID *string) ([]*model.Card, error)
}

func (m *mockInnerCardRepo) Save(ctx context.Context, tx repository.Tx, c *model.Card) error {
	return m.SaveFunc(ctx, tx, c)
}
func (m *mockInnerCardRepo) Delete(ctx context.Context, tx repository.Tx, id string) error {
	return m.DeleteFunc(ctx, tx, id)
}
func (m *mockInnerCardRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Card, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerCardRepo) List(ctx context.Context, tx repository.Tx, includeInactive bool, channelID *string) ([]*model.Card, error) {
	return m.ListFunc(ctx, tx, includeInactive, channelID)
}

// mockRedisClient mocks our Redis client wrapper.
type mockRedisClient struct {
	GetFunc    func(ctx context.Context, key string) (string, error)
	SetFunc    func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc    func(ctx context.Context, keys ...string) error
	PingFunc   func(ctx context.Context) error
	IncrFunc   func(ctx context.Context, key string) (int64, error)
	ExpireFunc func(ctx context.Context, key string, expiration time.Duration) error
	CloseFunc  func() error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return m.PingFunc(ctx) }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return m.IncrFunc(ctx, key)
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return m.ExpireFunc(ctx, key, expiration)
}
func (m *mockRedisClient) Close() error { return m.CloseFunc() }
