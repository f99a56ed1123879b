package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shyabid/rolevia/internal/app"
)

// AuthoringRegistry wraps the in-memory registry with best-effort liveness
// keys in Redis. Sessions themselves stay in-process; the keys mark which
// wizard instances are live across the deployment.
type AuthoringRegistry struct {
	inner  app.AuthoringRegistry
	client *redis.Client
	ttl    time.Duration
}

func NewAuthoringRegistry(inner app.AuthoringRegistry, client *redis.Client, ttl time.Duration) *AuthoringRegistry {
	return &AuthoringRegistry{inner: inner, client: client, ttl: ttl}
}

func (r *AuthoringRegistry) Put(s *app.AuthoringSession) {
	r.inner.Put(s)
	_ = r.client.Set(context.Background(), authoringKey(s.ID()), "1", r.ttl).Err()
}

func (r *AuthoringRegistry) Get(id string) (*app.AuthoringSession, bool) {
	return r.inner.Get(id)
}

func (r *AuthoringRegistry) Delete(id string) {
	r.inner.Delete(id)
	_ = r.client.Del(context.Background(), authoringKey(id)).Err()
}

// TakingRegistry mirrors AuthoringRegistry for quiz runs.
type TakingRegistry struct {
	inner  app.TakingRegistry
	client *redis.Client
	ttl    time.Duration
}

func NewTakingRegistry(inner app.TakingRegistry, client *redis.Client, ttl time.Duration) *TakingRegistry {
	return &TakingRegistry{inner: inner, client: client, ttl: ttl}
}

func (r *TakingRegistry) Put(s *app.TakingSession) {
	r.inner.Put(s)
	_ = r.client.Set(context.Background(), takingKey(s.ID()), "1", r.ttl).Err()
}

func (r *TakingRegistry) Get(id string) (*app.TakingSession, bool) {
	return r.inner.Get(id)
}

func (r *TakingRegistry) Delete(id string) {
	r.inner.Delete(id)
	_ = r.client.Del(context.Background(), takingKey(id)).Err()
}

func authoringKey(id string) string { return "quiz:authoring:" + id }
func takingKey(id string) string    { return "quiz:taking:" + id }
