package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/Jame-iro/agrolink-backend/internal/model"
)

const productCacheTTL = 30 * time.Second

// CachedProducts is a cache-aside decorator over a Products store: single
// product reads go through redis with a short TTL, every write path deletes
// the cached entry before delegating. Stock correctness never depends on the
// cache; Reserve and Restore always hit the backing store.
type CachedProducts struct {
	next   Products
	client *redis.Client
	log    *zap.Logger
}

func NewCachedProducts(next Products, client *redis.Client, log *zap.Logger) *CachedProducts {
	return &CachedProducts{next: next, client: client, log: log}
}

func productKey(id primitive.ObjectID) string { return "product:" + id.Hex() }

func (s *CachedProducts) ByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	val, err := s.client.Get(ctx, productKey(id)).Result()
	if err == nil {
		var p model.Product
		if jsonErr := json.Unmarshal([]byte(val), &p); jsonErr == nil {
			return &p, nil
		}
		// Undecodable entry; drop it and fall through.
		s.client.Del(ctx, productKey(id))
	} else if err != redis.Nil {
		s.log.Warn("product cache read failed", zap.Error(err))
	}

	p, err := s.next.ByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if payload, jsonErr := json.Marshal(p); jsonErr == nil {
		if setErr := s.client.Set(ctx, productKey(id), payload, productCacheTTL).Err(); setErr != nil {
			s.log.Warn("product cache write failed", zap.Error(setErr))
		}
	}
	return p, nil
}

func (s *CachedProducts) invalidate(ctx context.Context, id primitive.ObjectID) {
	if err := s.client.Del(ctx, productKey(id)).Err(); err != nil {
		s.log.Warn("product cache invalidation failed", zap.String("id", id.Hex()), zap.Error(err))
	}
}

func (s *CachedProducts) Create(ctx context.Context, p *model.Product) error {
	return s.next.Create(ctx, p)
}

func (s *CachedProducts) Update(ctx context.Context, id primitive.ObjectID, patch ProductPatch) (*model.Product, error) {
	p, err := s.next.Update(ctx, id, patch)
	s.invalidate(ctx, id)
	return p, err
}

func (s *CachedProducts) Delete(ctx context.Context, id primitive.ObjectID) error {
	err := s.next.Delete(ctx, id)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedProducts) List(ctx context.Context, f ProductFilter) ([]model.Product, error) {
	return s.next.List(ctx, f)
}

func (s *CachedProducts) Reserve(ctx context.Context, id primitive.ObjectID, qty int) error {
	err := s.next.Reserve(ctx, id, qty)
	s.invalidate(ctx, id)
	return err
}

func (s *CachedProducts) Restore(ctx context.Context, id primitive.ObjectID, qty int) (bool, error) {
	ok, err := s.next.Restore(ctx, id, qty)
	s.invalidate(ctx, id)
	return ok, err
}
