package mystore

import (
	"context"
	"os"
	"time"
)

type ctxTransactionKey struct{}

type Filter struct {
	Field   string
	Compare string
	Value   any
}

//go:generate mockgen -source=api.go -package mystore -destination store_mock.go Store
type Store[T any] interface {
	RunInTransaction(c context.Context, f func(c context.Context) error) error
	Put(c context.Context, uid string, value T) error
	Get(c context.Context, uid string) (T, bool, error)
	Delete(c context.Context, uid string) error
	List(c context.Context) ([]T, error)
	Query(c context.Context, filters []Filter, orderByField string) ([]T, error)
}

type options struct {
	expiry time.Duration
}

type Option func(o *options)

// WithExpiry lets backends that support it drop entities that were not written for d.
func WithExpiry(d time.Duration) Option {
	return func(o *options) {
		o.expiry = d
	}
}

func New[T any](c context.Context, opts ...Option) (Store[T], func(), error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}

	if os.Getenv("GOOGLE_CLOUD_PROJECT") != "" {
		return newGcloudStore[T](c)
	}

	if os.Getenv("REDIS_ADDR") != "" {
		return newRedisStore[T](c, os.Getenv("REDIS_ADDR"), o.expiry)
	}

	return NewInMemoryStore[T](c)
}
