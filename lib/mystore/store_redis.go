package mystore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisStore[T any] struct {
	client *redis.Client
	prefix string
	expiry time.Duration
}

func newRedisStore[T any](c context.Context, addr string, expiry time.Duration) (*redisStore[T], func(), error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
	})
	err := client.Ping(c).Err()
	if err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("error connecting to redis at %s: %s", addr, err)
	}

	return &redisStore[T]{
			client: client,
			prefix: kindOf[T]() + ":",
			expiry: expiry,
		}, func() {
			client.Close()
		}, nil
}

// RunInTransaction offers no isolation: redis writes are last-write-wins per key.
func (s *redisStore[T]) RunInTransaction(c context.Context, f func(c context.Context) error) error {
	ctx := context.WithValue(c, ctxTransactionKey{}, true)
	return f(ctx)
}

func (s *redisStore[T]) key(uid string) string {
	return s.prefix + uid
}

func (s *redisStore[T]) Put(c context.Context, uid string, value T) error {
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("error marshalling entity %s with uid %s: %s", s.prefix, uid, err)
	}

	// expiry of 0 means: keep forever
	err = s.client.Set(c, s.key(uid), data, s.expiry).Err()
	if err != nil {
		return fmt.Errorf("error storing entity %s with uid %s: %s", s.prefix, uid, err)
	}
	return nil
}

func (s *redisStore[T]) Get(c context.Context, uid string) (T, bool, error) {
	var value T

	data, err := s.client.Get(c, s.key(uid)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return value, false, nil
		}
		return value, false, fmt.Errorf("error fetching entity %s with uid %s: %s", s.prefix, uid, err)
	}

	err = json.Unmarshal(data, &value)
	if err != nil {
		return value, false, fmt.Errorf("error unmarshalling entity %s with uid %s: %s", s.prefix, uid, err)
	}
	return value, true, nil
}

func (s *redisStore[T]) Delete(c context.Context, uid string) error {
	err := s.client.Del(c, s.key(uid)).Err()
	if err != nil {
		return fmt.Errorf("error deleting entity %s with uid %s: %s", s.prefix, uid, err)
	}
	return nil
}

func (s *redisStore[T]) List(c context.Context) ([]T, error) {
	result := []T{}

	iter := s.client.Scan(c, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(c) {
		data, err := s.client.Get(c, iter.Val()).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				// expired in between
				continue
			}
			return nil, fmt.Errorf("error fetching entity %s: %s", iter.Val(), err)
		}
		var value T
		err = json.Unmarshal(data, &value)
		if err != nil {
			return nil, fmt.Errorf("error unmarshalling entity %s: %s", iter.Val(), err)
		}
		result = append(result, value)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("error scanning entities %s: %s", s.prefix, err)
	}

	return result, nil
}

func (s *redisStore[T]) Query(c context.Context, filters []Filter, orderByField string) ([]T, error) {
	all, err := s.List(c)
	if err != nil {
		return nil, err
	}
	return applyQuery(all, filters, orderByField), nil
}
