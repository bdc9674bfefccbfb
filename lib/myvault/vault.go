package myvault

import (
	"context"

	"github.com/MarcGrol/menucheckout/lib/mystore"
)

type VaultReader[T any] interface {
	Get(c context.Context, uid string) (T, bool, error)
}

// VaultReadWriter keeps secrets, such as issued credentials, apart from regular domain data.
type VaultReadWriter[T any] interface {
	Get(c context.Context, uid string) (T, bool, error)
	Put(c context.Context, uid string, value T) error
	Delete(c context.Context, uid string) error
}

func New[T any](c context.Context) (VaultReadWriter[T], func(), error) {
	return mystore.New[T](c)
}
