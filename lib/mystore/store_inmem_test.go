package mystore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type Person struct {
	UID       string
	Name      string
	Age       int
	CreatedAt time.Time
}

var (
	person  = Person{UID: "123", Name: "Marc", Age: 42, CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)}
	person2 = Person{UID: "456", Name: "Eva", Age: 42, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
)

func TestStore(t *testing.T) {
	c := context.TODO()
	ps, cleanup, err := NewInMemoryStore[Person](c)
	assert.NoError(t, err)
	defer cleanup()

	t.Run("Get not found", func(t *testing.T) {
		_, found, err := ps.Get(c, person.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Put", func(t *testing.T) {
		err = ps.Put(c, person.UID, person)
		assert.NoError(t, err)
	})

	t.Run("Get found", func(t *testing.T) {
		p, found, err := ps.Get(c, person.UID)
		assert.NoError(t, err)
		assert.True(t, found)
		assert.Equal(t, person, p)
	})

	t.Run("List", func(t *testing.T) {
		all, err := ps.List(c)
		assert.NoError(t, err)
		assert.Equal(t, []Person{person}, all)
	})

	t.Run("Query with filter and order", func(t *testing.T) {
		err = ps.Put(c, person2.UID, person2)
		assert.NoError(t, err)

		all, err := ps.Query(c, []Filter{{Field: "Age", Compare: "=", Value: 42}}, "CreatedAt")
		assert.NoError(t, err)
		assert.Equal(t, []Person{person2, person}, all)

		none, err := ps.Query(c, []Filter{{Field: "Name", Compare: "=", Value: "Dave"}}, "")
		assert.NoError(t, err)
		assert.Empty(t, none)
	})

	t.Run("Delete", func(t *testing.T) {
		err := ps.Delete(c, person.UID)
		assert.NoError(t, err)

		_, found, err := ps.Get(c, person.UID)
		assert.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("Transaction", func(t *testing.T) {
		err := ps.RunInTransaction(c, func(c context.Context) error {
			p, found, err := ps.Get(c, person2.UID)
			if err != nil || !found {
				return err
			}
			p.Age++
			return ps.Put(c, p.UID, p)
		})
		assert.NoError(t, err)

		p, _, _ := ps.Get(c, person2.UID)
		assert.Equal(t, 43, p.Age)
	})
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, "Person", kindOf[Person]())
	assert.Equal(t, "Filter", kindOf[Filter]())
}
