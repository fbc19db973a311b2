package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetFromCache(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)
	c.Set("id", "SIG-1", time.Minute)

	v, ok := GetFromCache[string](c, "id")
	assert.True(t, ok)
	assert.Equal(t, "SIG-1", v)

	_, ok = GetFromCache[int](c, "id")
	assert.False(t, ok, "wrong type must miss")

	_, ok = GetFromCache[string](c, "missing")
	assert.False(t, ok)
}

func TestAdd_OnlyFirstWins(t *testing.T) {
	c := NewCache(time.Minute, time.Minute)

	assert.True(t, c.Add("k", "first", time.Minute))
	assert.False(t, c.Add("k", "second", time.Minute))

	v, _ := GetFromCache[string](c, "k")
	assert.Equal(t, "first", v)

	c.Delete("k")
	assert.True(t, c.Add("k", "third", time.Minute))
}
