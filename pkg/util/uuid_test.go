package util

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashUUID(t *testing.T) {
	a := HashUUID(map[string]int{"w": 3, "h": 2})
	b := HashUUID(map[string]int{"h": 2, "w": 3})
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, HashUUID(map[string]int{"w": 2, "h": 3}))

	id, err := uuid.Parse(a)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(5), id.Version())

	assert.Empty(t, HashUUID(func() {}))
}
