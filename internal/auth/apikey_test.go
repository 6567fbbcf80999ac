package auth

import (
	"context"
	"testing"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pepper = []byte("test-pepper")

type failingRepo struct{ err error }

func (f failingRepo) FindByHash(context.Context, string) (*KeyInfo, error) { return nil, f.err }

func TestHashKey(t *testing.T) {
	h := HashKey(pepper, "secret")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashKey(pepper, "secret"))
	assert.NotEqual(t, h, HashKey([]byte("other"), "secret"))
	assert.NotEqual(t, h, HashKey(pepper, "secret2"))
}

func TestAuthenticator(t *testing.T) {
	ctx := context.Background()
	keys := NewStaticKeys([]string{
		"ops:" + HashKey(pepper, "ops-key"),
		HashKey(pepper, "bare-key"),
		"",
	})
	require.Equal(t, 2, keys.Len())

	a := NewAuthenticator(keys, pepper)

	info, err := a.Authenticate(ctx, "ops-key")
	require.NoError(t, err)
	assert.Equal(t, "ops", info.Name)

	info, err = a.Authenticate(ctx, "bare-key")
	require.NoError(t, err)
	assert.Equal(t, "config", info.Name)

	for _, key := range []string{"", "wrong", "OPS-KEY"} {
		_, err := a.Authenticate(ctx, key)
		assert.ErrorIs(t, err, ErrUnauthorized, key)
	}
}

func TestAuthenticator_RepositoryError(t *testing.T) {
	dbErr := errors.New("connection refused")
	a := NewAuthenticator(failingRepo{err: dbErr}, pepper)

	_, err := a.Authenticate(context.Background(), "ops-key")
	require.ErrorIs(t, err, dbErr)
	assert.NotErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticator_CorruptStoredHash(t *testing.T) {
	keys := &StaticKeys{byHash: map[string]KeyInfo{
		HashKey(pepper, "k"): {Name: "bad", KeyHash: "not-hex"},
	}}
	_, err := NewAuthenticator(keys, pepper).Authenticate(context.Background(), "k")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestChain(t *testing.T) {
	ctx := context.Background()
	first := NewStaticKeys([]string{"a:" + HashKey(pepper, "a")})
	second := NewStaticKeys([]string{"b:" + HashKey(pepper, "b")})

	a := NewAuthenticator(Chain{first, second}, pepper)
	info, err := a.Authenticate(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, "b", info.Name)

	_, err = a.Authenticate(ctx, "c")
	assert.ErrorIs(t, err, ErrUnauthorized)

	dbErr := errors.New("timeout")
	_, err = NewAuthenticator(Chain{failingRepo{err: dbErr}, second}, pepper).Authenticate(ctx, "b")
	assert.ErrorIs(t, err, dbErr)
}
