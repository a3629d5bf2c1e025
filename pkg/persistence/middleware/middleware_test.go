package middleware_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/surveyflow/pkg/adapters/memory"
	"github.com/aretw0/surveyflow/pkg/domain"
	"github.com/aretw0/surveyflow/pkg/persistence/middleware"
)

var (
	keyA = []byte("01234567890123456789012345678901")
	keyB = []byte("abcdefghijabcdefghijabcdefghijab")
)

func sample() *domain.State {
	s := domain.NewState("s1", "p1", "q1")
	s.SurveyID = "intake"
	s.Answers["name"] = "Ana"
	s.Answers["tax_id"] = "123-45"
	s.Answers["phone_number"] = "555"
	return s
}

func TestPIIMiddleware_Masking(t *testing.T) {
	backing := memory.NewStore()
	pii, err := middleware.NewPIIMiddleware([]string{"tax", "phone"})
	require.NoError(t, err)
	store := pii(backing)
	ctx := context.Background()

	state := sample()
	require.NoError(t, store.Save(ctx, "s1", state))
	assert.Equal(t, "123-45", state.Answers["tax_id"], "caller's state must not change")

	stored, err := backing.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, stored.Answers["tax_id"])
	assert.Equal(t, middleware.Mask, stored.Answers["phone_number"])
	assert.Equal(t, "Ana", stored.Answers["name"])

	_, err = middleware.NewPIIMiddleware([]string{"("})
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RoundTrip(t *testing.T) {
	backing := memory.NewStore()
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: keyA})
	require.NoError(t, err)
	store := enc(backing)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "s1", sample()))

	raw, err := backing.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "intake", raw.SurveyID)
	assert.Empty(t, raw.CurrentBlockID)
	assert.NotContains(t, raw.Answers, "name")

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "q1", loaded.CurrentBlockID)
	assert.Equal(t, "Ana", loaded.Answers["name"])

	ids, err := store.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"s1"}, ids)
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()

	old, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: keyA})
	require.NoError(t, err)
	require.NoError(t, old(backing).Save(ctx, "s1", sample()))

	rotated, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    keyB,
		FallbackKeys: [][]byte{keyA},
	})
	require.NoError(t, err)
	loaded, err := rotated(backing).Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "Ana", loaded.Answers["name"])

	wrong, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: keyB})
	require.NoError(t, err)
	_, err = wrong(backing).Load(ctx, "s1")
	assert.Error(t, err)
}

func TestEncryptionMiddleware_RejectsPlainState(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()
	require.NoError(t, backing.Save(ctx, "s1", sample()))

	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: keyA})
	require.NoError(t, err)
	_, err = enc(backing).Load(ctx, "s1")
	assert.Error(t, err)

	_, err = middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short")})
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}

func TestChain_MasksBeforeSealing(t *testing.T) {
	backing := memory.NewStore()
	ctx := context.Background()
	pii, err := middleware.NewPIIMiddleware([]string{"tax"})
	require.NoError(t, err)
	enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: keyA})
	require.NoError(t, err)

	store := middleware.Chain(backing, pii, enc)
	require.NoError(t, store.Save(ctx, "s1", sample()))

	loaded, err := store.Load(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, middleware.Mask, loaded.Answers["tax_id"])
	assert.Equal(t, "Ana", loaded.Answers["name"])
}

func TestDecodeKey(t *testing.T) {
	key, err := middleware.DecodeKey(string(keyA))
	require.NoError(t, err)
	assert.Equal(t, keyA, key)

	key, err = middleware.DecodeKey("MDEyMzQ1Njc4OTAxMjM0NTY3ODkwMTIzNDU2Nzg5MDE=")
	require.NoError(t, err)
	assert.Equal(t, keyA, key)

	_, err = middleware.DecodeKey("nope")
	assert.ErrorIs(t, err, middleware.ErrKeySize)
}
