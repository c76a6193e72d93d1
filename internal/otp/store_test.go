package otp

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewStore(client, 5*time.Minute, 3), mr
}

func TestGenerateCode(t *testing.T) {
	code, err := GenerateCode()
	require.NoError(t, err)
	assert.Len(t, code, 6)
	assert.Regexp(t, `^[0-9]{6}$`, code)
}

func TestStoreVerify(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Put(ctx, "user@example.com", "123456"))
	require.NoError(t, store.Verify(ctx, "user@example.com", "123456"))

	// код одноразовый
	err := store.Verify(ctx, "user@example.com", "123456")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestStoreVerifyMismatch(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Put(ctx, "user@example.com", "123456"))

	err := store.Verify(ctx, "user@example.com", "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)

	// верный код после неудачной попытки все еще принимается
	assert.NoError(t, store.Verify(ctx, "user@example.com", "123456"))
}

func TestStoreVerifyAttemptLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Put(ctx, "user@example.com", "123456"))

	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "000000"), ErrCodeMismatch)
	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "111111"), ErrCodeMismatch)
	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "222222"), ErrTooManyAttempts)

	// билет удален, даже верный код больше не принимается
	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "123456"), ErrCodeExpired)
}

func TestStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	require.NoError(t, store.Put(ctx, "user@example.com", "123456"))

	mr.FastForward(6 * time.Minute)

	err := store.Verify(ctx, "user@example.com", "123456")
	assert.ErrorIs(t, err, ErrCodeExpired)
}

func TestStorePutResets(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	require.NoError(t, store.Put(ctx, "user@example.com", "123456"))
	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "000000"), ErrCodeMismatch)
	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "000000"), ErrCodeMismatch)

	// новый код сбрасывает счетчик попыток
	require.NoError(t, store.Put(ctx, "user@example.com", "654321"))
	assert.ErrorIs(t, store.Verify(ctx, "user@example.com", "000000"), ErrCodeMismatch)
	assert.NoError(t, store.Verify(ctx, "user@example.com", "654321"))
}
