package storage

import (
	"context"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenFrom(t *testing.T, signed string) string {
	t.Helper()
	u, err := url.Parse(signed)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestLocalStorageRoundTrip(t *testing.T) {
	ctx := context.Background()
	signer := NewURLSigner("secret", "https://shop.example.com/")
	s, err := NewLocalStorage(t.TempDir(), signer)
	require.NoError(t, err)

	key := AgreementKey(uuid.New(), uuid.New())
	got, err := s.Upload(ctx, []byte("%PDF-1.3 test"), key)
	require.NoError(t, err)
	assert.Equal(t, key, got)

	ok, err := s.Exists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)

	data, err := s.Read(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.3 test", string(data))

	signed, err := s.SignedURL(ctx, key, time.Minute)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(signed, "https://shop.example.com/api/files?token="))

	resolved, err := signer.Verify(tokenFrom(t, signed))
	require.NoError(t, err)
	assert.Equal(t, key, resolved)

	require.NoError(t, s.Delete(ctx, key))
	ok, err = s.Exists(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = s.Read(ctx, key)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, s.Delete(ctx, key), "deleting a missing object is not an error")
}

func TestStorageRejectsTraversal(t *testing.T) {
	ctx := context.Background()
	signer := NewURLSigner("secret", "http://localhost")
	local, err := NewLocalStorage(t.TempDir(), signer)
	require.NoError(t, err)
	mem := NewMemoryStorage(signer)

	for _, s := range []Storage{local, mem} {
		for _, key := range []string{"../escape.pdf", "/etc/passwd", "a/../../b", "", "a//b"} {
			_, err := s.Upload(ctx, []byte("x"), key)
			assert.ErrorIs(t, err, ErrInvalidKey, "key %q", key)
		}
	}
}

func TestStorageHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewMemoryStorage(NewURLSigner("secret", "http://localhost"))
	_, err := s.Upload(ctx, []byte("x"), "a.pdf")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, s.Len())
}

func TestURLSignerExpiry(t *testing.T) {
	signer := NewURLSigner("secret", "http://localhost")
	base := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	signer.now = func() time.Time { return base }

	signed, err := signer.Sign("agreements/a.pdf", 15*time.Minute)
	require.NoError(t, err)
	token := tokenFrom(t, signed)

	signer.now = func() time.Time { return base.Add(10 * time.Minute) }
	key, err := signer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "agreements/a.pdf", key)

	signer.now = func() time.Time { return base.Add(16 * time.Minute) }
	_, err = signer.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestURLSignerRejectsForeignSecret(t *testing.T) {
	a := NewURLSigner("secret-a", "http://localhost")
	b := NewURLSigner("secret-b", "http://localhost")

	signed, err := a.Sign("agreements/a.pdf", time.Minute)
	require.NoError(t, err)

	_, err = b.Verify(tokenFrom(t, signed))
	assert.ErrorIs(t, err, ErrInvalidSignature)
}
