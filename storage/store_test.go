package storage

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSQLiteKVRoundTrip(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	kv, err := NewSQLiteKV(dbPath, DeriveKey("test-passphrase"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("k", []byte(`[{"id":"a"}]`)))

	got, err := kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte(`[{"id":"a"}]`), got)

	// Overwrite
	require.NoError(t, kv.Set("k", []byte("v2")))
	got, err = kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), got)
}

func TestSQLiteKVMissingKey(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	kv, err := NewSQLiteKV(dbPath, DeriveKey("test-passphrase"))
	require.NoError(t, err)
	defer kv.Close()

	got, err := kv.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSQLiteKVDelete(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	kv, err := NewSQLiteKV(dbPath, DeriveKey("test-passphrase"))
	require.NoError(t, err)
	defer kv.Close()

	require.NoError(t, kv.Set("k", []byte("v")))
	require.NoError(t, kv.Delete("k"))

	got, err := kv.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)

	// Deleting a missing key is fine.
	require.NoError(t, kv.Delete("k"))
}

func TestSQLiteKVValuesAreEncryptedAtRest(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	kv, err := NewSQLiteKV(dbPath, DeriveKey("key-one"))
	require.NoError(t, err)
	require.NoError(t, kv.Set("k", []byte("secret")))
	require.NoError(t, kv.Close())

	// Reopening with a different key must not decrypt.
	other, err := NewSQLiteKV(dbPath, DeriveKey("key-two"))
	require.NoError(t, err)
	defer other.Close()

	_, err = other.Get("k")
	assert.Error(t, err)
}

func TestEncryptDecrypt(t *testing.T) {
	key := DeriveKey("passphrase")

	encrypted, err := Encrypt([]byte("plaintext"), key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "plaintext")

	decrypted, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("plaintext"), decrypted)
}

func TestDecryptRejectsTamperedData(t *testing.T) {
	key := DeriveKey("passphrase")
	_, err := Decrypt("bm90IHJlYWwgY2lwaGVydGV4dCBhdCBhbGwh", key)
	assert.Error(t, err)
}

func TestMemoryKV(t *testing.T) {
	kv := NewMemoryKV()

	got, err := kv.Get("missing")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, kv.Set("k", []byte("v")))
	got, err = kv.Get("k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, kv.Delete("k"))
	got, err = kv.Get("k")
	require.NoError(t, err)
	assert.Nil(t, got)
}
