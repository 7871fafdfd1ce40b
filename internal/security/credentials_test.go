package security

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFileManager(t *testing.T) *CredentialManager {
	t.Helper()
	dir := t.TempDir()

	cm := &CredentialManager{
		useKeyring: false,
		storeDir:   dir,
	}
	key, err := cm.loadMasterKey()
	require.NoError(t, err)
	cm.masterKey = key
	return cm
}

func TestEncryptDecryptRoundtrip(t *testing.T) {
	cm := newFileManager(t)

	tests := []struct {
		name  string
		value string
	}{
		{name: "simple password", value: "hunter2"},
		{name: "empty string", value: ""},
		{name: "unicode", value: "p@sswörd-秘密"},
		{name: "long value", value: string(make([]byte, 4096))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := cm.encrypt(tt.value)
			require.NoError(t, err)
			assert.NotEqual(t, tt.value, encrypted)

			decrypted, err := cm.decrypt(encrypted)
			require.NoError(t, err)
			assert.Equal(t, tt.value, decrypted)
		})
	}
}

func TestDecryptRejectsTamperedCiphertext(t *testing.T) {
	cm := newFileManager(t)

	encrypted, err := cm.encrypt("secret")
	require.NoError(t, err)

	_, err = cm.decrypt(encrypted[:len(encrypted)-4] + "AAAA")
	assert.Error(t, err)
}

func TestDecryptRejectsShortInput(t *testing.T) {
	cm := newFileManager(t)

	_, err := cm.decrypt("c2hvcnQ=")
	assert.Error(t, err)
}

func TestFileStoreRoundtrip(t *testing.T) {
	cm := newFileManager(t)

	require.NoError(t, cm.StorePassword("warehouse-secret"))

	// Stored file must not contain the plaintext
	data, err := os.ReadFile(cm.credentialPath())
	require.NoError(t, err)
	assert.NotContains(t, string(data), "warehouse-secret")

	got, err := cm.GetPassword()
	require.NoError(t, err)
	assert.Equal(t, "warehouse-secret", got)
}

func TestDeletePassword(t *testing.T) {
	cm := newFileManager(t)

	require.NoError(t, cm.StorePassword("to-delete"))
	require.NoError(t, cm.DeletePassword())

	_, err := cm.GetPassword()
	assert.Error(t, err)

	_, statErr := os.Stat(cm.credentialPath())
	assert.True(t, os.IsNotExist(statErr))
}

func TestMasterKeyIsStableAcrossManagers(t *testing.T) {
	dir := t.TempDir()

	first := &CredentialManager{storeDir: dir}
	key1, err := first.loadMasterKey()
	require.NoError(t, err)

	second := &CredentialManager{storeDir: dir}
	key2, err := second.loadMasterKey()
	require.NoError(t, err)

	assert.Equal(t, key1, key2)

	// The salt file should carry restrictive permissions
	info, err := os.Stat(filepath.Join(dir, ".master"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}
