package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zalando/go-keyring"
	"golang.org/x/crypto/pbkdf2"

	"orderpulse/internal/common"
)

const (
	// Keyring service name
	keyringService = "orderpulse"
	// Key under which the warehouse password is stored
	passwordKey = "warehouse-password"
	// Salt for key derivation
	saltSize = 32
	// Number of iterations for PBKDF2
	pbkdf2Iterations = 100000
	// Key size for AES-256
	keySize = 32
)

// CredentialManager stores the warehouse password in the OS keyring, with
// an AES-encrypted file fallback for hosts without one.
type CredentialManager struct {
	useKeyring bool
	masterKey  []byte
	storeDir   string
}

// NewCredentialManager creates a credential manager rooted at dir (usually
// the config directory).
func NewCredentialManager(dir string) (*CredentialManager, error) {
	cm := &CredentialManager{
		useKeyring: isKeyringAvailable(),
		storeDir:   dir,
	}

	if !cm.useKeyring {
		key, err := cm.loadMasterKey()
		if err != nil {
			return nil, fmt.Errorf("failed to initialize master key: %w", err)
		}
		cm.masterKey = key
	}

	return cm, nil
}

// StorePassword securely stores the warehouse password.
func (cm *CredentialManager) StorePassword(value string) error {
	if cm.useKeyring {
		if err := keyring.Set(keyringService, passwordKey, value); err != nil {
			return fmt.Errorf("failed to store in keyring: %w", err)
		}
		return nil
	}
	return cm.storeEncrypted(value)
}

// GetPassword retrieves the stored warehouse password.
func (cm *CredentialManager) GetPassword() (string, error) {
	if cm.useKeyring {
		value, err := keyring.Get(keyringService, passwordKey)
		if err != nil {
			return "", fmt.Errorf("failed to get from keyring: %w", err)
		}
		return value, nil
	}
	return cm.getEncrypted()
}

// DeletePassword removes the stored warehouse password.
func (cm *CredentialManager) DeletePassword() error {
	if cm.useKeyring {
		return keyring.Delete(keyringService, passwordKey)
	}
	return os.Remove(cm.credentialPath())
}

// Encrypted file storage

func (cm *CredentialManager) storeEncrypted(value string) error {
	encrypted, err := cm.encrypt(value)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}

	if err := os.MkdirAll(cm.storeDir, 0700); err != nil {
		return fmt.Errorf("failed to create credential directory: %w", err)
	}

	return os.WriteFile(cm.credentialPath(), []byte(encrypted), 0600)
}

func (cm *CredentialManager) getEncrypted() (string, error) {
	path, err := common.CleanPath(cm.credentialPath())
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path) // #nosec G304 - path is validated
	if err != nil {
		return "", fmt.Errorf("failed to read credential file: %w", err)
	}

	return cm.decrypt(string(data))
}

// Encryption methods

func (cm *CredentialManager) encrypt(plaintext string) (string, error) {
	block, err := aes.NewCipher(cm.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", err
	}

	ciphertext := gcm.Seal(nonce, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(ciphertext), nil
}

func (cm *CredentialManager) decrypt(ciphertext string) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", err
	}

	block, err := aes.NewCipher(cm.masterKey)
	if err != nil {
		return "", err
	}

	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonceSize := gcm.NonceSize()
	if len(data) < nonceSize {
		return "", fmt.Errorf("ciphertext too short")
	}

	nonce, encryptedData := data[:nonceSize], data[nonceSize:]
	plaintext, err := gcm.Open(nil, nonce, encryptedData, nil)
	if err != nil {
		return "", err
	}

	return string(plaintext), nil
}

// Master key handling

func (cm *CredentialManager) loadMasterKey() ([]byte, error) {
	keyPath := filepath.Join(cm.storeDir, ".master")

	if data, err := os.ReadFile(keyPath); err == nil { // #nosec G304 - fixed path under store dir
		if len(data) >= saltSize {
			salt := data[:saltSize]
			return deriveKey(hostSecret(), salt), nil
		}
	}

	// First use: generate a fresh salt
	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cm.storeDir, 0700); err != nil {
		return nil, err
	}
	if err := os.WriteFile(keyPath, salt, 0600); err != nil {
		return nil, err
	}

	return deriveKey(hostSecret(), salt), nil
}

// hostSecret derives a per-host passphrase. Weaker than a real keyring,
// which is why the keyring is preferred when available.
func hostSecret() string {
	hostname, _ := os.Hostname()
	home, _ := os.UserHomeDir()
	return fmt.Sprintf("orderpulse:%s:%s", hostname, home)
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, pbkdf2Iterations, keySize, sha256.New)
}

func (cm *CredentialManager) credentialPath() string {
	return filepath.Join(cm.storeDir, passwordKey+".cred")
}

// isKeyringAvailable probes the OS keyring with a throwaway entry.
func isKeyringAvailable() bool {
	const probe = "orderpulse-keyring-probe"
	if err := keyring.Set(keyringService, probe, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(keyringService, probe)
	return true
}
