package auth

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"followcheck/pkg/report"

	"golang.org/x/crypto/pbkdf2"
)

// EnvPassphrase overrides the generated passphrase of the encrypted store
const EnvPassphrase = "FOLLOWCHECK_PASSPHRASE"

const (
	vaultVersion = 2
	saltSize     = 32
	keySize      = 32
	iterations   = 100000
)

// EncryptedFileStore keeps Instagram accounts, including passwords and
// authenticator secrets, in one AES-GCM sealed file. It is the fallback for
// machines without a usable system keychain.
//
// The key is derived with PBKDF2 from FOLLOWCHECK_PASSPHRASE or, when that is
// unset, from a random passphrase kept next to the followcheck config.
type EncryptedFileStore struct {
	filepath   string
	passphrase string
	mu         sync.RWMutex
}

// vaultFile is the on-disk envelope. Only Ciphertext carries account data.
type vaultFile struct {
	Version    int       `json:"version"`
	Salt       string    `json:"salt"`
	Ciphertext string    `json:"encrypted"`
	Modified   time.Time `json:"modified"`
}

// vault maps lower-cased usernames to accounts
type vault map[string]Account

func vaultKey(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

// NewEncryptedFileStore opens the store at filePath, creating its directory
func NewEncryptedFileStore(filePath string) (*EncryptedFileStore, error) {
	if dir := filepath.Dir(filePath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return nil, fmt.Errorf("failed to create directory: %w", err)
		}
	}

	passphrase, err := loadPassphrase()
	if err != nil {
		return nil, fmt.Errorf("failed to get passphrase: %w", err)
	}
	return &EncryptedFileStore{filepath: filePath, passphrase: passphrase}, nil
}

// Store adds or replaces an account
func (e *EncryptedFileStore) Store(account *Account) error {
	if account == nil || account.Username == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(v vault) error {
		v[vaultKey(account.Username)] = *account
		return nil
	})
}

// Retrieve returns the account for username, ignoring letter case
func (e *EncryptedFileStore) Retrieve(username string) (*Account, error) {
	if vaultKey(username) == "" {
		return nil, ErrInvalidCredentials
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.read()
	if err != nil {
		return nil, err
	}
	account, ok := v[vaultKey(username)]
	if !ok {
		return nil, ErrCredentialsNotFound
	}
	return &account, nil
}

// List returns the stored accounts sorted by username
func (e *EncryptedFileStore) List() ([]*Account, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	v, err := e.read()
	if errors.Is(err, ErrCredentialsNotFound) {
		return []*Account{}, nil
	}
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(v))
	for key := range v {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	accounts := make([]*Account, 0, len(keys))
	for _, key := range keys {
		account := v[key]
		accounts = append(accounts, &account)
	}
	return accounts, nil
}

// Delete removes an account. The file goes away with the last account.
func (e *EncryptedFileStore) Delete(username string) error {
	if vaultKey(username) == "" {
		return ErrInvalidCredentials
	}
	return e.update(func(v vault) error {
		key := vaultKey(username)
		if _, ok := v[key]; !ok {
			return ErrCredentialsNotFound
		}
		delete(v, key)
		return nil
	})
}

// Exists reports whether username has stored credentials
func (e *EncryptedFileStore) Exists(username string) bool {
	account, err := e.Retrieve(username)
	return err == nil && account != nil
}

// update applies fn to the decrypted vault and writes the result back
func (e *EncryptedFileStore) update(fn func(v vault) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := e.read()
	if errors.Is(err, ErrCredentialsNotFound) {
		v = vault{}
	} else if err != nil {
		return err
	}

	if err := fn(v); err != nil {
		return err
	}

	if len(v) == 0 {
		if err := os.Remove(e.filepath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("failed to remove credential file: %w", err)
		}
		return nil
	}
	return e.write(v)
}

// read decrypts the vault. A missing file reads as ErrCredentialsNotFound.
func (e *EncryptedFileStore) read() (vault, error) {
	content, err := os.ReadFile(e.filepath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCredentialsNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read credential file: %w", err)
	}

	var file vaultFile
	if err := json.Unmarshal(content, &file); err != nil {
		return nil, fmt.Errorf("failed to parse credential file: %w", err)
	}

	salt, err := base64.StdEncoding.DecodeString(file.Salt)
	if err != nil {
		return nil, fmt.Errorf("failed to decode salt: %w", err)
	}
	sealed, err := base64.StdEncoding.DecodeString(file.Ciphertext)
	if err != nil {
		return nil, fmt.Errorf("failed to decode credentials: %w", err)
	}

	plaintext, err := openSealed(sealed, deriveKey(e.passphrase, salt))
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt credentials (wrong %s?): %w", EnvPassphrase, err)
	}

	v := vault{}
	if err := json.Unmarshal(plaintext, &v); err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}
	return v, nil
}

// write seals the vault under a fresh salt and replaces the file atomically
func (e *EncryptedFileStore) write(v vault) error {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}

	salt := make([]byte, saltSize)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return fmt.Errorf("failed to generate salt: %w", err)
	}

	sealed, err := seal(plaintext, deriveKey(e.passphrase, salt))
	if err != nil {
		return fmt.Errorf("failed to encrypt credentials: %w", err)
	}

	content, err := json.MarshalIndent(vaultFile{
		Version:    vaultVersion,
		Salt:       base64.StdEncoding.EncodeToString(salt),
		Ciphertext: base64.StdEncoding.EncodeToString(sealed),
		Modified:   time.Now().UTC(),
	}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode credential file: %w", err)
	}

	return report.WriteFileAtomic(e.filepath, bytes.NewReader(content), 0600)
}

// loadPassphrase returns FOLLOWCHECK_PASSPHRASE, or the generated passphrase
// stored in the config directory, creating it on first use
func loadPassphrase() (string, error) {
	if pass := os.Getenv(EnvPassphrase); pass != "" {
		return pass, nil
	}

	configDir, err := getConfigDir()
	if err != nil {
		return "", err
	}
	path := filepath.Join(configDir, ".passphrase")

	if content, err := os.ReadFile(path); err == nil && len(bytes.TrimSpace(content)) > 0 {
		return string(bytes.TrimSpace(content)), nil
	}

	b := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, b); err != nil {
		return "", fmt.Errorf("failed to generate passphrase: %w", err)
	}
	passphrase := base64.URLEncoding.EncodeToString(b)

	if err := report.WriteFileAtomic(path, strings.NewReader(passphrase), 0600); err != nil {
		return "", fmt.Errorf("failed to save passphrase: %w", err)
	}
	return passphrase, nil
}

func deriveKey(passphrase string, salt []byte) []byte {
	return pbkdf2.Key([]byte(passphrase), salt, iterations, keySize, sha256.New)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

// seal encrypts plaintext with AES-GCM and prefixes the nonce
func seal(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

// openSealed reverses seal
func openSealed(sealed, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, ciphertext := sealed[:gcm.NonceSize()], sealed[gcm.NonceSize():]
	return gcm.Open(nil, nonce, ciphertext, nil)
}
