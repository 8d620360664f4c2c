package keystore

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/crypto/argon2"

	"github.com/petal-labs/anthropic/core"
)

// File layout: [magic (4)] [version (1)] [salt (16)] [nonce (12)] [ciphertext].
// The header is authenticated as additional data.
const (
	magicHeader   = "ANTK"
	formatVersion = byte(0x01)
	saltLength    = 16
	nonceLength   = 12
	headerLength  = len(magicHeader) + 1 + saltLength + nonceLength
)

// ErrCorrupt is returned for files that are not keystores or fail authentication.
var ErrCorrupt = errors.New("keystore corrupt or passphrase wrong")

// kdfParams are the Argon2id cost parameters.
type kdfParams struct {
	time    uint32
	memory  uint32
	threads uint8
}

// OWASP recommended Argon2id parameters.
var defaultKDF = kdfParams{time: 3, memory: 64 * 1024, threads: 4}

// FileKeystore implements Keystore using a single AES-256-GCM encrypted file
// holding a JSON map of profile to key. Safe for concurrent use within one process.
type FileKeystore struct {
	path       string
	passphrase []byte
	kdf        kdfParams
	mu         sync.RWMutex
}

// NewFileKeystore returns a keystore at path whose encryption key is derived
// from passphrase. The file is created on first Set.
func NewFileKeystore(path string, passphrase []byte) (*FileKeystore, error) {
	if len(passphrase) == 0 {
		return nil, errors.New("keystore passphrase required")
	}
	return &FileKeystore{
		path:       path,
		passphrase: append([]byte(nil), passphrase...),
		kdf:        defaultKDF,
	}, nil
}

// Set stores the key for profile.
func (f *FileKeystore) Set(profile string, key core.Secret) error {
	if key.IsEmpty() {
		return errors.New("API key cannot be empty")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	data[profile] = key.Expose()
	return f.save(data)
}

// Get returns the key for profile.
func (f *FileKeystore) Get(profile string) (core.Secret, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := f.load()
	if err != nil {
		return core.Secret{}, err
	}
	value, ok := data[profile]
	if !ok {
		return core.Secret{}, notFound(profile)
	}
	return core.NewSecret(value), nil
}

// Delete removes the key for profile.
func (f *FileKeystore) Delete(profile string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	data, err := f.load()
	if err != nil {
		return err
	}
	if _, ok := data[profile]; !ok {
		return notFound(profile)
	}
	delete(data, profile)
	return f.save(data)
}

// List returns all profile names, sorted.
func (f *FileKeystore) List() ([]string, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	data, err := f.load()
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(data))
	for name := range data {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (f *FileKeystore) load() (map[string]string, error) {
	data := make(map[string]string)

	raw, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return data, nil
		}
		return nil, err
	}
	if len(raw) == 0 {
		return data, nil
	}

	plaintext, err := f.decrypt(raw)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(plaintext, &data); err != nil {
		return nil, ErrCorrupt
	}
	return data, nil
}

func (f *FileKeystore) save(data map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0700); err != nil {
		return err
	}

	plaintext, err := json.Marshal(data)
	if err != nil {
		return err
	}
	raw, err := f.encrypt(plaintext)
	if err != nil {
		return err
	}
	return os.WriteFile(f.path, raw, 0600)
}

func (f *FileKeystore) gcm(salt []byte) (cipher.AEAD, error) {
	key := argon2.IDKey(f.passphrase, salt, f.kdf.time, f.kdf.memory, f.kdf.threads, 32)
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (f *FileKeystore) encrypt(plaintext []byte) ([]byte, error) {
	header := make([]byte, headerLength)
	copy(header, magicHeader)
	header[len(magicHeader)] = formatVersion

	salt := header[len(magicHeader)+1 : len(magicHeader)+1+saltLength]
	nonce := header[len(magicHeader)+1+saltLength:]
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	aead, err := f.gcm(salt)
	if err != nil {
		return nil, err
	}
	sealed := aead.Seal(nil, nonce, plaintext, header)
	return append(header, sealed...), nil
}

func (f *FileKeystore) decrypt(raw []byte) ([]byte, error) {
	if len(raw) < headerLength || string(raw[:len(magicHeader)]) != magicHeader || raw[len(magicHeader)] != formatVersion {
		return nil, ErrCorrupt
	}

	header := raw[:headerLength]
	salt := header[len(magicHeader)+1 : len(magicHeader)+1+saltLength]
	nonce := header[len(magicHeader)+1+saltLength:]

	aead, err := f.gcm(salt)
	if err != nil {
		return nil, err
	}
	plaintext, err := aead.Open(nil, nonce, raw[headerLength:], header)
	if err != nil {
		return nil, ErrCorrupt
	}
	return plaintext, nil
}

var _ Keystore = (*FileKeystore)(nil)
