// Package secrets keeps machine-generated secrets out of the plain-text
// config. Values live in a 0600 JSON file, sealed with a key derived from
// the user and host. It is obfuscation against casual reads, not a
// keychain.
package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/crypto/chacha20poly1305"
	"golang.org/x/crypto/hkdf"
)

const fileName = "secrets.json"

var ErrNotFound = errors.New("secret not found")

type secretFile struct {
	Values map[string]string `json:"values"` // name -> base64(nonce|ciphertext)
}

type Store struct {
	path string
	seed string
	mu   sync.Mutex
}

// Open returns a store backed by dir/secrets.json. The file is created on
// the first Put.
func Open(dir string) *Store {
	host, _ := os.Hostname()
	return &Store{
		path: filepath.Join(dir, fileName),
		seed: fmt.Sprintf("ideacrowd|%s|%s|%s", runtime.GOOS, os.Getenv("USER"), host),
	}
}

func (s *Store) Path() string { return s.path }

func (s *Store) Get(name string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.get(name)
}

func (s *Store) get(name string) (string, error) {
	if name = norm(name); name == "" {
		return "", fmt.Errorf("secret name required")
	}
	sf, err := s.load()
	if err != nil {
		return "", err
	}
	enc, ok := sf.Values[name]
	if !ok {
		return "", ErrNotFound
	}
	raw, err := base64.StdEncoding.DecodeString(enc)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	pt, err := s.open(name, raw)
	if err != nil {
		return "", fmt.Errorf("unseal %s: %w", name, err)
	}
	return string(pt), nil
}

func (s *Store) Put(name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.put(name, value)
}

func (s *Store) put(name, value string) error {
	if name = norm(name); name == "" {
		return fmt.Errorf("secret name required")
	}
	sf, err := s.load()
	if err != nil {
		return err
	}
	if sf.Values == nil {
		sf.Values = map[string]string{}
	}
	ct, err := s.seal(name, []byte(value))
	if err != nil {
		return err
	}
	sf.Values[name] = base64.StdEncoding.EncodeToString(ct)
	return s.save(sf)
}

func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	sf, err := s.load()
	if err != nil {
		return err
	}
	delete(sf.Values, norm(name))
	return s.save(sf)
}

// Ensure returns the named secret, generating n random bytes (hex encoded)
// and storing them if it does not exist yet.
func (s *Store) Ensure(name string, n int) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, err := s.get(name)
	if err == nil {
		return v, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate %s: %w", name, err)
	}
	v = hex.EncodeToString(buf)
	if err := s.put(name, v); err != nil {
		return "", err
	}
	return v, nil
}

func (s *Store) load() (secretFile, error) {
	var sf secretFile
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return secretFile{}, nil
	}
	if err != nil {
		return sf, err
	}
	if err := json.Unmarshal(data, &sf); err != nil {
		return sf, fmt.Errorf("read %s: %w", s.path, err)
	}
	return sf, nil
}

func (s *Store) save(sf secretFile) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(sf, "", "  ")
	if err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// key derives a per-name key so values cannot be swapped between names.
func (s *Store) key(name string) ([]byte, error) {
	key := make([]byte, chacha20poly1305.KeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, []byte(s.seed), nil, []byte(name)), key); err != nil {
		return nil, err
	}
	return key, nil
}

func (s *Store) seal(name string, plain []byte) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, aead.NonceSize(), aead.NonceSize()+len(plain)+aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, err
	}
	return aead.Seal(nonce, nonce, plain, nil), nil
}

func (s *Store) open(name string, sealed []byte) ([]byte, error) {
	key, err := s.key(name)
	if err != nil {
		return nil, err
	}
	aead, err := chacha20poly1305.NewX(key)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("ciphertext too short")
	}
	return aead.Open(nil, sealed[:aead.NonceSize()], sealed[aead.NonceSize():], nil)
}

func norm(s string) string {
	return strings.TrimSpace(strings.ToLower(s))
}
