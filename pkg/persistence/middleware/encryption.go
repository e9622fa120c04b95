package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aretw0/hivemesh/pkg/domain"
	"github.com/aretw0/hivemesh/pkg/ports"
)

// EnvelopeKey is the single key of an encrypted state bag.
const EnvelopeKey = "__encrypted__"

// KeySize is the AES-256 key length.
const KeySize = 32

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey is the key used for encrypting new data.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key fails, so keys can
	// be rotated without rewriting stored state.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.StateStore
	config EncryptionConfig
}

// NewEncryptionMiddleware creates a middleware that stores each state bag as
// one AES-GCM sealed envelope.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != KeySize {
		return nil, fmt.Errorf("active key must be %d bytes (AES-256), got %d", KeySize, len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != KeySize {
			return nil, fmt.Errorf("fallback key %d must be %d bytes, got %d", i, KeySize, len(k))
		}
	}
	return func(next ports.StateStore) ports.StateStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

// ParseKey decodes a hex or base64 encoded AES-256 key.
func ParseKey(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if k, err := hex.DecodeString(s); err == nil && len(k) == KeySize {
		return k, nil
	}
	if k, err := base64.StdEncoding.DecodeString(s); err == nil && len(k) == KeySize {
		return k, nil
	}
	return nil, fmt.Errorf("key must be %d bytes encoded as hex or base64", KeySize)
}

func (m *encryptionMiddleware) Save(ctx context.Context, shardID string, state domain.ShardState) error {
	plainText, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}

	// The shard id is bound as additional data so envelopes cannot be swapped between shards.
	ciphertext, err := encrypt(plainText, m.config.ActiveKey, []byte(shardID))
	if err != nil {
		return fmt.Errorf("failed to encrypt state: %w", err)
	}

	envelope := domain.ShardState{EnvelopeKey: base64.StdEncoding.EncodeToString(ciphertext)}
	return m.next.Save(ctx, shardID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, shardID string) (domain.ShardState, error) {
	envelope, err := m.next.Load(ctx, shardID)
	if err != nil {
		return nil, err
	}

	encryptedStr, ok := envelope[EnvelopeKey].(string)
	if !ok {
		// Plain state under an encrypting store is refused rather than trusted.
		return nil, errors.New("state is missing encrypted data envelope")
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encryptedStr)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, []byte(shardID), m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt state: %w", err)
	}

	var state domain.ShardState
	if err := json.Unmarshal(plainText, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted state: %w", err)
	}
	if state == nil {
		state = domain.ShardState{}
	}
	return state, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, shardID string) error {
	return m.next.Delete(ctx, shardID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func encrypt(plaintext, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, aad), nil
}

func decryptWithRotation(ciphertext, aad, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	for _, key := range append([][]byte{activeKey}, fallbackKeys...) {
		if plain, err := decrypt(ciphertext, key, aad); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key, aad []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, aad)
}
