// Copyright 2026 FoodBlock Protocol
//
// Multi-recipient envelope encryption
// Package envelope implements multi-recipient X25519+AES-256-GCM encryption
// of `_`-prefixed state fields (§4.3, §6.3). It mirrors internal/block's
// treatment of asymmetric keys: hex-encoded on the wire, raw bytes in
// memory, with the same "generate keypair, hand private key to caller"
// convention as block.GenerateSigningKeypair, using
// golang.org/x/crypto/curve25519 for the ECDH step the standard library
// does not provide.
package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"golang.org/x/crypto/curve25519"

	"github.com/foodxdevelopment/foodblock/internal/canonical"
)

const Algorithm = "x25519-aes-256-gcm"

const (
	keySize   = 32
	nonceSize = 12
)

// RecipientKey wraps the content key for one X25519 public key.
type RecipientKey struct {
	KeyHash      string `json:"key_hash"`
	EncryptedKey string `json:"encrypted_key"`
}

// Envelope is the §6.3 wire format stored as a state field's value.
type Envelope struct {
	Alg        string          `json:"alg"`
	Recipients []RecipientKey  `json:"recipients"`
	Nonce      string          `json:"nonce"`
	Ciphertext string          `json:"ciphertext"`
	Ephemeral  string          `json:"ephemeral_public_key"`
}

// GenerateKeypair produces an X25519 key pair for envelope encryption,
// independent of the Ed25519 signing pair (§4.2).
func GenerateKeypair() (public, private [32]byte, err error) {
	if _, err = rand.Read(private[:]); err != nil {
		return public, private, fmt.Errorf("envelope: generate private key: %w", err)
	}
	pub, err := curve25519.X25519(private[:], curve25519.Basepoint)
	if err != nil {
		return public, private, fmt.Errorf("envelope: derive public key: %w", err)
	}
	copy(public[:], pub)
	return public, private, nil
}

// Seal encrypts value for every recipient public key in recipients,
// implementing the four steps of §4.3: a fresh content key and nonce, one
// AES-256-GCM ciphertext, and one wrapped content key per recipient
// derived via an ephemeral X25519 key agreement.
func Seal(value any, recipients [][]byte) (*Envelope, error) {
	if len(recipients) == 0 {
		return nil, fmt.Errorf("envelope: at least one recipient required")
	}

	plaintext, err := canonical.EncodeValue(value)
	if err != nil {
		return nil, fmt.Errorf("envelope: canonicalize value: %w", err)
	}

	contentKey := make([]byte, keySize)
	if _, err := rand.Read(contentKey); err != nil {
		return nil, fmt.Errorf("envelope: generate content key: %w", err)
	}
	nonce := make([]byte, nonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return nil, fmt.Errorf("envelope: generate nonce: %w", err)
	}

	block, err := aes.NewCipher(contentKey)
	if err != nil {
		return nil, fmt.Errorf("envelope: new cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("envelope: new gcm: %w", err)
	}
	ciphertext := gcm.Seal(nil, nonce, plaintext, nil)

	ephPub, ephPriv, err := GenerateKeypair()
	if err != nil {
		return nil, err
	}

	wrapped := make([]RecipientKey, 0, len(recipients))
	for _, recipientPub := range recipients {
		shared, err := curve25519.X25519(ephPriv[:], recipientPub)
		if err != nil {
			return nil, fmt.Errorf("envelope: ecdh with recipient: %w", err)
		}
		wrapKey := sha256.Sum256(shared)

		wrapBlock, err := aes.NewCipher(wrapKey[:])
		if err != nil {
			return nil, fmt.Errorf("envelope: wrap cipher: %w", err)
		}
		wrapGCM, err := cipher.NewGCM(wrapBlock)
		if err != nil {
			return nil, fmt.Errorf("envelope: wrap gcm: %w", err)
		}
		wrapNonce := make([]byte, nonceSize)
		if _, err := rand.Read(wrapNonce); err != nil {
			return nil, fmt.Errorf("envelope: wrap nonce: %w", err)
		}
		encryptedKey := wrapGCM.Seal(wrapNonce, wrapNonce, contentKey, nil)

		keyHash := sha256.Sum256(recipientPub)
		wrapped = append(wrapped, RecipientKey{
			KeyHash:      hex.EncodeToString(keyHash[:]),
			EncryptedKey: hex.EncodeToString(encryptedKey),
		})
	}

	return &Envelope{
		Alg:        Algorithm,
		Recipients: wrapped,
		Nonce:      hex.EncodeToString(nonce),
		Ciphertext: hex.EncodeToString(ciphertext),
		Ephemeral:  hex.EncodeToString(ephPub[:]),
	}, nil
}

// Open decrypts env for the holder of myPrivate (whose public key is
// myPublic), returning the original value unmarshaled into dst.
func Open(env *Envelope, myPublic, myPrivate []byte, dst any) error {
	keyHash := sha256.Sum256(myPublic)
	target := hex.EncodeToString(keyHash[:])

	var recipient *RecipientKey
	for i := range env.Recipients {
		if env.Recipients[i].KeyHash == target {
			recipient = &env.Recipients[i]
			break
		}
	}
	if recipient == nil {
		return fmt.Errorf("envelope: not a recipient")
	}

	ephPub, err := hex.DecodeString(env.Ephemeral)
	if err != nil {
		return fmt.Errorf("envelope: decode ephemeral key: %w", err)
	}
	shared, err := curve25519.X25519(myPrivate, ephPub)
	if err != nil {
		return fmt.Errorf("envelope: ecdh: %w", err)
	}
	wrapKey := sha256.Sum256(shared)

	wrapped, err := hex.DecodeString(recipient.EncryptedKey)
	if err != nil {
		return fmt.Errorf("envelope: decode wrapped key: %w", err)
	}
	if len(wrapped) < nonceSize {
		return fmt.Errorf("envelope: wrapped key too short")
	}
	wrapNonce, wrapCiphertext := wrapped[:nonceSize], wrapped[nonceSize:]

	wrapBlock, err := aes.NewCipher(wrapKey[:])
	if err != nil {
		return fmt.Errorf("envelope: wrap cipher: %w", err)
	}
	wrapGCM, err := cipher.NewGCM(wrapBlock)
	if err != nil {
		return fmt.Errorf("envelope: wrap gcm: %w", err)
	}
	contentKey, err := wrapGCM.Open(nil, wrapNonce, wrapCiphertext, nil)
	if err != nil {
		return fmt.Errorf("envelope: unwrap content key: %w", err)
	}

	nonce, err := hex.DecodeString(env.Nonce)
	if err != nil {
		return fmt.Errorf("envelope: decode nonce: %w", err)
	}
	ciphertext, err := hex.DecodeString(env.Ciphertext)
	if err != nil {
		return fmt.Errorf("envelope: decode ciphertext: %w", err)
	}

	block, err := aes.NewCipher(contentKey)
	if err != nil {
		return fmt.Errorf("envelope: content cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return fmt.Errorf("envelope: content gcm: %w", err)
	}
	plaintext, err := gcm.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return fmt.Errorf("envelope: decrypt: %w", err)
	}

	return json.Unmarshal(plaintext, dst)
}
