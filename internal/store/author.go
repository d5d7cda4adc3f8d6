// Copyright 2026 FoodBlock Protocol
//
// Author key resolution
package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"encoding/json"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// AuthorKeys holds the two public keys an actor.agent block publishes:
// the Ed25519 signing key and the X25519 encryption key (§4.2, §6.3).
type AuthorKeys struct {
	SigningPublicKey    []byte
	EncryptionPublicKey []byte
}

// ResolveAuthorKeys looks up the head actor block for authorHash and
// decodes its published keys. Used by the HTTP layer to verify incoming
// signatures before calling BlocksRepository.Insert.
func (r *BlocksRepository) ResolveAuthorKeys(ctx context.Context, authorHash string) (*AuthorKeys, error) {
	var stateJSON []byte
	err := r.db.QueryRowContext(ctx, `
		SELECT state FROM blocks
		WHERE hash = $1 AND type LIKE 'actor%' AND is_head = true
	`, authorHash).Scan(&stateJSON)
	if err == sql.ErrNoRows {
		return nil, fberr.New(fberr.KindNotFound, "unknown author")
	}
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "resolve author keys", err)
	}

	var state struct {
		SigningPublicKey    string `json:"signing_public_key"`
		EncryptionPublicKey string `json:"encryption_public_key"`
	}
	if err := json.Unmarshal(stateJSON, &state); err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "decode author state", err)
	}

	keys := &AuthorKeys{}
	if state.SigningPublicKey != "" {
		keys.SigningPublicKey, err = hex.DecodeString(state.SigningPublicKey)
		if err != nil {
			return nil, fberr.Wrap(fberr.KindInternal, "decode signing key", err)
		}
	}
	if state.EncryptionPublicKey != "" {
		keys.EncryptionPublicKey, err = hex.DecodeString(state.EncryptionPublicKey)
		if err != nil {
			return nil, fberr.Wrap(fberr.KindInternal, "decode encryption key", err)
		}
	}
	return keys, nil
}
