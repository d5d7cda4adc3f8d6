// Copyright 2026 FoodBlock Protocol
//
// Federation handshake verification
package federation

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"

	"github.com/foodxdevelopment/foodblock/internal/canonical"
)

// HandshakeRequest is the §4.8 POST /handshake body.
type HandshakeRequest struct {
	PeerURL   string `json:"peer_url"`
	PeerName  string `json:"peer_name"`
	PublicKey string `json:"public_key"`
	Signature string `json:"signature"`
	Payload   string `json:"payload"`
}

// BuildHandshake signs payload (an arbitrary nonce/timestamp string
// agreed by convention, opaque to the protocol) with priv and assembles
// the request body to send to a peer.
func BuildHandshake(peerURL, peerName string, pub ed25519.PublicKey, priv ed25519.PrivateKey, payload string) HandshakeRequest {
	sig := ed25519.Sign(priv, []byte(payload))
	return HandshakeRequest{
		PeerURL:   peerURL,
		PeerName:  peerName,
		PublicKey: hex.EncodeToString(pub),
		Signature: hex.EncodeToString(sig),
		Payload:   payload,
	}
}

// VerifyHandshake checks req.Signature over req.Payload against
// req.PublicKey (§4.8 "server verifies signature over payload with
// public_key").
func VerifyHandshake(req HandshakeRequest) (bool, error) {
	pub, err := hex.DecodeString(req.PublicKey)
	if err != nil {
		return false, fmt.Errorf("federation: decode public key: %w", err)
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		return false, fmt.Errorf("federation: decode signature: %w", err)
	}
	return ed25519.Verify(pub, []byte(req.Payload), sig), nil
}

// PushRequest is the §4.8 POST /push body. Each Block is the raw
// {type,state,refs,hash} the standard insert pipeline consumes.
type PushRequest struct {
	PeerURL   string           `json:"peer_url,omitempty"`
	PublicKey string           `json:"public_key,omitempty"`
	Signature string           `json:"signature,omitempty"`
	Blocks    []map[string]any `json:"blocks"`
}

// PushResult is the §4.8 POST /push response.
type PushResult struct {
	Inserted int      `json:"inserted"`
	Skipped  int      `json:"skipped"`
	Failed   int      `json:"failed"`
	Errors   []string `json:"errors,omitempty"`
}

// VerifyPush checks a signed push's signature over
// {peer_url,block_count,block_hashes} (§4.8).
func VerifyPush(req PushRequest, hashes []string) (bool, error) {
	if req.Signature == "" {
		return true, nil // unsigned push: transport-level trust is optional
	}
	pub, err := hex.DecodeString(req.PublicKey)
	if err != nil {
		return false, fmt.Errorf("federation: decode public key: %w", err)
	}
	sig, err := hex.DecodeString(req.Signature)
	if err != nil {
		return false, fmt.Errorf("federation: decode signature: %w", err)
	}
	payload, err := canonical.EncodeValue(map[string]any{
		"peer_url":    req.PeerURL,
		"block_count": float64(len(hashes)),
		"block_hashes": toAnySlice(hashes),
	})
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, payload, sig), nil
}

func toAnySlice(ss []string) []any {
	out := make([]any, len(ss))
	for i, s := range ss {
		out[i] = s
	}
	return out
}

// PullRequest is the §4.8 POST /pull body.
type PullRequest struct {
	Since     string   `json:"since,omitempty"`
	AfterHash string   `json:"after_hash,omitempty"`
	Types     []string `json:"types,omitempty"`
	Limit     int      `json:"limit,omitempty"`
}

// PullResult is the §4.8 POST /pull response.
type PullResult struct {
	Blocks   []map[string]any `json:"blocks"`
	Count    int              `json:"count"`
	Cursor   string           `json:"cursor"`
	HasMore  bool             `json:"has_more"`
}

// ClampPullLimit enforces the [1,5000] bound with a default of 500
// (§4.8).
func ClampPullLimit(limit int) int {
	switch {
	case limit <= 0:
		return 500
	case limit > 5000:
		return 5000
	default:
		return limit
	}
}
