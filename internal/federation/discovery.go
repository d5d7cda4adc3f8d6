// Copyright 2026 FoodBlock Protocol
//
// Signed discovery document and handshake
// Package federation implements peer discovery, handshake, and push/pull
// sync (§4.8). HTTP calls to peers use a plain *http.Client with a fixed
// timeout and context deadlines rather than a heavier client library.
package federation

import (
	"crypto/ed25519"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/foodxdevelopment/foodblock/internal/canonical"
)

// Discovery is the signed document served at GET /.well-known/foodblock
// (§4.8, §6.1).
type Discovery struct {
	Protocol     string   `json:"protocol"`
	Version      string   `json:"version"`
	Name         string   `json:"name"`
	PublicKey    string   `json:"public_key"`
	Types        []string `json:"types"`
	Count        int      `json:"count"`
	Peers        int      `json:"peers"`
	Algorithms   []string `json:"algorithms"`
	Capabilities []string `json:"capabilities"`
	Endpoints    []string `json:"endpoints"`
	Signature    string   `json:"signature"`
}

// BuildDiscovery assembles and signs a Discovery document with the
// server's Ed25519 identity key.
func BuildDiscovery(name string, pub ed25519.PublicKey, priv ed25519.PrivateKey, types []string, count, peers int) (*Discovery, error) {
	d := &Discovery{
		Protocol:     "foodblock",
		Version:      "0.5",
		Name:         name,
		PublicKey:    hex.EncodeToString(pub),
		Types:        types,
		Count:        count,
		Peers:        peers,
		Algorithms:   []string{"ed25519", "x25519-aes-256-gcm"},
		Capabilities: []string{"push", "pull", "sync", "stream"},
		Endpoints: []string{
			"/.well-known/foodblock/handshake",
			"/.well-known/foodblock/push",
			"/.well-known/foodblock/pull",
		},
	}
	payload, err := signablePayload(d)
	if err != nil {
		return nil, err
	}
	d.Signature = hex.EncodeToString(ed25519.Sign(priv, payload))
	return d, nil
}

// VerifyDiscovery checks a fetched Discovery document's signature against
// its own published public key (trust-on-first-use beyond this is a
// caller concern).
func VerifyDiscovery(d *Discovery) (bool, error) {
	pub, err := hex.DecodeString(d.PublicKey)
	if err != nil {
		return false, fmt.Errorf("federation: decode public key: %w", err)
	}
	sig, err := hex.DecodeString(d.Signature)
	if err != nil {
		return false, fmt.Errorf("federation: decode signature: %w", err)
	}
	payload, err := signablePayload(d)
	if err != nil {
		return false, err
	}
	return ed25519.Verify(pub, payload, sig), nil
}

// signablePayload canonicalizes the document with its signature field
// blanked, so signing and verifying agree on the same bytes.
func signablePayload(d *Discovery) ([]byte, error) {
	unsigned := *d
	unsigned.Signature = ""
	state, err := structToMap(unsigned)
	if err != nil {
		return nil, err
	}
	return canonical.EncodeValue(state)
}

func structToMap(v any) (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("federation: marshal: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("federation: unmarshal: %w", err)
	}
	return out, nil
}

// KeyHash is SHA-256 of a raw public key, the same convention
// internal/envelope uses for recipient lookup.
func KeyHash(pub []byte) string {
	sum := sha256.Sum256(pub)
	return hex.EncodeToString(sum[:])
}
