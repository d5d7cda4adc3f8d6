// Copyright 2026 FoodBlock Protocol
//
// Block primitives - create, update, hash, sign, verify
// Package block implements FoodBlock's block primitives (§4.2): create,
// update, hash, sign, and verify. Signing uses raw crypto/ed25519 key
// generation and sign/verify over a single canonical message — no domain
// separation, since the hash itself already binds type/state/refs.
package block

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/foodxdevelopment/foodblock/internal/canonical"
)

const MaxTypeLength = 100

// ProtocolVersion is the canonical-form version label stamped into signed
// wrappers (§3.3, §6.2).
const ProtocolVersion = "0.5"

// Block is the in-memory form of a FoodBlock record: exactly type, state,
// refs, plus the derived hash (§3.1).
type Block struct {
	Hash  string         `json:"hash"`
	Type  string         `json:"type"`
	State map[string]any `json:"state"`
	Refs  map[string]any `json:"refs"`
}

// Wrapper is the signed envelope around a Block (§6.2).
type Wrapper struct {
	FoodBlock       Block  `json:"foodblock"`
	AuthorHash      string `json:"author_hash"`
	Signature       string `json:"signature"`
	ProtocolVersion string `json:"protocol_version"`
}

// eventTypePrefixes are the base event namespaces eligible for automatic
// instance_id injection, except for the structural observe.* subtypes
// listed in noInstanceIDSubtypes (§4.2).
var eventTypePrefixes = []string{"transfer.", "transform.", "observe."}

var noInstanceIDSubtypes = map[string]bool{
	"observe.vocabulary":   true,
	"observe.template":     true,
	"observe.schema":       true,
	"observe.trust_policy": true,
	"observe.protocol":     true,
}

var typeFieldRe = regexp.MustCompile(`^[a-z0-9_]+(\.[a-z0-9_]+)*$`)

// Hash computes SHA-256(canonical(type,state,refs)) as lowercase hex.
func Hash(typ string, state, refs map[string]any) (string, error) {
	encoded, err := canonical.Encode(typ, state, refs)
	if err != nil {
		return "", fmt.Errorf("canonicalize: %w", err)
	}
	sum := sha256.Sum256(encoded)
	return hex.EncodeToString(sum[:]), nil
}

// Create builds a new Block, injecting a fresh instance_id into state when
// the type matches an event pattern and none was supplied (§4.2).
func Create(typ string, state, refs map[string]any) (*Block, error) {
	if typ == "" {
		return nil, fmt.Errorf("block: type is required")
	}
	if len(typ) > MaxTypeLength {
		return nil, fmt.Errorf("block: type exceeds %d characters", MaxTypeLength)
	}
	if state == nil {
		state = map[string]any{}
	}
	if refs == nil {
		refs = map[string]any{}
	}
	if needsInstanceID(typ) {
		if _, ok := state["instance_id"]; !ok {
			state = cloneMap(state)
			state["instance_id"] = uuid.New().String()
		}
	}
	h, err := Hash(typ, state, refs)
	if err != nil {
		return nil, err
	}
	return &Block{Hash: h, Type: typ, State: state, Refs: refs}, nil
}

// Update builds a successor block: Create with refs.updates set to prev's
// hash (§4.2).
func Update(prevHash, typ string, state, refs map[string]any) (*Block, error) {
	refs = cloneMap(refs)
	refs["updates"] = prevHash
	return Create(typ, state, refs)
}

func needsInstanceID(typ string) bool {
	matched := false
	for _, prefix := range eventTypePrefixes {
		if strings.HasPrefix(typ, prefix) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	return !noInstanceIDSubtypes[typ]
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+1)
	for k, v := range m {
		out[k] = v
	}
	return out
}

// Sign produces a signed Wrapper around b, authored by authorHash and signed
// with priv (§4.2, §6.2).
func Sign(b *Block, authorHash string, priv ed25519.PrivateKey) (*Wrapper, error) {
	encoded, err := canonical.Encode(b.Type, b.State, b.Refs)
	if err != nil {
		return nil, fmt.Errorf("canonicalize: %w", err)
	}
	sig := ed25519.Sign(priv, encoded)
	return &Wrapper{
		FoodBlock:       *b,
		AuthorHash:      authorHash,
		Signature:       hex.EncodeToString(sig),
		ProtocolVersion: ProtocolVersion,
	}, nil
}

// Verify checks w.Signature against pub over the canonical form of
// w.FoodBlock (§4.2, §8.1: any single-bit mutation invalidates it).
func Verify(w *Wrapper, pub ed25519.PublicKey) (bool, error) {
	if len(pub) != ed25519.PublicKeySize {
		return false, fmt.Errorf("block: invalid public key size %d", len(pub))
	}
	sig, err := hex.DecodeString(w.Signature)
	if err != nil {
		return false, fmt.Errorf("block: invalid signature hex: %w", err)
	}
	encoded, err := canonical.Encode(w.FoodBlock.Type, w.FoodBlock.State, w.FoodBlock.Refs)
	if err != nil {
		return false, fmt.Errorf("canonicalize: %w", err)
	}
	return ed25519.Verify(pub, encoded, sig), nil
}

// GenerateSigningKeypair creates a fresh Ed25519 keypair for block signing.
func GenerateSigningKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}

// IsValidTypeName reports whether typ looks like well-formed dot notation.
// Advisory only: the type namespace is open (§1), so this is used for
// diagnostics (the well_formed flag of GET /types/{type}), never to reject
// an insert.
func IsValidTypeName(typ string) bool {
	return typeFieldRe.MatchString(typ)
}
