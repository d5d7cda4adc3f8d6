// Copyright 2026 FoodBlock Protocol
//
// Unit tests for federation handshake
package federation

import (
	"crypto/ed25519"
	"encoding/hex"
	"testing"

	"github.com/foodxdevelopment/foodblock/internal/canonical"
)

func TestBuildHandshakeVerifies(t *testing.T) {
	pub, priv, err := generateTestKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	req := BuildHandshake("https://peer.example", "peer-node", pub, priv, "nonce-123")

	ok, err := VerifyHandshake(req)
	if err != nil {
		t.Fatalf("VerifyHandshake: %v", err)
	}
	if !ok {
		t.Error("expected a freshly built handshake to verify")
	}
}

func TestVerifyHandshakeRejectsTamperedPayload(t *testing.T) {
	pub, priv, err := generateTestKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	req := BuildHandshake("https://peer.example", "peer-node", pub, priv, "nonce-123")
	req.Payload = "nonce-456"

	ok, err := VerifyHandshake(req)
	if err != nil {
		t.Fatalf("VerifyHandshake: %v", err)
	}
	if ok {
		t.Error("expected a tampered payload to fail verification")
	}
}

func TestVerifyPushUnsignedIsTrusted(t *testing.T) {
	ok, err := VerifyPush(PushRequest{Blocks: []map[string]any{{"hash": "abc"}}}, []string{"abc"})
	if err != nil {
		t.Fatalf("VerifyPush: %v", err)
	}
	if !ok {
		t.Error("an unsigned push should verify trivially")
	}
}

func TestVerifyPushSignedRoundTrip(t *testing.T) {
	pub, priv, err := generateTestKeypair()
	if err != nil {
		t.Fatalf("generate keypair: %v", err)
	}
	hashes := []string{"abc", "def"}
	req := PushRequest{PeerURL: "https://peer.example", Blocks: []map[string]any{{"hash": "abc"}, {"hash": "def"}}}

	anyHashes := make([]any, len(hashes))
	for i, h := range hashes {
		anyHashes[i] = h
	}
	payload, err := canonical.EncodeValue(map[string]any{
		"peer_url":     req.PeerURL,
		"block_count":  float64(len(hashes)),
		"block_hashes": anyHashes,
	})
	if err != nil {
		t.Fatalf("build signable payload: %v", err)
	}
	req.PublicKey = hex.EncodeToString(pub)
	req.Signature = hex.EncodeToString(ed25519.Sign(priv, payload))

	ok, err := VerifyPush(req, hashes)
	if err != nil {
		t.Fatalf("VerifyPush: %v", err)
	}
	if !ok {
		t.Error("expected a correctly signed push to verify")
	}
}

func TestClampPullLimit(t *testing.T) {
	cases := []struct {
		in, want int
	}{
		{0, 500},
		{-5, 500},
		{100, 100},
		{5000, 5000},
		{5001, 5000},
		{1, 1},
	}
	for _, c := range cases {
		if got := ClampPullLimit(c.in); got != c.want {
			t.Errorf("ClampPullLimit(%d) = %d, want %d", c.in, got, c.want)
		}
	}
}
