// Copyright 2026 FoodBlock Protocol
//
// Shared test helpers for the federation package
package federation

import (
	"crypto/ed25519"
	"crypto/rand"
)

func generateTestKeypair() (ed25519.PublicKey, ed25519.PrivateKey, error) {
	return ed25519.GenerateKey(rand.Reader)
}
