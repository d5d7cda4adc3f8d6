// Copyright 2026 FoodBlock Protocol
//
// fb-keygen - generates federation identity keypairs
// Command fb-keygen generates a FEDERATION_PUBLIC_KEY/FEDERATION_PRIVATE_KEY
// pair for a persistent server identity (§6.5), printed as hex-encoded
// environment variable assignments.
package main

import (
	"encoding/hex"
	"fmt"
	"os"

	"github.com/foodxdevelopment/foodblock/internal/block"
)

func main() {
	pub, priv, err := block.GenerateSigningKeypair()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("FEDERATION_PUBLIC_KEY=%s\n", hex.EncodeToString(pub))
	fmt.Printf("FEDERATION_PRIVATE_KEY=%s\n", hex.EncodeToString(priv))
}
