// Copyright 2026 FoodBlock Protocol
//
// Repositories aggregate wiring
package store

// Repositories bundles every repository over a single *Client so callers
// construct one object at startup instead of wiring each repository
// individually.
type Repositories struct {
	Blocks *BlocksRepository
	Query  *QueryRepository
	Peers  *PeersRepository
}

// NewRepositories builds the full repository set over client's pool.
func NewRepositories(client *Client) *Repositories {
	db := client.DB()
	return &Repositories{
		Blocks: NewBlocksRepository(db),
		Query:  NewQueryRepository(db),
		Peers:  NewPeersRepository(db),
	}
}
