// Copyright 2026 FoodBlock Protocol
//
// Federation peer repository
package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// Peer is a federation partner tracked for push/pull sync (§4.8).
type Peer struct {
	PeerURL         string
	PeerName        string
	PublicKey       string
	LastHandshakeAt *time.Time
	LastSyncAt      *time.Time
	LastCursor      string
	CreatedAt       time.Time
}

// PeersRepository persists federation peer state.
type PeersRepository struct {
	db *sql.DB
}

func NewPeersRepository(db *sql.DB) *PeersRepository {
	return &PeersRepository{db: db}
}

// Upsert registers or refreshes a peer's handshake metadata.
func (r *PeersRepository) Upsert(ctx context.Context, peerURL, peerName, publicKey string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO peers (peer_url, peer_name, public_key, last_handshake_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (peer_url) DO UPDATE
		SET peer_name = EXCLUDED.peer_name, public_key = EXCLUDED.public_key, last_handshake_at = now()
	`, peerURL, peerName, publicKey)
	if err != nil {
		return fberr.Wrap(fberr.KindInternal, "upsert peer", err)
	}
	return nil
}

// UpdateCursor records sync progress after a successful pull (§4.8.4).
func (r *PeersRepository) UpdateCursor(ctx context.Context, peerURL, cursor string) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE peers SET last_cursor = $2, last_sync_at = now() WHERE peer_url = $1
	`, peerURL, cursor)
	if err != nil {
		return fberr.Wrap(fberr.KindInternal, "update peer cursor", err)
	}
	return nil
}

// List returns every known peer.
func (r *PeersRepository) List(ctx context.Context) ([]*Peer, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT peer_url, peer_name, public_key, last_handshake_at, last_sync_at, last_cursor, created_at
		FROM peers ORDER BY peer_url
	`)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "list peers", err)
	}
	defer rows.Close()

	var out []*Peer
	for rows.Next() {
		var (
			p                         Peer
			peerName, publicKey, cursor sql.NullString
			handshake, synced         sql.NullTime
		)
		if err := rows.Scan(&p.PeerURL, &peerName, &publicKey, &handshake, &synced, &cursor, &p.CreatedAt); err != nil {
			return nil, fberr.Wrap(fberr.KindInternal, "scan peer", err)
		}
		p.PeerName = peerName.String
		p.PublicKey = publicKey.String
		p.LastCursor = cursor.String
		if handshake.Valid {
			p.LastHandshakeAt = &handshake.Time
		}
		if synced.Valid {
			p.LastSyncAt = &synced.Time
		}
		out = append(out, &p)
	}
	return out, rows.Err()
}

// Get fetches a single peer by URL, or fberr.ErrNotFound.
func (r *PeersRepository) Get(ctx context.Context, peerURL string) (*Peer, error) {
	var (
		p                           Peer
		peerName, publicKey, cursor sql.NullString
		handshake, synced           sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT peer_url, peer_name, public_key, last_handshake_at, last_sync_at, last_cursor, created_at
		FROM peers WHERE peer_url = $1
	`, peerURL).Scan(&p.PeerURL, &peerName, &publicKey, &handshake, &synced, &cursor, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fberr.ErrNotFound
	}
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "get peer", err)
	}
	p.PeerName = peerName.String
	p.PublicKey = publicKey.String
	p.LastCursor = cursor.String
	if handshake.Valid {
		p.LastHandshakeAt = &handshake.Time
	}
	if synced.Valid {
		p.LastSyncAt = &synced.Time
	}
	return &p, nil
}
