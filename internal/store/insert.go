// Copyright 2026 FoodBlock Protocol
//
// Author-scoped update-chain resolution and insert
// This file implements the insert pipeline (C5, §4.4.2-§4.4.4): hash
// integrity check, author-scoped update resolution (chain_id/is_head),
// tombstone and merge handling, visibility derivation, and offline-sync
// batch insert. Each operation is a method on a *sql.DB-holding struct,
// context-first, with sentinel errors on miss — generalized from
// single-table CRUD to the chain-resolution state machine §4.4.2 specifies.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// BlocksRepository is the sole writer of record for the blocks table
// (§5 "Shared-resource policy").
type BlocksRepository struct {
	db *sql.DB
}

func NewBlocksRepository(db *sql.DB) *BlocksRepository {
	return &BlocksRepository{db: db}
}

// Insert runs the full §4.4.2 algorithm for one block. Signature
// verification, if applicable, must already have happened in the caller
// (internal/httpapi wires internal/block.Verify against the resolved
// author key before calling Insert) — this method owns everything from
// hash recomputation onward.
func (r *BlocksRepository) Insert(ctx context.Context, b *block.Block, authorHash, signature, protocolVersion string) (*InsertOutcome, error) {
	recomputed, err := block.Hash(b.Type, b.State, b.Refs)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindBadRequest, "canonicalize block", err)
	}
	if recomputed != b.Hash {
		return nil, fberr.ErrHashMismatch
	}

	if existing, err := r.GetByHash(ctx, b.Hash); err == nil {
		return &InsertOutcome{Block: existing, Exists: true}, nil
	} else if fberr.KindOf(err) != fberr.KindNotFound {
		return nil, err
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "begin transaction", err)
	}
	defer tx.Rollback()

	res, isFork, err := r.resolveAndInsert(ctx, tx, b, authorHash, signature, protocolVersion)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "commit insert", err)
	}
	return &InsertOutcome{Block: res, Fork: isFork}, nil
}

func (r *BlocksRepository) resolveAndInsert(ctx context.Context, tx *sql.Tx, b *block.Block, authorHash, signature, protocolVersion string) (*Record, bool, error) {
	visibility := deriveVisibility(b.Type, b.State)

	// observe.merge retires both predecessors as heads and becomes the
	// head of a new unified chain (§4.4.3).
	if b.Type == "observe.merge" {
		merges := refStrings(b.Refs, "merges")
		for _, h := range merges {
			if _, err := tx.ExecContext(ctx, `UPDATE blocks SET is_head=false WHERE hash=$1`, h); err != nil {
				return nil, false, fberr.Wrap(fberr.KindInternal, "retire merged head", err)
			}
		}
		rec, err := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, b.Hash, true, visibility)
		return rec, true, err
	}

	prevHash, hasPrev := refString(b.Refs, "updates")
	if !hasPrev {
		rec, err := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, b.Hash, true, visibility)
		return rec, true, err
	}

	var prevAuthor sql.NullString
	var prevChainID string
	err := tx.QueryRowContext(ctx,
		`SELECT author_hash, chain_id FROM blocks WHERE hash=$1 FOR UPDATE`, prevHash,
	).Scan(&prevAuthor, &prevChainID)
	if err == sql.ErrNoRows {
		// refs.updates points nowhere resolvable: becomes a fork, not an
		// error (invariant 4, §3.3).
		rec, ierr := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, b.Hash, true, visibility)
		return rec, true, ierr
	}
	if err != nil {
		return nil, false, fberr.Wrap(fberr.KindInternal, "look up predecessor", err)
	}

	if b.Type == "observe.tombstone" {
		if _, err := tx.ExecContext(ctx, `UPDATE blocks SET is_head=false WHERE hash=$1`, prevHash); err != nil {
			return nil, false, fberr.Wrap(fberr.KindInternal, "retire tombstoned head", err)
		}
		target, ok := refString(b.Refs, "target")
		if !ok {
			target = prevHash
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE blocks SET state=$1 WHERE hash=$2`, `{"tombstoned":true}`, target,
		); err != nil {
			return nil, false, fberr.Wrap(fberr.KindInternal, "erase tombstoned state", err)
		}
		rec, ierr := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, prevChainID, true, visibility)
		return rec, false, ierr
	}

	sameAuthor := !prevAuthor.Valid || prevAuthor.String == "" || prevAuthor.String == authorHash
	if sameAuthor {
		if _, err := tx.ExecContext(ctx, `UPDATE blocks SET is_head=false WHERE hash=$1`, prevHash); err != nil {
			return nil, false, fberr.Wrap(fberr.KindInternal, "retire predecessor head", err)
		}
		rec, ierr := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, prevChainID, true, visibility)
		return rec, false, ierr
	}

	approved, err := r.hasApproval(ctx, tx, prevAuthor.String, authorHash, prevChainID)
	if err != nil {
		return nil, false, err
	}
	if approved {
		if _, err := tx.ExecContext(ctx, `UPDATE blocks SET is_head=false WHERE hash=$1`, prevHash); err != nil {
			return nil, false, fberr.Wrap(fberr.KindInternal, "retire predecessor head", err)
		}
		rec, ierr := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, prevChainID, true, visibility)
		return rec, false, ierr
	}

	// Cross-author update with no grant: fork. Predecessor remains head of
	// its own chain (§4.4.2 step 4, §8.4 scenario 2).
	rec, ierr := r.insertRow(ctx, tx, b, authorHash, signature, protocolVersion, b.Hash, true, visibility)
	return rec, true, ierr
}

// hasApproval checks for an observe.approval authored by prevAuthor
// granting granteeHash rights over targetChain (§4.4.2 step 4).
func (r *BlocksRepository) hasApproval(ctx context.Context, tx *sql.Tx, prevAuthor, granteeHash, targetChain string) (bool, error) {
	var count int
	err := tx.QueryRowContext(ctx, `
		SELECT count(*) FROM blocks
		WHERE type = 'observe.approval'
		  AND author_hash = $1
		  AND refs->>'grantee' = $2
		  AND state->>'target_chain' = $3
	`, prevAuthor, granteeHash, targetChain).Scan(&count)
	if err != nil {
		return false, fberr.Wrap(fberr.KindInternal, "look up approval", err)
	}
	return count > 0, nil
}

func (r *BlocksRepository) insertRow(ctx context.Context, tx *sql.Tx, b *block.Block, authorHash, signature, protocolVersion, chainID string, isHead bool, visibility string) (*Record, error) {
	stateJSON, err := json.Marshal(b.State)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindBadRequest, "marshal state", err)
	}
	refsJSON, err := json.Marshal(b.Refs)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindBadRequest, "marshal refs", err)
	}

	var createdAt time.Time
	err = tx.QueryRowContext(ctx, `
		INSERT INTO blocks (hash, type, state, refs, author_hash, signature, protocol_version, chain_id, is_head, visibility)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),NULLIF($6,''),NULLIF($7,''),$8,$9,$10)
		RETURNING created_at
	`, b.Hash, b.Type, stateJSON, refsJSON, authorHash, signature, protocolVersion, chainID, isHead, visibility).Scan(&createdAt)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "insert block", err)
	}

	rec := &Record{
		Hash: b.Hash, Type: b.Type, State: b.State, Refs: b.Refs,
		ChainID: chainID, IsHead: isHead, Visibility: visibility, CreatedAt: createdAt,
	}
	if authorHash != "" {
		rec.AuthorHash = &authorHash
	}
	if signature != "" {
		rec.Signature = &signature
	}
	if protocolVersion != "" {
		rec.ProtocolVersion = &protocolVersion
	}
	return rec, nil
}

// GetByHash fetches a single stored block, or fberr.ErrNotFound.
func (r *BlocksRepository) GetByHash(ctx context.Context, hash string) (*Record, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT hash, type, state, refs, author_hash, signature, protocol_version, chain_id, is_head, visibility, created_at
		FROM blocks WHERE hash=$1
	`, hash)
	rec, err := scanRecord(row)
	if err == sql.ErrNoRows {
		return nil, fberr.ErrNotFound
	}
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "get block", err)
	}
	return rec, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRecord(row scannable) (*Record, error) {
	var (
		rec                        Record
		stateJSON, refsJSON         []byte
		authorHash, sig, protoVer   sql.NullString
	)
	if err := row.Scan(&rec.Hash, &rec.Type, &stateJSON, &refsJSON, &authorHash, &sig, &protoVer, &rec.ChainID, &rec.IsHead, &rec.Visibility, &rec.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(stateJSON, &rec.State); err != nil {
		return nil, fmt.Errorf("unmarshal state: %w", err)
	}
	if err := json.Unmarshal(refsJSON, &rec.Refs); err != nil {
		return nil, fmt.Errorf("unmarshal refs: %w", err)
	}
	if authorHash.Valid {
		rec.AuthorHash = &authorHash.String
	}
	if sig.Valid {
		rec.Signature = &sig.String
	}
	if protoVer.Valid {
		rec.ProtocolVersion = &protoVer.String
	}
	return &rec, nil
}
