// Copyright 2026 FoodBlock Protocol
//
// Read-side repository backing the query endpoints
package store

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// QueryRepository backs the read-side endpoints of §4.5/§6.1.
type QueryRepository struct {
	db *sql.DB
}

func NewQueryRepository(db *sql.DB) *QueryRepository {
	return &QueryRepository{db: db}
}

// ListFilter narrows GET /blocks (§6.1).
type ListFilter struct {
	Type       string // exact or dot-prefix (transfer matches transfer.order)
	RefRole    string
	RefValue   string
	AuthorHash string
	HeadsOnly  bool
	Limit      int
	Offset     int
}

// FindFilter narrows GET /find (§4.5, §6.1): the full composable search
// contract — type (exact or dot-prefix), ref role/value, author, a
// created_at range, heads-by-default, sort order, and a whitelisted set
// of state.<field> equality filters.
type FindFilter struct {
	Type       string
	RefRole    string
	RefValue   string
	AuthorHash string
	After      time.Time
	Before     time.Time
	HeadsOnly  bool
	Oldest     bool // sort=oldest; default is newest-first
	StateEq    map[string]string
	Limit      int
	Offset     int
}

// findStateWhitelist bounds which state.<field> filters /find accepts, so
// an arbitrary field name can never force a full jsonb scan (§4.5).
var findStateWhitelist = map[string]bool{
	"status":      true,
	"visibility":  true,
	"draft":       true,
	"instance_id": true,
	"sku":         true,
	"lot_number":  true,
	"batch_id":    true,
}

// appendTypeFilter ORs an exact type match with a dot-prefix match
// (§4.5/§6.1: "type (exact or type. prefix)"), so ?type=transfer also
// returns transfer.order.
func appendTypeFilter(b *strings.Builder, args *[]any, n *int, typ string) {
	if typ == "" {
		return
	}
	b.WriteString(" AND (type = $")
	b.WriteString(strconv.Itoa(*n))
	*args = append(*args, typ)
	*n++
	b.WriteString(" OR type LIKE $")
	b.WriteString(strconv.Itoa(*n))
	*args = append(*args, likeEscape(typ)+".%")
	*n++
	b.WriteString(")")
}

func likeEscape(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// List returns blocks matching filter, newest first, tie-broken by hash
// ascending (§4.5).
func (r *QueryRepository) List(ctx context.Context, f ListFilter) ([]*Record, error) {
	var b strings.Builder
	b.WriteString(`SELECT hash, type, state, refs, author_hash, signature, protocol_version, chain_id, is_head, visibility, created_at FROM blocks WHERE true`)
	var args []any
	n := 1
	appendTypeFilter(&b, &args, &n, f.Type)
	if f.RefRole != "" && f.RefValue != "" {
		b.WriteString(" AND refs->>$")
		b.WriteString(strconv.Itoa(n))
		args = append(args, f.RefRole)
		n++
		b.WriteString(" = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, f.RefValue)
		n++
	}
	if f.AuthorHash != "" {
		b.WriteString(" AND author_hash = $")
		b.WriteString(strconv.Itoa(n))
		args = append(args, f.AuthorHash)
		n++
	}
	if f.HeadsOnly {
		b.WriteString(" AND is_head = true")
	}
	b.WriteString(" ORDER BY created_at DESC, hash ASC")
	limit := f.Limit
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	b.WriteString(" LIMIT $")
	b.WriteString(strconv.Itoa(n))
	args = append(args, limit)
	n++
	b.WriteString(" OFFSET $")
	b.WriteString(strconv.Itoa(n))
	args = append(args, f.Offset)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "list blocks", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Find runs the GET /find composable search (§4.5, §8.2), reporting the
// total match count alongside the returned page so the caller can derive
// has_more.
func (r *QueryRepository) Find(ctx context.Context, f FindFilter) ([]*Record, int, error) {
	var where strings.Builder
	where.WriteString(" WHERE true")
	var args []any
	n := 1
	appendTypeFilter(&where, &args, &n, f.Type)
	if f.RefRole != "" && f.RefValue != "" {
		where.WriteString(" AND refs->>$")
		where.WriteString(strconv.Itoa(n))
		args = append(args, f.RefRole)
		n++
		where.WriteString(" = $")
		where.WriteString(strconv.Itoa(n))
		args = append(args, f.RefValue)
		n++
	}
	if f.AuthorHash != "" {
		where.WriteString(" AND author_hash = $")
		where.WriteString(strconv.Itoa(n))
		args = append(args, f.AuthorHash)
		n++
	}
	if !f.After.IsZero() {
		where.WriteString(" AND created_at > $")
		where.WriteString(strconv.Itoa(n))
		args = append(args, f.After)
		n++
	}
	if !f.Before.IsZero() {
		where.WriteString(" AND created_at < $")
		where.WriteString(strconv.Itoa(n))
		args = append(args, f.Before)
		n++
	}
	if f.HeadsOnly {
		where.WriteString(" AND is_head = true")
	}
	for field, value := range f.StateEq {
		if !findStateWhitelist[field] {
			continue
		}
		where.WriteString(" AND state->>$")
		where.WriteString(strconv.Itoa(n))
		args = append(args, field)
		n++
		where.WriteString(" = $")
		where.WriteString(strconv.Itoa(n))
		args = append(args, value)
		n++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT count(*) FROM blocks"+where.String(), args...).Scan(&total); err != nil {
		return nil, 0, fberr.Wrap(fberr.KindInternal, "count find results", err)
	}

	var b strings.Builder
	b.WriteString(`SELECT hash, type, state, refs, author_hash, signature, protocol_version, chain_id, is_head, visibility, created_at FROM blocks`)
	b.WriteString(where.String())
	if f.Oldest {
		b.WriteString(" ORDER BY created_at ASC, hash ASC")
	} else {
		b.WriteString(" ORDER BY created_at DESC, hash ASC")
	}
	limit := f.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	b.WriteString(" LIMIT $")
	b.WriteString(strconv.Itoa(n))
	args = append(args, limit)
	n++
	b.WriteString(" OFFSET $")
	b.WriteString(strconv.Itoa(n))
	args = append(args, f.Offset)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, 0, fberr.Wrap(fberr.KindInternal, "find blocks", err)
	}
	defer rows.Close()
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, 0, err
	}
	return recs, total, nil
}

// Since returns blocks created after cursor (a time.RFC3339Nano
// timestamp, or zero for "from the beginning"), oldest first, optionally
// narrowed to types, for federation pull (§4.8).
func (r *QueryRepository) Since(ctx context.Context, cursor time.Time, types []string, limit int) ([]*Record, error) {
	var b strings.Builder
	b.WriteString(`SELECT hash, type, state, refs, author_hash, signature, protocol_version, chain_id, is_head, visibility, created_at FROM blocks WHERE created_at > $1`)
	args := []any{cursor}
	n := 2
	if len(types) > 0 {
		b.WriteString(" AND type IN (")
		for i, t := range types {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString("$")
			b.WriteString(strconv.Itoa(n))
			args = append(args, t)
			n++
		}
		b.WriteString(")")
	}
	b.WriteString(" ORDER BY created_at ASC LIMIT $")
	b.WriteString(strconv.Itoa(n))
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, b.String(), args...)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "list blocks since cursor", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

// Heads returns the current chain heads, optionally filtered by type.
func (r *QueryRepository) Heads(ctx context.Context, typ string) ([]*Record, error) {
	return r.List(ctx, ListFilter{Type: typ, HeadsOnly: true, Limit: 500})
}

// Chain walks backward from hash via refs.updates to the chain genesis,
// stopping after maxDepth blocks (§4.5, GET /chain/:hash).
func (r *QueryRepository) Chain(ctx context.Context, hash string, maxDepth int) ([]*Record, error) {
	var out []*Record
	cur := hash
	seen := map[string]bool{}
	for cur != "" && !seen[cur] && len(out) < maxDepth {
		seen[cur] = true
		rec, err := r.getByHash(ctx, cur)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
		next, ok := refString(rec.Refs, "updates")
		if !ok {
			break
		}
		cur = next
	}
	return out, nil
}

// Tree returns every block reachable from hash by following the hashes in
// each block's refs, up to maxDepth hops, used by GET /tree/:hash. Hashes
// inside state are not followed.
func (r *QueryRepository) Tree(ctx context.Context, hash string, maxDepth int) ([]*Record, error) {
	visited := map[string]*Record{}
	var walk func(h string, depth int) error
	walk = func(h string, depth int) error {
		if depth > maxDepth || visited[h] != nil {
			return nil
		}
		rec, err := r.getByHash(ctx, h)
		if err == fberr.ErrNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		visited[h] = rec
		for _, ref := range collectRefHashes(rec.Refs) {
			if err := walk(ref, depth+1); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(hash, 0); err != nil {
		return nil, err
	}
	out := make([]*Record, 0, len(visited))
	for _, rec := range visited {
		out = append(out, rec)
	}
	return out, nil
}

// Forward returns every block that references hash (the inverse of
// refs), backing GET /forward/:hash.
func (r *QueryRepository) Forward(ctx context.Context, hash string) ([]*Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT hash, type, state, refs, author_hash, signature, protocol_version, chain_id, is_head, visibility, created_at
		FROM blocks
		WHERE refs @> ('{"updates":"' || $1 || '"}')::jsonb
		   OR refs @> ('{"target":"' || $1 || '"}')::jsonb
		   OR refs::text LIKE '%"' || $1 || '"%'
		ORDER BY created_at ASC
	`, hash)
	if err != nil {
		return nil, fberr.Wrap(fberr.KindInternal, "forward refs", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *QueryRepository) getByHash(ctx context.Context, hash string) (*Record, error) {
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

func collectRefHashes(refs map[string]any) []string {
	var out []string
	for _, v := range refs {
		switch t := v.(type) {
		case string:
			out = append(out, t)
		case []any:
			for _, e := range t {
				if s, ok := e.(string); ok {
					out = append(out, s)
				}
			}
		}
	}
	return out
}

func scanRecords(rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fberr.Wrap(fberr.KindInternal, "scan block", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

