// Copyright 2026 FoodBlock Protocol
//
// Chain, tree, forward, find, and type query endpoints
package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
	"github.com/foodxdevelopment/foodblock/internal/store"
)

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fberr.New(fberr.KindBadRequest, "expected a non-negative integer")
	}
	return n, nil
}

const (
	defaultChainDepth = 100
	maxChainDepth     = 500
)

// handleChain implements GET /chain/:hash (§4.5): walk refs.updates back
// to genesis, bounded by an optional depth query param (default 100, cap
// 500).
func (s *Server) handleChain(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	depth := defaultChainDepth
	if v := r.URL.Query().Get("depth"); v != "" {
		if n, err := parsePositiveInt(v); err == nil && n > 0 {
			depth = n
		}
	}
	if depth > maxChainDepth {
		depth = maxChainDepth
	}
	recs, err := s.repos.Query.Chain(r.Context(), hash, depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"chain": recs, "count": len(recs)})
}

const (
	defaultTreeDepth = 10
	maxTreeDepth     = 50
)

// handleTree implements GET /tree/:hash (§4.5): every block reachable by
// forward references, bounded by an optional depth query param (default
// 10, cap 50).
func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	depth := defaultTreeDepth
	if v := r.URL.Query().Get("depth"); v != "" {
		if n, err := parsePositiveInt(v); err == nil && n > 0 {
			depth = n
		}
	}
	if depth > maxTreeDepth {
		depth = maxTreeDepth
	}
	recs, err := s.repos.Query.Tree(r.Context(), hash, depth)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tree": recs, "count": len(recs)})
}

// handleForward implements GET /forward/:hash (§4.5): every block that
// references hash, the inverse of a chain/tree walk.
func (s *Server) handleForward(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	recs, err := s.repos.Query.Forward(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"forward": recs, "count": len(recs)})
}

// handleHeads implements GET /heads (§4.5), optionally narrowed by ?type=.
func (s *Server) handleHeads(w http.ResponseWriter, r *http.Request) {
	typ := r.URL.Query().Get("type")
	recs, err := s.repos.Query.Heads(r.Context(), typ)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"heads": recs, "count": len(recs)})
}

// handleFind implements GET /find (§4.5, §8.2): the full composable
// search contract — type (exact or dot-prefix), ref role/value, author, a
// created_at range, heads-by-default, sort order, a whitelisted set of
// state.<field> filters, a total count, and has_more.
func (s *Server) handleFind(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := store.FindFilter{
		Type:       q.Get("type"),
		RefRole:    q.Get("ref"),
		RefValue:   q.Get("ref_value"),
		AuthorHash: q.Get("author"),
		HeadsOnly:  q.Get("heads") != "false",
		Oldest:     q.Get("sort") == "oldest",
		StateEq:    map[string]string{},
	}
	if v := q.Get("after"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.After = t
		}
	}
	if v := q.Get("before"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			f.Before = t
		}
	}
	for key, values := range q {
		if !strings.HasPrefix(key, "state.") || len(values) == 0 {
			continue
		}
		f.StateEq[strings.TrimPrefix(key, "state.")] = values[0]
	}
	if v := q.Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			f.Limit = n
		}
	}
	if v := q.Get("offset"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			f.Offset = n
		}
	}

	recs, total, err := s.repos.Query.Find(r.Context(), f)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"blocks":   recs,
		"count":    total,
		"has_more": f.Offset+len(recs) < total,
	})
}

// handleVerify implements GET /verify/:hash (§4.5, §8.1): recomputes the
// hash from stored (type,state,refs) and, when an author key is known,
// re-verifies the signature.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	rec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}

	recomputed, err := block.Hash(rec.Type, rec.State, rec.Refs)
	if err != nil {
		writeErrorMsg(w, fberr.KindInternal, err.Error())
		return
	}

	result := map[string]any{
		"hash_valid": recomputed == rec.Hash,
	}
	if rec.AuthorHash != nil && rec.Signature != nil {
		keys, kerr := s.repos.Blocks.ResolveAuthorKeys(r.Context(), *rec.AuthorHash)
		if kerr == nil && len(keys.SigningPublicKey) > 0 {
			wrapper := &block.Wrapper{
				FoodBlock:  block.Block{Hash: rec.Hash, Type: rec.Type, State: rec.State, Refs: rec.Refs},
				AuthorHash: *rec.AuthorHash,
				Signature:  *rec.Signature,
			}
			ok, verr := block.Verify(wrapper, keys.SigningPublicKey)
			result["signature_valid"] = ok && verr == nil
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// handleTypes implements GET /types (§4.5): the distinct types observed
// among current heads, a cheap approximation of the live type namespace.
func (s *Server) handleTypes(w http.ResponseWriter, r *http.Request) {
	recs, err := s.repos.Query.Heads(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	seen := map[string]int{}
	for _, rec := range recs {
		seen[rec.Type]++
	}
	writeJSON(w, http.StatusOK, map[string]any{"types": seen})
}

// handleTypeDetail implements GET /types/:type: current heads of one
// type, plus whether it looks like well-formed dot notation (§1).
func (s *Server) handleTypeDetail(w http.ResponseWriter, r *http.Request) {
	typ := r.PathValue("type")
	recs, err := s.repos.Query.Heads(r.Context(), typ)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"type":        typ,
		"well_formed": block.IsValidTypeName(typ),
		"heads":       recs,
		"count":       len(recs),
	})
}
