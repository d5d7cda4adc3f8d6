// Copyright 2026 FoodBlock Protocol
//
// Natural-language HTTP endpoints
package httpapi

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/fb"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

// handleFB implements POST /fb (§4.10): parse free text into a batch of
// dependency-ordered blocks and insert them.
func (s *Server) handleFB(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}
	if req.Text == "" {
		writeErrorMsg(w, fberr.KindBadRequest, "text is required")
		return
	}

	result, err := fb.Parse(req.Text)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}

	type insertedBlock struct {
		Block   *block.Block `json:"block"`
		Exists  bool         `json:"exists"`
		Fork    bool         `json:"fork"`
	}
	inserted := make([]insertedBlock, 0, len(result.Blocks))
	for _, b := range result.Blocks {
		outcome, ierr := s.repos.Blocks.Insert(r.Context(), b, "", "", "")
		if ierr != nil {
			writeError(w, ierr)
			return
		}
		inserted = append(inserted, insertedBlock{Block: b, Exists: outcome.Exists, Fork: outcome.Fork})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"blocks":     inserted,
		"primary":    result.Primary,
		"type":       result.Type,
		"state":      result.State,
		"refs":       result.Refs,
		"text":       result.Text,
		"confidence": result.Confidence,
	})
}

// handleExplain implements GET /explain/:hash (§4.9): a plain-language
// rendering of a stored block's type, state, and lineage. Pure
// projection — never writes state.
func (s *Server) handleExplain(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	rec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}

	explanation := map[string]any{
		"hash":   rec.Hash,
		"type":   rec.Type,
		"is_head": rec.IsHead,
		"chain_id": rec.ChainID,
	}
	if prev, ok := rec.Refs["updates"].(string); ok {
		explanation["updates"] = prev
	}
	if rec.AuthorHash != nil {
		explanation["author_hash"] = *rec.AuthorHash
	}
	explanation["fields"] = rec.State
	writeJSON(w, http.StatusOK, explanation)
}

// handleParseFBN implements POST /parse-fbn (§4.9, §8.2): parse FBN text
// into a Block without inserting it.
func (s *Server) handleParseFBN(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "failed to read request body")
		return
	}
	b, err := fb.ParseFBN(string(body))
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// handleFormat implements GET /format/:hash (§4.9, §8.2): render a stored
// block as FBN text.
func (s *Server) handleFormat(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	rec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	b := &block.Block{Hash: rec.Hash, Type: rec.Type, State: rec.State, Refs: rec.Refs}
	text, err := fb.Format(b)
	if err != nil {
		writeErrorMsg(w, fberr.KindInternal, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(text))
}

// handleResolveURI implements POST /resolve-uri (§4.9, §8.2): resolve an
// fb:// URI to the block it names.
func (s *Server) handleResolveURI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URI string `json:"uri"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}
	hash, err := fb.FromURI(req.URI)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	rec, err := s.repos.Blocks.GetByHash(r.Context(), hash)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleURI implements GET /uri/:hash (§4.9, §8.2): the fb:// URI naming
// a stored block, after confirming it exists.
func (s *Server) handleURI(w http.ResponseWriter, r *http.Request) {
	hash := r.PathValue("hash")
	if _, err := s.repos.Blocks.GetByHash(r.Context(), hash); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"uri": fb.ToURI(hash)})
}
