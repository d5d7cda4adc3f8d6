// Copyright 2026 FoodBlock Protocol
//
// Federation discovery, handshake, push, and pull endpoints
package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/foodxdevelopment/foodblock/internal/block"
	"github.com/foodxdevelopment/foodblock/internal/fberr"
	"github.com/foodxdevelopment/foodblock/internal/federation"
)

// handleDiscovery implements GET /.well-known/foodblock (§4.8): this
// server's signed discovery document.
func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	heads, err := s.repos.Query.Heads(r.Context(), "")
	if err != nil {
		writeError(w, err)
		return
	}
	seen := map[string]bool{}
	var types []string
	for _, h := range heads {
		if !seen[h.Type] {
			seen[h.Type] = true
			types = append(types, h.Type)
		}
	}
	peers, err := s.repos.Peers.List(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	doc, err := federation.BuildDiscovery(s.cfg.ServerName, s.signingPub, s.signingKey, types, len(heads), len(peers))
	if err != nil {
		writeErrorMsg(w, fberr.KindInternal, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// handleHandshake implements POST /.well-known/foodblock/handshake
// (§4.8): verify the peer's signed payload, record the peer, and reply
// with our own signed handshake.
func (s *Server) handleHandshake(w http.ResponseWriter, r *http.Request) {
	var req federation.HandshakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}

	ok, err := federation.VerifyHandshake(req)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, fberr.ErrInvalidSignature)
		return
	}

	if err := s.repos.Peers.Upsert(r.Context(), req.PeerURL, req.PeerName, req.PublicKey); err != nil {
		writeError(w, err)
		return
	}

	resp := federation.BuildHandshake(s.cfg.ServerURL, s.cfg.ServerName, s.signingPub, s.signingKey, req.Payload)
	writeJSON(w, http.StatusOK, resp)
}

// handlePush implements POST /.well-known/foodblock/push (§4.8): verify
// the optional push signature, then run every block through the normal
// insert pipeline.
func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	var req federation.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}

	hashes := make([]string, 0, len(req.Blocks))
	for _, raw := range req.Blocks {
		if h, ok := raw["hash"].(string); ok {
			hashes = append(hashes, h)
		}
	}
	ok, err := federation.VerifyPush(req, hashes)
	if err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, err.Error())
		return
	}
	if !ok {
		writeError(w, fberr.ErrInvalidSignature)
		return
	}

	result := federation.PushResult{}
	for _, raw := range req.Blocks {
		b, authorHash, signature, protoVersion, derr := decodeWirePushBlock(raw)
		if derr != nil {
			result.Failed++
			result.Errors = append(result.Errors, derr.Error())
			continue
		}
		outcome, ierr := s.repos.Blocks.Insert(r.Context(), b, authorHash, signature, protoVersion)
		if ierr != nil {
			result.Failed++
			result.Errors = append(result.Errors, ierr.Error())
			continue
		}
		if outcome.Exists {
			result.Skipped++
		} else {
			result.Inserted++
		}
	}
	writeJSON(w, http.StatusOK, result)
}

func decodeWirePushBlock(raw map[string]any) (*block.Block, string, string, string, error) {
	hash, _ := raw["hash"].(string)
	typ, _ := raw["type"].(string)
	state, _ := raw["state"].(map[string]any)
	refs, _ := raw["refs"].(map[string]any)
	if typ == "" {
		return nil, "", "", "", fberr.New(fberr.KindBadRequest, "block missing type")
	}
	b := &block.Block{Hash: hash, Type: typ, State: state, Refs: refs}
	authorHash, _ := raw["author_hash"].(string)
	signature, _ := raw["signature"].(string)
	protoVersion, _ := raw["protocol_version"].(string)
	return b, authorHash, signature, protoVersion, nil
}

// handlePull implements POST /.well-known/foodblock/pull (§4.8): blocks
// newer than a cursor, clamped to the [1,5000] limit.
func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	var req federation.PullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, fberr.KindBadRequest, "malformed request body")
		return
	}
	limit := federation.ClampPullLimit(req.Limit)

	cursor := time.Time{}
	if req.Since != "" {
		if t, perr := time.Parse(time.RFC3339Nano, req.Since); perr == nil {
			cursor = t
		}
	}
	if req.AfterHash != "" {
		if rec, herr := s.repos.Blocks.GetByHash(r.Context(), req.AfterHash); herr == nil {
			cursor = rec.CreatedAt
		}
	}

	recs, err := s.repos.Query.Since(r.Context(), cursor, req.Types, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	blocks := make([]map[string]any, 0, len(recs))
	outCursor := req.Since
	for _, rec := range recs {
		raw := map[string]any{
			"hash": rec.Hash, "type": rec.Type, "state": rec.State, "refs": rec.Refs,
		}
		if rec.AuthorHash != nil {
			raw["author_hash"] = *rec.AuthorHash
		}
		if rec.Signature != nil {
			raw["signature"] = *rec.Signature
		}
		if rec.ProtocolVersion != nil {
			raw["protocol_version"] = *rec.ProtocolVersion
		}
		blocks = append(blocks, raw)
		outCursor = rec.CreatedAt.Format(time.RFC3339Nano)
	}

	writeJSON(w, http.StatusOK, federation.PullResult{
		Blocks:  blocks,
		Count:   len(blocks),
		Cursor:  outCursor,
		HasMore: len(blocks) == limit,
	})
}
