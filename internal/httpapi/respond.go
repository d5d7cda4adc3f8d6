// Copyright 2026 FoodBlock Protocol
//
// Shared JSON response helpers
// Package httpapi is FoodBlock's HTTP surface (§4.9, §6.1): a stdlib
// net/http.ServeMux router (no framework, mux.HandleFunc per endpoint)
// plus the middleware chain (CORS, per-IP rate limiting, body-size
// limiting, BASE_PATH stripping) and one handler file per endpoint group.
package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		// Headers are already sent, so the encode error is dropped
		// without logging.
		_ = err
	}
}

// writeError renders err as the §7 {"error": "..."} envelope with the
// status its Kind maps to.
func writeError(w http.ResponseWriter, err error) {
	kind := fberr.KindOf(err)
	writeJSON(w, kind.HTTPStatus(), map[string]string{"error": err.Error()})
}

func writeErrorMsg(w http.ResponseWriter, kind fberr.Kind, msg string) {
	writeJSON(w, kind.HTTPStatus(), map[string]string{"error": msg})
}
