// Copyright 2026 FoodBlock Protocol
//
// Unit tests for the JSON response helpers
package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/foodxdevelopment/foodblock/internal/fberr"
)

func TestWriteJSONSetsContentTypeAndStatus(t *testing.T) {
	rr := httptest.NewRecorder()
	writeJSON(rr, http.StatusCreated, map[string]string{"ok": "yes"})

	if rr.Code != http.StatusCreated {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusCreated)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content-type = %q, want application/json", ct)
	}
	var body map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["ok"] != "yes" {
		t.Errorf("body = %v", body)
	}
}

func TestWriteErrorMapsKindToStatus(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fberr.ErrNotFound, http.StatusNotFound},
		{fberr.ErrHashMismatch, http.StatusBadRequest},
		{fberr.ErrInvalidSignature, http.StatusForbidden},
		{fberr.ErrPermissionDenied, http.StatusForbidden},
		{fberr.ErrRateLimited, http.StatusTooManyRequests},
		{fberr.ErrConflict, http.StatusConflict},
		{fberr.ErrUnavailable, http.StatusServiceUnavailable},
	}
	for _, c := range cases {
		rr := httptest.NewRecorder()
		writeError(rr, c.err)
		if rr.Code != c.want {
			t.Errorf("%v: status = %d, want %d", c.err, rr.Code, c.want)
		}
		var body map[string]string
		if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if body["error"] == "" {
			t.Errorf("%v: expected non-empty error message", c.err)
		}
	}
}

func TestWriteErrorDefaultsToInternalForUnknownError(t *testing.T) {
	rr := httptest.NewRecorder()
	writeError(rr, errors.New("boom"))
	if rr.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rr.Code, http.StatusInternalServerError)
	}
}
