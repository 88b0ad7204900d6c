package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"donors/internal/core"

	"github.com/go-chi/chi/v5"
)

const maxBodyBytes = 1 << 20

var errBadRequest = errors.New("bad request")

// decodeJSON reads one JSON object into dst. Unknown fields are rejected.
// Validation errors raised while decoding (a malformed amount) are returned
// unwrapped so they map to 422.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if core.IsValidation(err) {
			return err
		}
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", errBadRequest)
		}
		return fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if dec.More() {
		return fmt.Errorf("%w: trailing data after JSON object", errBadRequest)
	}
	return nil
}

// pathParam returns the decoded route parameter. chi matches on RawPath when
// it is set (the path carried escapes such as %2F), and the parameter is then
// still escaped.
func pathParam(r *http.Request, key string) (string, error) {
	raw := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return raw, nil
	}
	v, err := url.PathUnescape(raw)
	if err != nil {
		return "", fmt.Errorf("%w: malformed %s %q", errBadRequest, key, raw)
	}
	return v, nil
}

// parseTimestamp accepts RFC 3339 or a plain date; empty means unset.
func parseTimestamp(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return &t, nil
	}
	t, err := time.Parse(core.DateLayout, s)
	if err != nil {
		return nil, fmt.Errorf("received_at %q: %w", s, core.ErrInvalidDate)
	}
	return &t, nil
}

// parseAmountQuery reads a decimal amount in major units from the query.
func parseAmountQuery(r *http.Request, key string, fallback core.Money) (core.Money, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback, nil
	}
	cents, err := core.ParseDecimal(raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("%s %q: %w", key, raw, err)
	}
	return core.FromMinorUnits(cents), nil
}
