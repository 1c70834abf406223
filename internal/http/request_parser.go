package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"ledger/internal/core"
)

// HeaderOwnerID carries the authenticated user id, set by the gateway in
// front of this service.
const HeaderOwnerID = "X-Owner-ID"

const maxBodyBytes = 1 << 20

type ownerKey struct{}

// requireOwner rejects requests without a positive numeric owner header.
func requireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(HeaderOwnerID))
		id, err := strconv.ParseInt(raw, 10, 64)
		if raw == "" || err != nil || id <= 0 {
			writeError(w, r, http.StatusUnauthorized, "missing or invalid "+HeaderOwnerID+" header")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ownerKey{}, id)))
	})
}

func ownerID(r *http.Request) int64 {
	id, _ := r.Context().Value(ownerKey{}).(int64)
	return id
}

// pathID parses the {id} wildcard.
func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, core.Invalid("id", "must be a positive integer")
	}
	return id, nil
}

// queryInt reads an optional integer query parameter.
func queryInt(r *http.Request, key string, def int) (int, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, core.Invalid(key, "must be an integer")
	}
	return n, nil
}

func queryInt64(r *http.Request, key string) (int64, error) {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, core.Invalid(key, "must be an integer")
	}
	return n, nil
}

// decodeJSON reads one JSON object into v, rejecting unknown fields and
// trailing data.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return core.Invalid("body", "must not be empty")
		case errors.As(err, &maxErr):
			return core.Invalid("body", "too large")
		case errors.Is(err, core.ErrInvalidArgument):
			return err
		default:
			return core.Invalid("body", fmt.Sprintf("malformed JSON: %v", err))
		}
	}
	if dec.More() {
		return core.Invalid("body", "must contain a single JSON object")
	}
	return nil
}

// numberField accepts a JSON number or string. Strings may use a decimal comma.
type numberField string

func (n *numberField) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*n = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*n = numberField(s)
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return core.Invalid("amount", "must be a number")
	}
	*n = numberField(num.String())
	return nil
}

func (n numberField) isSet() bool { return strings.TrimSpace(string(n)) != "" }

// amount parses a strictly positive monetary amount. A missing amount is
// left zero for Validate to report.
func (n numberField) amount() (decimal.Decimal, error) {
	if !n.isSet() {
		return decimal.Zero, nil
	}
	return core.ParseAmount(string(n))
}

// nonNegative parses a limit where zero is allowed.
func (n numberField) nonNegative(field string) (decimal.Decimal, error) {
	return core.ParseLimit(field, string(n))
}

// withAmountError reports a failed amount parse in place of the amount
// error Validate raises for the zero it left behind.
func withAmountError(parseErr, validateErr error) error {
	if parseErr == nil {
		return validateErr
	}
	return errors.Join(parseErr, core.Without(validateErr, "amount"))
}
