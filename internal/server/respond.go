package server

import (
	"encoding/json"
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/pengpongpang/deepbrain/internal/store"
	"github.com/pengpongpang/deepbrain/pkg/errors"
	"github.com/pengpongpang/deepbrain/pkg/forest"
)

// maxBodyBytes bounds request bodies. Documents with a few thousand nodes
// stay well under this.
const maxBodyBytes = 4 << 20

// writeJSON encodes v with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError answers with the envelope and status for err.
func writeError(w http.ResponseWriter, err error) {
	env := errors.EnvelopeFor(err)
	writeJSON(w, errors.HTTPStatus(env.Code), env)
}

// decode reads a JSON body into v. A syntactically broken or oversized
// body is an INVALID_INPUT, not a 500.
func decode(r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "Invalid request body")
	}
	return nil
}

// queryInt parses an integer query parameter, clamped to [min, max].
// Absent or unparseable values fall back to def.
func queryInt(r *http.Request, name string, def, min, max int64) int64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// mapStoreErr translates store sentinels into coded errors; anything else
// becomes a STORAGE_ERROR so backend details never leak into responses.
func mapStoreErr(err error, code errors.Code, msg string) error {
	if stderrors.Is(err, store.ErrNotFound) {
		return errors.New(code, "%s", msg)
	}
	return errors.Wrap(errors.ErrCodeStorage, err, "Storage operation failed")
}

// mapForestErr translates engine sentinels into coded errors. Engine
// failures are always caller mistakes (bad node reference, cycle), never
// server faults.
func mapForestErr(err error) error {
	switch {
	case stderrors.Is(err, forest.ErrNodeNotFound):
		return errors.Wrap(errors.ErrCodeNodeNotFound, err, "Node not found")
	case stderrors.Is(err, forest.ErrInvalidParent):
		return errors.Wrap(errors.ErrCodeInvalidParent, err, "Invalid parent node")
	case stderrors.Is(err, forest.ErrCyclicReparent):
		return errors.Wrap(errors.ErrCodeInvalidParent, err, "Move would create a cycle")
	case stderrors.Is(err, forest.ErrSiblingSetMismatch):
		return errors.Wrap(errors.ErrCodeInvalidSiblings, err, "Ordered ids must match the current children")
	case stderrors.Is(err, forest.ErrDuplicateID):
		return errors.Wrap(errors.ErrCodeInvalidNode, err, "Node id already exists")
	default:
		return errors.Wrap(errors.ErrCodeInvalidDocument, err, "Document is not a valid mindmap")
	}
}
