package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/fitroom-backend/pkg/errors"
)

// maxCursorLen bounds opaque paging cursors before they reach the decoder.
const maxCursorLen = 256

// ParseQueryInt reads an integer query parameter in [min, max], falling back
// to defaultVal when the parameter is absent.
func ParseQueryInt(r *http.Request, key string, defaultVal, min, max int) (int, error) {
	raw := queryValue(r, key)
	if raw == "" {
		return defaultVal, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, queryError(key, "query parameter must be numeric", nil)
	}
	if value < min || value > max {
		return 0, queryError(key, "query parameter out of range", map[string]any{"min": min, "max": max})
	}
	return value, nil
}

// ParseQueryCursor reads a paging cursor. Empty means the first page.
func ParseQueryCursor(r *http.Request, key string) (string, error) {
	raw := queryValue(r, key)
	if len(raw) > maxCursorLen {
		return "", queryError(key, "cursor is too long", map[string]any{"max": maxCursorLen})
	}
	return raw, nil
}

func queryValue(r *http.Request, key string) string {
	return strings.TrimSpace(r.URL.Query().Get(key))
}

func queryError(key, msg string, extra map[string]any) error {
	details := map[string]any{"field": key}
	for k, v := range extra {
		details[k] = v
	}
	return pkgerrors.New(pkgerrors.CodeValidation, msg).WithDetails(details)
}
