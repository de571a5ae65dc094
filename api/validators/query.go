package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

// ParamInt64 reads key from the query string, falling back to a form body.
// Missing values fail when required is set.
func ParamInt64(r *http.Request, key string, required bool) (int64, bool, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		raw = strings.TrimSpace(r.FormValue(key))
	}
	if raw == "" {
		if required {
			return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "missing parameter").
				WithDetails(map[string]string{key: "is required"})
		}
		return 0, false, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "parameter must be numeric").
			WithDetails(map[string]string{key: "must be an integer"})
	}
	return value, true, nil
}

// ParamInt is ParamInt64 narrowed to int.
func ParamInt(r *http.Request, key string, required bool) (int, bool, error) {
	value, ok, err := ParamInt64(r, key, required)
	if err != nil || !ok {
		return 0, ok, err
	}
	if int64(int(value)) != value {
		return 0, false, pkgerrors.New(pkgerrors.CodeValidation, "parameter out of range").
			WithDetails(map[string]string{key: "is out of range"})
	}
	return int(value), true, nil
}

// PathInt64 parses a positive path segment such as {id}.
func PathInt64(raw, key string) (int64, error) {
	value, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || value <= 0 {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "invalid path parameter").
			WithDetails(map[string]string{key: "must be a positive integer"})
	}
	return value, nil
}
