package restclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/PaesslerAG/jsonpath"
)

// FetchTable GETs path and decodes the JSON found at keyPath into rows.
// keyPath is dotted ("data.deeds"); empty means the whole body. A single
// object at keyPath becomes one row. Network failures, non-2xx statuses,
// bodies with an "error" field and missing keys all yield an empty table,
// logged as a warning. FetchTable never returns an error.
func FetchTable[T any](ctx context.Context, c *Client, path string, params url.Values, keyPath string) []T {
	raw, ok := fetchAt(ctx, c, path, params, keyPath)
	if !ok || raw == nil {
		return nil
	}

	if _, isObject := raw.(map[string]any); isObject {
		raw = []any{raw}
	}

	rows, err := convert[[]T](raw)
	if err != nil {
		slog.Warn("unexpected response shape", "client", c.name, "path", path, "key_path", keyPath, "error", err)
		return nil
	}
	return rows
}

// FetchObject is FetchTable for endpoints that return a single object.
// The boolean is false when nothing usable was returned.
func FetchObject[T any](ctx context.Context, c *Client, path string, params url.Values, keyPath string) (T, bool) {
	var zero T
	raw, ok := fetchAt(ctx, c, path, params, keyPath)
	if !ok || raw == nil {
		return zero, false
	}

	obj, err := convert[T](raw)
	if err != nil {
		slog.Warn("unexpected response shape", "client", c.name, "path", path, "key_path", keyPath, "error", err)
		return zero, false
	}
	return obj, true
}

func fetchAt(ctx context.Context, c *Client, path string, params url.Values, keyPath string) (any, bool) {
	resp, err := c.Get(ctx, path, params)
	if err != nil {
		slog.Warn("request failed", "client", c.name, "path", path, "error", err)
		return nil, false
	}
	if !resp.OK() {
		slog.Warn("non-success status", "client", c.name, "path", path, "status", resp.StatusCode)
		return nil, false
	}

	var body any
	dec := json.NewDecoder(bytes.NewReader(resp.Body))
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		slog.Warn("invalid JSON response", "client", c.name, "path", path, "error", err)
		return nil, false
	}
	if obj, ok := body.(map[string]any); ok {
		if apiErr, has := obj["error"]; has && apiErr != nil {
			slog.Warn("API returned error", "client", c.name, "path", path, "api_error", apiErr)
			return nil, false
		}
	}

	if keyPath == "" {
		return body, true
	}
	value, err := jsonpath.Get(bracketPath(keyPath), body)
	if err != nil {
		slog.Warn("key path not found in response", "client", c.name, "path", path, "key_path", keyPath, "error", err)
		return nil, false
	}
	return value, true
}

// bracketPath turns "data.deeds" into $["data"]["deeds"] so keys may contain
// characters that dot notation rejects.
func bracketPath(keyPath string) string {
	var b strings.Builder
	b.WriteString("$")
	for _, key := range strings.Split(keyPath, ".") {
		b.WriteString("[")
		b.WriteString(strconv.Quote(key))
		b.WriteString("]")
	}
	return b.String()
}

func convert[T any](raw any) (T, error) {
	var out T
	data, err := json.Marshal(raw)
	if err != nil {
		return out, fmt.Errorf("re-encoding value: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decoding value: %w", err)
	}
	return out, nil
}
