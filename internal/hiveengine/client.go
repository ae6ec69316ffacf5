// Package hiveengine reads contract tables from the Hive-Engine side chain
// through a failover pool of federated RPC nodes.
package hiveengine

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/beebalanced/valuation/internal/failover"
)

const (
	findLimit = 1000
	cacheTTL  = time.Hour
)

// Client queries Hive-Engine contracts.
type Client struct {
	pool       *failover.Pool
	policy     failover.Policy
	httpClient *http.Client
	cache      *cache.Cache
}

// NewClient creates a client over pool. It panics on a nil pool.
func NewClient(pool *failover.Pool, policy failover.Policy, timeout time.Duration) *Client {
	if pool == nil {
		panic("hiveengine: pool must not be nil")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		pool:       pool,
		policy:     policy,
		httpClient: &http.Client{Timeout: timeout},
		cache:      cache.New(cacheTTL, 10*time.Minute),
	}
}

// Endpoints exposes the endpoint pool, mainly for reporting the preferred node.
func (c *Client) Endpoints() *failover.Pool {
	return c.pool
}

type rpcRequest struct {
	JSONRPC string    `json:"jsonrpc"`
	ID      int       `json:"id"`
	Method  string    `json:"method"`
	Params  rpcParams `json:"params"`
}

type rpcParams struct {
	Contract string         `json:"contract"`
	Table    string         `json:"table"`
	Query    map[string]any `json:"query"`
	Limit    int            `json:"limit,omitempty"`
	Offset   int            `json:"offset,omitempty"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// FindOne returns the first record matching query, or nil when none matches.
// It fails with a *failover.ServiceUnavailableError when every node fails.
func (c *Client) FindOne(ctx context.Context, contract, table string, query map[string]any) (json.RawMessage, error) {
	params := rpcParams{Contract: contract, Table: table, Query: query}
	raw, err := failover.Call(ctx, c.pool, c.policy, operation("findOne", params),
		func(ctx context.Context, endpoint string) (json.RawMessage, error) {
			return c.rpc(ctx, endpoint, "findOne", params)
		})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}
	return raw, nil
}

// Find returns all records matching query, up to the node page limit.
func (c *Client) Find(ctx context.Context, contract, table string, query map[string]any) ([]json.RawMessage, error) {
	params := rpcParams{Contract: contract, Table: table, Query: query, Limit: findLimit}
	raw, err := failover.Call(ctx, c.pool, c.policy, operation("find", params),
		func(ctx context.Context, endpoint string) (json.RawMessage, error) {
			return c.rpc(ctx, endpoint, "find", params)
		})
	if err != nil {
		return nil, err
	}
	if isNull(raw) {
		return nil, nil
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decoding %s.%s rows: %w", contract, table, err)
	}
	return rows, nil
}

func (c *Client) rpc(ctx context.Context, endpoint, method string, params rpcParams) (json.RawMessage, error) {
	body, err := json.Marshal(rpcRequest{JSONRPC: "2.0", ID: 1, Method: method, Params: params})
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint+"contracts", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode}
	}

	var out rpcResponse
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing JSON-RPC response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("JSON-RPC error %d: %s", out.Error.Code, out.Error.Message)
	}
	return out.Result, nil
}

// StatusError is a non-200 answer from a node.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d from %s", e.StatusCode, e.Endpoint)
}

func operation(method string, p rpcParams) failover.Operation {
	return failover.Operation{
		Name: method,
		Params: map[string]any{
			"contract": p.Contract,
			"table":    p.Table,
			"query":    p.Query,
		},
	}
}

func isNull(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null"))
}

// IsUnavailable reports whether err means every node failed.
func IsUnavailable(err error) bool {
	return errors.Is(err, failover.ErrServiceUnavailable)
}
