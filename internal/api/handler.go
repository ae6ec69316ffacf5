// Package api serves account valuations and ledger queries over HTTP.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/beebalanced/valuation/internal/domain"
	"github.com/beebalanced/valuation/internal/ledger"
	"github.com/beebalanced/valuation/internal/portfolio"
)

// Valuer values one or more game accounts.
type Valuer interface {
	Value(ctx context.Context, account string) domain.Record
	ValueAccounts(ctx context.Context, accounts []string) portfolio.Bulk
}

// PlayerChecker reports whether a game account exists.
type PlayerChecker interface {
	PlayerExists(ctx context.Context, name string) bool
}

// RichLister returns the top holders of a token.
type RichLister interface {
	RichList(ctx context.Context, token string, limit int) []domain.RichListEntry
}

// LedgerReader queries the social ledger.
type LedgerReader interface {
	Accounts(ctx context.Context, names []string) ([]ledger.Account, error)
	TopPostingRewards(ctx context.Context, n int, minimum float64) ([]ledger.PostingReward, error)
	ActiveUsers(ctx context.Context, minPostingRewards float64, minComments, months int) ([]ledger.ActiveUser, error)
}

// MarketRefresher rebuilds cached market data.
type MarketRefresher interface {
	Refresh(ctx context.Context) error
}

// Handler provides HTTP endpoints for the valuation API.
type Handler struct {
	valuer    Valuer
	players   PlayerChecker
	richList  RichLister
	ledger    LedgerReader
	refresher MarketRefresher
}

// NewHandler creates a new API handler. The ledger reader may be nil when
// no ledger database is configured.
func NewHandler(valuer Valuer, players PlayerChecker, richList RichLister, accounts LedgerReader, refresher MarketRefresher) *Handler {
	return &Handler{
		valuer:    valuer,
		players:   players,
		richList:  richList,
		ledger:    accounts,
		refresher: refresher,
	}
}

// bulkResponse is the JSON form of a portfolio.Bulk.
type bulkResponse struct {
	Skipped  bool               `json:"skipped"`
	Reason   string             `json:"reason,omitempty"`
	Accounts []string           `json:"accounts"`
	Results  []accountValuation `json:"results,omitempty"`
}

type accountValuation struct {
	Account string         `json:"account"`
	Known   bool           `json:"known"`
	Record  *domain.Record `json:"record,omitempty"`
}

// GetValuation handles GET /api/v1/valuations/{account}.
func (h *Handler) GetValuation(w http.ResponseWriter, r *http.Request) {
	account := strings.TrimSpace(r.PathValue("account"))
	if account == "" {
		writeError(w, http.StatusBadRequest, "account is required")
		return
	}
	if !h.players.PlayerExists(r.Context(), account) {
		writeError(w, http.StatusNotFound, "player not found")
		return
	}
	writeJSON(w, http.StatusOK, h.valuer.Value(r.Context(), account))
}

// ListValuations handles GET /api/v1/valuations?accounts=a,b.
func (h *Handler) ListValuations(w http.ResponseWriter, r *http.Request) {
	accounts := splitList(r.URL.Query().Get("accounts"))
	if len(accounts) == 0 {
		writeError(w, http.StatusBadRequest, "accounts query parameter is required")
		return
	}

	bulk := h.valuer.ValueAccounts(r.Context(), accounts)
	resp := bulkResponse{Skipped: bulk.Skipped, Reason: bulk.Reason, Accounts: bulk.Accounts}
	if bulk.Results != nil {
		for v := range bulk.Results {
			item := accountValuation{Account: v.Account, Known: v.Known}
			if v.Known {
				item.Record = &v.Record
			}
			resp.Results = append(resp.Results, item)
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetLedgerAccounts handles GET /api/v1/ledger/accounts?names=a,b.
func (h *Handler) GetLedgerAccounts(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger database not configured")
		return
	}

	accounts, err := h.ledger.Accounts(r.Context(), splitList(r.URL.Query().Get("names")))
	writeLedgerResult(w, accounts, err)
}

// GetTopPostingRewards handles GET /api/v1/ledger/top?n=&min=.
func (h *Handler) GetTopPostingRewards(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger database not configured")
		return
	}
	q := r.URL.Query()
	n := queryInt(q.Get("n"), 100)
	minimum, _ := strconv.ParseFloat(q.Get("min"), 64)

	rows, err := h.ledger.TopPostingRewards(r.Context(), n, minimum)
	writeLedgerResult(w, rows, err)
}

// GetActiveUsers handles GET /api/v1/ledger/active?min_rewards=&min_comments=&months=.
func (h *Handler) GetActiveUsers(w http.ResponseWriter, r *http.Request) {
	if h.ledger == nil {
		writeError(w, http.StatusServiceUnavailable, "ledger database not configured")
		return
	}
	q := r.URL.Query()
	minRewards, _ := strconv.ParseFloat(q.Get("min_rewards"), 64)

	rows, err := h.ledger.ActiveUsers(r.Context(), minRewards, queryInt(q.Get("min_comments"), 10), queryInt(q.Get("months"), 1))
	writeLedgerResult(w, rows, err)
}

func writeLedgerResult[T any](w http.ResponseWriter, rows []T, err error) {
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidInput) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		slog.Error("ledger query failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if rows == nil {
		rows = []T{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func queryInt(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// GetRichList handles GET /api/v1/richlist/{token}.
func (h *Handler) GetRichList(w http.ResponseWriter, r *http.Request) {
	const maxLimit = 1000
	limit := 100
	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = min(n, maxLimit)
		}
	}

	token := strings.ToUpper(r.PathValue("token"))
	entries := h.richList.RichList(r.Context(), token, limit)
	if entries == nil {
		entries = []domain.RichListEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// RefreshMarket handles POST /api/v1/market/refresh.
func (h *Handler) RefreshMarket(w http.ResponseWriter, r *http.Request) {
	if err := h.refresher.Refresh(r.Context()); err != nil {
		slog.Error("failed to refresh market data", "error", err)
		writeError(w, http.StatusBadGateway, "market data unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func splitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal JSON response", "error", err)
		http.Error(w, `{"error":"internal error"}`, http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		slog.Warn("failed to write HTTP response body", "error", err)
		return
	}
	_, _ = w.Write([]byte("\n"))
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
