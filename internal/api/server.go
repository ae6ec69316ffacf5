package api

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewServer creates an HTTP server with all routes configured.
func NewServer(port string, handler *Handler, adminAPIKey string) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/valuations/{account}", handler.GetValuation)
	mux.HandleFunc("GET /api/v1/valuations", handler.ListValuations)
	mux.HandleFunc("GET /api/v1/ledger/accounts", handler.GetLedgerAccounts)
	mux.HandleFunc("GET /api/v1/ledger/top", handler.GetTopPostingRewards)
	mux.HandleFunc("GET /api/v1/ledger/active", handler.GetActiveUsers)
	mux.HandleFunc("GET /api/v1/richlist/{token}", handler.GetRichList)
	mux.Handle("GET /metrics", promhttp.Handler())

	refresh := http.HandlerFunc(handler.RefreshMarket)
	if adminAPIKey != "" {
		mux.Handle("POST /api/v1/market/refresh", requireAuth(adminAPIKey, refresh))
	} else {
		mux.Handle("POST /api/v1/market/refresh", refresh)
	}

	return &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
}

func requireAuth(apiKey string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(auth, "Bearer ")
		if !ok || subtle.ConstantTimeCompare([]byte(token), []byte(apiKey)) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r)
	})
}
