package admin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clipmint/reelsbot/internal/domain"
	"github.com/clipmint/reelsbot/internal/metrics"
	"github.com/clipmint/reelsbot/internal/service"
)

// Server is the ops HTTP surface: health, Prometheus metrics, the payment
// provider webhook and basic-auth protected operator endpoints.
type Server struct {
	addr      string
	username  string
	password  string
	log       *slog.Logger
	users     *service.UserService
	ledger    *service.LedgerService
	payments  *service.PaymentService
	cryptomus *service.CryptomusClient
	router    *chi.Mux
}

func NewServer(addr, username, password string, log *slog.Logger, users *service.UserService, ledger *service.LedgerService, payments *service.PaymentService, cryptomus *service.CryptomusClient) *Server {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	s := &Server{
		addr:      addr,
		username:  username,
		password:  password,
		log:       log,
		users:     users,
		ledger:    ledger,
		payments:  payments,
		cryptomus: cryptomus,
		router:    r,
	}

	r.Get("/healthz", s.handleHealthz)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/webhook/cryptomus", s.handleCryptomusWebhook)
	r.Group(func(protected chi.Router) {
		protected.Use(s.basicAuthMiddleware())
		protected.Get("/stats", s.handleStats)
		protected.Post("/grant", s.handleGrant)
		protected.Post("/stars", s.handleStars)
	})
	return s
}

func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.log.Error("ops server shutdown error", "err", err)
		}
	}()

	s.log.Info("ops server listening", "addr", s.addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("ops listen: %w", err)
	}
	return nil
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

type cryptomusWebhook struct {
	UUID   string `json:"uuid"`
	Status string `json:"status"`
}

// handleCryptomusWebhook is the primary settlement path for crypto invoices.
// The provider signature travels in the "sign" header and covers the raw
// body. Settlement is idempotent, so redelivered notifications answer 200
// without side effects.
func (s *Server) handleCryptomusWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "read body error", http.StatusBadRequest)
		return
	}

	if s.cryptomus == nil || !s.cryptomus.VerifySign(body, r.Header.Get("sign")) {
		http.Error(w, "bad signature", http.StatusForbidden)
		return
	}

	var hook cryptomusWebhook
	if err := json.Unmarshal(body, &hook); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}

	var status domain.PaymentStatus
	switch hook.Status {
	case "paid", "paid_over":
		status = domain.PaymentStatusSucceeded
	case "cancel", "fail", "wrong_amount", "system_fail":
		status = domain.PaymentStatusCanceled
	default:
		// Intermediate states are acknowledged and ignored.
		w.WriteHeader(http.StatusOK)
		return
	}

	res, err := s.payments.Settle(r.Context(), hook.UUID, status)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownPayment) {
			http.Error(w, "unknown payment", http.StatusNotFound)
			return
		}
		s.log.Error("webhook settle", "err", err, "payment_id", hook.UUID)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	if !res.Replay {
		metrics.PaymentsSettledTotal.WithLabelValues(string(res.Payment.Status)).Inc()
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	total, err := s.users.CountUsers(r.Context())
	if err != nil {
		s.internalError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"users": total})
}

type grantRequest struct {
	UserID int64 `json:"user_id"`
	Days   int   `json:"days"`
}

func (s *Server) handleGrant(w http.ResponseWriter, r *http.Request) {
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 || req.Days <= 0 {
		http.Error(w, "user_id and positive days required", http.StatusBadRequest)
		return
	}

	until, err := s.ledger.ExtendPremium(r.Context(), req.UserID, req.Days)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user_id":       req.UserID,
		"premium_until": until.Format("2006-01-02"),
	})
}

type starsRequest struct {
	UserID int64 `json:"user_id"`
	Delta  int   `json:"delta"`
}

func (s *Server) handleStars(w http.ResponseWriter, r *http.Request) {
	var req starsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if req.UserID == 0 || req.Delta == 0 {
		http.Error(w, "user_id and non-zero delta required", http.StatusBadRequest)
		return
	}

	balance, err := s.ledger.CreditStars(r.Context(), req.UserID, req.Delta)
	if err != nil {
		s.badRequest(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"user_id": req.UserID,
		"balance": balance,
	})
}

func (s *Server) basicAuthMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			if !ok || user != s.username || pass != s.password {
				w.Header().Set("WWW-Authenticate", `Basic realm="reelsbot"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) badRequest(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), http.StatusBadRequest)
}

func (s *Server) internalError(w http.ResponseWriter, err error) {
	s.log.Error("ops handler error", "err", err)
	http.Error(w, "internal error", http.StatusInternalServerError)
}
