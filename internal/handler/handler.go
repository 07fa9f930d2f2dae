package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/RajshekharX12/as/internal/auth"
	"github.com/RajshekharX12/as/internal/handler/config"
	"github.com/RajshekharX12/as/internal/logger"
	"github.com/RajshekharX12/as/internal/model"
	"github.com/RajshekharX12/as/internal/pkg/errs"
	"github.com/RajshekharX12/as/internal/service"
)

func NewServer(cfg config.Config, router http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
}

type handler struct {
	auth        auth.Auth
	service     service.Service
	maxBodySize int64
	zaplog      *zap.Logger
}

func NewRouter(cfg config.Config, auth auth.Auth, service service.Service, zaplog *zap.Logger, logBodies bool) http.Handler {
	h := &handler{
		auth:        auth,
		service:     service,
		maxBodySize: cfg.MaxBodySize,
		zaplog:      zaplog,
	}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(logger.RequestLogMdlw(zaplog, logBodies))
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(h.auth.Middleware)

		r.Route("/api/engine", func(r chi.Router) {
			r.Post("/start", h.PostStart)
			r.Post("/stop", h.PostStop)
			r.Get("/status", h.GetStatus)
			r.Put("/constraints", h.PutConstraints)
			r.Put("/budgets", h.PutBudgets)
			r.Put("/notifications", h.PutNotifications)
			r.Put("/feed", h.PutFeed)
			r.Post("/offers/{id}/buy", h.PostBuy)
			r.Post("/test-drop", h.PostTestDrop)
		})
		r.Route("/api/balance", func(r chi.Router) {
			r.Get("/", h.GetBalance)
			r.Post("/credit", h.PostCredit)
		})
		r.Route("/api/purchases", func(r chi.Router) {
			r.Get("/", h.GetPurchases)
			r.Post("/refund-last", h.PostRefundLast)
			r.Post("/{id}/refund", h.PostRefund)
		})
	})

	return r
}

func (h *handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, http.StatusOK, h.service.Health(r.Context()))
}

func (h *handler) PostStart(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	if err := h.service.Start(r.Context(), userCode); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondStatus(w, userCode)
}

func (h *handler) PostStop(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	if err := h.service.Stop(r.Context(), userCode); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondStatus(w, userCode)
}

func (h *handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	h.respondStatus(w, r.Header.Get(auth.HeaderUserCodeKey))
}

func (h *handler) PutConstraints(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	var cs model.ConstraintSet
	if !h.decode(w, r, &cs) {
		return
	}
	if err := h.service.SetConstraints(r.Context(), userCode, cs); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondStatus(w, userCode)
}

func (h *handler) PutBudgets(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	var budgets model.Budgets
	if !h.decode(w, r, &budgets) {
		return
	}
	if err := h.service.SetBudgets(r.Context(), userCode, budgets); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondStatus(w, userCode)
}

type PutNotificationsJSONRequest struct {
	Enabled bool `json:"enabled"`
}

func (h *handler) PutNotifications(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	var request PutNotificationsJSONRequest
	if !h.decode(w, r, &request) {
		return
	}
	if err := h.service.SetNotifications(r.Context(), userCode, request.Enabled); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondStatus(w, userCode)
}

type PutFeedJSONRequest struct {
	Source string `json:"source"`
}

// PutFeed переключает источник ленты для всех пользователей
func (h *handler) PutFeed(w http.ResponseWriter, r *http.Request) {
	var request PutFeedJSONRequest
	if !h.decode(w, r, &request) {
		return
	}
	if err := h.service.SetFeedSource(request.Source); err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, h.service.Health(r.Context()))
}

func (h *handler) PostBuy(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	record, err := h.service.ManualBuy(r.Context(), userCode, chi.URLParam(r, "id"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

func (h *handler) PostTestDrop(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	record, err := h.service.TestDrop(r.Context(), userCode)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

func (h *handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	balance, err := h.service.Balance(r.Context(), userCode)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, balance)
}

type PostCreditJSONRequest struct {
	Amount int64 `json:"amount"`
}

func (h *handler) PostCredit(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	var request PostCreditJSONRequest
	if !h.decode(w, r, &request) {
		return
	}
	state, err := h.service.Credit(r.Context(), userCode, request.Amount)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, state)
}

func (h *handler) GetPurchases(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	var limit int
	if value := r.URL.Query().Get("limit"); value != "" {
		var err error
		if limit, err = strconv.Atoi(value); err != nil {
			http.Error(w, "limit must be a number", http.StatusBadRequest)
			return
		}
	}

	records, err := h.service.Purchases(r.Context(), userCode, limit)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if len(records) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	h.respondJSON(w, http.StatusOK, records)
}

func (h *handler) PostRefundLast(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	record, err := h.service.RefundLast(r.Context(), userCode)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

func (h *handler) PostRefund(w http.ResponseWriter, r *http.Request) {
	userCode := r.Header.Get(auth.HeaderUserCodeKey)

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, "purchase id must be a number", http.StatusBadRequest)
		return
	}
	record, err := h.service.Refund(r.Context(), userCode, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, record)
}

func (h *handler) respondStatus(w http.ResponseWriter, userCode string) {
	status, err := h.service.Status(userCode)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respondJSON(w, http.StatusOK, status)
}

// decode читает JSON тело; при ошибке ответ уже отправлен
func (h *handler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		http.Error(w, "invalid JSON in request body: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *handler) respondJSON(w http.ResponseWriter, status int, v any) {
	responseJSON, err := json.Marshal(v)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(responseJSON)
}

func (h *handler) respondError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		h.zaplog.Error("request failed", zap.Error(err))
	}
	http.Error(w, err.Error(), status)
}

func statusOf(err error) int {
	switch {
	case errs.IsBudgetRejection(err):
		return http.StatusPaymentRequired
	case errs.Is(err, errs.ErrNotFound), errs.Is(err, errs.ErrUnknownUser):
		return http.StatusNotFound
	case errs.Is(err, errs.ErrInvalidState):
		return http.StatusConflict
	case errs.Is(err, errs.ErrInvalidRequest),
		errs.Is(err, errs.ErrInvalidAmount),
		errs.Is(err, errs.ErrUnknownSource):
		return http.StatusBadRequest
	case errs.Is(err, errs.ErrExternalBuyFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
