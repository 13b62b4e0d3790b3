package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-eservice-ledger/internal/auth"
	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
	"github.com/ariefcatur/go-eservice-ledger/internal/redisx"
)

// Idempotency claims Idempotency-Key values for order placement.
type Idempotency interface {
	Begin(ctx context.Context, userID, key string) (string, error)
	Complete(ctx context.Context, userID, key, orderID string) error
	Abort(ctx context.Context, userID, key string) error
}

type Handler struct {
	Ledger   *ledger.Ledger
	Catalog  *ledger.Catalog
	Verifier auth.Verifier
	Idem     Idempotency // optional
	Logger   *slog.Logger

	// OrderTimeout bounds order placement; zero means defaultOrderTimeout.
	OrderTimeout time.Duration
}

const (
	defaultOrderTimeout = 5 * time.Second
	idemReleaseTimeout  = 2 * time.Second
)

func (h *Handler) Register(r chi.Router) {
	r.Get("/services", h.listServices)
	r.Get("/services/{slug}", h.getService)

	r.Group(func(r chi.Router) {
		r.Use(h.authenticate)

		r.Get("/me", h.getProfile)
		r.Get("/me/orders", h.listMyOrders)
		r.Get("/me/orders/{id}", h.getMyOrder)
		r.Get("/me/recharges", h.listMyRecharges)
		r.Post("/orders", h.placeOrder)
		r.Post("/recharges", h.submitRecharge)

		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAdmin)
			r.Get("/orders", h.adminListOrders)
			r.Patch("/orders/{id}", h.adminUpdateOrder)
			r.Get("/recharges", h.adminListRecharges)
			r.Post("/recharges/{id}/approve", h.adminApproveRecharge)
			r.Get("/services", h.adminListServices)
			r.Post("/services", h.adminCreateService)
		})
	})
}

func (h *Handler) log() *slog.Logger {
	if h.Logger == nil {
		return slog.Default()
	}
	return h.Logger
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func (h *Handler) listServices(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.Catalog.ListServices(ctx))
}

func (h *Handler) getService(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()
	writeJSON(w, http.StatusOK, h.Catalog.ResolveService(ctx, chi.URLParam(r, "slug")))
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	u, err := h.Ledger.GetProfile(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Ledger.ListMyOrders(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) getMyOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.Ledger.GetMyOrder(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) listMyRecharges(w http.ResponseWriter, r *http.Request) {
	out, err := h.Ledger.ListMyRecharges(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

type PlaceOrderReq struct {
	ServiceSlug string         `json:"serviceSlug"`
	Payload     ledger.Payload `json:"payload"`
}

var payloadTypes = map[string]bool{"nid": true, "voter": true, "form": true}

func (req *PlaceOrderReq) validate() string {
	req.ServiceSlug = strings.TrimSpace(req.ServiceSlug)
	req.Payload.IDNumber = strings.TrimSpace(req.Payload.IDNumber)
	req.Payload.Details = strings.TrimSpace(req.Payload.Details)
	switch {
	case req.ServiceSlug == "":
		return "serviceSlug is required"
	case !payloadTypes[req.Payload.Type]:
		return "payload.type must be one of nid, voter, form"
	case req.Payload.IDNumber == "":
		return "payload.idNumber is required"
	case req.Payload.Details == "":
		return "payload.details is required"
	}
	return ""
}

func (h *Handler) placeOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if msg := req.validate(); msg != "" {
		badRequest(w, msg)
		return
	}

	timeout := h.OrderTimeout
	if timeout <= 0 {
		timeout = defaultOrderTimeout
	}
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()
	sess := sessionFrom(ctx)

	// Idempotency-Key is optional; Redis trouble never blocks an order
	key := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	if key != "" && h.Idem != nil {
		prev, err := h.Idem.Begin(ctx, sess.UserID, key)
		switch {
		case errors.Is(err, redisx.ErrInFlight):
			writeJSON(w, http.StatusConflict, errorBody{Error: "request with this Idempotency-Key is in progress", Kind: "in_flight"})
			return
		case err != nil:
			h.log().Warn("idempotency unavailable", "error", err)
			key = ""
		case prev != "":
			o, err := h.Ledger.GetMyOrder(ctx, sess, prev)
			if err != nil {
				writeError(w, h.log(), err)
				return
			}
			w.Header().Set("Idempotent-Replayed", "true")
			writeJSON(w, http.StatusOK, o)
			return
		}
	} else {
		key = ""
	}

	svc := h.Catalog.ResolveService(ctx, req.ServiceSlug)
	o, err := h.Ledger.PlaceOrder(ctx, sess, svc, req.Payload)
	if err != nil {
		if key != "" {
			h.releaseKey(ctx, sess.UserID, key)
		}
		writeError(w, h.log(), err)
		return
	}
	if key != "" {
		// the order is committed; record it even if the request ctx has expired
		cctx, ccancel := context.WithTimeout(context.WithoutCancel(ctx), idemReleaseTimeout)
		if err := h.Idem.Complete(cctx, sess.UserID, key, o.ID); err != nil {
			h.log().Warn("idempotency complete", "order_id", o.ID, "error", err)
		}
		ccancel()
	}
	writeJSON(w, http.StatusCreated, o)
}

// releaseKey frees key after a failed order. It runs detached from ctx, which
// is often the reason the order failed.
func (h *Handler) releaseKey(ctx context.Context, userID, key string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), idemReleaseTimeout)
	defer cancel()
	if err := h.Idem.Abort(ctx, userID, key); err != nil {
		h.log().Warn("idempotency abort", "error", err)
	}
}

type SubmitRechargeReq struct {
	Amount int64  `json:"amount"`
	TrxID  string `json:"trxId"`
	Note   string `json:"note"`
}

func (h *Handler) submitRecharge(w http.ResponseWriter, r *http.Request) {
	var req SubmitRechargeReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	if strings.TrimSpace(req.TrxID) == "" {
		badRequest(w, "trxId is required")
		return
	}
	rc, err := h.Ledger.SubmitRecharge(r.Context(), sessionFrom(r.Context()), req.Amount, req.TrxID, req.Note)
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusCreated, rc)
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
