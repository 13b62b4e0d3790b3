package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ariefcatur/go-eservice-ledger/internal/ledger"
)

func (h *Handler) adminListOrders(w http.ResponseWriter, r *http.Request) {
	out, err := h.Ledger.ListOrders(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

type UpdateOrderReq struct {
	Status ledger.OrderStatus `json:"status"`
}

func (h *Handler) adminUpdateOrder(w http.ResponseWriter, r *http.Request) {
	var req UpdateOrderReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	o, err := h.Ledger.UpdateOrderStatus(r.Context(), sessionFrom(r.Context()), chi.URLParam(r, "id"), req.Status)
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *Handler) adminListRecharges(w http.ResponseWriter, r *http.Request) {
	status := ledger.RechargeStatus(r.URL.Query().Get("status"))
	out, err := h.Ledger.ListRecharges(r.Context(), sessionFrom(r.Context()), status)
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

func (h *Handler) adminApproveRecharge(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.Ledger.ApproveRecharge(r.Context(), sessionFrom(r.Context()), id); err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id, "status": string(ledger.RechargeApproved)})
}

func (h *Handler) adminListServices(w http.ResponseWriter, r *http.Request) {
	out, err := h.Ledger.ListServicesAdmin(r.Context(), sessionFrom(r.Context()))
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(out))
}

type CreateServiceReq struct {
	Title string `json:"title"`
	Slug  string `json:"slug"`
	Price int64  `json:"price"`
	Desc  string `json:"desc"`
	Color string `json:"color"`
	Icon  string `json:"icon"`
}

func (h *Handler) adminCreateService(w http.ResponseWriter, r *http.Request) {
	var req CreateServiceReq
	if err := decode(r, &req); err != nil {
		badRequest(w, "invalid json")
		return
	}
	svc, err := h.Ledger.CreateService(r.Context(), sessionFrom(r.Context()), ledger.Service{
		Title: req.Title,
		Slug:  req.Slug,
		Price: req.Price,
		Desc:  req.Desc,
		Color: req.Color,
		Icon:  req.Icon,
	})
	if err != nil {
		writeError(w, h.log(), err)
		return
	}
	writeJSON(w, http.StatusCreated, svc)
}
