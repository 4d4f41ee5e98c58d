package purchases

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/taller-erp/taller-erp/internal/platform/httpx"
	"github.com/taller-erp/taller-erp/internal/shared"
	"github.com/taller-erp/taller-erp/internal/status"
)

// Handler exposes the /compras and /pagos-compra endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs a purchases Handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountPurchaseRoutes attaches the purchase routes.
func (h *Handler) MountPurchaseRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Get("/{id}", h.get)
	r.Post("/{id}/estado", h.changeStatus)
}

// MountPaymentRoutes attaches the payment routes.
func (h *Handler) MountPaymentRoutes(r chi.Router) {
	r.Get("/", h.listPayments)
	r.Post("/", h.createPayment)
}

type listResponse struct {
	Data       []Purchase        `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

type paymentListResponse struct {
	Data       []Payment         `json:"data"`
	Pagination shared.Pagination `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)

	req := ListPurchasesRequest{
		Search: r.URL.Query().Get("buscar"),
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if v := r.URL.Query().Get("proveedor_id"); v != "" {
		req.SupplierID, _ = strconv.ParseInt(v, 10, 64)
	}
	if v := r.URL.Query().Get("estado"); v != "" {
		st := status.PurchaseStatus(v)
		if !status.ValidPurchaseStatus(st) {
			httpx.Problem(w, http.StatusBadRequest, "Bad Request", "unknown purchase status")
			return
		}
		req.Status = &st
	}

	items, total, err := h.service.List(r.Context(), req)
	if err != nil {
		h.logger.Error("list purchases failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Purchase{}
	}
	httpx.JSON(w, http.StatusOK, listResponse{Data: items, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	purchase, err := h.service.Get(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreatePurchaseRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}

	purchase, err := h.service.Create(r.Context(), req, actorID(r))
	if err != nil {
		h.logger.Error("create purchase failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, purchase)
}

func (h *Handler) changeStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "invalid id")
		return
	}
	var req ChangeStatusRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}

	purchase, err := h.service.ChangeStatus(r.Context(), id, req.Status, actorID(r))
	if err != nil {
		h.logger.Error("change purchase status failed", slog.Int64("purchase_id", id), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, purchase)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	page, perPage := shared.PageParams(r)

	req := ListPaymentsRequest{
		Limit:  perPage,
		Offset: (page - 1) * perPage,
	}
	if v := r.URL.Query().Get("compra_id"); v != "" {
		req.PurchaseID, _ = strconv.ParseInt(v, 10, 64)
	}

	items, total, err := h.service.ListPayments(r.Context(), req)
	if err != nil {
		h.logger.Error("list payments failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	if items == nil {
		items = []Payment{}
	}
	httpx.JSON(w, http.StatusOK, paymentListResponse{Data: items, Pagination: shared.NewPagination(page, perPage, total)})
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req CreatePaymentRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Bad Request", "malformed JSON body")
		return
	}
	if fields := shared.Validate(req); fields != nil {
		httpx.ValidationProblem(w, fields)
		return
	}

	payment, err := h.service.RegisterPayment(r.Context(), req, actorID(r))
	if err != nil {
		h.logger.Error("register payment failed", slog.Int64("purchase_id", req.PurchaseID), slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, payment)
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

func actorID(r *http.Request) int64 {
	if identity, ok := shared.IdentityFromContext(r.Context()); ok {
		return identity.UserID
	}
	return 0
}
