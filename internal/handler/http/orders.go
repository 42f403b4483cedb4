// Package http renders the ingress HTTP surface spec.md delegates to an
// "external collaborator": request decoding, status-code mapping, and
// response bodies. Handlers are thin — all invariants live in the service
// layer.
package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/studentsystem/order-processing/internal/models"
	"github.com/studentsystem/order-processing/internal/service"
	"github.com/studentsystem/order-processing/internal/store"
)

// OrdersHandler serves POST /api/v1/orders, POST
// /api/v1/orders/payment-callback, and GET /api/v1/orders/{id}.
type OrdersHandler struct {
	createOrder     *service.CreateOrderService
	paymentCallback *service.PaymentCallbackService
	orders          *store.ReadOnlyOrderRepository
	orderStatus     *store.ReadOnlyOrderStatusRepository
	logger          zerolog.Logger
}

// NewOrdersHandler builds an OrdersHandler.
func NewOrdersHandler(createOrder *service.CreateOrderService, paymentCallback *service.PaymentCallbackService, orders *store.ReadOnlyOrderRepository, orderStatus *store.ReadOnlyOrderStatusRepository, logger zerolog.Logger) *OrdersHandler {
	return &OrdersHandler{
		createOrder:     createOrder,
		paymentCallback: paymentCallback,
		orders:          orders,
		orderStatus:     orderStatus,
		logger:          logger.With().Str("component", "orders_handler").Logger(),
	}
}

type createOrderBody struct {
	ItemID         uuid.UUID `json:"item_id"`
	Quantity       int       `json:"quantity"`
	UserID         string    `json:"user_id"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
}

type orderResponse struct {
	ID             uuid.UUID `json:"id"`
	UserID         string    `json:"user_id"`
	ItemID         uuid.UUID `json:"item_id"`
	Quantity       int       `json:"quantity"`
	Amount         string    `json:"amount"`
	IdempotencyKey uuid.UUID `json:"idempotency_key"`
	CreatedAt      string    `json:"created_at"`
}

func toOrderResponse(order *models.Order) orderResponse {
	return orderResponse{
		ID:             order.ID,
		UserID:         order.UserID,
		ItemID:         order.ItemID,
		Quantity:       order.Quantity,
		Amount:         order.Amount.StringFixed(2),
		IdempotencyKey: order.IdempotencyKey,
		CreatedAt:      order.CreatedAt.Format(timeLayout),
	}
}

const timeLayout = "2006-01-02T15:04:05Z07:00"

// CreateOrder handles POST /api/v1/orders.
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var body createOrderBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	order, err := h.createOrder.CreateOrder(r.Context(), service.CreateOrderRequest{
		UserID:         body.UserID,
		ItemID:         body.ItemID,
		Quantity:       body.Quantity,
		IdempotencyKey: body.IdempotencyKey,
	})
	if err != nil {
		var alreadyExists *models.OrderAlreadyExistsError
		switch {
		case errors.As(err, &alreadyExists):
			writeJSON(w, http.StatusOK, toOrderResponse(alreadyExists.Order))
		case errors.Is(err, models.ErrItemNotFound):
			writeError(w, http.StatusNotFound, "item not found")
		case errors.Is(err, models.ErrNotEnoughStocks):
			writeError(w, http.StatusBadRequest, "not enough stock")
		case errors.Is(err, models.ErrInvalidOrderInput):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case isValidationError(err):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		default:
			h.logger.Error().Err(err).Msg("create order failed")
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

type orderWithStatusResponse struct {
	orderResponse
	Status string `json:"status"`
}

// GetOrder handles GET /api/v1/orders/{id}, returning the order and its
// current inbox-driven status (§9 "Cyclic references": status is always the
// latest order_status row, never a cached field on the order itself).
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	idParam := mux.Vars(r)["id"]
	id, err := uuid.Parse(idParam)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid order id")
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Msg("get order failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if order == nil {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}

	status, err := h.orderStatus.Current(r.Context(), id)
	if err != nil {
		h.logger.Error().Err(err).Msg("get order status failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	resp := orderWithStatusResponse{orderResponse: toOrderResponse(order), Status: string(models.OrderStateNew)}
	if status != nil {
		resp.Status = string(status.Status)
	}
	writeJSON(w, http.StatusOK, resp)
}

type paymentCallbackBody struct {
	ID             uuid.UUID              `json:"id"`
	UserID         string                 `json:"user_id"`
	OrderID        uuid.UUID              `json:"order_id"`
	Amount         string                 `json:"amount"`
	Status         service.PaymentStatus  `json:"status"`
	IdempotencyKey uuid.UUID              `json:"idempotency_key"`
	CreatedAt      string                 `json:"created_at"`
}

// PaymentCallback handles POST /api/v1/orders/payment-callback. It always
// returns 200 on an accepted (parseable) request — including duplicates —
// per spec.md §6.
func (h *OrdersHandler) PaymentCallback(w http.ResponseWriter, r *http.Request) {
	var body paymentCallbackBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusUnprocessableEntity, "malformed request body")
		return
	}

	amount, err := decimal.NewFromString(body.Amount)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid amount")
		return
	}

	req := service.PaymentCallbackRequest{
		ID:             body.ID,
		UserID:         body.UserID,
		OrderID:        body.OrderID,
		Amount:         amount,
		Status:         body.Status,
		IdempotencyKey: body.IdempotencyKey,
	}

	if err := h.paymentCallback.HandleCallback(r.Context(), req); err != nil {
		h.logger.Error().Err(err).Msg("payment callback failed")
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func isValidationError(err error) bool {
	var verrs validator.ValidationErrors
	return errors.As(err, &verrs)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
