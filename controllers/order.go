package controllers

import (
	"net/http"

	"storefront/models"
	"storefront/services"
)

// OrderController handles order-related requests
type OrderController struct {
	Orders *services.Orders
}

// NewOrderController creates a new OrderController
func NewOrderController(orders *services.Orders) *OrderController {
	return &OrderController{Orders: orders}
}

type statusRequest struct {
	Status models.OrderStatus `json:"status"`
}

// CreateOrder checks out the user's cart
func (oc *OrderController) CreateOrder(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req services.CheckoutRequest
	if err := decodeOptionalJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := oc.Orders.Checkout(r.Context(), userID, req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

// GetOrders lists the user's orders
func (oc *OrderController) GetOrders(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orders, err := oc.Orders.ListForUser(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order owned by the user
func (oc *OrderController) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, isAdmin, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	order, err := oc.Orders.Get(r.Context(), userID, isAdmin, orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

// ListAllOrders lists every order, filtered by ?status= (Admin only)
func (oc *OrderController) ListAllOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := oc.Orders.ListAll(r.Context(), models.OrderStatus(r.URL.Query().Get("status")))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus moves an order to a new status (Admin only)
func (oc *OrderController) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req statusRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	order, err := oc.Orders.UpdateStatus(r.Context(), orderID, req.Status)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}
