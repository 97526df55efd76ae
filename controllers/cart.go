package controllers

import (
	"net/http"

	"storefront/models"
	"storefront/services"
)

// CartController handles cart-related requests
type CartController struct {
	Lines *services.LineItems
}

// NewCartController creates a new CartController
func NewCartController(lines *services.LineItems) *CartController {
	return &CartController{Lines: lines}
}

type addToCartRequest struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity"`
}

type quantityRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart returns the user's cart joined with live product data
func (cc *CartController) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	cart, err := cc.Lines.Cart(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cart)
}

// AddToCart adds a product to the user's cart. Responds 201 when a line is
// created and 200 when an existing line is merged.
func (cc *CartController) AddToCart(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req addToCartRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := services.ParseID(req.ProductID, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}

	line, created, err := cc.Lines.Add(r.Context(), models.KindCart, userID, productID, quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, line)
}

// UpdateCartItem sets the quantity of a cart line, clamped to stock
func (cc *CartController) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lineID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req quantityRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	line, err := cc.Lines.SetQuantity(r.Context(), userID, lineID, req.Quantity)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, line)
}

// RemoveFromCart deletes a cart line
func (cc *CartController) RemoveFromCart(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lineID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := cc.Lines.Remove(r.Context(), models.KindCart, userID, lineID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from cart"})
}
