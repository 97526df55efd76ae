package controllers

import (
	"net/http"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/models"
	"storefront/services"
)

// WishlistController handles wishlist requests
type WishlistController struct {
	Lines *services.LineItems
}

// NewWishlistController creates a new WishlistController
func NewWishlistController(lines *services.LineItems) *WishlistController {
	return &WishlistController{Lines: lines}
}

type wishlistRequest struct {
	ProductID string `json:"productId"`
}

// GetWishlist returns the user's wishlist joined with live product data
func (wc *WishlistController) GetWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	items, err := wc.Lines.Wishlist(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

// AddToWishlist saves a product. 201 when added, 200 when already present.
func (wc *WishlistController) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req wishlistRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := services.ParseID(req.ProductID, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	wc.ensure(w, r, userID, productID)
}

// PutProduct is the idempotent form of AddToWishlist keyed by product id.
func (wc *WishlistController) PutProduct(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	wc.ensure(w, r, userID, productID)
}

func (wc *WishlistController) ensure(w http.ResponseWriter, r *http.Request, userID, productID primitive.ObjectID) {
	line, created, err := wc.Lines.Ensure(r.Context(), userID, productID)
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

// GetProduct reports whether a product is in the user's wishlist
func (wc *WishlistController) GetProduct(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	in, err := wc.Lines.Contains(r.Context(), models.KindWishlist, userID, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"inWishlist": in})
}

// DeleteProduct removes a product from the wishlist; absent is not an error.
func (wc *WishlistController) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	productID, err := pathID(r, "productId")
	if err != nil {
		writeError(w, r, err)
		return
	}
	removed, err := wc.Lines.RemoveProduct(r.Context(), models.KindWishlist, userID, productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"removed": removed})
}

// RemoveFromWishlist deletes a wishlist entry by its id
func (wc *WishlistController) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
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
	if err := wc.Lines.Remove(r.Context(), models.KindWishlist, userID, lineID); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "item removed from wishlist"})
}
