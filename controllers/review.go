package controllers

import (
	"net/http"
	"strconv"

	"storefront/services"
)

// ReviewController handles review requests
type ReviewController struct {
	Reviews *services.Reviews
}

// NewReviewController creates a new ReviewController
func NewReviewController(reviews *services.Reviews) *ReviewController {
	return &ReviewController{Reviews: reviews}
}

// GetReviews lists all reviews, ?featured=true keeps the top rated ones
func (rc *ReviewController) GetReviews(w http.ResponseWriter, r *http.Request) {
	featured, _ := strconv.ParseBool(r.URL.Query().Get("featured"))
	reviews, err := rc.Reviews.List(r.Context(), services.ReviewQuery{Featured: featured})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetProductReviews lists the reviews of one product
func (rc *ReviewController) GetProductReviews(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	reviews, err := rc.Reviews.List(r.Context(), services.ReviewQuery{ProductID: productID})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reviews)
}

// GetReviewSummary returns the average rating and count for a product
func (rc *ReviewController) GetReviewSummary(w http.ResponseWriter, r *http.Request) {
	productID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	summary, err := rc.Reviews.Summary(r.Context(), productID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

// CreateReview stores a review by the authenticated user
func (rc *ReviewController) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ReviewInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	review, err := rc.Reviews.Create(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, review)
}

// DeleteReview removes a review (Admin only)
func (rc *ReviewController) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := rc.Reviews.Delete(r.Context(), id); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "review deleted"})
}
