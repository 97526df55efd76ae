package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"storefront/middleware"
	"storefront/models"
	"storefront/services"
	"storefront/utils"
)

const maxBodyBytes = 1 << 20

var errBadBody = fmt.Errorf("%w: invalid JSON body", services.ErrInvalidArgument)

var writeJSON = utils.WriteJSON

// writeError maps service errors to HTTP statuses. Unexpected errors are
// logged and reported as 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var status int
	var code string
	switch {
	case errors.Is(err, services.ErrInvalidArgument):
		status, code = http.StatusBadRequest, "INVALID_ARGUMENT"
	case errors.Is(err, services.ErrUnauthenticated):
		status, code = http.StatusUnauthorized, "UNAUTHENTICATED"
	case errors.Is(err, services.ErrForbidden):
		status, code = http.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, services.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, services.ErrConflict):
		status, code = http.StatusConflict, "CONFLICT"
	default:
		slog.ErrorContext(r.Context(), "request failed",
			"request_id", middleware.RequestID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		utils.WriteError(w, http.StatusInternalServerError, "INTERNAL", "internal server error")
		return
	}
	utils.WriteError(w, status, code, message(err))
}

// message strips the class prefix added by the services package.
func message(err error) string {
	msg := err.Error()
	for _, class := range []error{
		services.ErrInvalidArgument, services.ErrUnauthenticated, services.ErrForbidden,
		services.ErrNotFound, services.ErrConflict,
	} {
		if rest, ok := strings.CutPrefix(msg, class.Error()+": "); ok {
			return rest
		}
	}
	return msg
}

// decodeJSON reads a bounded JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", services.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be empty.
func decodeOptionalJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", errBadBody, err)
	}
	return nil
}

// pathID parses the named mux variable as an object id.
func pathID(r *http.Request, name string) (primitive.ObjectID, error) {
	return services.ParseID(mux.Vars(r)[name], name)
}

// caller returns the authenticated user's id and admin flag.
func caller(r *http.Request) (primitive.ObjectID, bool, error) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		return primitive.NilObjectID, false, fmt.Errorf("%w: authentication required", services.ErrUnauthenticated)
	}
	id, err := claims.ObjectID()
	if err != nil {
		return primitive.NilObjectID, false, fmt.Errorf("%w: invalid token subject", services.ErrUnauthenticated)
	}
	return id, claims.Role == models.RoleAdmin, nil
}
