package controllers

import (
	"net/http"
	"time"

	"storefront/middleware"
	"storefront/services"
)

// UserController handles account and session requests
type UserController struct {
	Accounts     *services.Accounts
	CookieTTL    time.Duration
	CookieSecure bool
}

// NewUserController creates a new UserController
func NewUserController(accounts *services.Accounts, cookieTTL time.Duration, cookieSecure bool) *UserController {
	return &UserController{Accounts: accounts, CookieTTL: cookieTTL, CookieSecure: cookieSecure}
}

func (uc *UserController) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     middleware.CookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   uc.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Register handles user registration and starts a session
func (uc *UserController) Register(w http.ResponseWriter, r *http.Request) {
	var in services.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := uc.Accounts.Register(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	uc.setSessionCookie(w, session.Token, int(uc.CookieTTL.Seconds()))
	writeJSON(w, http.StatusCreated, session)
}

// Login checks credentials and sets the session cookie
func (uc *UserController) Login(w http.ResponseWriter, r *http.Request) {
	var in services.LoginInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	session, err := uc.Accounts.Login(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	uc.setSessionCookie(w, session.Token, int(uc.CookieTTL.Seconds()))
	writeJSON(w, http.StatusOK, session)
}

// Logout clears the session cookie
func (uc *UserController) Logout(w http.ResponseWriter, r *http.Request) {
	uc.setSessionCookie(w, "", -1)
	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// GetProfile returns the authenticated user
func (uc *UserController) GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	user, err := uc.Accounts.Me(r.Context(), userID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// UpdateProfile changes the authenticated user's name or address
func (uc *UserController) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	var in services.ProfileInput
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := uc.Accounts.UpdateProfile(r.Context(), userID, in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// ListUsers returns accounts, filtered by ?role= and ?status= (Admin only)
func (uc *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := uc.Accounts.ListUsers(r.Context(), q.Get("role"), q.Get("status"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

// UpdateUser changes another account's role or status (Admin only)
func (uc *UserController) UpdateUser(w http.ResponseWriter, r *http.Request) {
	adminID, _, err := caller(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	userID, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var patch services.UserPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	user, err := uc.Accounts.UpdateUser(r.Context(), adminID, userID, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}
