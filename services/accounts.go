package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	"storefront/models"
	"storefront/store"
	"storefront/utils"
)

// MinPasswordLength is the shortest password accepted at registration.
const MinPasswordLength = 6

// Accounts handles registration, login and profile management.
type Accounts struct {
	users      store.UserStore
	jwt        *utils.JWTManager
	email      *utils.EmailService
	background func(func())
}

func newAccounts(d Deps) *Accounts {
	return &Accounts{users: d.Store, jwt: d.JWT, email: d.Email, background: d.Background}
}

// RegisterInput is the body of POST /register.
type RegisterInput struct {
	Name     string `json:"name" validate:"required,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// LoginInput is the body of POST /login.
type LoginInput struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ProfileInput is the body of PATCH /me.
type ProfileInput struct {
	Name    *string         `json:"name" validate:"omitnil,min=1,max=100"`
	Address *models.Address `json:"address"`
}

// UserPatch is the body of PATCH /admin/users/{id}.
type UserPatch struct {
	Role   *string `json:"role" validate:"omitnil,oneof=user admin"`
	Status *string `json:"status" validate:"omitnil,oneof=active inactive"`
}

// Session is returned by a successful login or registration.
type Session struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Register creates an active user account and returns a session for it.
func (a *Accounts) Register(ctx context.Context, in RegisterInput) (Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(in); err != nil {
		return Session{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return Session{}, fmt.Errorf("hash password: %w", err)
	}
	user := models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: string(hash),
		Role:     models.RoleUser,
		Status:   models.UserActive,
	}
	err = a.users.InsertUser(ctx, &user)
	if errors.Is(err, store.ErrDuplicate) {
		return Session{}, conflictf("an account with email %s already exists", in.Email)
	}
	if err != nil {
		return Session{}, fmt.Errorf("insert user: %w", err)
	}
	user.Password = ""
	slog.InfoContext(ctx, "user registered", "user_id", user.ID.Hex())

	bg := context.WithoutCancel(ctx)
	a.background(func() {
		if err := a.email.SendWelcomeEmail(bg, user); err != nil {
			slog.WarnContext(bg, "failed to send welcome email", "user_id", user.ID.Hex(), "error", err)
		}
	})
	return a.session(user)
}

// Login checks credentials. Unknown emails, wrong passwords and inactive
// accounts all fail with the same error.
func (a *Accounts) Login(ctx context.Context, in LoginInput) (Session, error) {
	if err := validateInput(in); err != nil {
		return Session{}, err
	}
	denied := fmt.Errorf("%w: invalid email or password", ErrUnauthenticated)

	user, err := a.users.FindUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if errors.Is(err, store.ErrNotFound) {
		return Session{}, denied
	}
	if err != nil {
		return Session{}, fmt.Errorf("load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(in.Password)) != nil {
		return Session{}, denied
	}
	if user.Status == models.UserInactive {
		return Session{}, denied
	}
	user.Password = ""
	return a.session(user)
}

func (a *Accounts) session(user models.User) (Session, error) {
	token, err := a.jwt.GenerateJWT(user.ID.Hex(), user.Role, user.Name)
	if err != nil {
		return Session{}, fmt.Errorf("issue token: %w", err)
	}
	return Session{Token: token, User: user}, nil
}

// Me returns the caller's account.
func (a *Accounts) Me(ctx context.Context, userID primitive.ObjectID) (models.User, error) {
	user, err := a.users.FindUser(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("load user: %w", err)
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile changes the caller's name or address.
func (a *Accounts) UpdateProfile(ctx context.Context, userID primitive.ObjectID, in ProfileInput) (models.User, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if err := validateInput(in); err != nil {
		return models.User{}, err
	}
	user, err := a.users.UpdateUser(ctx, userID, store.UserUpdate{Name: in.Name, Address: in.Address})
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, fmt.Errorf("%w: account no longer exists", ErrUnauthenticated)
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	user.Password = ""
	return user, nil
}

// ListUsers returns accounts matching the role and status filters.
func (a *Accounts) ListUsers(ctx context.Context, role, status string) ([]models.User, error) {
	if role != "" && role != models.RoleUser && role != models.RoleAdmin {
		return nil, invalidf("role must be one of [user admin]")
	}
	if status != "" && status != models.UserActive && status != models.UserInactive {
		return nil, invalidf("status must be one of [active inactive]")
	}
	users, err := a.users.ListUsers(ctx, store.UserFilter{Role: role, Status: status})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// UpdateUser changes another account's role or status. Admins cannot
// demote or deactivate themselves.
func (a *Accounts) UpdateUser(ctx context.Context, adminID, userID primitive.ObjectID, patch UserPatch) (models.User, error) {
	if err := validateInput(patch); err != nil {
		return models.User{}, err
	}
	if patch.Role == nil && patch.Status == nil {
		return models.User{}, invalidf("role or status is required")
	}
	if adminID == userID {
		return models.User{}, conflictf("admins cannot change their own role or status")
	}
	user, err := a.users.UpdateUser(ctx, userID, store.UserUpdate{Role: patch.Role, Status: patch.Status})
	if errors.Is(err, store.ErrNotFound) {
		return models.User{}, notFoundf("user %s not found", userID.Hex())
	}
	if err != nil {
		return models.User{}, fmt.Errorf("update user: %w", err)
	}
	user.Password = ""
	slog.InfoContext(ctx, "user updated by admin", "user_id", userID.Hex(), "admin_id", adminID.Hex())
	return user, nil
}
