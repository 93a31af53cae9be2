package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jason-s-yu/walletfriends/internal/api"
	"github.com/jason-s-yu/walletfriends/internal/command"
	"github.com/jason-s-yu/walletfriends/internal/database"
	"github.com/jason-s-yu/walletfriends/internal/middleware"
	"github.com/jason-s-yu/walletfriends/internal/models"
)

// HealthHandler reports that the API is up.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok","message":"API is running"}`))
}

// CreateUserHandler registers the verified signer's wallet as a user.
//
// Signed message:
//
//	{ "username": "alice" }
func (s *Server) CreateUserHandler(w http.ResponseWriter, r *http.Request) {
	env, ok := middleware.EnvelopeFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing signed message")
		return
	}
	username, err := command.DecodeProfile(env.Message)
	if err != nil {
		api.Error(w, http.StatusBadRequest, "username is required")
		return
	}

	user := models.User{
		WalletAddress: env.Signer,
		Username:      username,
	}
	if err := s.Users.CreateUser(r.Context(), &user); err != nil {
		if errors.Is(err, database.ErrWalletTaken) {
			api.Error(w, http.StatusConflict, "wallet already registered")
			return
		}
		s.Logger.WithError(err).WithField("signer", env.Signer).Error("failed to create user")
		api.Error(w, http.StatusInternalServerError, "error creating user")
		return
	}
	api.WriteJSON(w, http.StatusCreated, api.Response{
		Success: true,
		Data:    user,
		Message: "User created successfully",
	})
}

// GetUserHandler returns the caller's own user row.
func (s *Server) GetUserHandler(w http.ResponseWriter, r *http.Request) {
	signer, ok := middleware.SignerFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing verified signer")
		return
	}
	user, err := s.Users.GetUserByWallet(r.Context(), signer)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			api.Error(w, http.StatusNotFound, "user not found")
			return
		}
		s.Logger.WithError(err).WithField("signer", signer).Error("failed to fetch user")
		api.Error(w, http.StatusInternalServerError, "error fetching user")
		return
	}
	api.OK(w, user, "")
}

// DeleteUserHandler removes the caller's user row and every friend request it took part in.
//
// Signed message:
//
//	{ "action": "delete_user", "issued_at": 1700000000 }
func (s *Server) DeleteUserHandler(w http.ResponseWriter, r *http.Request) {
	env, ok := s.signedAction(w, r, command.ActionDeleteUser)
	if !ok {
		return
	}
	removed, err := s.Users.DeleteUserByWallet(r.Context(), env.Signer)
	if err != nil {
		s.Logger.WithError(err).WithField("signer", env.Signer).Error("failed to delete user")
		api.Error(w, http.StatusInternalServerError, "error deleting user")
		return
	}
	if !removed {
		api.Error(w, http.StatusNotFound, "user not found")
		return
	}
	s.Resolver.Forget(r.Context(), env.Signer)
	api.OK(w, true, "User deleted successfully")
}

// signedAction checks the request envelope is a fresh signature over action. On failure the
// response has been written and ok is false.
func (s *Server) signedAction(w http.ResponseWriter, r *http.Request, action string) (middleware.Envelope, bool) {
	env, ok := middleware.EnvelopeFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing signed message")
		return middleware.Envelope{}, false
	}
	if err := command.DecodeAction(env.Message, action, time.Now(), s.messageWindow()); err != nil {
		s.Logger.WithError(err).WithField("signer", env.Signer).Debug("rejected signed action")
		if errors.Is(err, command.ErrStaleCommand) {
			api.Error(w, http.StatusUnauthorized, "signed message expired")
		} else {
			api.Error(w, http.StatusBadRequest, "expected a signed "+action+" message")
		}
		return middleware.Envelope{}, false
	}
	return env, true
}

type sessionResponse struct {
	Token  string `json:"token"`
	Wallet string `json:"wallet"`
}

// SessionHandler exchanges a signed session message for a session token, so that read
// endpoints can be called without signing every request. The token is also set as the
// auth_token cookie.
//
// Signed message:
//
//	{ "action": "session", "issued_at": 1700000000 }
func (s *Server) SessionHandler(w http.ResponseWriter, r *http.Request) {
	env, ok := s.signedAction(w, r, command.ActionSession)
	if !ok {
		return
	}
	token, err := s.Sessions.CreateJWT(env.Signer)
	if err != nil {
		s.Logger.WithError(err).Error("failed to create session token")
		api.Error(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		HttpOnly: true,
		Path:     "/",
		MaxAge:   s.Sessions.MaxAge(),
	})
	api.OK(w, sessionResponse{Token: token, Wallet: env.Signer}, "")
}
