// internal/handlers/server.go
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/walletfriends/internal/auth"
	"github.com/jason-s-yu/walletfriends/internal/friends"
	"github.com/jason-s-yu/walletfriends/internal/middleware"
	"github.com/jason-s-yu/walletfriends/internal/models"
	"github.com/jason-s-yu/walletfriends/internal/notify"
	"github.com/sirupsen/logrus"
)

// FriendService is the lifecycle surface the friend endpoints call into.
type FriendService interface {
	GetUserFriends(ctx context.Context, signer string) ([]models.FriendTarget, error)
	GetPendingRequests(ctx context.Context, signer string) ([]models.FriendTarget, error)
	CancelRequestOrRemoveFriend(ctx context.Context, signer string, cmd friends.SignedCommand) (bool, error)
	AcceptFriendRequest(ctx context.Context, signer string, cmd friends.SignedCommand) (bool, error)
	SendFriendRequest(ctx context.Context, signer string, cmd friends.SignedCommand) (models.FriendRequest, error)
}

var _ FriendService = (*friends.Service)(nil)

// UserDirectory creates, reads and removes user rows keyed by wallet.
type UserDirectory interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByWallet(ctx context.Context, wallet string) (*models.User, error)
	DeleteUserByWallet(ctx context.Context, wallet string) (bool, error)
}

// WalletResolver maps a verified wallet to a user id.
type WalletResolver interface {
	Resolve(ctx context.Context, wallet string) (uuid.UUID, error)
	Forget(ctx context.Context, wallet string)
}

// defaultMessageWindow applies when Server.MessageWindow is unset.
const defaultMessageWindow = 5 * time.Minute

// Server holds the collaborators shared by every handler. It is built once at startup.
type Server struct {
	Friends  FriendService
	Users    UserDirectory
	Resolver WalletResolver
	Hub      *notify.Hub
	Sessions *auth.Sessions
	Logger   *logrus.Logger

	// MessageWindow bounds issued_at on signed session and delete requests.
	MessageWindow time.Duration
	// OriginPatterns are host patterns allowed on the websocket handshake besides the
	// request's own host.
	OriginPatterns []string
}

func (s *Server) messageWindow() time.Duration {
	if s.MessageWindow > 0 {
		return s.MessageWindow
	}
	return defaultMessageWindow
}

// Routes builds the HTTP mux with logging and signer authentication applied.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	signed := middleware.RequireSignedMessage(s.Logger)
	signer := middleware.RequireSigner(s.Sessions, s.Logger)

	mux.HandleFunc("GET /health", HealthHandler)

	// user endpoints
	mux.Handle("POST /user/create", signed(http.HandlerFunc(s.CreateUserHandler)))
	mux.Handle("GET /user/me", signer(http.HandlerFunc(s.GetUserHandler)))
	mux.Handle("DELETE /user", signed(http.HandlerFunc(s.DeleteUserHandler)))
	mux.Handle("POST /auth/session", signed(http.HandlerFunc(s.SessionHandler)))

	// friend endpoints
	mux.Handle("GET /friends/get-user-friends", signer(http.HandlerFunc(s.GetUserFriendsHandler)))
	mux.Handle("GET /friends/get-pending-requests", signer(http.HandlerFunc(s.GetPendingRequestsHandler)))
	mux.Handle("POST /friends/send-request", signed(http.HandlerFunc(s.SendRequestHandler)))
	mux.Handle("POST /friends/cancel-request", signed(http.HandlerFunc(s.CancelRequestHandler)))
	mux.Handle("PUT /friends/accept-request", signed(http.HandlerFunc(s.AcceptRequestHandler)))

	// friend events websocket
	mux.Handle("GET /friends/ws", signer(http.HandlerFunc(s.FriendEventsWSHandler)))

	return middleware.LogMiddleware(s.Logger)(mux)
}
