// internal/handlers/friend.go
package handlers

import (
	"net/http"

	"github.com/jason-s-yu/walletfriends/internal/api"
	"github.com/jason-s-yu/walletfriends/internal/friends"
	"github.com/jason-s-yu/walletfriends/internal/middleware"
)

// GetUserFriendsHandler returns the accepted requests the caller has sent.
//
// Response payload:
//
//	{ "success": true, "data": [ { "to_user_id": "uuid" } ] }
func (s *Server) GetUserFriendsHandler(w http.ResponseWriter, r *http.Request) {
	signer, ok := middleware.SignerFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing verified signer")
		return
	}
	list, err := s.Friends.GetUserFriends(r.Context(), signer)
	if err != nil {
		s.writeFriendError(w, r, err)
		return
	}
	api.OK(w, list, "")
}

// GetPendingRequestsHandler returns the pending requests the caller has sent. An empty list is
// a success; 404 is reserved for the store yielding no result at all.
func (s *Server) GetPendingRequestsHandler(w http.ResponseWriter, r *http.Request) {
	signer, ok := middleware.SignerFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing verified signer")
		return
	}
	list, err := s.Friends.GetPendingRequests(r.Context(), signer)
	if err != nil {
		s.writeFriendError(w, r, err)
		return
	}
	api.OK(w, list, "")
}

// SendRequestHandler creates a pending friend request.
//
// Signed message: { "to_wallet": "0x..." }
func (s *Server) SendRequestHandler(w http.ResponseWriter, r *http.Request) {
	env, ok := middleware.EnvelopeFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing signed message")
		return
	}
	row, err := s.Friends.SendFriendRequest(r.Context(), env.Signer, signedCommand(env))
	if err != nil {
		s.writeFriendError(w, r, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, api.Response{
		Success: true,
		Data:    row,
		Message: "Friend request sent",
	})
}

// CancelRequestHandler cancels a pending request or removes an accepted friend.
//
// Signed message: { "id": <request id> }
func (s *Server) CancelRequestHandler(w http.ResponseWriter, r *http.Request) {
	env, ok := middleware.EnvelopeFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing signed message")
		return
	}
	removed, err := s.Friends.CancelRequestOrRemoveFriend(r.Context(), env.Signer, signedCommand(env))
	if err != nil {
		s.writeFriendError(w, r, err)
		return
	}
	if !removed {
		api.Error(w, http.StatusNotFound, "Friend request not found")
		return
	}
	api.OK(w, true, "Friend request removed")
}

// AcceptRequestHandler marks a request as accepted.
//
// Signed message: { "id": <request id> }
func (s *Server) AcceptRequestHandler(w http.ResponseWriter, r *http.Request) {
	env, ok := middleware.EnvelopeFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing signed message")
		return
	}
	updated, err := s.Friends.AcceptFriendRequest(r.Context(), env.Signer, signedCommand(env))
	if err != nil {
		s.writeFriendError(w, r, err)
		return
	}
	if !updated {
		api.Error(w, http.StatusNotFound, "Friend request not found")
		return
	}
	api.OK(w, true, "Friend request accepted")
}

func signedCommand(env middleware.Envelope) friends.SignedCommand {
	return friends.SignedCommand{Signature: env.Signature, Message: env.Message}
}
