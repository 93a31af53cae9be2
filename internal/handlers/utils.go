package handlers

import (
	"errors"
	"net/http"

	"github.com/jason-s-yu/walletfriends/internal/api"
	"github.com/jason-s-yu/walletfriends/internal/friends"
	"github.com/sirupsen/logrus"
)

// writeFriendError maps lifecycle errors onto HTTP responses. Anything unrecognised is a store
// failure and is logged in full but reported generically.
func (s *Server) writeFriendError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, friends.ErrIdentityMismatch):
		api.Error(w, http.StatusForbidden, "mismatch payload")
	case errors.Is(err, friends.ErrNotParticipant):
		api.Error(w, http.StatusForbidden, "not a participant of this friend request")
	case errors.Is(err, friends.ErrNotFound):
		api.Error(w, http.StatusNotFound, "No pending requests found")
	case errors.Is(err, friends.ErrUnknownRecipient):
		api.Error(w, http.StatusNotFound, "recipient not found")
	case errors.Is(err, friends.ErrSelfRequest):
		api.Error(w, http.StatusBadRequest, "cannot friend yourself")
	case errors.Is(err, friends.ErrAlreadyRequested):
		api.Error(w, http.StatusConflict, "friend request already exists")
	default:
		s.Logger.WithError(err).WithFields(logrus.Fields{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("friend operation failed")
		api.Error(w, http.StatusInternalServerError, "internal server error")
	}
}
