package models

import "github.com/google/uuid"

// Friend event types pushed to connected clients.
const (
	EventRequestSent     = "friend_request_sent"
	EventRequestAccepted = "friend_request_accepted"
	EventRequestRemoved  = "friend_request_removed"
)

// FriendEvent describes a state change on a single friend request.
type FriendEvent struct {
	Type       string    `json:"type"`
	RequestID  RequestID `json:"request_id"`
	FromUserID uuid.UUID `json:"from_user_id"`
	ToUserID   uuid.UUID `json:"to_user_id"`
	Timestamp  int64     `json:"timestamp"`
}

// Recipients returns the users that should receive the event.
func (e FriendEvent) Recipients() []uuid.UUID {
	if e.FromUserID == e.ToUserID {
		return []uuid.UUID{e.FromUserID}
	}
	return []uuid.UUID{e.FromUserID, e.ToUserID}
}
