package models

import (
	"time"

	"github.com/google/uuid"
)

// RequestID identifies a row in friend_requests.
type RequestID int64

// FriendStatus is the state of a friend request row. Cancelled requests are deleted, not flagged.
type FriendStatus string

const (
	StatusPending  FriendStatus = "pending"
	StatusAccepted FriendStatus = "accepted"
)

// Valid reports whether s is a status the friend_requests table accepts.
func (s FriendStatus) Valid() bool {
	return s == StatusPending || s == StatusAccepted
}

type FriendRequest struct {
	ID         RequestID    `json:"id"`
	FromUserID uuid.UUID    `json:"from_user_id"`
	ToUserID   uuid.UUID    `json:"to_user_id"`
	Status     FriendStatus `json:"status"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// HasParticipant reports whether userID is either side of the request.
func (f FriendRequest) HasParticipant(userID uuid.UUID) bool {
	return f.FromUserID == userID || f.ToUserID == userID
}

// FriendTarget is the projection returned by the list endpoints.
type FriendTarget struct {
	ToUserID uuid.UUID `json:"to_user_id"`
}
