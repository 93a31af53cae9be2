// internal/handlers/ws.go
package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/jason-s-yu/walletfriends/internal/api"
	"github.com/jason-s-yu/walletfriends/internal/middleware"
)

const (
	friendsSubprotocol = "friends"
	wsWriteTimeout     = 5 * time.Second
)

// FriendEventsWSHandler streams friend events involving the caller over a websocket.
// The client must speak the "friends" subprotocol; incoming frames are ignored.
func (s *Server) FriendEventsWSHandler(w http.ResponseWriter, r *http.Request) {
	signer, ok := middleware.SignerFromContext(r.Context())
	if !ok {
		api.Error(w, http.StatusUnauthorized, "missing verified signer")
		return
	}
	userID, err := s.Resolver.Resolve(r.Context(), signer)
	if err != nil {
		s.writeFriendError(w, r, err)
		return
	}

	// Only the request's own host and OriginPatterns may open the socket.
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{friendsSubprotocol},
		OriginPatterns: s.OriginPatterns,
	})
	if err != nil {
		s.Logger.Warnf("websocket accept error: %v", err)
		return
	}
	defer c.Close(websocket.StatusInternalError, "handler finished")

	if c.Subprotocol() != friendsSubprotocol {
		c.Close(BadSubprotocolError, "client must speak the friends subprotocol")
		return
	}

	events, cancel := s.Hub.Subscribe(userID)
	defer cancel()

	middleware.LogWebSocketConnect(s.Logger, r.RemoteAddr, r.URL.Path, signer)

	// CloseRead discards client frames and cancels ctx once the peer goes away.
	ctx := c.CloseRead(r.Context())
	for {
		select {
		case <-ctx.Done():
			middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, nil)
			return
		case ev, ok := <-events:
			if !ok {
				c.Close(StreamClosedError, "event stream closed")
				return
			}
			wctx, wcancel := context.WithTimeout(ctx, wsWriteTimeout)
			err := wsjson.Write(wctx, c, ev)
			wcancel()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					middleware.LogWebSocketDisconnect(s.Logger, r.RemoteAddr, r.URL.Path, err)
				}
				return
			}
		}
	}
}
