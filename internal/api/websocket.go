package api

import (
	"net/http"

	"cmsadmin/internal/auth"
	"cmsadmin/internal/ws"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

func (d Dependencies) upgrader() *websocket.Upgrader {
	allowed := make(map[string]bool, len(d.AllowedOrigins))
	for _, o := range d.AllowedOrigins {
		allowed[o] = true
	}
	return &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			if len(allowed) == 0 {
				return true
			}
			return allowed[r.Header.Get("Origin")]
		},
	}
}

// wsHandler upgrades an authenticated request. The connection starts out
// subscribed to the caller's notification channel.
func (d Dependencies) wsHandler(w http.ResponseWriter, r *http.Request) {
	if d.Hub == nil {
		d.Log.Error("WebSocket hub not initialized")
		http.Error(w, "WebSocket hub not initialized", http.StatusInternalServerError)
		return
	}

	userID := auth.GetUserID(r.Context())
	if userID == "" {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conn, err := d.upgrader().Upgrade(w, r, nil)
	if err != nil {
		d.Log.Error("Failed to upgrade connection", zap.Error(err))
		return
	}
	d.Log.Debug("WebSocket connected", zap.String("user_id", userID), zap.String("remote", r.RemoteAddr))

	wsConn := ws.NewConn(conn, d.Hub, userID)
	d.Hub.Register(wsConn)

	go wsConn.WritePump()
	go wsConn.ReadPump()
}
