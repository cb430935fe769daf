package handlers

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/thiagosouza28/ideart-cloud-sub005/internal/auth"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Token auth happens in middleware; the dashboard may live on another origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// OrdersWebSocket streams the company's order status events to a dashboard
// or POS client over websocket.
// @Summary Order updates stream
// @Tags orders
// @Security BearerAuth
// @Router /v1/ws/orders [get]
func (h *Handler) OrdersWebSocket(w http.ResponseWriter, r *http.Request) {
	companyID, ok := auth.CompanyIDFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WARN WebSocket upgrade failed: %v", err)
		return
	}

	connID := uuid.New().String()
	h.hub.Add(companyID, connID, conn)
	defer func() {
		h.hub.Remove(companyID, connID)
		conn.Close()
	}()

	// Consume and discard client frames; the stream is one-way.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
