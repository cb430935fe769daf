package hub

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub tracks websocket connections from POS terminals, keyed by company so
// order updates only reach the tenant they belong to.
type Hub struct {
	companies map[string]map[string]*websocket.Conn
	mu        sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		companies: make(map[string]map[string]*websocket.Conn),
	}
}

func (h *Hub) Add(companyID, terminalID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.companies[companyID] == nil {
		h.companies[companyID] = make(map[string]*websocket.Conn)
	}
	h.companies[companyID][terminalID] = conn
	log.Printf("Terminal %s connected for company %s. Total: %d", terminalID, companyID, len(h.companies[companyID]))
}

func (h *Hub) Remove(companyID, terminalID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.companies[companyID]; ok {
		if _, ok := conns[terminalID]; ok {
			delete(conns, terminalID)
			log.Printf("Terminal %s disconnected from company %s. Total: %d", terminalID, companyID, len(conns))
		}
		if len(conns) == 0 {
			delete(h.companies, companyID)
		}
	}
}

// Broadcast sends a JSON message to every terminal of a company.
func (h *Hub) Broadcast(companyID string, message any) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling broadcast message: %v", err)
		return
	}

	for terminalID, conn := range h.companies[companyID] {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Error sending to terminal %s: %v", terminalID, err)
		}
	}
}

func (h *Hub) Count(companyID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.companies[companyID])
}
