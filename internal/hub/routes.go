package hub

import "github.com/go-chi/chi/v5"

// RegisterRoutes mounts the websocket endpoint on the given router.
func RegisterRoutes(r chi.Router, h *Hub) {
	r.Get("/ws", h.ServeWS)
}
