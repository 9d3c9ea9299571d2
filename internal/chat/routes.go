package chat

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hazemkhaled/raggate/internal/auth"
	"github.com/hazemkhaled/raggate/internal/httpapi"
)

// RegisterRoutes mounts the chat endpoints, all behind authentication.
func RegisterRoutes(r chi.Router, orch *Orchestrator, verifier auth.Verifier) {
	r.Route("/chat", func(r chi.Router) {
		r.Use(auth.Require(verifier))
		r.Post("/ask", handleAsk(orch))
		r.Get("/{chatID}/history", handleHistory(orch.turns))
	})
}

func handleAsk(orch *Orchestrator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.FromContext(r.Context())

		var req AskRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			httpapi.WriteError(w, httpapi.InvalidRequest("invalid request body"))
			return
		}

		resp, err := orch.Ask(r.Context(), principal, req)
		if err != nil {
			httpapi.WriteError(w, err)
			return
		}

		httpapi.WriteJSON(w, http.StatusOK, resp)
	}
}

func handleHistory(turns TurnStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		principal := auth.FromContext(r.Context())
		chatID := chi.URLParam(r, "chatID")

		list, err := turns.ListTurns(r.Context(), chatID)
		if err != nil {
			httpapi.WriteError(w, err)
			return
		}
		// Conversation ids are guessable, so a conversation started by
		// another principal reads as absent.
		for _, turn := range list {
			if turn.UserID != "" && turn.UserID != principal.ID {
				httpapi.WriteError(w, httpapi.NotFound("conversation not found"))
				return
			}
		}
		if list == nil {
			list = []Turn{}
		}

		httpapi.WriteJSON(w, http.StatusOK, map[string]any{"chatId": chatID, "turns": list})
	}
}
