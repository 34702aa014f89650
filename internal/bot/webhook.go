package bot

import (
	"crypto/subtle"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// webhookTokenHeader carries the shared secret the bridge was configured
// with. Updates without it are dropped.
const webhookTokenHeader = "X-Bridge-Token"

// NewRouter wires the inbound HTTP surface: the bridge's webhook plus a
// health check endpoint.
func NewRouter(b *Bot, token string, log *slog.Logger) http.Handler {
	if log == nil {
		log = slog.Default()
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Post("/webhook", func(w http.ResponseWriter, r *http.Request) {
		if token != "" && subtle.ConstantTimeCompare([]byte(r.Header.Get(webhookTokenHeader)), []byte(token)) != 1 {
			respondError(w, http.StatusUnauthorized, "bad token")
			return
		}

		var upd Update
		if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
			respondError(w, http.StatusBadRequest, "malformed update")
			return
		}

		if err := b.HandleUpdate(r.Context(), upd); err != nil {
			log.Error("webhook update failed", "session", upd.SessionID, "error", err)
			respondError(w, http.StatusInternalServerError, "update failed")
			return
		}
		respondJSON(w, http.StatusOK, map[string]string{"status": "handled"})
	})

	return r
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encoding response failed", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
