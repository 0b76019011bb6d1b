package gateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/sednafx/memwell/internal/chat"
	"github.com/sednafx/memwell/internal/provider"
)

// conversationID resolves the conversation identifier from the request.
// Falls back to the fixed default when the header is absent.
func conversationID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get("X-Conversation-Id")); id != "" {
		return id
	}
	return chat.DefaultConversationID
}

// wantsJSON reports whether the caller asked for a structured response.
func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// handleChat returns the handler for one chat surface. compacting only
// selects which metrics narrative applies; the service itself decides
// whether compaction runs.
func (g *Gateway) handleChat(svc *chat.Service, compacting bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		message := r.URL.Query().Get("message")
		if message == "" {
			http.Error(w, "missing message parameter", http.StatusBadRequest)
			return
		}

		g.metrics.RecordMessage()
		id := conversationID(r)

		start := time.Now()
		reply, err := svc.Respond(r.Context(), id, message)
		if err != nil {
			g.metrics.RecordError()
			g.logger.Error("chat exchange failed",
				"conversation", id,
				"compacting", compacting,
				"error", err)
			http.Error(w, upstreamErrorText(err), upstreamErrorStatus(err))
			return
		}
		g.metrics.RecordCompletion(time.Since(start))

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(reply))
	}
}

// handleTrigger manually compacts the conversation and reports the result.
func (g *Gateway) handleTrigger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := conversationID(r)

		res, err := g.compacting.Compact(r.Context(), id)
		if err != nil {
			g.metrics.RecordError()
			g.logger.Error("manual compaction failed", "conversation", id, "error", err)
			http.Error(w, upstreamErrorText(err), upstreamErrorStatus(err))
			return
		}
		if res.Compacted {
			g.metrics.RecordCompaction(res.TokensSaved)
		}

		if wantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(res)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(res.String()))
	}
}

// handleClear wipes the conversation and reports what was removed.
func (g *Gateway) handleClear() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := conversationID(r)

		res, err := g.compacting.Clear(r.Context(), id)
		if err != nil {
			g.metrics.RecordError()
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		if wantsJSON(r) {
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(res)
			return
		}
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(res.String()))
	}
}

// upstreamErrorStatus maps provider failures to HTTP status codes.
func upstreamErrorStatus(err error) int {
	switch {
	case errors.Is(err, provider.ErrRateLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, provider.ErrAuthentication):
		return http.StatusBadGateway
	case errors.Is(err, provider.ErrProviderDown), errors.Is(err, provider.ErrContextLength):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// upstreamErrorText avoids leaking provider response bodies to callers.
func upstreamErrorText(err error) string {
	switch {
	case errors.Is(err, provider.ErrRateLimit):
		return "upstream model rate limited"
	case errors.Is(err, provider.ErrAuthentication):
		return "upstream model rejected credentials"
	case errors.Is(err, provider.ErrProviderDown):
		return "upstream model unavailable"
	default:
		return err.Error()
	}
}
