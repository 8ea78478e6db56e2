package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/keithrincon/picklebookie-sub000/internal/geo"
	"github.com/keithrincon/picklebookie-sub000/internal/middleware"
	"github.com/keithrincon/picklebookie-sub000/internal/models"
	"github.com/keithrincon/picklebookie-sub000/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const wsReadLimit = 4096

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // native clients send no Origin header
	},
}

// WebSocketHandler serves live feed subscriptions
type WebSocketHandler struct {
	hub    *services.FeedHub
	tokens middleware.TokenValidator
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(hub *services.FeedHub, tokens middleware.TokenValidator) *WebSocketHandler {
	return &WebSocketHandler{
		hub:    hub,
		tokens: tokens,
	}
}

// HandleWebSocket handles GET /ws/feed?token=&lat=&lng=
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.tokens)
	if err != nil {
		respondError(w, "invalid token", models.CodeUnauthorized, http.StatusUnauthorized)
		return
	}

	viewer, err := parseViewer(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}
	defer conn.Close()
	conn.SetReadLimit(wsReadLimit)

	// The request context is cancelled once the handler returns.
	ctx := context.WithoutCancel(r.Context())

	clientID, err := h.hub.Register(ctx, userID, conn, viewer)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to register feed subscriber")
		return
	}
	defer h.hub.Unregister(clientID)

	log.Info().Str("user_id", userID).Str("client_id", clientID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.hub.SendError(clientID, "Invalid message format")
			continue
		}

		if err := h.handleMessage(ctx, clientID, msg); err != nil {
			log.Debug().Err(err).Str("user_id", userID).Str("type", msg.Type).Msg("Failed to handle message")
			h.hub.SendError(clientID, err.Error())
		}
	}
}

// handleMessage processes incoming WebSocket messages
func (h *WebSocketHandler) handleMessage(ctx context.Context, clientID string, msg services.WSMessage) error {
	switch msg.Type {
	case services.MsgTypeLocation:
		if msg.Lat == nil || msg.Lng == nil {
			return models.NewValidationError("lat and lng are required")
		}
		viewer := geo.Coordinates{Lat: *msg.Lat, Lng: *msg.Lng}
		if !viewer.Valid() {
			return models.NewValidationError("invalid lat or lng")
		}
		return h.hub.SetViewer(ctx, clientID, &viewer)
	case services.MsgTypeUnknown:
		return h.hub.SetViewer(ctx, clientID, nil)
	default:
		return models.NewValidationError("Unknown message type")
	}
}
