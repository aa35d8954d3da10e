package handlers

import (
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/knitworks/floortrack-backend/internal/pkg/ctxutil"
	"github.com/knitworks/floortrack-backend/internal/pkg/logger"
	"github.com/knitworks/floortrack-backend/internal/realtime"
)

type SSEHandler struct {
	log *logger.Logger
	hub *realtime.SSEHub

	mu      sync.Mutex
	clients map[uuid.UUID]*realtime.SSEClient
}

func NewSSEHandler(log *logger.Logger, hub *realtime.SSEHub) *SSEHandler {
	return &SSEHandler{
		log:     log.With("handler", "SSEHandler"),
		hub:     hub,
		clients: make(map[uuid.UUID]*realtime.SSEClient),
	}
}

// Stream opens the event stream. Initial channels come from the channels
// query param, comma separated; more can be added over Subscribe while the
// stream is open.
func (h *SSEHandler) Stream(c *gin.Context) {
	actorID := uuid.Nil
	if actor := ctxutil.GetActorData(c.Request.Context()); actor != nil {
		actorID = actor.ActorID
	}

	client := h.hub.NewSSEClient(actorID)
	for _, ch := range strings.Split(c.Query("channels"), ",") {
		if ch = strings.TrimSpace(ch); ch != "" {
			h.hub.AddChannel(client, ch)
		}
	}

	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.clients, client.ID)
		h.mu.Unlock()
		h.hub.CloseClient(client)
	}()

	c.Header("X-SSE-Client-ID", client.ID.String())
	h.hub.ServeHTTP(c.Writer, c.Request, client)
}

type sseChannelRequest struct {
	ClientID string `json:"clientId" binding:"required"`
	Channel  string `json:"channel" binding:"required"`
}

func (h *SSEHandler) Subscribe(c *gin.Context) {
	h.changeSubscription(c, h.hub.AddChannel)
}

func (h *SSEHandler) Unsubscribe(c *gin.Context) {
	h.changeSubscription(c, h.hub.RemoveChannel)
}

func (h *SSEHandler) changeSubscription(c *gin.Context, apply func(client *realtime.SSEClient, channel string)) {
	var req sseChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}
	clientID, err := uuid.Parse(req.ClientID)
	if err != nil {
		RespondError(c, http.StatusBadRequest, "validation", err)
		return
	}

	h.mu.Lock()
	client, ok := h.clients[clientID]
	h.mu.Unlock()
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown SSE client"})
		return
	}

	apply(client, req.Channel)
	RespondOK(c, gin.H{"ok": true})
}
