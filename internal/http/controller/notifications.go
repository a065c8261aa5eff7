package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"notifyrelay/internal/config"
	"notifyrelay/internal/domain"
	"notifyrelay/internal/http/dto"
	"notifyrelay/internal/http/resp"
	"notifyrelay/internal/listener"
	"notifyrelay/internal/model"
	"notifyrelay/internal/queue"
	"notifyrelay/internal/relay"
	"notifyrelay/internal/stream"
)

const defaultHeartbeat = 15 * time.Second

type Handler struct {
	cfg   *config.Config
	relay *relay.Relay
	push  *listener.Push
	log   *zap.Logger
	pub   queue.Publisher
}

func NewHandler(cfg *config.Config, r *relay.Relay, push *listener.Push, logger *zap.Logger, publisher queue.Publisher) *Handler {
	return &Handler{cfg: cfg, relay: r, push: push, log: logger, pub: publisher}
}

func (h *Handler) ListHistory(c *gin.Context) {
	history, err := h.relay.History(c.Request.Context())
	if err != nil {
		h.log.Error("list history failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to load history"})
		return
	}
	if pkg := c.Query("package"); pkg != "" {
		filtered := make([]model.Notification, 0, len(history))
		for _, n := range history {
			if n.Package == pkg {
				filtered = append(filtered, n)
			}
		}
		history = filtered
	}
	c.JSON(http.StatusOK, dto.HistoryResponse{Notifications: history, Count: len(history)})
}

func (h *Handler) PushNotification(c *gin.Context) {
	notification, ok := h.bindNotification(c)
	if !ok {
		return
	}
	if h.push == nil || !h.push.Active() {
		c.JSON(http.StatusConflict, dto.ErrorResponse{Code: resp.CodeConflict, Message: domain.ErrPushDisabled.Error()})
		return
	}
	h.push.Push(notification)
	c.JSON(http.StatusAccepted, dto.StatusResponse{Code: resp.CodeAccepted, Message: "accepted"})
}

func (h *Handler) PublishNotification(c *gin.Context) {
	notification, ok := h.bindNotification(c)
	if !ok {
		return
	}
	if err := h.pub.Publish(c.Request.Context(), notification); err != nil {
		h.log.Error("publish notification failed",
			zap.String("title", notification.Title),
			zap.String("package", notification.Package),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "failed to publish notification"})
		return
	}
	c.JSON(http.StatusAccepted, dto.StatusResponse{Code: resp.CodeQueued, Message: "queued"})
}

func (h *Handler) bindNotification(c *gin.Context) (model.SystemNotification, bool) {
	var req dto.SystemNotificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "invalid json"})
		return model.SystemNotification{}, false
	}
	notification := req.Model()
	if err := domain.ValidateSystemNotification(notification); err != nil {
		if errors.Is(err, domain.ErrInvalidNotification) {
			c.JSON(http.StatusBadRequest, dto.ErrorResponse{Code: resp.CodeBadRequest, Message: "title and package are required"})
			return model.SystemNotification{}, false
		}
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "validation failed"})
		return model.SystemNotification{}, false
	}
	return notification, true
}

// Stream serves the persisted history followed by live notifications.
func (h *Handler) Stream(c *gin.Context) {
	sub, err := h.relay.Combined(c.Request.Context())
	if err != nil {
		h.log.Error("load history failed, streaming live only", zap.Error(err))
		sub = h.relay.Live()
	}
	h.serveSSE(c, sub)
}

// Live serves notifications received after the client connected.
func (h *Handler) Live(c *gin.Context) {
	h.serveSSE(c, h.relay.Live())
}

func (h *Handler) serveSSE(c *gin.Context, sub *stream.Subscription) {
	defer sub.Close()
	pkg := c.Query("package")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		h.log.Error("streaming unsupported")
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Code: resp.CodeInternalError, Message: "streaming unsupported"})
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	flusher.Flush()

	interval := h.cfg.SSEHeartbeat
	if interval <= 0 {
		interval = defaultHeartbeat
	}
	heartbeat := time.NewTicker(interval)
	defer heartbeat.Stop()

	for {
		select {
		case <-c.Request.Context().Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(c.Writer, ": ping\n\n"); err != nil {
				h.log.Error("heartbeat write failed", zap.Error(err))
				return
			}
			flusher.Flush()
		case notification, ok := <-sub.C():
			if !ok {
				return
			}
			if pkg != "" && notification.Package != pkg {
				continue
			}
			if err := writeNotification(c.Writer, notification); err != nil {
				h.log.Error("write notification failed", zap.String("id", notification.ID), zap.Error(err))
				return
			}
			flusher.Flush()
		}
	}
}

func writeNotification(w http.ResponseWriter, notification model.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}
	// SSE frame mapping:
	// - id: notification.ID
	// - event: "notification"
	// - data: JSON payload with title/package/text/textLines/date
	_, err = fmt.Fprintf(w, "id: %s\nevent: notification\ndata: %s\n\n", notification.ID, payload)
	return err
}
