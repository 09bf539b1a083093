package handler

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/educare/track_backend/internal/service/notification"
)

const streamHeartbeat = 25 * time.Second

type NotificationHandler struct {
	svc notification.Service
}

func NewNotificationHandler(svc notification.Service) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func mapNotificationError(c fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, notification.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, notification.ErrStreamUnavailable):
		return unavailable(c, err.Error())
	default:
		slog.ErrorContext(c.Context(), "notification handler", "err", err)
		return internalError(c)
	}
}

// GET /api/v1/notifications?unread_only=true
func (h *NotificationHandler) List(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	unreadOnly := c.Query("unread_only") == "true"
	res, err := h.svc.List(c.Context(), sess.UserID, unreadOnly, pageOf(c))
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, res)
}

// PATCH /api/v1/notifications/:id/read
func (h *NotificationHandler) MarkRead(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	id, err := paramUUID(c, "id")
	if err != nil {
		return badRequest(c, "invalid notification id")
	}

	if err := h.svc.MarkRead(c.Context(), id, sess.UserID); err != nil {
		return mapNotificationError(c, err)
	}

	return noContent(c)
}

// PATCH /api/v1/notifications/read-all
func (h *NotificationHandler) MarkAllRead(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	n, err := h.svc.MarkAllRead(c.Context(), sess.UserID)
	if err != nil {
		return mapNotificationError(c, err)
	}

	return ok(c, fiber.Map{"updated": n})
}

// GET /api/v1/notifications/stream  (text/event-stream)
func (h *NotificationHandler) Stream(c fiber.Ctx) error {
	sess, valid := sessionOf(c)
	if !valid {
		return unauthorized(c)
	}

	// The writer outlives the handler, so the subscription gets its own
	// context and ends on the first failed flush.
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := h.svc.Stream(ctx, sess.UserID)
	if err != nil {
		cancel()
		return mapNotificationError(c, err)
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	userID := sess.UserID
	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer cancel()
		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		fmt.Fprint(w, ": connected\n\n")
		if err := w.Flush(); err != nil {
			return
		}
		for {
			select {
			case n, open := <-ch:
				if !open {
					return
				}
				payload, err := json.Marshal(n)
				if err != nil {
					continue
				}
				fmt.Fprintf(w, "id: %s\nevent: %s\ndata: %s\n\n", n.ID, n.Verb, payload)
			case <-ticker.C:
				fmt.Fprint(w, ": ping\n\n")
			}
			if err := w.Flush(); err != nil {
				slog.Debug("notification stream closed", "user_id", userID)
				return
			}
		}
	})
}
