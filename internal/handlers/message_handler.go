package handlers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/tourbay/internal/helpers"
	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/joshua-takyi/tourbay/internal/services"
)

const streamHeartbeat = 25 * time.Second

func ListConversations(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		convs, err := m.ListConversations(c.Request.Context(), actor)
		if err != nil {
			fail(c, err, "Failed to list conversations")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", convs)
	}
}

func StartConversation(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req models.StartConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		conv, err := m.StartConversation(c.Request.Context(), actor, &req)
		if err != nil {
			fail(c, err, "Failed to start conversation")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", conv)
	}
}

func ListMessages(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		msgs, err := m.List(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Failed to list messages")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", msgs)
	}
}

func SendMessage(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		var req models.SendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			helpers.ErrorResponse(c, http.StatusBadRequest, "Invalid request payload", err)
			return
		}

		msg, err := m.Send(c.Request.Context(), actor, c.Param("id"), &req)
		if err != nil {
			fail(c, err, "Failed to send message")
			return
		}
		helpers.SuccessResponse(c, http.StatusCreated, "", msg)
	}
}

func MarkRead(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		n, err := m.MarkRead(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Failed to mark messages read")
			return
		}
		helpers.SuccessResponse(c, http.StatusOK, "", gin.H{"updated": n})
	}
}

// StreamMessages pushes new messages as Server-Sent Events until the client
// goes away. A comment line is sent periodically to keep proxies from closing
// an idle stream.
func StreamMessages(m *services.MessageService) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := actorFrom(c)
		if !ok {
			return
		}
		stream, err := m.Subscribe(c.Request.Context(), actor, c.Param("id"))
		if err != nil {
			fail(c, err, "Failed to open message stream")
			return
		}

		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")

		ticker := time.NewTicker(streamHeartbeat)
		defer ticker.Stop()

		c.Stream(func(w io.Writer) bool {
			select {
			case msg, open := <-stream:
				if !open {
					return false
				}
				c.SSEvent("message", msg)
				return true
			case <-ticker.C:
				_, _ = io.WriteString(w, ": ping\n\n")
				return true
			case <-c.Request.Context().Done():
				return false
			}
		})
	}
}
