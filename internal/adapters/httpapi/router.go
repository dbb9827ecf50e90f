package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/app"
	"github.com/tonutonmoy/chat-client-side/internal/app/call"
	"github.com/tonutonmoy/chat-client-side/internal/app/chat"
	"github.com/tonutonmoy/chat-client-side/internal/config"
	"github.com/tonutonmoy/chat-client-side/internal/core"
	"github.com/tonutonmoy/chat-client-side/internal/domain"
	"github.com/tonutonmoy/chat-client-side/internal/store"
)

func SetupRouter(cfg *config.Config, client *app.Client, state *UIState, rest *store.Client) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	log.Info().Str("module", "httpapi").Int("port", cfg.Port).Msg("router setup")

	api := r.Group("/api")

	api.GET("/status", func(c *gin.Context) {
		view := state.View()
		c.JSON(http.StatusOK, gin.H{
			"ui":      view,
			"call":    client.Calls.Snapshot(),
			"online":  client.Presence.Online(),
			"partner": client.Chat.Partner(),
		})
	})

	api.POST("/conversation/:partnerId", func(c *gin.Context) {
		partner := domain.UserID(c.Param("partnerId"))
		if err := client.OpenConversation(c.Request.Context(), partner); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.DELETE("/conversation", func(c *gin.Context) {
		client.CloseConversation()
		c.Status(http.StatusNoContent)
	})

	api.GET("/messages", func(c *gin.Context) {
		c.JSON(http.StatusOK, client.Chat.Messages())
	})

	api.POST("/messages", func(c *gin.Context) {
		var body struct {
			Content string `json:"content" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := client.Chat.SendText(c.Request.Context(), body.Content); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusAccepted)
	})

	api.POST("/messages/attachment", func(c *gin.Context) {
		fh, err := c.FormFile("file")
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
			return
		}
		t := domain.MessageType(c.PostForm("type"))
		if !t.NeedsUpload() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "type must be image, file or audio"})
			return
		}
		f, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		defer f.Close()
		if err := client.Chat.SendAttachment(c.Request.Context(), f, fh.Filename, t); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusAccepted)
	})

	api.POST("/messages/:id/seen", func(c *gin.Context) {
		if err := client.Chat.MarkSeen(c.Param("id")); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/typing", func(c *gin.Context) {
		client.Chat.Pulse()
		c.Status(http.StatusNoContent)
	})

	api.POST("/call", func(c *gin.Context) {
		var body struct {
			PartnerID domain.UserID `json:"partnerId" binding:"required"`
			Video     bool          `json:"video"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := client.Calls.Start(c.Request.Context(), body.PartnerID, body.Video); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusAccepted)
	})

	api.POST("/call/accept", func(c *gin.Context) {
		if err := client.Calls.Accept(c.Request.Context()); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/call/reject", func(c *gin.Context) {
		if err := client.Calls.Reject(); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/call/end", func(c *gin.Context) {
		client.Calls.End()
		c.Status(http.StatusNoContent)
	})

	api.POST("/call/media", func(c *gin.Context) {
		var body struct {
			Kind    core.TrackKind `json:"kind" binding:"required"`
			Enabled *bool          `json:"enabled" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if body.Kind != core.KindAudio && body.Kind != core.KindVideo {
			c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be audio or video"})
			return
		}
		client.Calls.SetTrackEnabled(body.Kind, *body.Enabled)
		c.Status(http.StatusNoContent)
	})

	api.POST("/recording/start", func(c *gin.Context) {
		if err := client.StartVoiceRecording(c.Request.Context()); err != nil {
			abortDomain(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	})

	api.POST("/recording/stop", func(c *gin.Context) {
		client.StopVoiceRecording()
		c.Status(http.StatusNoContent)
	})

	api.GET("/users", func(c *gin.Context) {
		users, err := rest.Users(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, users)
	})

	api.GET("/users/:id", func(c *gin.Context) {
		user, err := rest.Partner(c.Request.Context(), domain.UserID(c.Param("id")))
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, user)
	})

	api.GET("/notifications", func(c *gin.Context) {
		notes, err := rest.Notifications(c.Request.Context(), client.Self.ID)
		if err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, notes)
	})

	return r
}

// abortDomain maps the failure taxonomy to HTTP statuses.
func abortDomain(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrBusy), errors.Is(err, call.ErrNoIncomingCall):
		status = http.StatusConflict
	case errors.Is(err, chat.ErrNoConversation):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUploadFailure):
		status = http.StatusBadGateway
	case errors.Is(err, domain.ErrTransportUnavailable):
		status = http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrPermissionDenied), errors.Is(err, domain.ErrDeviceUnavailable):
		status = http.StatusFailedDependency
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
