package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/sprachpartner/internal/api/handlers"
)

type Deps struct {
	Options *handlers.OptionsHandler
	Session *handlers.SessionHandler
	Chat    *handlers.ChatHandler
	WS      *handlers.WSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.GET("/options", d.Options.Get)

	r.POST("/session/start", d.Session.Start)
	r.GET("/session/:session_id", d.Session.Get)
	r.POST("/session/:session_id/end", d.Session.End)

	r.POST("/chat", d.Chat.Chat)

	// WebSocket
	r.GET("/ws/session/:session_id", d.WS.SessionWS)
}
