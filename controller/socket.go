package controller

import (
	"github.com/gin-gonic/gin"

	"dirserve/websocket"
	"dirserve/websocket/service/fs"
	"dirserve/websocket/service/heartbeat"
)

// Socket upgrades to a websocket session exposing the listing service.
func (h *Handler) Socket(c *gin.Context) {
	wsServer, err := websocket.NewServer(c.Writer, c.Request, websocket.Options{
		IdleTimeout: h.opts.IdleTimeout,
		Logger:      h.logger,
	})
	if err != nil {
		// the upgrader has already answered the client
		c.Error(err)
		return
	}

	fsService := fs.NewService(h.resolver, h.translations, h.opts.DefaultLang, h.logger)
	heartbeatService := heartbeat.NewService()

	wsServer.Register(fsService)
	wsServer.RegisterPassive(heartbeatService)

	wsServer.Start()
}
