package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dirserve/metrics"
	"dirserve/web"
)

func SetupRoutes(r *gin.Engine, h *Handler) {
	handle := func(path string, handler gin.HandlerFunc) {
		r.GET(path, handler)
		r.HEAD(path, handler)
	}

	handle("/", h.RedirectToDefault)
	handle("/favicon.ico", h.Favicon)
	handle("/healthz", h.Health)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))
	r.GET("/ws", h.Socket)

	r.GET("/_api/list", h.ListJSON)
	r.GET("/_archive", h.Archive)
	r.StaticFS("/_static", http.FS(web.Static()))

	handle("/:lang", h.Index)
	handle("/:lang/*rest", h.Download)
}
