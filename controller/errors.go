package controller

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dirserve/logging"
	"dirserve/service/listing"
)

func statusOf(err error) int {
	switch listing.ErrorKind(err) {
	case listing.KindForbidden:
		return http.StatusForbidden
	case listing.KindNotFound:
		return http.StatusNotFound
	case listing.KindInvalid:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// fail answers a page request that could not be served. With an error page
// configured the client is redirected to "<ERROR_PAGE_URL>/<status>".
func (h *Handler) fail(c *gin.Context, err error) {
	h.failStatus(c, statusOf(err), err)
}

func (h *Handler) failStatus(c *gin.Context, status int, err error) {
	h.record(c, status, err)

	if h.opts.ErrorPageURL != "" {
		c.Redirect(http.StatusFound, strings.TrimRight(h.opts.ErrorPageURL, "/")+"/"+strconv.Itoa(status))
		c.Abort()
		return
	}
	c.HTML(status, "error.html", gin.H{
		"Status":     status,
		"StatusText": http.StatusText(status),
	})
	c.Abort()
}

// failJSON is fail for the JSON API. Internal errors are not echoed.
func (h *Handler) failJSON(c *gin.Context, err error) {
	status := statusOf(err)
	h.record(c, status, err)

	message := err.Error()
	if status == http.StatusInternalServerError {
		message = http.StatusText(status)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": message})
}

func (h *Handler) record(c *gin.Context, status int, err error) {
	c.Error(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("request_id", logging.RequestID(c)),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err),
		)
	}
}
