package web

import (
	"github.com/gin-gonic/gin"
)

// allowModelCall guards handlers that call the language model. It runs after
// the request body is validated, so rejected input never spends budget. The
// per-client bucket is checked first so one noisy client cannot drain the
// global budget. On rejection it writes the 429 and returns false.
func (h *Handler) allowModelCall(c *gin.Context) bool {
	ip := c.ClientIP()

	if h.clients != nil && !h.clients.Allow(ip) {
		writeRateLimited(c, requestLang(c), h.clients.RetryAfter(ip))
		return false
	}

	if h.global != nil && !h.global.Allow() {
		h.metrics.RecordRateLimiterDrop("global")
		writeRateLimited(c, requestLang(c), h.global.RetryAfter())
		return false
	}

	return true
}
