package app

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
)

// metricsAuthMiddleware guards /metrics with Basic Auth when enabled.
// An enabled guard with an empty password rejects everyone.
func metricsAuthMiddleware(enabled bool, username, password string) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		if !credentialsMatch(c.Request, username, password) {
			c.Header("WWW-Authenticate", `Basic realm="metrics", charset="UTF-8"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}

// credentialsMatch compares both fields in constant time, and always both,
// so the response time does not reveal which one was wrong.
func credentialsMatch(r *http.Request, username, password string) bool {
	user, pass, ok := r.BasicAuth()
	if !ok || password == "" {
		return false
	}
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username))
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(password))
	return userOK&passOK == 1
}
