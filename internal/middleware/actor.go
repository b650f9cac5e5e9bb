package middleware

import (
	"github.com/gin-gonic/gin"

	appErrors "github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/errors"
	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/pkg/response"
)

// ContextActorKey is the gin context key storing the acting user's ID.
const ContextActorKey = "actorID"

// ActorHeader carries the caller identity established upstream.
const ActorHeader = "X-Actor-ID"

// Actor requires the actor header on every request and stores the ID in
// the gin context. Identity is established by the fronting proxy; this
// service only attributes actions to it.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(ActorHeader)
		if actorID == "" {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing actor header"))
			c.Abort()
			return
		}
		c.Set(ContextActorKey, actorID)
		c.Next()
	}
}

// ActorID reads the actor ID stored by Actor. It returns an empty string
// when the middleware did not run.
func ActorID(c *gin.Context) string {
	return c.GetString(ContextActorKey)
}
