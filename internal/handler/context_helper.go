package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/Sistersocrates/secure-eduflexscheduler-sub001/internal/middleware"
)

func actorFromContext(c *gin.Context) string {
	return middleware.ActorID(c)
}
