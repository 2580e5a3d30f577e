package routes

import (
	"whatsapp-notifier/config"
	"whatsapp-notifier/controllers"

	"github.com/gin-gonic/gin"
)

func SetupRouter(health *controllers.HealthController) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(config.PerformanceLogger())

	r.GET("/", health.Index)
	r.GET("/status", health.Status)

	return r
}
