package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"podbrief/internal/common"
	"podbrief/internal/config"
	"podbrief/internal/httpapi/handlers"
	"podbrief/internal/httpapi/middleware"
	"podbrief/internal/jobs"
	"podbrief/internal/store/redisstore"
)

func NewRouter(repo *jobs.Repo, cfg config.Config, cache *redisstore.Store, pub handlers.JobPublisher) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true
	r.Use(gin.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())

	r.NoRoute(func(c *gin.Context) {
		common.Fail(c, http.StatusNotFound, 40400, "route not found")
	})
	r.NoMethod(func(c *gin.Context) {
		common.Fail(c, http.StatusMethodNotAllowed, 40500, "method not allowed")
	})

	h := handlers.NewHandler(repo, cfg, cache, pub)

	r.GET("/ping", h.Ping)

	api := r.Group("/api")
	api.POST("/jobs", h.CreateJob)
	api.GET("/jobs", h.ListJobs)
	api.GET("/jobs/:id", h.GetJob)
	api.POST("/jobs/:id/start", h.StartJob)

	return r
}
