package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"tricity/internal/auth"
	"tricity/internal/db"
	"tricity/internal/importer"
	"tricity/internal/middleware"
)

// JobQueue is the queue surface the HTTP process needs: enqueue an import
// and read back a job's bookkeeping, scoped to the caller's organization.
// Satisfied by importer.Queue.
type JobQueue interface {
	Enqueue(ctx context.Context, args importer.ImportArgs) (int64, error)
	Job(ctx context.Context, id int64, organizationID string) (*importer.JobStatus, error)
}

// Server wires handlers to the database, session manager, and job queue.
type Server struct {
	Database  *db.Database
	Sessions  *auth.Manager
	Jobs      JobQueue
	UploadDir string
	Log       *logrus.Logger
}

// NewRouter builds the gin engine with middleware and all routes attached.
func NewRouter(s *Server) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestLogger(s.Log), middleware.CORS())
	s.RegisterRoutes(router)
	return router
}

// RegisterRoutes attaches handlers to the gin engine.
func (s *Server) RegisterRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)

	secured := router.Group("/api/v1")
	secured.Use(middleware.RequireSession(s.Sessions))
	{
		secured.POST("/devices/import", s.handleImportDevices)
		secured.GET("/devices/import/:id", s.handleImportStatus)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	payload := gin.H{"status": "ok", "timestamp": time.Now().UTC().Format(time.RFC3339)}
	if s.Database != nil {
		if err := s.Database.PingContext(c.Request.Context()); err != nil {
			payload["database"] = gin.H{"status": "unavailable", "error": err.Error()}
		} else {
			payload["database"] = gin.H{"status": "ok"}
		}
	}
	c.JSON(http.StatusOK, payload)
}
