package api

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tricity/internal/importer"
	"tricity/internal/middleware"
)

const maxUploadBytes = 50 * 1024 * 1024

// handleImportDevices accepts a spreadsheet upload, stores it where the
// worker can reach it, and enqueues exactly one job stamped with the
// caller's organization. It answers as soon as the job is queued; import
// progress and failure are the queue's business, not the uploader's.
func (s *Server) handleImportDevices(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_session"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}

	ext := strings.ToLower(filepath.Ext(fileHeader.Filename))
	switch ext {
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unsupported_file"})
		return
	}
	if fileHeader.Size > maxUploadBytes {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "file_too_large"})
		return
	}

	dstPath := filepath.Join(s.UploadDir, "import-"+uuid.NewString()+ext)
	if err := c.SaveUploadedFile(fileHeader, dstPath); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "save_failed"})
		return
	}

	jobID, err := s.Jobs.Enqueue(c.Request.Context(), importer.ImportArgs{
		FilePath:       dstPath,
		OrganizationID: session.OrganizationID,
	})
	if err != nil {
		// Nothing will ever consume the saved file now.
		_ = os.Remove(dstPath)
		s.Log.Errorf("enqueue import: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "enqueue_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "File received",
		"jobId":   strconv.FormatInt(jobID, 10),
	})
}

// handleImportStatus exposes the queue's bookkeeping for one job. Lookups
// are scoped to the session's organization; other tenants' jobs read as
// not found.
func (s *Server) handleImportStatus(c *gin.Context) {
	session, ok := middleware.SessionFromContext(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_session"})
		return
	}

	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "job_not_found"})
		return
	}

	status, err := s.Jobs.Job(c.Request.Context(), id, session.OrganizationID)
	if err != nil {
		if errors.Is(err, importer.ErrJobNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "job_not_found"})
			return
		}
		s.Log.Errorf("job lookup: %v", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup_failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"job": status})
}
