// Package httpapi exposes the object store over HTTP.
package httpapi

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/Barnamoyy/fileshare/internal/common"
	"github.com/Barnamoyy/fileshare/internal/logging"
	"github.com/Barnamoyy/fileshare/internal/server/auth"
	"github.com/Barnamoyy/fileshare/internal/server/services"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ObjectHandler wires the lifecycle service into gin routes.
type ObjectHandler struct {
	svc            *services.ObjectService
	logger         logging.Logger
	sweepSecret    []byte
	maxRequestSize int64
	registry       *prometheus.Registry
}

func NewObjectHandler(svc *services.ObjectService, logger logging.Logger, sweepSecret []byte,
	maxRequestSize int64, registry *prometheus.Registry) *ObjectHandler {
	return &ObjectHandler{
		svc:            svc,
		logger:         logger.With("module", "httpapi"),
		sweepSecret:    sweepSecret,
		maxRequestSize: maxRequestSize,
		registry:       registry,
	}
}

// Router builds the gin engine with all routes registered.
func (h *ObjectHandler) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	api := r.Group("/api")
	{
		api.POST("/upload", h.Upload)
		api.GET("/download/:fileId", h.Download)
		api.GET("/metadata/:fileId", h.Metadata)
		api.GET("/cleanup", h.Cleanup)
	}

	r.GET("/healthz", h.Healthz)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(h.registry, promhttp.HandlerOpts{})))

	return r
}

// Upload accepts a multipart form with fields "file", "expiryHours" and
// "ownerName", stores the encrypted object and returns the share link.
func (h *ObjectHandler) Upload(c *gin.Context) {
	// Guard the multipart parse itself; the service re-checks the payload.
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxRequestSize+1<<20)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file too large"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "no file uploaded"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable upload"})
		return
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "unreadable upload"})
		return
	}

	// Unparseable hours fall through as zero and take the default downstream.
	expiryHours, _ := strconv.Atoi(c.PostForm("expiryHours"))
	owner := c.PostForm("ownerName")
	contentType := fileHeader.Header.Get("Content-Type")

	res, err := h.svc.Store(c.Request.Context(), data, fileHeader.Filename, contentType, owner, expiryHours)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"id":           res.ID,
		"shareableUrl": res.ShareableURL,
		"expiresAt":    res.ExpiresAt,
	})
}

// Download streams the decrypted object as an attachment.
func (h *ObjectHandler) Download(c *gin.Context) {
	res, err := h.svc.Retrieve(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="`+sanitizeFilename(res.FileName)+`"`)
	c.Header("Content-Length", strconv.Itoa(len(res.Data)))
	c.Data(http.StatusOK, res.ContentType, res.Data)
}

// Metadata returns the public, non-sensitive fields of an object.
func (h *ObjectHandler) Metadata(c *gin.Context) {
	md, err := h.svc.GetPublicMetadata(c.Request.Context(), c.Param("fileId"))
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"fileName":  md.FileName,
		"ownerName": md.OwnerName,
	})
}

// Cleanup triggers a sweep run. Callers authenticate with a bearer token
// signed with the shared sweep secret.
func (h *ObjectHandler) Cleanup(c *gin.Context) {
	token, ok := bearerToken(c.GetHeader("Authorization"))
	if !ok || auth.ValidateSweepToken(token, h.sweepSecret) != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "error": "unauthorized"})
		return
	}

	deleted, err := h.svc.Sweep(c.Request.Context())
	if err != nil {
		if errors.Is(err, common.ErrPartialCleanup) {
			c.JSON(http.StatusInternalServerError, gin.H{
				"success":      false,
				"deletedCount": deleted,
				"message":      "cleanup partially failed",
			})
			return
		}
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"deletedCount": deleted,
		"message":      "cleanup complete",
	})
}

func (h *ObjectHandler) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// writeError maps service errors onto HTTP statuses without leaking
// internals to the caller.
func (h *ObjectHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, common.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid request"})
	case errors.Is(err, common.ErrPayloadTooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"success": false, "error": "file too large"})
	case errors.Is(err, common.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "file not found"})
	case errors.Is(err, common.ErrGone):
		c.JSON(http.StatusGone, gin.H{"success": false, "error": "file has expired"})
	case errors.Is(err, common.ErrCorruptedObject):
		h.logger.Error(c.Request.Context(), "serving corrupted object failed", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "file unreadable"})
	default:
		h.logger.Error(c.Request.Context(), "request failed", "error", err.Error())
		c.JSON(http.StatusServiceUnavailable, gin.H{"success": false, "error": "service unavailable"})
	}
}

func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", false
	}
	return strings.TrimPrefix(header, prefix), true
}

// sanitizeFilename strips characters that would break the
// Content-Disposition header.
func sanitizeFilename(name string) string {
	return strings.NewReplacer(`"`, "", "\r", "", "\n", "").Replace(name)
}
