package server

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
)

// maxObjectSize caps uploads
const maxObjectSize = 5 << 20

// publicBuckets may be read without a key
var publicBuckets = map[string]bool{"avatars": true}

func storageError(status int, errName, msg string) map[string]any {
	return map[string]any{"statusCode": status, "error": errName, "message": msg}
}

// handleUpload stores an object. Existing objects are only replaced with x-upsert: true.
func (s *Server) handleUpload(c echo.Context) error {
	bucket := c.Param("bucket")
	name := strings.TrimPrefix(c.Param("*"), "/")
	if !publicBuckets[bucket] {
		return c.JSON(http.StatusNotFound, storageError(http.StatusNotFound, "Bucket not found", "Bucket not found"))
	}
	if name == "" {
		return c.JSON(http.StatusBadRequest, storageError(http.StatusBadRequest, "InvalidKey", "object name is required"))
	}

	data, err := io.ReadAll(io.LimitReader(c.Request().Body, maxObjectSize+1))
	if err != nil {
		return c.JSON(http.StatusBadRequest, storageError(http.StatusBadRequest, "InvalidRequest", err.Error()))
	}
	if len(data) > maxObjectSize {
		return c.JSON(http.StatusRequestEntityTooLarge, storageError(http.StatusRequestEntityTooLarge, "Payload too large", "The object exceeded the maximum allowed size"))
	}

	ctx := c.Request().Context()
	upsert := strings.EqualFold(c.Request().Header.Get("x-upsert"), "true")
	if !upsert {
		if _, err := s.store.GetObject(ctx, bucket, name); err == nil {
			return c.JSON(http.StatusConflict, storageError(http.StatusConflict, "Duplicate", "The resource already exists"))
		}
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}

	if err := s.store.PutObject(ctx, Object{
		Bucket:      bucket,
		Name:        name,
		ContentType: contentType,
		Data:        data,
		UpdatedAt:   time.Now().UTC(),
	}); err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]string{"Key": bucket + "/" + name})
}

// handlePublicObject serves objects from public buckets
func (s *Server) handlePublicObject(c echo.Context) error {
	bucket := c.Param("bucket")
	name := strings.TrimPrefix(c.Param("*"), "/")
	if !publicBuckets[bucket] {
		return c.JSON(http.StatusNotFound, storageError(http.StatusNotFound, "Bucket not found", "Bucket not found"))
	}

	obj, err := s.store.GetObject(c.Request().Context(), bucket, name)
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, storageError(http.StatusNotFound, "not_found", "Object not found"))
	}
	if err != nil {
		return internalError(c, err)
	}

	return c.Blob(http.StatusOK, obj.ContentType, obj.Data)
}
