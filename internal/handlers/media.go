package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"creatorstribe/internal/media/sniffer"
	"creatorstribe/internal/middleware"
	"creatorstribe/internal/models"
	"creatorstribe/internal/repository"
	"creatorstribe/internal/security"
	"creatorstribe/internal/service"
)

type mediaResponse struct {
	ID          string    `json:"id"`
	URL         string    `json:"url,omitempty"`
	ObjectKey   string    `json:"objectKey"`
	Format      string    `json:"format"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	CreatedAt   time.Time `json:"createdAt"`
}

func toMediaResponse(m models.Media) mediaResponse {
	return mediaResponse{
		ID:          m.ID,
		ObjectKey:   m.ObjectKey,
		Format:      m.Format,
		ContentType: m.ContentType,
		SizeBytes:   m.SizeBytes,
		CreatedAt:   m.CreatedAt,
	}
}

func (h HandlerSet) UploadMedia(c *gin.Context) {
	principal, ok := middleware.CurrentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file_required"})
		return
	}
	defer file.Close()

	result, err := h.uploads.Upload(c.Request.Context(), service.UploadInput{
		AdminID:      principal.Admin.ID,
		File:         file,
		DeclaredType: sniffer.MimeTypeFromHTTP(http.Header(header.Header)),
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrFileTooLarge):
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrEmptyFile),
			errors.Is(err, service.ErrTypeMismatch),
			errors.Is(err, service.ErrUnsupportedType):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.log.Error().Err(err).Str("admin_id", principal.Admin.ID).Msg("upload failed")
			c.JSON(http.StatusBadGateway, gin.H{"error": "upload failed"})
		}
		return
	}

	resp := toMediaResponse(result.Media)
	resp.URL = result.URL
	c.JSON(http.StatusCreated, gin.H{"media": resp})
}

func (h HandlerSet) AdminListMedia(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	if page < 1 {
		page = 1
	}
	perPage, _ := strconv.Atoi(c.DefaultQuery("perPage", "20"))
	if perPage < 1 || perPage > maxPageSize {
		perPage = 20
	}

	items, err := h.media.List(c.Request.Context(), perPage, (page-1)*perPage)
	if err != nil {
		h.log.Error().Err(err).Msg("list media failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list media"})
		return
	}

	out := make([]mediaResponse, 0, len(items))
	for _, item := range items {
		out = append(out, toMediaResponse(item))
	}
	c.JSON(http.StatusOK, gin.H{
		"media":   out,
		"page":    page,
		"perPage": perPage,
	})
}

// AdminGetMedia returns one upload along with whether its stored signature
// still matches its location.
func (h HandlerSet) AdminGetMedia(c *gin.Context) {
	item, err := h.media.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, repository.ErrMediaNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "media not found"})
			return
		}
		h.log.Error().Err(err).Str("media_id", c.Param("id")).Msg("get media failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load media"})
		return
	}

	verified := security.VerifyResource(h.cfg.Security.SignatureSecret, item.Signature, item.ID, item.Bucket, item.ObjectKey)
	c.JSON(http.StatusOK, gin.H{
		"media":    toMediaResponse(item),
		"verified": verified,
	})
}
