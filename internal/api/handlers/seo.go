package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/princeprakhar/biz-directory/internal/utils"
)

type SEOHandler struct {
	seoService *services.SEOService
}

func NewSEOHandler(seoService *services.SEOService) *SEOHandler {
	return &SEOHandler{seoService: seoService}
}

func (h *SEOHandler) Sitemap(c *gin.Context) {
	body, err := h.seoService.Sitemap(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, "Failed to build sitemap", err)
		return
	}

	c.Header("Cache-Control", "public, max-age=3600")
	c.Data(http.StatusOK, "application/xml; charset=utf-8", body)
}

func (h *SEOHandler) Robots(c *gin.Context) {
	c.Header("Cache-Control", "public, max-age=86400")
	c.String(http.StatusOK, h.seoService.Robots())
}

func (h *SEOHandler) GetMetadata(c *gin.Context) {
	meta, err := h.seoService.Metadata(c.Request.Context(), c.Param("ref"))
	if err != nil {
		utils.SendAppError(c, "Failed to build page metadata", err)
		return
	}

	utils.SendSuccess(c, "Page metadata retrieved successfully", meta)
}
