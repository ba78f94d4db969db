package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/princeprakhar/biz-directory/internal/utils"
)

// multipartOverhead is the allowance for form fields on top of the logo.
const multipartOverhead = 1 << 20

type BusinessHandler struct {
	businessService  *services.BusinessService
	duplicateService *services.DuplicateService
	maxLogoBytes     int64
}

func NewBusinessHandler(businessService *services.BusinessService, duplicateService *services.DuplicateService, maxLogoBytes int64) *BusinessHandler {
	return &BusinessHandler{
		businessService:  businessService,
		duplicateService: duplicateService,
		maxLogoBytes:     maxLogoBytes,
	}
}

// CreateBusiness accepts either a JSON body or a multipart form with an
// optional "logo" file.
func (h *BusinessHandler) CreateBusiness(c *gin.Context) {
	var (
		req  models.CreateBusinessRequest
		logo io.Reader
	)

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxLogoBytes+multipartOverhead)
		if err := c.ShouldBind(&req); err != nil {
			utils.SendValidationError(c, "Invalid form data")
			return
		}
		header, err := c.FormFile("logo")
		switch {
		case err == nil:
			file, err := header.Open()
			if err != nil {
				utils.SendValidationError(c, "Could not read logo")
				return
			}
			defer file.Close()
			logo = file
		case errors.Is(err, http.ErrMissingFile):
		default:
			utils.SendValidationError(c, "Invalid logo upload")
			return
		}
	} else if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data: "+err.Error())
		return
	}

	business, err := h.businessService.Create(c.Request.Context(), &req, logo)
	if err != nil {
		utils.SendAppError(c, "Failed to create business", err)
		return
	}

	utils.SendCreated(c, "Business submitted for review", business)
}

func (h *BusinessHandler) CheckDuplicates(c *gin.Context) {
	var req models.DuplicateCheckRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		utils.SendValidationError(c, "Invalid query parameters")
		return
	}

	result, err := h.duplicateService.Check(c.Request.Context(), req)
	if err != nil {
		utils.SendAppError(c, "Failed to check duplicates", err)
		return
	}

	utils.SendSuccess(c, "Duplicate check completed", result)
}

func (h *BusinessHandler) ListBusinesses(c *gin.Context) {
	query := services.BrowseQuery{
		Query:    c.Query("q"),
		Category: c.Query("category"),
		City:     c.Query("city"),
		Sort:     c.Query("sort"),
		Page:     queryInt(c, "page", 1),
		Limit:    queryInt(c, "limit", services.DefaultPageSize),
	}

	result, err := h.businessService.List(c.Request.Context(), query)
	if err != nil {
		utils.SendAppError(c, "Failed to fetch businesses", err)
		return
	}

	utils.SendSuccess(c, "Businesses retrieved successfully", result)
}

func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	business, err := h.businessService.Get(c.Request.Context(), c.Param("ref"))
	if err != nil {
		utils.SendAppError(c, "Failed to fetch business", err)
		return
	}

	utils.SendSuccess(c, "Business retrieved successfully", business)
}

func (h *BusinessHandler) GetCategories(c *gin.Context) {
	categories, err := h.businessService.Categories(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, "Failed to fetch categories", err)
		return
	}

	utils.SendSuccess(c, "Categories retrieved successfully", categories)
}

func (h *BusinessHandler) GetCities(c *gin.Context) {
	cities, err := h.businessService.Cities(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, "Failed to fetch cities", err)
		return
	}

	utils.SendSuccess(c, "Cities retrieved successfully", cities)
}
