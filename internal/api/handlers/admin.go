package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/princeprakhar/biz-directory/internal/utils"
)

type AdminHandler struct {
	adminService  *services.AdminService
	reviewService *services.ReviewService
	recomputeJobs int
}

func NewAdminHandler(adminService *services.AdminService, reviewService *services.ReviewService, recomputeJobs int) *AdminHandler {
	return &AdminHandler{
		adminService:  adminService,
		reviewService: reviewService,
		recomputeJobs: recomputeJobs,
	}
}

func (h *AdminHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data: "+err.Error())
		return
	}

	modified, err := h.adminService.UpdateStatus(c.Request.Context(), &req)
	if err != nil {
		utils.SendAppError(c, "Failed to update status", err)
		return
	}

	utils.SendSuccess(c, "Status updated", gin.H{"modified_count": modified})
}

func (h *AdminHandler) GetDashboard(c *gin.Context) {
	stats, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		utils.SendAppError(c, "Failed to fetch dashboard stats", err)
		return
	}

	utils.SendSuccess(c, "Dashboard stats retrieved successfully", stats)
}

func (h *AdminHandler) GetBusinesses(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", services.DefaultPageSize)

	result, err := h.adminService.ListByStatus(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		utils.SendAppError(c, "Failed to fetch businesses", err)
		return
	}

	utils.SendSuccess(c, "Businesses retrieved successfully", result)
}

func (h *AdminHandler) DeleteBusiness(c *gin.Context) {
	if err := h.adminService.Delete(c.Request.Context(), c.Param("id")); err != nil {
		utils.SendAppError(c, "Failed to delete business", err)
		return
	}

	utils.SendSuccess(c, "Business deleted successfully", nil)
}

func (h *AdminHandler) RecomputeRatings(c *gin.Context) {
	report, err := h.reviewService.RecomputeAll(c.Request.Context(), h.recomputeJobs)
	if err != nil {
		utils.SendAppError(c, "Failed to recompute ratings", err)
		return
	}

	utils.SendSuccess(c, "Ratings recomputed", report)
}
