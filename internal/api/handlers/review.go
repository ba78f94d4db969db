package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/services"
	"github.com/princeprakhar/biz-directory/internal/utils"
)

type ReviewHandler struct {
	reviewService *services.ReviewService
}

func NewReviewHandler(reviewService *services.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviewService: reviewService}
}

func (h *ReviewHandler) CreateReview(c *gin.Context) {
	var req models.SubmitReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.SendValidationError(c, "Invalid request data: "+err.Error())
		return
	}

	result, err := h.reviewService.Submit(c.Request.Context(), c.Param("ref"), &req)
	if err != nil {
		utils.SendAppError(c, "Failed to submit review", err)
		return
	}

	utils.SendCreated(c, "Review submitted successfully", result)
}

func (h *ReviewHandler) GetBusinessReviews(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", services.DefaultPageSize)

	result, err := h.reviewService.List(c.Request.Context(), c.Param("ref"), page, limit)
	if err != nil {
		utils.SendAppError(c, "Failed to fetch reviews", err)
		return
	}

	utils.SendSuccess(c, "Reviews retrieved successfully", result)
}
