package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const AnonymousReviewer = "Anonymous"

type Review struct {
	ID         string    `json:"id" gorm:"type:varchar(36);primaryKey"`
	BusinessID string    `json:"business_id" gorm:"type:varchar(36);not null;index"`
	Name       string    `json:"name" gorm:"not null"`
	Rating     int       `json:"rating" gorm:"not null;check:rating >= 1 AND rating <= 5"`
	Comment    string    `json:"comment" gorm:"type:text;not null"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *Review) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Name == "" {
		r.Name = AnonymousReviewer
	}
	return nil
}

type SubmitReviewRequest struct {
	Name    string `json:"name" validate:"max=100"`
	Rating  int    `json:"rating" validate:"gte=1,lte=5"`
	Comment string `json:"comment" validate:"required,min=3,max=2000"`
}

type SubmitReviewResponse struct {
	Review      *Review `json:"review"`
	RatingAvg   float64 `json:"rating_avg"`
	RatingCount int     `json:"rating_count"`
}

type ReviewListResponse struct {
	Reviews     []Review `json:"reviews"`
	RatingAvg   float64  `json:"rating_avg"`
	RatingCount int      `json:"rating_count"`
	Page        int      `json:"page"`
	Limit       int      `json:"limit"`
}
