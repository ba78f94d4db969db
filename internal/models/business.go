// models/business.go
package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/princeprakhar/biz-directory/internal/rating"
	"github.com/princeprakhar/biz-directory/internal/utils"
	"gorm.io/gorm"
)

type BusinessStatus string

const (
	StatusPending  BusinessStatus = "pending"
	StatusApproved BusinessStatus = "approved"
	StatusRejected BusinessStatus = "rejected"
)

type Business struct {
	ID          string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	Name        string         `json:"name" gorm:"not null"`
	Slug        string         `json:"slug" gorm:"size:160;not null;uniqueIndex"`
	Category    string         `json:"category" gorm:"not null;index"`
	Subcategory string         `json:"subcategory,omitempty"`
	City        string         `json:"city" gorm:"not null;index"`
	Province    string         `json:"province,omitempty"`
	Area        string         `json:"area,omitempty"`
	Address     string         `json:"address,omitempty"`
	Phone       string         `json:"phone" gorm:"not null"`
	PhoneDigits string         `json:"-" gorm:"index"`
	WhatsApp    string         `json:"whatsapp,omitempty"`
	Email       string         `json:"email,omitempty" gorm:"index"`
	Website     string         `json:"website,omitempty"`
	Description string         `json:"description" gorm:"type:text"`
	LogoURL     string         `json:"logo_url,omitempty"`
	LogoKey     string         `json:"-"`
	Status      BusinessStatus `json:"status" gorm:"type:varchar(16);not null;default:pending;index"`
	RatingAvg   float64        `json:"rating_avg" gorm:"not null;default:0"`
	RatingCount int            `json:"rating_count" gorm:"not null;default:0"`
	RatingSum   int            `json:"-" gorm:"not null;default:0"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

func (b *Business) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

// BeforeSave keeps the digits-only phone projection in step with Phone.
func (b *Business) BeforeSave(tx *gorm.DB) error {
	b.PhoneDigits = utils.DigitsOnly(b.Phone)
	return nil
}

// RatingAggregate returns the cached aggregate stored on the record.
func (b *Business) RatingAggregate() rating.Aggregate {
	return rating.Aggregate{Count: b.RatingCount, Sum: b.RatingSum}
}

func (b *Business) RatingSummary() rating.Summary {
	return rating.Summary{RatingAvg: b.RatingAvg, RatingCount: b.RatingCount}
}

// Request structs for API
type CreateBusinessRequest struct {
	Name        string `json:"name" form:"name" validate:"required,min=2,max=200"`
	Category    string `json:"category" form:"category" validate:"required,max=100"`
	Subcategory string `json:"subcategory" form:"subcategory" validate:"max=100"`
	City        string `json:"city" form:"city" validate:"required,max=100"`
	Province    string `json:"province" form:"province" validate:"max=100"`
	Area        string `json:"area" form:"area" validate:"max=100"`
	Address     string `json:"address" form:"address" validate:"max=300"`
	Phone       string `json:"phone" form:"phone" validate:"required,min=7,max=30"`
	WhatsApp    string `json:"whatsapp" form:"whatsapp" validate:"max=30"`
	Email       string `json:"email" form:"email" validate:"omitempty,email,max=254"`
	Website     string `json:"website" form:"website" validate:"omitempty,url,max=300"`
	Description string `json:"description" form:"description" validate:"required,min=10,max=5000"`
}

type UpdateStatusRequest struct {
	ID     string `json:"id" validate:"required,max=64"`
	Status string `json:"status" validate:"required,oneof=approved pending rejected"`
}

type DuplicateCheckRequest struct {
	Phone string `json:"phone" form:"phone" validate:"max=30"`
	Email string `json:"email" form:"email" validate:"max=254"`
}

type DuplicateCheckResult struct {
	PhoneExists   *bool `json:"phone_exists,omitempty"`
	EmailExists   *bool `json:"email_exists,omitempty"`
	HasDuplicates bool  `json:"has_duplicates"`
}

type BusinessListResponse struct {
	Businesses []Business `json:"businesses"`
	Total      int64      `json:"total"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Pages      int        `json:"pages"`
}

type DashboardStats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
	Reviews  int64 `json:"reviews"`
}
