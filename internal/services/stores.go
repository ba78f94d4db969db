package services

import (
	"context"

	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/rating"
	"github.com/princeprakhar/biz-directory/internal/repository"
)

// BusinessStore is the persistence the business, admin and SEO services
// need. *repository.BusinessRepository implements it.
type BusinessStore interface {
	Create(ctx context.Context, b *models.Business) error
	GetByID(ctx context.Context, id string) (*models.Business, error)
	FindByRef(ctx context.Context, ref string) (*models.Business, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, filter repository.BusinessFilter) ([]models.Business, int64, error)
	Categories(ctx context.Context) ([]string, error)
	Cities(ctx context.Context) ([]string, error)
	UpdateStatus(ctx context.Context, id string, status models.BusinessStatus) (int64, error)
	CountByStatus(ctx context.Context) (map[models.BusinessStatus]int64, error)
	Delete(ctx context.Context, id string) (*models.Business, error)
	ListIDs(ctx context.Context) ([]string, error)
	ListApproved(ctx context.Context) ([]models.Business, error)
}

// ReviewStore is the persistence the review service needs.
// *repository.ReviewRepository implements it.
type ReviewStore interface {
	CreateWithAggregate(ctx context.Context, review *models.Review) (rating.Aggregate, error)
	ListByBusiness(ctx context.Context, businessID string, page, limit int) ([]models.Review, error)
	Aggregate(ctx context.Context, businessID string) (rating.Aggregate, error)
	ReconcileAggregate(ctx context.Context, businessID string) (rating.Aggregate, bool, error)
	Count(ctx context.Context) (int64, error)
}

// ContactLookup answers the duplicate detector's two questions.
type ContactLookup interface {
	PhoneDigitsExist(ctx context.Context, digits string) (bool, error)
	EmailExists(ctx context.Context, email string) (bool, error)
}

var (
	_ BusinessStore = (*repository.BusinessRepository)(nil)
	_ ReviewStore   = (*repository.ReviewRepository)(nil)
	_ ContactLookup = (*repository.BusinessRepository)(nil)
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// normalizePage clamps pagination parameters to sane bounds.
func normalizePage(page, limit int) (int, int) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return page, limit
}

func pageCount(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	pages := int(total) / limit
	if int(total)%limit > 0 {
		pages++
	}
	return pages
}
