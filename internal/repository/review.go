package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/rating"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// CreateWithAggregate inserts review and refreshes the business's cached
// aggregate in one transaction. The business row is locked before the insert,
// so concurrent submissions for one business serialize until commit, and the
// cache is rebuilt from the review rows rather than from its previous value.
func (r *ReviewRepository) CreateWithAggregate(ctx context.Context, review *models.Review) (rating.Aggregate, error) {
	var agg rating.Aggregate

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBusiness(tx, review.BusinessID); err != nil {
			return err
		}
		if err := tx.Create(review).Error; err != nil {
			return fmt.Errorf("insert review: %w", err)
		}

		var err error
		if agg, err = aggregateReviews(tx, review.BusinessID); err != nil {
			return err
		}
		return writeAggregate(tx, review.BusinessID, agg)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rating.Aggregate{}, ErrNotFound
		}
		return rating.Aggregate{}, err
	}
	return agg, nil
}

// lockBusiness takes the row lock on a business with a no-op update and
// reports ErrNotFound when the row does not exist.
func lockBusiness(tx *gorm.DB, businessID string) error {
	res := tx.Model(&models.Business{}).
		Where("id = ?", businessID).
		UpdateColumn("rating_sum", gorm.Expr("rating_sum"))
	if res.Error != nil {
		return fmt.Errorf("lock business: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func aggregateReviews(db *gorm.DB, businessID string) (rating.Aggregate, error) {
	var row struct {
		Count int
		Sum   int
	}
	err := db.Model(&models.Review{}).
		Select("COUNT(*) AS count, COALESCE(SUM(rating), 0) AS sum").
		Where("business_id = ?", businessID).
		Scan(&row).Error
	if err != nil {
		return rating.Aggregate{}, fmt.Errorf("aggregate reviews: %w", err)
	}
	return rating.Aggregate{Count: row.Count, Sum: row.Sum}, nil
}

func writeAggregate(tx *gorm.DB, businessID string, agg rating.Aggregate) error {
	err := tx.Model(&models.Business{}).
		Where("id = ?", businessID).
		UpdateColumns(map[string]interface{}{
			"rating_sum":   agg.Sum,
			"rating_count": agg.Count,
			"rating_avg":   agg.Average(),
		}).Error
	if err != nil {
		return fmt.Errorf("write aggregate: %w", err)
	}
	return nil
}

func (r *ReviewRepository) ListByBusiness(ctx context.Context, businessID string, page, limit int) ([]models.Review, error) {
	reviews := make([]models.Review, 0)
	err := r.db.WithContext(ctx).
		Where("business_id = ?", businessID).
		Order("created_at DESC, id").
		Offset(offset(page, limit)).
		Limit(limit).
		Find(&reviews).Error
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// Aggregate recomputes the rating aggregate from the review rows.
func (r *ReviewRepository) Aggregate(ctx context.Context, businessID string) (rating.Aggregate, error) {
	return aggregateReviews(r.db.WithContext(ctx), businessID)
}

func (r *ReviewRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Review{}).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count reviews: %w", err)
	}
	return count, nil
}

// ReconcileAggregate rebuilds the cached aggregate of a business from its
// review rows and reports whether the cache was out of date. The business row
// is locked first so a submission cannot commit between the count and the
// write.
func (r *ReviewRepository) ReconcileAggregate(ctx context.Context, businessID string) (rating.Aggregate, bool, error) {
	var (
		agg     rating.Aggregate
		changed bool
	)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockBusiness(tx, businessID); err != nil {
			return err
		}
		var cached models.Business
		if err := tx.Select("rating_avg", "rating_count", "rating_sum").
			Where("id = ?", businessID).
			First(&cached).Error; err != nil {
			return fmt.Errorf("read cached aggregate: %w", err)
		}

		var err error
		if agg, err = aggregateReviews(tx, businessID); err != nil {
			return err
		}
		if agg == cached.RatingAggregate() && agg.Average() == cached.RatingAvg {
			return nil
		}
		changed = true
		return writeAggregate(tx, businessID, agg)
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return rating.Aggregate{}, false, ErrNotFound
		}
		return rating.Aggregate{}, false, fmt.Errorf("reconcile aggregate: %w", err)
	}
	return agg, changed, nil
}
