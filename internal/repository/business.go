package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/rating"
	"github.com/princeprakhar/biz-directory/internal/utils"
	"gorm.io/gorm"
)

type BusinessRepository struct {
	db *gorm.DB
}

func NewBusinessRepository(db *gorm.DB) *BusinessRepository {
	return &BusinessRepository{db: db}
}

type BusinessFilter struct {
	Status   models.BusinessStatus
	Category string
	City     string
	Search   string
	Sort     string
	Page     int
	Limit    int
}

const (
	SortNewest = "newest"
	SortRating = "rating"
	SortName   = "name"
)

// Create inserts b. A slug collision is reported as ErrDuplicate.
func (r *BusinessRepository) Create(ctx context.Context, b *models.Business) error {
	if err := r.db.WithContext(ctx).Create(b).Error; err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("insert business %q: %w", b.Slug, ErrDuplicate)
		}
		return fmt.Errorf("insert business: %w", err)
	}
	return nil
}

func (r *BusinessRepository) GetByID(ctx context.Context, id string) (*models.Business, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByRef resolves a business by ID or slug.
func (r *BusinessRepository) FindByRef(ctx context.Context, ref string) (*models.Business, error) {
	return r.first(ctx, "id = ? OR slug = ?", ref, ref)
}

func (r *BusinessRepository) first(ctx context.Context, query string, args ...interface{}) (*models.Business, error) {
	var b models.Business
	if err := r.db.WithContext(ctx).Where(query, args...).First(&b).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find business: %w", err)
	}
	return &b, nil
}

func (r *BusinessRepository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Business{}).Where("slug = ?", slug).Count(&count).Error; err != nil {
		return false, fmt.Errorf("probe slug: %w", err)
	}
	return count > 0, nil
}

func (r *BusinessRepository) List(ctx context.Context, filter BusinessFilter) ([]models.Business, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.Business{})
	query = applyBusinessFilter(query, filter)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count businesses: %w", err)
	}

	businesses := make([]models.Business, 0)
	if total == 0 {
		return businesses, 0, nil
	}

	if err := query.
		Order(orderClause(filter.Sort)).
		Offset(offset(filter.Page, filter.Limit)).
		Limit(filter.Limit).
		Find(&businesses).Error; err != nil {
		return nil, 0, fmt.Errorf("list businesses: %w", err)
	}
	return businesses, total, nil
}

func applyBusinessFilter(query *gorm.DB, filter BusinessFilter) *gorm.DB {
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Category != "" {
		query = query.Where("LOWER(category) = ?", strings.ToLower(filter.Category))
	}
	if filter.City != "" {
		query = query.Where("LOWER(city) = ?", strings.ToLower(filter.City))
	}
	if filter.Search != "" {
		term := containsPattern(strings.ToLower(filter.Search))
		query = query.Where(
			`LOWER(name) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\' OR LOWER(area) LIKE ? ESCAPE '\'`,
			term, term, term, term,
		)
	}
	return query
}

func orderClause(sort string) string {
	switch sort {
	case SortRating:
		return "rating_avg DESC, rating_count DESC, created_at DESC"
	case SortName:
		return "name ASC"
	default:
		return "created_at DESC"
	}
}

// Categories returns the distinct categories of approved businesses.
func (r *BusinessRepository) Categories(ctx context.Context) ([]string, error) {
	return r.distinctApproved(ctx, "category")
}

// Cities returns the distinct cities of approved businesses.
func (r *BusinessRepository) Cities(ctx context.Context) ([]string, error) {
	return r.distinctApproved(ctx, "city")
}

func (r *BusinessRepository) distinctApproved(ctx context.Context, column string) ([]string, error) {
	values := make([]string, 0)
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Distinct(column).
		Where("status = ? AND "+column+" <> ''", models.StatusApproved).
		Order(column).
		Pluck(column, &values).Error
	if err != nil {
		return nil, fmt.Errorf("list distinct %s: %w", column, err)
	}
	return values, nil
}

// UpdateStatus sets the status and returns how many rows actually changed;
// setting a business to the status it already has modifies nothing.
func (r *BusinessRepository) UpdateStatus(ctx context.Context, id string, status models.BusinessStatus) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ? AND status <> ?", id, status).
		UpdateColumns(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if res.Error != nil {
		return 0, fmt.Errorf("update status: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// SetRatingAggregate overwrites the cached rating fields. It does not touch
// updated_at since the listing itself did not change.
func (r *BusinessRepository) SetRatingAggregate(ctx context.Context, id string, agg rating.Aggregate) error {
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"rating_sum":   agg.Sum,
			"rating_count": agg.Count,
			"rating_avg":   agg.Average(),
		}).Error
	if err != nil {
		return fmt.Errorf("set rating aggregate: %w", err)
	}
	return nil
}

// PhoneDigitsExist reports whether any stored phone contains digits.
func (r *BusinessRepository) PhoneDigitsExist(ctx context.Context, digits string) (bool, error) {
	if digits == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("phone_digits LIKE ?", "%"+utils.DigitsOnly(digits)+"%").
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check phone: %w", err)
	}
	return count > 0, nil
}

// EmailExists reports whether a stored email equals email, ignoring case.
func (r *BusinessRepository) EmailExists(ctx context.Context, email string) (bool, error) {
	normalized := utils.NormalizeEmail(email)
	if normalized == "" {
		return false, nil
	}
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Where("LOWER(email) = ?", normalized).
		Count(&count).Error
	if err != nil {
		return false, fmt.Errorf("check email: %w", err)
	}
	return count > 0, nil
}

func (r *BusinessRepository) CountByStatus(ctx context.Context) (map[models.BusinessStatus]int64, error) {
	var rows []struct {
		Status models.BusinessStatus
		Count  int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.Business{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}

	counts := make(map[models.BusinessStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// Delete removes a business together with its reviews and returns the
// deleted record.
func (r *BusinessRepository) Delete(ctx context.Context, id string) (*models.Business, error) {
	var deleted models.Business
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("id = ?", id).First(&deleted).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if err := tx.Where("business_id = ?", id).Delete(&models.Review{}).Error; err != nil {
			return fmt.Errorf("delete reviews: %w", err)
		}
		return tx.Delete(&models.Business{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("delete business: %w", err)
	}
	return &deleted, nil
}

func (r *BusinessRepository) ListIDs(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	if err := r.db.WithContext(ctx).Model(&models.Business{}).Order("created_at").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("list business ids: %w", err)
	}
	return ids, nil
}

// ListApproved returns every approved business with just the columns the
// sitemap needs.
func (r *BusinessRepository) ListApproved(ctx context.Context) ([]models.Business, error) {
	businesses := make([]models.Business, 0)
	err := r.db.WithContext(ctx).
		Select("id", "slug", "category", "city", "updated_at").
		Where("status = ?", models.StatusApproved).
		Order("updated_at DESC").
		Find(&businesses).Error
	if err != nil {
		return nil, fmt.Errorf("list approved businesses: %w", err)
	}
	return businesses, nil
}

// BackfillPhoneDigits recomputes phone_digits for rows written before the
// column existed and returns how many rows were fixed.
func (r *BusinessRepository) BackfillPhoneDigits(ctx context.Context, batchSize int) (int, error) {
	fixed := 0
	var batch []models.Business
	res := r.db.WithContext(ctx).
		Select("id", "phone", "phone_digits").
		FindInBatches(&batch, batchSize, func(tx *gorm.DB, _ int) error {
			for _, b := range batch {
				digits := utils.DigitsOnly(b.Phone)
				if digits == b.PhoneDigits {
					continue
				}
				if err := r.db.WithContext(ctx).
					Model(&models.Business{}).
					Where("id = ?", b.ID).
					UpdateColumn("phone_digits", digits).Error; err != nil {
					return err
				}
				fixed++
			}
			return nil
		})
	if res.Error != nil {
		return fixed, fmt.Errorf("backfill phone digits: %w", res.Error)
	}
	return fixed, nil
}
