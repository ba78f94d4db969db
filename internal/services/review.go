package services

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"unicode/utf8"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/rating"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const minCommentLength = 3

type ReviewService struct {
	businesses BusinessStore
	reviews    ReviewStore
	dispatcher *Dispatcher
	log        logrus.FieldLogger
}

func NewReviewService(businesses BusinessStore, reviews ReviewStore, dispatcher *Dispatcher, log logrus.FieldLogger) *ReviewService {
	return &ReviewService{
		businesses: businesses,
		reviews:    reviews,
		dispatcher: dispatcher,
		log:        log,
	}
}

// Submit stores a review for the business identified by ref and returns the
// updated rating summary. Invalid input is rejected before anything is
// written.
func (s *ReviewService) Submit(ctx context.Context, ref string, req *models.SubmitReviewRequest) (*models.SubmitReviewResponse, error) {
	req.Name = utils.SanitizeString(req.Name)
	req.Comment = utils.SanitizeString(req.Comment)

	if !utils.IsValidRating(req.Rating) {
		return nil, apperrors.Validation("rating must be an integer between 1 and 5")
	}
	if utf8.RuneCountInString(req.Comment) < minCommentLength {
		return nil, apperrors.Validation("comment must be at least 3 characters")
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	business, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}

	review := &models.Review{
		BusinessID: business.ID,
		Name:       req.Name,
		Rating:     req.Rating,
		Comment:    req.Comment,
	}
	agg, err := s.reviews.CreateWithAggregate(ctx, review)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("business", ref)
		}
		return nil, apperrors.Internal(err)
	}

	summary := agg.Summary()
	s.log.WithFields(logrus.Fields{
		"business_id":  business.ID,
		"rating":       review.Rating,
		"rating_avg":   summary.RatingAvg,
		"rating_count": summary.RatingCount,
	}).Info("review submitted")

	return &models.SubmitReviewResponse{
		Review:      review,
		RatingAvg:   summary.RatingAvg,
		RatingCount: summary.RatingCount,
	}, nil
}

// List returns a page of reviews together with a rating summary recomputed
// from every review of the business. When the cached summary disagrees, a
// background task reconciles it.
func (s *ReviewService) List(ctx context.Context, ref string, page, limit int) (*models.ReviewListResponse, error) {
	business, err := s.resolve(ctx, ref)
	if err != nil {
		return nil, err
	}
	page, limit = normalizePage(page, limit)

	reviews, err := s.reviews.ListByBusiness(ctx, business.ID, page, limit)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	agg, err := s.reviews.Aggregate(ctx, business.ID)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	summary := agg.Summary()
	if summary != business.RatingSummary() || agg != business.RatingAggregate() {
		id := business.ID
		s.dispatcher.Submit("rating.writeback", func(ctx context.Context) error {
			_, _, err := s.reviews.ReconcileAggregate(ctx, id)
			return err
		})
	}

	return &models.ReviewListResponse{
		Reviews:     reviews,
		RatingAvg:   summary.RatingAvg,
		RatingCount: summary.RatingCount,
		Page:        page,
		Limit:       limit,
	}, nil
}

// RecomputeReport summarizes a bulk reconciliation.
type RecomputeReport struct {
	Checked int `json:"checked"`
	Fixed   int `json:"fixed"`
}

// RecomputeAll reconciles the cached rating of every business, running up to
// concurrency reconciliations at once.
func (s *ReviewService) RecomputeAll(ctx context.Context, concurrency int) (*RecomputeReport, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	ids, err := s.businesses.ListIDs(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	var fixed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for _, id := range ids {
		id := id
		g.Go(func() error {
			agg, changed, err := s.reviews.ReconcileAggregate(gctx, id)
			if errors.Is(err, repository.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if changed {
				fixed.Add(1)
				s.log.WithFields(logrus.Fields{
					"business_id":  id,
					"rating_avg":   agg.Average(),
					"rating_count": agg.Count,
				}).Info("rating cache reconciled")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, apperrors.Internal(err)
	}

	return &RecomputeReport{Checked: len(ids), Fixed: int(fixed.Load())}, nil
}

func (s *ReviewService) resolve(ctx context.Context, ref string) (*models.Business, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.Validation("business reference is required")
	}
	business, err := s.businesses.FindByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("business", ref)
		}
		return nil, apperrors.Internal(err)
	}
	return business, nil
}

// Summary recomputes the rating of a single business without touching the
// cache.
func (s *ReviewService) Summary(ctx context.Context, businessID string) (rating.Summary, error) {
	agg, err := s.reviews.Aggregate(ctx, businessID)
	if err != nil {
		return rating.Summary{}, apperrors.Internal(err)
	}
	return agg.Summary(), nil
}
