// services/admin.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/utils"
	"github.com/sirupsen/logrus"
)

type AdminService struct {
	businesses BusinessStore
	reviews    ReviewStore
	logos      LogoUploader
	notifier   Notifier
	pinger     SitemapPinger
	dispatcher *Dispatcher
	log        logrus.FieldLogger
}

func NewAdminService(businesses BusinessStore, reviews ReviewStore, logos LogoUploader, notifier Notifier, pinger SitemapPinger, dispatcher *Dispatcher, log logrus.FieldLogger) *AdminService {
	return &AdminService{
		businesses: businesses,
		reviews:    reviews,
		logos:      logos,
		notifier:   notifier,
		pinger:     pinger,
		dispatcher: dispatcher,
		log:        log,
	}
}

// UpdateStatus moves a business to req.Status and returns the number of
// records modified, which is 0 when it already had that status. A transition
// to approved pings search engines and emails the business, both in the
// background.
func (s *AdminService) UpdateStatus(ctx context.Context, req *models.UpdateStatusRequest) (int64, error) {
	req.ID = strings.TrimSpace(req.ID)
	req.Status = strings.ToLower(strings.TrimSpace(req.Status))
	if err := utils.Validate(req); err != nil {
		return 0, err
	}
	status := models.BusinessStatus(req.Status)

	modified, err := s.businesses.UpdateStatus(ctx, req.ID, status)
	if err != nil {
		return 0, apperrors.Internal(err)
	}
	if modified == 0 {
		// Distinguish "already in that status" from "no such business".
		if _, err := s.businesses.GetByID(ctx, req.ID); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return 0, apperrors.NotFound("business", req.ID)
			}
			return 0, apperrors.Internal(err)
		}
		return 0, nil
	}

	s.log.WithFields(logrus.Fields{
		"business_id": req.ID,
		"status":      status,
	}).Info("business status updated")

	if status == models.StatusApproved {
		s.onApproved(ctx, req.ID)
	}
	return modified, nil
}

func (s *AdminService) onApproved(ctx context.Context, id string) {
	if s.pinger != nil {
		s.dispatcher.Submit("search.ping", s.pinger.Ping)
	}

	b, err := s.businesses.GetByID(ctx, id)
	if err != nil {
		s.log.WithError(err).WithField("business_id", id).Warn("could not load approved business for email")
		return
	}
	s.dispatcher.Submit("email.listing_approved", func(ctx context.Context) error {
		return s.notifier.ListingApproved(ctx, b)
	})
}

func (s *AdminService) Dashboard(ctx context.Context) (*models.DashboardStats, error) {
	counts, err := s.businesses.CountByStatus(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	reviews, err := s.reviews.Count(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	stats := &models.DashboardStats{
		Pending:  counts[models.StatusPending],
		Approved: counts[models.StatusApproved],
		Rejected: counts[models.StatusRejected],
		Reviews:  reviews,
	}
	for _, n := range counts {
		stats.Total += n
	}
	return stats, nil
}

// ListByStatus is the moderation queue. An empty status lists everything.
func (s *AdminService) ListByStatus(ctx context.Context, status string, page, limit int) (*models.BusinessListResponse, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != "" && !utils.IsValidStatus(status) {
		return nil, apperrors.Validation("status must be one of: approved pending rejected")
	}
	page, limit = normalizePage(page, limit)

	businesses, total, err := s.businesses.List(ctx, repository.BusinessFilter{
		Status: models.BusinessStatus(status),
		Sort:   repository.SortNewest,
		Page:   page,
		Limit:  limit,
	})
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &models.BusinessListResponse{
		Businesses: businesses,
		Total:      total,
		Page:       page,
		Limit:      limit,
		Pages:      pageCount(total, limit),
	}, nil
}

// Delete removes a business and its reviews. The logo object is removed in
// the background.
func (s *AdminService) Delete(ctx context.Context, id string) error {
	deleted, err := s.businesses.Delete(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("business", id)
		}
		return apperrors.Internal(err)
	}

	s.log.WithField("business_id", deleted.ID).Info("business deleted")

	if deleted.LogoKey != "" && s.logos != nil {
		key := deleted.LogoKey
		s.dispatcher.Submit("logo.delete", func(ctx context.Context) error {
			return s.logos.DeleteLogo(ctx, key)
		})
	}
	return nil
}
