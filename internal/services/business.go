package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/slug"
	"github.com/princeprakhar/biz-directory/internal/utils"
	"github.com/sirupsen/logrus"
)

// maxSlugAttempts bounds how many suffixes Create tries before giving up.
const maxSlugAttempts = 50

type BusinessService struct {
	businesses BusinessStore
	logos      LogoUploader
	notifier   Notifier
	dispatcher *Dispatcher
	log        logrus.FieldLogger
	now        func() time.Time
}

func NewBusinessService(businesses BusinessStore, logos LogoUploader, notifier Notifier, dispatcher *Dispatcher, log logrus.FieldLogger) *BusinessService {
	return &BusinessService{
		businesses: businesses,
		logos:      logos,
		notifier:   notifier,
		dispatcher: dispatcher,
		log:        log,
		now:        time.Now,
	}
}

// BrowseQuery is the public search over approved listings.
type BrowseQuery struct {
	Query    string `form:"q" json:"q" validate:"max=200"`
	Category string `form:"category" json:"category" validate:"max=100"`
	City     string `form:"city" json:"city" validate:"max=100"`
	Sort     string `form:"sort" json:"sort" validate:"omitempty,oneof=newest rating name"`
	Page     int    `form:"page" json:"page" validate:"gte=0"`
	Limit    int    `form:"limit" json:"limit" validate:"gte=0"`
}

// Create validates req, stores the listing as pending under a unique slug
// and queues the confirmation emails. logo may be nil; a logo that cannot be
// stored is logged and the listing is created without one.
func (s *BusinessService) Create(ctx context.Context, req *models.CreateBusinessRequest, logo io.Reader) (*models.Business, error) {
	sanitizeCreateRequest(req)
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	b := &models.Business{
		Name:        req.Name,
		Category:    req.Category,
		Subcategory: req.Subcategory,
		City:        req.City,
		Province:    req.Province,
		Area:        req.Area,
		Address:     req.Address,
		Phone:       req.Phone,
		WhatsApp:    req.WhatsApp,
		Email:       utils.NormalizeEmail(req.Email),
		Website:     req.Website,
		Description: req.Description,
		Status:      models.StatusPending,
	}

	if logo != nil {
		s.attachLogo(ctx, b, logo)
	}

	if err := s.insertWithUniqueSlug(ctx, b); err != nil {
		if b.LogoKey != "" {
			key := b.LogoKey
			s.dispatcher.Submit("logo.delete", func(ctx context.Context) error {
				return s.logos.DeleteLogo(ctx, key)
			})
		}
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"business_id": b.ID,
		"slug":        b.Slug,
	}).Info("business submitted")

	created := *b
	s.dispatcher.Submit("email.listing_received", func(ctx context.Context) error {
		return s.notifier.ListingReceived(ctx, &created)
	})
	s.dispatcher.Submit("email.admin_new_listing", func(ctx context.Context) error {
		return s.notifier.NewListingPending(ctx, &created)
	})

	return b, nil
}

func (s *BusinessService) attachLogo(ctx context.Context, b *models.Business, logo io.Reader) {
	if s.logos == nil || !s.logos.Enabled() {
		s.log.Debug("logo storage disabled, ignoring uploaded logo")
		return
	}
	upload, err := s.logos.UploadLogo(ctx, logo)
	if err != nil {
		s.log.WithError(err).WithField("name", b.Name).Warn("logo upload failed, creating listing without logo")
		return
	}
	b.LogoURL = upload.URL
	b.LogoKey = upload.Key
}

// insertWithUniqueSlug probes base, base-1, base-2, ... and inserts under the
// first free candidate. The unique index decides races: a duplicate-key
// failure moves on to the next suffix.
func (s *BusinessService) insertWithUniqueSlug(ctx context.Context, b *models.Business) error {
	base := slug.Base(b.Name, s.now())

	for n := 0; n < maxSlugAttempts; n++ {
		candidate := slug.Candidate(base, n)

		taken, err := s.businesses.SlugExists(ctx, candidate)
		if err != nil {
			return apperrors.Internal(err)
		}
		if taken {
			continue
		}

		b.Slug = candidate
		err = s.businesses.Create(ctx, b)
		if err == nil {
			return nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			s.log.WithField("slug", candidate).Debug("slug taken concurrently, retrying")
			continue
		}
		return apperrors.Internal(err)
	}

	return apperrors.Conflict(fmt.Sprintf("could not allocate a unique slug for %q", b.Name))
}

func sanitizeCreateRequest(req *models.CreateBusinessRequest) {
	req.Name = utils.SanitizeString(req.Name)
	req.Category = utils.SanitizeString(req.Category)
	req.Subcategory = utils.SanitizeString(req.Subcategory)
	req.City = utils.SanitizeString(req.City)
	req.Province = utils.SanitizeString(req.Province)
	req.Area = utils.SanitizeString(req.Area)
	req.Address = utils.SanitizeString(req.Address)
	req.Phone = strings.TrimSpace(req.Phone)
	req.WhatsApp = strings.TrimSpace(req.WhatsApp)
	req.Email = strings.TrimSpace(req.Email)
	req.Website = strings.TrimSpace(req.Website)
	req.Description = strings.TrimSpace(req.Description)
}

// Get returns an approved business by ID or slug.
func (s *BusinessService) Get(ctx context.Context, ref string) (*models.Business, error) {
	b, err := s.businesses.FindByRef(ctx, ref)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("business", ref)
		}
		return nil, apperrors.Internal(err)
	}
	if b.Status != models.StatusApproved {
		return nil, apperrors.NotFound("business", ref)
	}
	return b, nil
}

// List searches approved businesses.
func (s *BusinessService) List(ctx context.Context, q BrowseQuery) (*models.BusinessListResponse, error) {
	q.Query = strings.TrimSpace(q.Query)
	q.Category = strings.TrimSpace(q.Category)
	q.City = strings.TrimSpace(q.City)
	q.Sort = strings.ToLower(strings.TrimSpace(q.Sort))
	if err := utils.Validate(&q); err != nil {
		return nil, err
	}
	page, limit := normalizePage(q.Page, q.Limit)

	return s.list(ctx, repository.BusinessFilter{
		Status:   models.StatusApproved,
		Category: q.Category,
		City:     q.City,
		Search:   q.Query,
		Sort:     q.Sort,
		Page:     page,
		Limit:    limit,
	})
}

func (s *BusinessService) list(ctx context.Context, filter repository.BusinessFilter) (*models.BusinessListResponse, error) {
	businesses, total, err := s.businesses.List(ctx, filter)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return &models.BusinessListResponse{
		Businesses: businesses,
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		Pages:      pageCount(total, filter.Limit),
	}, nil
}

func (s *BusinessService) Categories(ctx context.Context) ([]string, error) {
	categories, err := s.businesses.Categories(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return categories, nil
}

func (s *BusinessService) Cities(ctx context.Context) ([]string, error) {
	cities, err := s.businesses.Cities(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}
	return cities, nil
}
