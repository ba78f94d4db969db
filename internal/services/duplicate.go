package services

import (
	"context"
	"strings"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/utils"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

type DuplicateService struct {
	lookup ContactLookup
	log    logrus.FieldLogger
}

func NewDuplicateService(lookup ContactLookup, log logrus.FieldLogger) *DuplicateService {
	return &DuplicateService{lookup: lookup, log: log}
}

// Check reports whether the phone and/or email is already used by a listing.
// Phones match when the stored digits contain the input digits, so spacing,
// dashes and country prefixes do not matter. Emails match exactly, ignoring
// case. Each check is best-effort: a lookup error is logged and reported as
// not found.
func (s *DuplicateService) Check(ctx context.Context, req models.DuplicateCheckRequest) (*models.DuplicateCheckResult, error) {
	req.Phone = strings.TrimSpace(req.Phone)
	req.Email = strings.TrimSpace(req.Email)
	if req.Phone == "" && req.Email == "" {
		return nil, apperrors.Validation("phone or email is required")
	}
	if err := utils.Validate(&req); err != nil {
		return nil, err
	}

	result := &models.DuplicateCheckResult{}
	var g errgroup.Group

	if req.Phone != "" {
		exists := new(bool)
		result.PhoneExists = exists
		g.Go(func() error {
			*exists = s.phoneExists(ctx, req.Phone)
			return nil
		})
	}
	if req.Email != "" {
		exists := new(bool)
		result.EmailExists = exists
		g.Go(func() error {
			*exists = s.emailExists(ctx, req.Email)
			return nil
		})
	}
	_ = g.Wait()

	result.HasDuplicates = (result.PhoneExists != nil && *result.PhoneExists) ||
		(result.EmailExists != nil && *result.EmailExists)
	return result, nil
}

func (s *DuplicateService) phoneExists(ctx context.Context, phone string) bool {
	digits := utils.DigitsOnly(phone)
	if digits == "" {
		return false
	}
	found, err := s.lookup.PhoneDigitsExist(ctx, digits)
	if err != nil {
		s.log.WithError(err).Warn("phone duplicate check failed")
		return false
	}
	return found
}

func (s *DuplicateService) emailExists(ctx context.Context, email string) bool {
	found, err := s.lookup.EmailExists(ctx, email)
	if err != nil {
		s.log.WithError(err).Warn("email duplicate check failed")
		return false
	}
	return found
}
