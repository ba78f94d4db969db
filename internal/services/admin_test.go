package services

import (
	"bytes"
	"context"
	"testing"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminService_UpdateStatus(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.business.Create(ctx, validCreateRequest("Moderated Shop"), nil)
	require.NoError(t, err)

	modified, err := env.admin.UpdateStatus(ctx, &models.UpdateStatusRequest{ID: b.ID, Status: "approved"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	modified, err = env.admin.UpdateStatus(ctx, &models.UpdateStatusRequest{ID: b.ID, Status: "approved"})
	require.NoError(t, err)
	assert.Zero(t, modified)

	env.drain(t)
	assert.Len(t, env.pinger.calls, 1, "only the transition to approved pings")

	var approvals int
	for _, m := range env.mailer.Sent() {
		if m.Subject == "Your listing is live" {
			approvals++
			assert.Equal(t, "owner@bakery.example", m.To)
		}
	}
	assert.Equal(t, 1, approvals)
}

func TestAdminService_UpdateStatusErrors(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.admin.UpdateStatus(ctx, &models.UpdateStatusRequest{ID: "missing", Status: "rejected"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = env.admin.UpdateStatus(ctx, &models.UpdateStatusRequest{ID: "any", Status: "archived"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	_, err = env.admin.UpdateStatus(ctx, &models.UpdateStatusRequest{Status: "approved"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAdminService_RejectDoesNotPing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.business.Create(ctx, validCreateRequest("Rejected Shop"), nil)
	require.NoError(t, err)

	modified, err := env.admin.UpdateStatus(ctx, &models.UpdateStatusRequest{ID: b.ID, Status: "Rejected"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	env.drain(t)
	assert.Empty(t, env.pinger.calls)
}

func TestAdminService_DashboardAndQueue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	approved := env.seedApproved(t, "Approved One")
	_, err := env.business.Create(ctx, validCreateRequest("Pending One"), nil)
	require.NoError(t, err)
	_, err = env.business.Create(ctx, validCreateRequest("Pending Two"), nil)
	require.NoError(t, err)
	submit(t, env, approved.ID, 5)

	stats, err := env.admin.Dashboard(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.DashboardStats{Total: 3, Pending: 2, Approved: 1, Rejected: 0, Reviews: 1}, *stats)

	queue, err := env.admin.ListByStatus(ctx, "pending", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(2), queue.Total)

	everything, err := env.admin.ListByStatus(ctx, "", 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int64(3), everything.Total)

	_, err = env.admin.ListByStatus(ctx, "archived", 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestAdminService_DeleteRemovesReviewsAndLogo(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.business.Create(ctx, validCreateRequest("Doomed Shop"), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	require.NotEmpty(t, b.LogoKey)
	submit(t, env, b.ID, 3)

	require.NoError(t, env.admin.Delete(ctx, b.ID))
	env.drain(t)

	assert.False(t, env.s3.has(b.LogoKey))
	count, err := env.reviews.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	err = env.admin.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
