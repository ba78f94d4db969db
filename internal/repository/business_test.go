package repository

import (
	"context"
	"testing"

	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/rating"
	"github.com/princeprakhar/biz-directory/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestBusiness(slug, phone, email string) *models.Business {
	return &models.Business{
		Name:        "Test " + slug,
		Slug:        slug,
		Category:    "Bakery",
		City:        "Lahore",
		Phone:       phone,
		Email:       email,
		Description: "Fresh bread every morning",
		Status:      models.StatusPending,
	}
}

func seedBusiness(t *testing.T, repo *BusinessRepository, b *models.Business) *models.Business {
	t.Helper()
	require.NoError(t, repo.Create(context.Background(), b))
	return b
}

func TestBusinessRepository_CreateAndFind(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	b := seedBusiness(t, repo, newTestBusiness("al-khair-bakers", "0314-2552851", "info@alkhair.pk"))
	require.NotEmpty(t, b.ID)
	assert.Equal(t, "03142552851", b.PhoneDigits)

	byID, err := repo.FindByRef(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.Slug, byID.Slug)

	bySlug, err := repo.FindByRef(ctx, "al-khair-bakers")
	require.NoError(t, err)
	assert.Equal(t, b.ID, bySlug.ID)

	_, err = repo.FindByRef(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBusinessRepository_DuplicateSlug(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	seedBusiness(t, repo, newTestBusiness("al-khair-bakers", "111", ""))

	exists, err := repo.SlugExists(ctx, "al-khair-bakers")
	require.NoError(t, err)
	assert.True(t, exists)

	err = repo.Create(ctx, newTestBusiness("al-khair-bakers", "222", ""))
	assert.ErrorIs(t, err, ErrDuplicate)

	exists, err = repo.SlugExists(ctx, "al-khair-bakers-1")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestBusinessRepository_PhoneDigitsExist(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	seedBusiness(t, repo, newTestBusiness("a", "03142552851", ""))
	seedBusiness(t, repo, newTestBusiness("b", "+92 (42) 3575-1234", ""))

	tests := []struct {
		digits string
		want   bool
	}{
		{"03142552851", true},
		{"3142552851", true},
		{"92423575", true},
		{"4235751234", true},
		{"03001234567", false},
		{"", false},
	}
	for _, tt := range tests {
		got, err := repo.PhoneDigitsExist(ctx, tt.digits)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "digits %q", tt.digits)
	}
}

func TestBusinessRepository_EmailExists(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	seedBusiness(t, repo, newTestBusiness("a", "111", "test@example.com"))

	got, err := repo.EmailExists(ctx, "Test@Example.com")
	require.NoError(t, err)
	assert.True(t, got)

	got, err = repo.EmailExists(ctx, "test2@example.com")
	require.NoError(t, err)
	assert.False(t, got)

	got, err = repo.EmailExists(ctx, "est@example.co")
	require.NoError(t, err)
	assert.False(t, got)
}

func TestBusinessRepository_UpdateStatus(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	b := seedBusiness(t, repo, newTestBusiness("a", "111", ""))

	modified, err := repo.UpdateStatus(ctx, b.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(1), modified)

	modified, err = repo.UpdateStatus(ctx, b.ID, models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(0), modified)

	modified, err = repo.UpdateStatus(ctx, "missing", models.StatusApproved)
	require.NoError(t, err)
	assert.Equal(t, int64(0), modified)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
}

func TestBusinessRepository_ListFilters(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	bakery := newTestBusiness("bakery", "111", "")
	bakery.Status = models.StatusApproved
	bakery.RatingAvg = 4.5
	seedBusiness(t, repo, bakery)

	tailor := newTestBusiness("tailor", "222", "")
	tailor.Name = "Ali Tailors"
	tailor.Category = "Tailor"
	tailor.City = "Karachi"
	tailor.Description = "Suits 100% made to measure"
	tailor.Status = models.StatusApproved
	tailor.RatingAvg = 3.0
	seedBusiness(t, repo, tailor)

	seedBusiness(t, repo, newTestBusiness("pending", "333", ""))

	list, total, err := repo.List(ctx, BusinessFilter{Status: models.StatusApproved, Page: 1, Limit: 10, Sort: SortRating})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, list, 2)
	assert.Equal(t, "bakery", list[0].Slug)

	list, total, err = repo.List(ctx, BusinessFilter{Status: models.StatusApproved, City: "karachi", Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "tailor", list[0].Slug)

	list, _, err = repo.List(ctx, BusinessFilter{Status: models.StatusApproved, Category: "BAKERY", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "bakery", list[0].Slug)

	list, _, err = repo.List(ctx, BusinessFilter{Search: "100%", Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "tailor", list[0].Slug)

	list, total, err = repo.List(ctx, BusinessFilter{Status: models.StatusRejected, Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	categories, err := repo.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery", "Tailor"}, categories)

	cities, err := repo.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Karachi", "Lahore"}, cities)

	counts, err := repo.CountByStatus(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), counts[models.StatusApproved])
	assert.Equal(t, int64(1), counts[models.StatusPending])
}

func TestBusinessRepository_SetRatingAggregate(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	b := seedBusiness(t, repo, newTestBusiness("a", "111", ""))
	require.NoError(t, repo.SetRatingAggregate(ctx, b.ID, rating.Aggregate{Count: 3, Sum: 13}))

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, 4.33, got.RatingAvg)
	assert.Equal(t, 3, got.RatingCount)
	assert.Equal(t, 13, got.RatingSum)
}

func TestBusinessRepository_Delete(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewBusinessRepository(db)
	reviews := NewReviewRepository(db)
	ctx := context.Background()

	b := seedBusiness(t, repo, newTestBusiness("a", "111", ""))
	_, err := reviews.CreateWithAggregate(ctx, &models.Review{BusinessID: b.ID, Rating: 5, Comment: "great"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, deleted.ID)

	count, err := reviews.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	_, err = repo.Delete(ctx, b.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestBusinessRepository_BackfillPhoneDigits(t *testing.T) {
	db := testutil.NewDB(t)
	repo := NewBusinessRepository(db)
	ctx := context.Background()

	b := seedBusiness(t, repo, newTestBusiness("a", "0314-2552851", ""))
	seedBusiness(t, repo, newTestBusiness("b", "042 111", ""))
	require.NoError(t, db.Model(&models.Business{}).Where("id = ?", b.ID).
		Session(&gorm.Session{SkipHooks: true}).
		UpdateColumn("phone_digits", "").Error)

	fixed, err := repo.BackfillPhoneDigits(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, fixed)

	got, err := repo.GetByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, "03142552851", got.PhoneDigits)
}

func TestBusinessRepository_ListApprovedAndIDs(t *testing.T) {
	repo := NewBusinessRepository(testutil.NewDB(t))
	ctx := context.Background()

	approved := newTestBusiness("approved", "111", "")
	approved.Status = models.StatusApproved
	seedBusiness(t, repo, approved)
	seedBusiness(t, repo, newTestBusiness("pending", "222", ""))

	list, err := repo.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "approved", list[0].Slug)
	assert.Equal(t, "Bakery", list[0].Category)

	ids, err := repo.ListIDs(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 2)
}
