package services

import (
	"bytes"
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusinessService_CreateAssignsUniqueSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	first, err := env.business.Create(ctx, validCreateRequest("Al-Khair Bakers!!"), nil)
	require.NoError(t, err)
	assert.Equal(t, "al-khair-bakers", first.Slug)
	assert.Equal(t, models.StatusPending, first.Status)
	assert.Equal(t, "owner@bakery.example", first.Email)
	assert.Equal(t, "03142552851", first.PhoneDigits)

	second, err := env.business.Create(ctx, validCreateRequest("Al-Khair Bakers!!"), nil)
	require.NoError(t, err)
	assert.Equal(t, "al-khair-bakers-1", second.Slug)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestBusinessService_CreateFallsBackForUnsluggableNames(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.business.Create(context.Background(), validCreateRequest("!!!???"), nil)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(b.Slug, "business-"), b.Slug)
}

func TestBusinessService_ConcurrentCreatesGetDistinctSlugs(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	const n = 6
	slugs := make([]string, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := env.business.Create(ctx, validCreateRequest("Pizza Hut"), nil)
			errs[i] = err
			if err == nil {
				slugs[i] = b.Slug
			}
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	sort.Strings(slugs)
	assert.Equal(t, []string{"pizza-hut", "pizza-hut-1", "pizza-hut-2", "pizza-hut-3", "pizza-hut-4", "pizza-hut-5"}, slugs)
}

func TestBusinessService_CreateValidates(t *testing.T) {
	env := newTestEnv(t)

	req := validCreateRequest("A")
	req.Email = "not-an-email"
	_, err := env.business.Create(context.Background(), req, nil)
	require.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Contains(t, err.Error(), "name")
	assert.Contains(t, err.Error(), "email")

	list, total, err := env.businesses.List(context.Background(), listAll())
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)
}

func TestBusinessService_CreateWithLogo(t *testing.T) {
	env := newTestEnv(t)

	b, err := env.business.Create(context.Background(), validCreateRequest("Logo Shop"), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.NotEmpty(t, b.LogoKey)
	assert.Equal(t, "https://cdn.example/"+b.LogoKey, b.LogoURL)
	assert.True(t, env.s3.has(b.LogoKey))
}

func TestBusinessService_LogoFailureDoesNotFailCreate(t *testing.T) {
	env := newTestEnv(t)
	env.s3.putErr = errors.New("bucket unavailable")

	b, err := env.business.Create(context.Background(), validCreateRequest("No Logo Shop"), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Empty(t, b.LogoURL)
	assert.Empty(t, b.LogoKey)
}

func TestBusinessService_CreateSendsEmails(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.business.Create(context.Background(), validCreateRequest("Mail Shop"), nil)
	require.NoError(t, err)
	env.drain(t)

	var recipients []string
	for _, m := range env.mailer.Sent() {
		recipients = append(recipients, m.To)
	}
	assert.ElementsMatch(t, []string{"owner@bakery.example", "admin@directory.example"}, recipients)
}

func TestBusinessService_GetOnlyApproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pending, err := env.business.Create(ctx, validCreateRequest("Pending Shop"), nil)
	require.NoError(t, err)
	_, err = env.business.Get(ctx, pending.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	approved := env.seedApproved(t, "Approved Shop")
	got, err := env.business.Get(ctx, approved.Slug)
	require.NoError(t, err)
	assert.Equal(t, approved.ID, got.ID)

	got, err = env.business.Get(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "approved-shop", got.Slug)
}

func TestBusinessService_List(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedApproved(t, "Bread Corner")
	env.seedApproved(t, "Cake House")
	_, err := env.business.Create(ctx, validCreateRequest("Hidden Bakery"), nil)
	require.NoError(t, err)

	res, err := env.business.List(ctx, BrowseQuery{Sort: "name", Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), res.Total)
	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Businesses, 1)
	assert.Equal(t, "Bread Corner", res.Businesses[0].Name)

	res, err = env.business.List(ctx, BrowseQuery{Query: "house"})
	require.NoError(t, err)
	require.Len(t, res.Businesses, 1)
	assert.Equal(t, DefaultPageSize, res.Limit)

	_, err = env.business.List(ctx, BrowseQuery{Sort: "price"})
	assert.ErrorIs(t, err, apperrors.ErrValidation)

	categories, err := env.business.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bakery"}, categories)

	cities, err := env.business.Cities(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Lahore"}, cities)
}
