package services

import (
	"context"
	"testing"
	"time"

	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/testutil"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

type fakePinger struct {
	calls chan struct{}
}

func newFakePinger() *fakePinger {
	return &fakePinger{calls: make(chan struct{}, 16)}
}

func (p *fakePinger) Ping(ctx context.Context) error {
	p.calls <- struct{}{}
	return nil
}

// testEnv wires every service against a fresh in-memory database.
type testEnv struct {
	businesses *repository.BusinessRepository
	reviews    *repository.ReviewRepository
	mailer     *fakeMailer
	s3         *fakeS3
	pinger     *fakePinger
	dispatcher *Dispatcher

	business  *BusinessService
	review    *ReviewService
	admin     *AdminService
	duplicate *DuplicateService
	seo       *SEOService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db := testutil.NewDB(t)
	log, _ := test.NewNullLogger()

	env := &testEnv{
		businesses: repository.NewBusinessRepository(db),
		reviews:    repository.NewReviewRepository(db),
		mailer:     &fakeMailer{},
		s3:         newFakeS3(),
		pinger:     newFakePinger(),
		dispatcher: NewDispatcher(2, 64, 5*time.Second, log),
	}
	t.Cleanup(func() { _ = env.dispatcher.Close(context.Background()) })

	emails := NewEmailServiceWithMailer(testConfig(), env.mailer, log)
	logos := NewLogoStoreWithClient(env.s3, "logos", "https://cdn.example", 1<<20)

	env.business = NewBusinessService(env.businesses, logos, emails, env.dispatcher, log)
	env.review = NewReviewService(env.businesses, env.reviews, env.dispatcher, log)
	env.admin = NewAdminService(env.businesses, env.reviews, logos, emails, env.pinger, env.dispatcher, log)
	env.duplicate = NewDuplicateService(env.businesses, log)
	env.seo = NewSEOService(env.businesses, env.review, "https://directory.example", "Directory")
	return env
}

// drain waits for every queued side effect to finish.
func (e *testEnv) drain(t *testing.T) {
	t.Helper()
	require.NoError(t, e.dispatcher.Close(context.Background()))
}

func validCreateRequest(name string) *models.CreateBusinessRequest {
	return &models.CreateBusinessRequest{
		Name:        name,
		Category:    "Bakery",
		City:        "Lahore",
		Province:    "Punjab",
		Phone:       "0314-2552851",
		Email:       "Owner@Bakery.example",
		Description: "Fresh bread, cakes and rusks baked every morning.",
	}
}

// seedApproved creates a listing through the service and approves it.
func (e *testEnv) seedApproved(t *testing.T, name string) *models.Business {
	t.Helper()
	ctx := context.Background()
	b, err := e.business.Create(ctx, validCreateRequest(name), nil)
	require.NoError(t, err)
	_, err = e.businesses.UpdateStatus(ctx, b.ID, models.StatusApproved)
	require.NoError(t, err)
	b.Status = models.StatusApproved
	return b
}

func listAll() repository.BusinessFilter {
	return repository.BusinessFilter{Page: 1, Limit: MaxPageSize}
}
