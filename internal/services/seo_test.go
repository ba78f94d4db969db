package services

import (
	"context"
	"encoding/xml"
	"strings"
	"testing"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSEOService_Sitemap(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.seedApproved(t, "Listed Shop")
	_, err := env.business.Create(ctx, validCreateRequest("Unlisted Shop"), nil)
	require.NoError(t, err)

	out, err := env.seo.Sitemap(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(out), xml.Header))

	var parsed urlSet
	require.NoError(t, xml.Unmarshal(out, &parsed))
	var locs []string
	for _, u := range parsed.URLs {
		locs = append(locs, u.Loc)
	}
	assert.Contains(t, locs, "https://directory.example/")
	assert.Contains(t, locs, "https://directory.example/category/bakery")
	assert.Contains(t, locs, "https://directory.example/city/lahore")
	assert.Contains(t, locs, "https://directory.example/business/listed-shop")
	assert.NotContains(t, locs, "https://directory.example/business/unlisted-shop")
}

func TestSEOService_Robots(t *testing.T) {
	env := newTestEnv(t)

	robots := env.seo.Robots()
	assert.Contains(t, robots, "Disallow: /admin\n")
	assert.Contains(t, robots, "Sitemap: https://directory.example/sitemap.xml\n")
}

func TestSEOService_Metadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b := env.seedApproved(t, "Meta Bakery")

	meta, err := env.seo.Metadata(ctx, b.Slug)
	require.NoError(t, err)
	assert.Equal(t, "Meta Bakery - Bakery in Lahore | Directory", meta.Title)
	assert.Equal(t, "https://directory.example/business/meta-bakery", meta.CanonicalURL)
	assert.LessOrEqual(t, len([]rune(meta.Description)), metaDescriptionLength)
	assert.Equal(t, "LocalBusiness", meta.JSONLD["@type"])
	assert.NotContains(t, meta.JSONLD, "aggregateRating")

	submit(t, env, b.ID, 5)
	submit(t, env, b.ID, 4)

	meta, err = env.seo.Metadata(ctx, b.ID)
	require.NoError(t, err)
	agg, ok := meta.JSONLD["aggregateRating"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, 4.5, agg["ratingValue"])
	assert.Equal(t, 2, agg["reviewCount"])

	address, ok := meta.JSONLD["address"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Punjab", address["addressRegion"])
}

func TestSEOService_MetadataHidesUnapproved(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	b, err := env.business.Create(ctx, validCreateRequest("Secret Shop"), nil)
	require.NoError(t, err)

	_, err = env.seo.Metadata(ctx, b.Slug)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
