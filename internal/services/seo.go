package services

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/princeprakhar/biz-directory/internal/apperrors"
	"github.com/princeprakhar/biz-directory/internal/models"
	"github.com/princeprakhar/biz-directory/internal/repository"
	"github.com/princeprakhar/biz-directory/internal/slug"
	"github.com/princeprakhar/biz-directory/internal/utils"
)

const metaDescriptionLength = 160

type SEOService struct {
	businesses BusinessStore
	reviews    *ReviewService
	baseURL    string
	siteName   string
}

func NewSEOService(businesses BusinessStore, reviews *ReviewService, baseURL, siteName string) *SEOService {
	return &SEOService{
		businesses: businesses,
		reviews:    reviews,
		baseURL:    strings.TrimRight(baseURL, "/"),
		siteName:   siteName,
	}
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

type sitemapURL struct {
	Loc        string `xml:"loc"`
	LastMod    string `xml:"lastmod,omitempty"`
	ChangeFreq string `xml:"changefreq,omitempty"`
	Priority   string `xml:"priority,omitempty"`
}

// Sitemap renders sitemap.xml: the home and browse pages, one page per
// category and city, and every approved listing.
func (s *SEOService) Sitemap(ctx context.Context) ([]byte, error) {
	businesses, err := s.businesses.ListApproved(ctx)
	if err != nil {
		return nil, apperrors.Internal(err)
	}

	set := urlSet{Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9"}
	set.URLs = append(set.URLs,
		sitemapURL{Loc: s.baseURL + "/", ChangeFreq: "daily", Priority: "1.0"},
		sitemapURL{Loc: s.baseURL + "/businesses", ChangeFreq: "daily", Priority: "0.8"},
	)

	categories := make(map[string]time.Time)
	cities := make(map[string]time.Time)
	var categoryOrder, cityOrder []string
	for _, b := range businesses {
		if key := slug.Generate(b.Category); key != "" {
			if _, seen := categories[key]; !seen {
				categoryOrder = append(categoryOrder, key)
			}
			categories[key] = latest(categories[key], b.UpdatedAt)
		}
		if key := slug.Generate(b.City); key != "" {
			if _, seen := cities[key]; !seen {
				cityOrder = append(cityOrder, key)
			}
			cities[key] = latest(cities[key], b.UpdatedAt)
		}
	}
	for _, key := range categoryOrder {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.baseURL + "/category/" + key, LastMod: lastMod(categories[key]), ChangeFreq: "weekly", Priority: "0.6"})
	}
	for _, key := range cityOrder {
		set.URLs = append(set.URLs, sitemapURL{Loc: s.baseURL + "/city/" + key, LastMod: lastMod(cities[key]), ChangeFreq: "weekly", Priority: "0.6"})
	}
	for _, b := range businesses {
		set.URLs = append(set.URLs, sitemapURL{Loc: BusinessURL(s.baseURL, b.Slug), LastMod: lastMod(b.UpdatedAt), ChangeFreq: "weekly", Priority: "0.7"})
	}

	out, err := xml.MarshalIndent(set, "", "  ")
	if err != nil {
		return nil, apperrors.Internal(fmt.Errorf("marshal sitemap: %w", err))
	}
	return append([]byte(xml.Header), out...), nil
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}

func lastMod(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

// SitemapURL is the public location of the sitemap.
func (s *SEOService) SitemapURL() string {
	return s.baseURL + "/sitemap.xml"
}

func (s *SEOService) Robots() string {
	var b strings.Builder
	b.WriteString("User-agent: *\n")
	b.WriteString("Allow: /\n")
	b.WriteString("Disallow: /admin\n")
	b.WriteString("Disallow: /api/\n")
	b.WriteString("\n")
	b.WriteString("Sitemap: " + s.SitemapURL() + "\n")
	return b.String()
}

// PageMetadata is what a page renderer needs for a listing's <head>.
type PageMetadata struct {
	Title        string                 `json:"title"`
	Description  string                 `json:"description"`
	CanonicalURL string                 `json:"canonical_url"`
	Image        string                 `json:"image,omitempty"`
	JSONLD       map[string]interface{} `json:"json_ld"`
}

// Metadata builds page metadata and schema.org LocalBusiness markup for an
// approved listing. The aggregate rating is recomputed from the reviews and
// omitted when there are none.
func (s *SEOService) Metadata(ctx context.Context, ref string) (*PageMetadata, error) {
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

	summary, err := s.reviews.Summary(ctx, b.ID)
	if err != nil {
		return nil, err
	}

	canonical := BusinessURL(s.baseURL, b.Slug)
	return &PageMetadata{
		Title:        s.title(b),
		Description:  utils.Truncate(b.Description, metaDescriptionLength),
		CanonicalURL: canonical,
		Image:        b.LogoURL,
		JSONLD:       localBusinessJSONLD(b, canonical, summary.RatingAvg, summary.RatingCount),
	}, nil
}

func (s *SEOService) title(b *models.Business) string {
	var parts []string
	if b.Category != "" {
		parts = append(parts, b.Category)
	}
	if b.City != "" {
		parts = append(parts, "in "+b.City)
	}
	title := b.Name
	if len(parts) > 0 {
		title += " - " + strings.Join(parts, " ")
	}
	if s.siteName != "" {
		title += " | " + s.siteName
	}
	return title
}

func localBusinessJSONLD(b *models.Business, canonical string, avg float64, count int) map[string]interface{} {
	ld := map[string]interface{}{
		"@context":    "https://schema.org",
		"@type":       "LocalBusiness",
		"@id":         canonical,
		"name":        b.Name,
		"url":         canonical,
		"description": utils.Truncate(b.Description, 500),
		"telephone":   b.Phone,
	}
	if b.Email != "" {
		ld["email"] = b.Email
	}
	if b.LogoURL != "" {
		ld["image"] = b.LogoURL
	}
	if b.Website != "" {
		ld["sameAs"] = []string{b.Website}
	}

	address := map[string]interface{}{"@type": "PostalAddress"}
	if b.Address != "" {
		address["streetAddress"] = b.Address
	}
	if b.City != "" {
		address["addressLocality"] = b.City
	}
	if b.Province != "" {
		address["addressRegion"] = b.Province
	}
	if len(address) > 1 {
		ld["address"] = address
	}

	if count > 0 {
		ld["aggregateRating"] = map[string]interface{}{
			"@type":       "AggregateRating",
			"ratingValue": avg,
			"reviewCount": count,
			"bestRating":  5,
			"worstRating": 1,
		}
	}
	return ld
}
