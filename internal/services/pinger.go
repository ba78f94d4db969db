package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker/v2"
)

// SitemapPlaceholder is replaced by the escaped sitemap URL in ping targets.
const SitemapPlaceholder = "{sitemap}"

// SitemapPinger notifies search engines that the sitemap changed.
type SitemapPinger interface {
	Ping(ctx context.Context) error
}

// SearchPinger hits each configured ping endpoint through its own circuit
// breaker so a dead endpoint stops costing a request per approval.
type SearchPinger struct {
	targets []pingTarget
	client  *http.Client
	log     logrus.FieldLogger
}

type pingTarget struct {
	url     string
	breaker *gobreaker.CircuitBreaker[struct{}]
}

func NewSearchPinger(endpoints []string, sitemapURL string, client *http.Client, log logrus.FieldLogger) *SearchPinger {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	p := &SearchPinger{client: client, log: log}
	escaped := url.QueryEscape(sitemapURL)
	for _, endpoint := range endpoints {
		target := strings.ReplaceAll(endpoint, SitemapPlaceholder, escaped)
		p.targets = append(p.targets, pingTarget{
			url: target,
			breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
				Name:        target,
				MaxRequests: 1,
				Interval:    10 * time.Minute,
				Timeout:     30 * time.Minute,
				ReadyToTrip: func(counts gobreaker.Counts) bool {
					return counts.ConsecutiveFailures >= 3
				},
				OnStateChange: func(name string, from, to gobreaker.State) {
					log.WithFields(logrus.Fields{
						"breaker": name,
						"from":    from.String(),
						"to":      to.String(),
					}).Warn("search ping circuit breaker state change")
				},
			}),
		})
	}
	return p
}

func (p *SearchPinger) Enabled() bool {
	return len(p.targets) > 0
}

// Ping notifies every endpoint and joins their failures.
func (p *SearchPinger) Ping(ctx context.Context) error {
	var errs []error
	for _, t := range p.targets {
		_, err := t.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.get(ctx, t.url)
		})
		if err != nil {
			errs = append(errs, fmt.Errorf("ping %s: %w", t.url, err))
			continue
		}
		p.log.WithField("endpoint", t.url).Debug("search engine pinged")
	}
	return errors.Join(errs...)
}

func (p *SearchPinger) get(ctx context.Context, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode >= 400 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
