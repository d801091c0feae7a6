package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"github.com/paaavkata/gift-autobuy-bot/pkg/models"
)

// ErrNotModified signals that the catalog endpoint answered 304 for our
// cache validator: there is nothing to diff, which is distinct from a
// successful poll that found no new gifts.
var ErrNotModified = errors.New("catalog not modified")

// Monitor polls a gift catalog endpoint with conditional requests. It
// remembers the last ETag and sends If-None-Match so unchanged catalogs
// cost the provider (and our rate budget) next to nothing.
type Monitor struct {
	http     *resty.Client
	endpoint string
	etag     string
	logger   *logrus.Logger
}

func NewMonitor(endpoint string, logger *logrus.Logger) *Monitor {
	http := resty.New()
	http.SetTimeout(5 * time.Second)

	return &Monitor{
		http:     http,
		endpoint: endpoint,
		logger:   logger,
	}
}

// Fetch returns the full normalized catalog, or ErrNotModified on a 304.
// A 401 is not fatal for monitoring: the endpoint is still reachable, we
// just cannot see the payload, so it degrades to an empty catalog.
func (m *Monitor) Fetch(ctx context.Context) ([]models.Gift, error) {
	req := m.http.R().SetContext(ctx)
	if m.etag != "" {
		req.SetHeader("If-None-Match", m.etag)
	}

	resp, err := req.Get(m.endpoint)
	if err != nil {
		m.logger.WithError(err).Warn("Catalog monitor fetch failed")
		return nil, nil
	}

	if resp.StatusCode() == http.StatusNotModified {
		return nil, ErrNotModified
	}
	if et := resp.Header().Get("ETag"); et != "" {
		m.etag = et
	}
	if resp.StatusCode() == http.StatusUnauthorized {
		m.logger.WithField("body", string(resp.Body())).Debug("Unauthorized on catalog endpoint")
		return nil, nil
	}
	if resp.StatusCode() != http.StatusOK {
		m.logger.WithField("status", resp.StatusCode()).Warn("Unexpected catalog status")
		return nil, nil
	}

	gifts, err := ParseGiftList(json.RawMessage(resp.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog body: %w", err)
	}
	return gifts, nil
}
