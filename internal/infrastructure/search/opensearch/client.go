package opensearch

import (
	"context"
	"crypto/tls"
	"net/http"
	"time"

	"github.com/opensearch-project/opensearch-go/v3"
	"github.com/opensearch-project/opensearch-go/v3/opensearchapi"

	"github.com/marcuskncheung/new-intel-platform-sub000/internal/config"
	"github.com/marcuskncheung/new-intel-platform-sub000/internal/infrastructure/monitoring/logging"
	"github.com/marcuskncheung/new-intel-platform-sub000/pkg/errors"
)

// Client wraps the OpenSearch API client used by the profile mirror.
type Client struct {
	api    *opensearchapi.Client
	logger logging.Logger
}

func NewClient(cfg config.OpenSearchConfig, log logging.Logger) (*Client, error) {
	if len(cfg.Addresses) == 0 {
		return nil, errors.New(errors.ErrCodeValidation, "opensearch addresses required")
	}

	transport := &http.Transport{
		MaxIdleConnsPerHost: 10,
	}
	if cfg.InsecureSkipVerify {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true}
	}

	api, err := opensearchapi.NewClient(opensearchapi.Config{
		Client: opensearch.Config{
			Addresses:     cfg.Addresses,
			Username:      cfg.User,
			Password:      cfg.Password,
			Transport:     transport,
			MaxRetries:    3,
			RetryOnStatus: []int{429, 502, 503, 504},
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeExternalService, "failed to create opensearch client")
	}

	c := &Client{api: api, logger: log}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := c.Ping(ctx); err != nil {
		return nil, err
	}

	log.Info("opensearch connection established",
		logging.Int("addresses", len(cfg.Addresses)))
	return c, nil
}

// API returns the typed OpenSearch client.
func (c *Client) API() *opensearchapi.Client {
	return c.api
}

func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.Ping(ctx, nil); err != nil {
		return errors.Wrap(err, errors.ErrCodeExternalService, "opensearch ping failed")
	}
	return nil
}
