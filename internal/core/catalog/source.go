package catalog

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"os"

	"feed-formulator/internal/infrastructure/config"
	"feed-formulator/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Source loads the raw ingredient table from a local file or a remote URL.
type Source struct {
	cfg    *config.CatalogConfig
	client *resty.Client
}

// NewSource creates a catalog source.
func NewSource(cfg *config.CatalogConfig) *Source {
	client := resty.New().
		SetTimeout(cfg.FetchTimeout).
		SetHeader("Accept", "text/csv")

	return &Source{
		cfg:    cfg,
		client: client,
	}
}

// Load reads the configured source and builds the catalog. The URL takes
// precedence over the local path when both are set.
func (s *Source) Load(ctx context.Context) (*Catalog, error) {
	if s.cfg.URL != "" {
		return s.loadRemote(ctx)
	}
	return s.loadFile()
}

func (s *Source) loadRemote(ctx context.Context) (*Catalog, error) {
	common.LogInfo("fetching ingredient catalog",
		zap.String("url", s.cfg.URL),
	)

	resp, err := s.client.R().
		SetContext(ctx).
		Get(s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("catalog fetch returned status %d", resp.StatusCode())
	}

	return LoadCSV(bytes.NewReader(resp.Body()))
}

func (s *Source) loadFile() (*Catalog, error) {
	common.LogInfo("reading ingredient catalog",
		zap.String("path", s.cfg.Path),
	)

	f, err := os.Open(s.cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog file: %w", err)
	}
	defer f.Close()

	return LoadCSV(f)
}
