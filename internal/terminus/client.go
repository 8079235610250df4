// Package terminus shells out to the hosting platform's terminus CLI for
// site listings and raw metrics tables.
package terminus

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os/exec"

	"github.com/siteops/metrics-sentinel/internal/domain"
)

// metricsFields is the column set requested from env:metrics. The parser
// tolerates feeds that add or omit the HTTP error columns.
const metricsFields = "Period,Visits,Pages Served,Cache Hits,Cache Misses,Cache Hit Ratio"

// SiteLister returns the sites under management, in platform order.
type SiteLister interface {
	ListSites(ctx context.Context) ([]domain.Site, error)
}

// MetricsFetcher returns the raw tabular metrics text for one site.
type MetricsFetcher interface {
	FetchMetrics(ctx context.Context, siteName, env string, g domain.Granularity) (string, error)
}

// ResolveCommand finds the terminus binary: $PATH first, then the explicit
// path from configuration. Failure here is fatal for the whole batch, so it
// runs before any site processing.
func ResolveCommand(explicit string) (string, error) {
	if path, err := exec.LookPath("terminus"); err == nil {
		return path, nil
	}
	if explicit != "" {
		return explicit, nil
	}
	return "", domain.ErrCommandNotFound
}

// Client runs terminus subcommands. Calls are synchronous; cancellation comes
// from the caller's context.
type Client struct {
	command string
}

// NewClient creates a client around a resolved terminus command path.
func NewClient(command string) *Client {
	return &Client{command: command}
}

func (c *Client) ListSites(ctx context.Context) ([]domain.Site, error) {
	cmd := exec.CommandContext(ctx, c.command, "site:list", "--format=csv")
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("terminus site:list: %w", err)
	}
	return parseSiteList(bytes.NewReader(out))
}

func (c *Client) FetchMetrics(ctx context.Context, siteName, env string, g domain.Granularity) (string, error) {
	cmd := exec.CommandContext(ctx, c.command,
		"env:metrics",
		"--period", string(g),
		"--datapoints", "auto",
		"--format", "table",
		"--fields", metricsFields,
		"--",
		fmt.Sprintf("%s.%s", siteName, env),
	)
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("terminus env:metrics %s.%s: %w", siteName, env, err)
	}
	return string(out), nil
}

// parseSiteList reads the CSV of site:list, keyed on the Name and ID columns.
func parseSiteList(r io.Reader) ([]domain.Site, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("read site list header: %w", err)
	}

	nameIdx, idIdx := -1, -1
	for i, col := range header {
		switch col {
		case "Name":
			nameIdx = i
		case "ID":
			idIdx = i
		}
	}
	if nameIdx == -1 || idIdx == -1 {
		return nil, fmt.Errorf("site list missing Name or ID column: %v", header)
	}

	var sites []domain.Site
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read site list row: %w", err)
		}
		sites = append(sites, domain.Site{Name: row[nameIdx], ID: row[idIdx]})
	}
	return sites, nil
}
