// Package influx delivers line-protocol batches to an InfluxDB v2 write
// endpoint.
package influx

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/netsweep/netsweep/internal/config"
	"github.com/netsweep/netsweep/internal/errors"
	"github.com/netsweep/netsweep/internal/lineproto"
	"github.com/netsweep/netsweep/internal/logging"
)

const writeContentType = "text/plain; charset=utf-8"

// Responses are read only far enough to surface a useful error message.
const maxErrorBody = 1024

// Client writes measurement points to InfluxDB.
type Client struct {
	baseURL string
	org     string
	bucket  string
	token   string
	http    *http.Client
	logger  *logging.Logger
}

// New creates a client from the influx configuration section.
func New(cfg config.InfluxConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		org:     cfg.Org,
		bucket:  cfg.Bucket,
		token:   cfg.Token,
		http:    &http.Client{Timeout: timeout},
		logger:  logging.Default().WithComponent("influx"),
	}
}

// Publish posts a batch of points with nanosecond precision. An empty
// batch succeeds without touching the network. Failures are classified:
// transport problems, rejected credentials, and server-side errors.
func (c *Client) Publish(ctx context.Context, points []lineproto.Point) error {
	body := lineproto.EncodeBatch(points)
	if body == "" {
		return nil
	}

	writeURL := fmt.Sprintf("%s/api/v2/write?%s", c.baseURL, url.Values{
		"org":       {c.org},
		"bucket":    {c.bucket},
		"precision": {"ns"},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, writeURL,
		strings.NewReader(body))
	if err != nil {
		return errors.WrapSinkError(errors.CodeSinkUnreachable,
			"Failed to build write request", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", writeContentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return errors.WrapSinkError(errors.CodeSinkUnreachable,
			"Metrics sink unreachable", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		c.logger.Debug("Published points", "count", len(points))
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return errors.NewSinkStatusError(errors.CodeSinkAuth,
			"Metrics sink rejected credentials", resp.StatusCode)
	case resp.StatusCode >= 500:
		return errors.NewSinkStatusError(errors.CodeSinkServer,
			fmt.Sprintf("Metrics sink error: %s", readErrorBody(resp.Body)),
			resp.StatusCode)
	default:
		return errors.NewSinkStatusError(errors.CodeSinkServer,
			fmt.Sprintf("Unexpected write response: %s", readErrorBody(resp.Body)),
			resp.StatusCode)
	}
}

func readErrorBody(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, maxErrorBody))
	if err != nil || len(data) == 0 {
		return "no details"
	}
	return strings.TrimSpace(string(data))
}
