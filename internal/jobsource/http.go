package jobsource

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

const (
	userAgent       = "spigell/jobgenius (+https://github.com/spigell/jobgenius)"
	acceptEncoding  = "gzip"
	defaultTimeout  = 10 * time.Second
	maxResponseSize = 8 << 20
)

// httpClient is the shared GET plumbing of the remote sources.
type httpClient struct {
	HTTPClient *http.Client
	UserAgent  string
	logger     *zap.Logger
}

func newHTTPClient(client *http.Client, logger *zap.Logger) httpClient {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return httpClient{HTTPClient: client, UserAgent: userAgent, logger: logger}
}

// get fetches rawURL and returns the decoded body. Non-200 responses are errors.
func (c httpClient) get(ctx context.Context, rawURL, accept string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", c.UserAgent)
	req.Header.Set("Accept-Encoding", acceptEncoding)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	c.logger.Debug("make request", zap.String("url", req.URL.String()))
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var reader io.Reader = resp.Body
	if resp.Header.Get("Content-Encoding") == "gzip" {
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, err
		}
		defer gz.Close()
		reader = gz
	}

	data, err := io.ReadAll(io.LimitReader(reader, maxResponseSize))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}

	return data, nil
}
