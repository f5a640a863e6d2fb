package knowledge

import (
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sandevgo/teambot/internal/core"
	"github.com/sandevgo/teambot/pkg/conv"
	"github.com/sandevgo/teambot/pkg/retry"
)

const (
	maxResponseSize     = 1 << 20 // 1MB
	defaultFetchTimeout = 15 * time.Second
)

// Fetcher downloads a web page as plain text.
type Fetcher struct {
	client  *http.Client
	retrier *retry.Retrier
}

func NewFetcher(timeout time.Duration, retryCfg *retry.Config) *Fetcher {
	if retryCfg == nil {
		retryCfg = retry.NewDefaultConfig()
	}
	return &Fetcher{
		client:  &http.Client{Timeout: timeout},
		retrier: retry.NewRetrier(retryCfg),
	}
}

// IsURL reports whether s is a single absolute http(s) link.
func IsURL(s string) bool {
	if strings.ContainsAny(s, " \n\t") {
		return false
	}
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var body string
	err := f.retrier.Do(ctx, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return retry.Permanent(fmt.Errorf("failed to create request: %w", err))
		}
		req.Header.Set("User-Agent", core.BotUserAgent)

		resp, err := f.client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to fetch url: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			err := fmt.Errorf("HTTP %d: %s", resp.StatusCode, resp.Status)
			if resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
				return retry.Permanent(err)
			}
			return err
		}

		limited := io.LimitReader(resp.Body, maxResponseSize)

		mediaType, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type"))
		if mediaType == "text/plain" || mediaType == "text/markdown" {
			data, err := io.ReadAll(limited)
			if err != nil {
				return fmt.Errorf("failed to read body: %w", err)
			}
			body = string(data)
			return nil
		}

		body, err = conv.HTMLToText(limited)
		return err
	})
	if err != nil {
		return "", err
	}
	return body, nil
}

// ImportURL fetches a page and adds its text to the knowledge base.
func (s *Service) ImportURL(ctx context.Context, rawURL string) (int, error) {
	text, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	return s.AddText(ctx, text, rawURL)
}
