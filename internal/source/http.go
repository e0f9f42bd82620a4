package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/amishk599/jobsync/internal/model"
)

const userAgent = "jobsync/1.0 (+https://github.com/amishk599/jobsync)"

// get issues a GET for url and returns the response body on HTTP 200.
// Any other status becomes a *model.HTTPError. The caller closes the body.
func get(ctx context.Context, client *http.Client, url, accept string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if accept != "" {
		req.Header.Set("Accept", accept)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &model.HTTPError{
			StatusCode: resp.StatusCode,
			RetryAfter: model.ParseRetryAfter(resp.Header.Get("Retry-After")),
		}
	}
	return resp.Body, nil
}
