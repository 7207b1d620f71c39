package vodctl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/vodforge/vodforge/internal/media"
)

// Client is a thin HTTP client for the vodforge API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Minute,
		},
	}
}

type errorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("User-Agent", "vodctl/"+Version)

	return c.httpClient.Do(req)
}

func (c *Client) parseError(resp *http.Response) error {
	body, _ := io.ReadAll(resp.Body)
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("%s: %s", errResp.Code, errResp.Message)
	}
	return fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
}

// Upload streams a local file to the upload endpoint without buffering
// it in memory.
func (c *Client) Upload(ctx context.Context, filePath, title, description string) (*media.Item, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)

	errCh := make(chan error, 1)
	go func() {
		defer func() { _ = pw.Close() }()

		if title != "" {
			if err := writer.WriteField("title", title); err != nil {
				errCh <- err
				return
			}
		}
		if description != "" {
			if err := writer.WriteField("description", description); err != nil {
				errCh <- err
				return
			}
		}

		part, err := writer.CreateFormFile("file", filepath.Base(filePath))
		if err != nil {
			errCh <- err
			return
		}
		if _, err := io.Copy(part, file); err != nil {
			errCh <- err
			return
		}

		errCh <- writer.Close()
	}()

	resp, err := c.doRequest(ctx, http.MethodPost, "/api/videos/upload", pr, writer.FormDataContentType())
	if err != nil {
		return nil, fmt.Errorf("upload failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if writeErr := <-errCh; writeErr != nil {
		return nil, fmt.Errorf("failed to write multipart form: %w", writeErr)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, c.parseError(resp)
	}

	var item media.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &item, nil
}

// Status fetches the current metadata record for a media item.
func (c *Client) Status(ctx context.Context, mediaID string) (*media.Item, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/videos/"+mediaID, nil, "")
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, c.parseError(resp)
	}

	var item media.Item
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	return &item, nil
}

// Fetch downloads one artifact of a media item into w.
func (c *Client) Fetch(ctx context.Context, mediaID, fileName string, w io.Writer) (int64, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/api/videos/"+mediaID+"/"+fileName, nil, "")
	if err != nil {
		return 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return 0, c.parseError(resp)
	}

	return io.Copy(w, resp.Body)
}
