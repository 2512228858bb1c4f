package stream

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func NewClient(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
	}
}

// ListNotes fetches one page of the stream, newest first.
func (c *Client) ListNotes(ctx context.Context, page, perPage int) ([]Note, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 20
	}

	q := make(url.Values)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(perPage))

	req, err := c.newRequest(ctx, "/notes.json?"+q.Encode())
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list notes request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list notes", resp)
	}

	var notes []Note
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, fmt.Errorf("decode notes response: %w", err)
	}
	return notes, nil
}

// GetAuthor fetches the profile for a single author key.
func (c *Client) GetAuthor(ctx context.Context, key string) (Author, error) {
	req, err := c.newRequest(ctx, "/authors/"+url.PathEscape(key)+".json")
	if err != nil {
		return Author{}, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return Author{}, fmt.Errorf("get author request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Author{}, statusError("get author", resp)
	}

	var author Author
	if err := json.NewDecoder(resp.Body).Decode(&author); err != nil {
		return Author{}, fmt.Errorf("decode author response: %w", err)
	}
	return author, nil
}

// ListThread fetches every note belonging to a thread root, replies included.
func (c *Client) ListThread(ctx context.Context, rootID int64) ([]Note, error) {
	req, err := c.newRequest(ctx, "/threads/"+strconv.FormatInt(rootID, 10)+".json")
	if err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("list thread request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError("list thread", resp)
	}

	var notes []Note
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		return nil, fmt.Errorf("decode thread response: %w", err)
	}
	return notes, nil
}

func (c *Client) newRequest(ctx context.Context, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

func statusError(op string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return fmt.Errorf("%s failed with status %d: %s", op, resp.StatusCode, strings.TrimSpace(string(body)))
}
