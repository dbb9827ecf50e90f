// Package store talks to the external user/message REST services and the
// media upload endpoint. All of them are opaque JSON collaborators.
package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/tonutonmoy/chat-client-side/internal/domain"
)

type Client struct {
	base      string
	uploadURL string
	http      *http.Client
}

func NewClient(base, uploadURL string) *Client {
	return &Client{
		base:      base,
		uploadURL: uploadURL,
		http:      &http.Client{Timeout: 15 * time.Second},
	}
}

// History fetches the conversation log between self and partner.
func (c *Client) History(ctx context.Context, self, partner domain.UserID) ([]domain.Message, error) {
	var out []domain.Message
	url := fmt.Sprintf("%s/messages/%s/%s", c.base, self, partner)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Partner fetches one user profile. The service wraps the user in a data
// envelope.
func (c *Client) Partner(ctx context.Context, id domain.UserID) (*domain.User, error) {
	var envelope struct {
		Data *domain.User `json:"data"`
	}
	url := fmt.Sprintf("%s/users/%s", c.base, id)
	if err := c.getJSON(ctx, url, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data == nil {
		return nil, fmt.Errorf("user %s: empty response", id)
	}
	return envelope.Data, nil
}

// Users fetches the directory listing.
func (c *Client) Users(ctx context.Context) ([]domain.User, error) {
	var envelope struct {
		Data struct {
			Result []domain.User `json:"result"`
		} `json:"data"`
	}
	if err := c.getJSON(ctx, c.base+"/users", &envelope); err != nil {
		return nil, err
	}
	return envelope.Data.Result, nil
}

// Notification is one stored cross-view alert.
type Notification struct {
	ID        string        `json:"id"`
	SenderID  domain.UserID `json:"senderId"`
	Message   string        `json:"message"`
	CreatedAt time.Time     `json:"createdAt"`
}

// Notifications fetches the alert backlog for user.
func (c *Client) Notifications(ctx context.Context, user domain.UserID) ([]Notification, error) {
	var out []Notification
	url := fmt.Sprintf("%s/notifications/%s", c.base, user)
	if err := c.getJSON(ctx, url, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Upload posts the content as multipart form data and returns the stored
// URL and filename. Failures map to domain.ErrUploadFailure.
func (c *Client) Upload(ctx context.Context, r io.Reader, fileName string) (string, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("file", fileName)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}
	if err := w.Close(); err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.uploadURL, &body)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	resp, err := c.http.Do(req)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", "", fmt.Errorf("%w: status %d", domain.ErrUploadFailure, resp.StatusCode)
	}

	var result struct {
		URL      string `json:"url"`
		FileName string `json:"fileName"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", "", fmt.Errorf("%w: %w", domain.ErrUploadFailure, err)
	}
	if result.FileName == "" {
		result.FileName = fileName
	}
	log.Info().Str("module", "store").Str("file", result.FileName).Msg("upload complete")
	return result.URL, result.FileName, nil
}

func (c *Client) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("get %s: status %d", url, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("get %s: decode: %w", url, err)
	}
	return nil
}
