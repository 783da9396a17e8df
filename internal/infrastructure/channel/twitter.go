package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/dghubble/oauth1"

	"plansbot/internal/config"
	"plansbot/internal/ports"
)

// Twitter counts any link as 23 characters (t.co wrapping) against a 280
// character tweet budget.
const (
	twitterBudget      = 280
	twitterLinkReserve = 23

	twitterUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	twitterTweetURL  = "https://api.twitter.com/2/tweets"
)

// Twitter posts tweets through the v2 API with media uploaded through the
// v1.1 endpoint, both under OAuth1 user context.
type Twitter struct {
	client    *http.Client
	uploadURL string
	tweetURL  string
}

var _ ports.Channel = (*Twitter)(nil)

// NewTwitter builds an OAuth1-signing HTTP client from user-context
// credentials.
func NewTwitter(cfg config.TwitterConfig) *Twitter {
	oauthCfg := oauth1.NewConfig(cfg.ConsumerKey, cfg.ConsumerSecret)
	token := oauth1.NewToken(cfg.AccessToken, cfg.AccessSecret)

	client := oauthCfg.Client(oauth1.NoContext, token)
	client.Timeout = 60 * time.Second

	return &Twitter{
		client:    client,
		uploadURL: twitterUploadURL,
		tweetURL:  twitterTweetURL,
	}
}

func (t *Twitter) Name() string       { return "twitter" }
func (t *Twitter) Budget() (int, int) { return twitterBudget, twitterLinkReserve }
func (t *Twitter) AcceptsMedia() bool { return true }

// Post uploads the media, then creates a tweet of "<text> <link>".
func (t *Twitter) Post(ctx context.Context, text, link string, media *ports.Media) error {
	var mediaIDs []string
	if media != nil {
		id, err := t.uploadMedia(ctx, media)
		if err != nil {
			return fmt.Errorf("twitter media upload: %w", err)
		}
		mediaIDs = append(mediaIDs, id)
	}

	payload := map[string]any{"text": text + " " + link}
	if len(mediaIDs) > 0 {
		payload["media"] = map[string]any{"media_ids": mediaIDs}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode tweet: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.tweetURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build tweet request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("create tweet: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("create tweet: %s: %s", resp.Status, readErrorBody(resp.Body))
	}
	return nil
}

func (t *Twitter) uploadMedia(ctx context.Context, media *ports.Media) (string, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("media", "page.jpg")
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(media.Data); err != nil {
		return "", fmt.Errorf("write form: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.uploadURL, &buf)
	if err != nil {
		return "", fmt.Errorf("build upload request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("upload request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("upload: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var uploaded struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return "", fmt.Errorf("decode upload response: %w", err)
	}
	if uploaded.MediaIDString == "" {
		return "", fmt.Errorf("upload response missing media id")
	}
	return uploaded.MediaIDString, nil
}

func readErrorBody(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 1024))
	if err != nil {
		return ""
	}
	return string(raw)
}
