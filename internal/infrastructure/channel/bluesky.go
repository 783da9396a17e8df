package channel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"plansbot/internal/config"
	"plansbot/internal/ports"
)

// Bluesky posts carry the link as a facet over the label, so no characters
// are reserved beyond the 300 grapheme budget.
const (
	blueskyBudget      = 300
	blueskyLinkReserve = 0
)

// Bluesky posts via three XRPC calls: createSession once, then uploadBlob
// and createRecord per post.
type Bluesky struct {
	client      *http.Client
	host        string
	handle      string
	appPassword string

	accessJwt string
	did       string
}

var _ ports.Channel = (*Bluesky)(nil)

// NewBluesky wires an app-password identity against the configured PDS host.
func NewBluesky(cfg config.BlueskyConfig) *Bluesky {
	host := cfg.Host
	if host == "" {
		host = "https://bsky.social"
	}
	return &Bluesky{
		client:      &http.Client{Timeout: 60 * time.Second},
		host:        host,
		handle:      cfg.Handle,
		appPassword: cfg.AppPassword,
	}
}

func (b *Bluesky) Name() string       { return "bluesky" }
func (b *Bluesky) Budget() (int, int) { return blueskyBudget, blueskyLinkReserve }
func (b *Bluesky) AcceptsMedia() bool { return true }

// Post publishes a record whose full text is a link facet pointing at the
// document, with the preview image embedded.
func (b *Bluesky) Post(ctx context.Context, text, link string, media *ports.Media) error {
	if b.accessJwt == "" {
		if err := b.createSession(ctx); err != nil {
			return fmt.Errorf("bluesky session: %w", err)
		}
	}

	record := map[string]any{
		"$type":     "app.bsky.feed.post",
		"text":      text,
		"createdAt": time.Now().UTC().Format(time.RFC3339),
		"facets": []map[string]any{{
			"index": map[string]int{
				"byteStart": 0,
				"byteEnd":   len(text),
			},
			"features": []map[string]any{{
				"$type": "app.bsky.richtext.facet#link",
				"uri":   link,
			}},
		}},
	}

	if media != nil {
		blob, err := b.uploadBlob(ctx, media)
		if err != nil {
			return fmt.Errorf("bluesky blob upload: %w", err)
		}
		record["embed"] = map[string]any{
			"$type": "app.bsky.embed.images",
			"images": []map[string]any{{
				"alt":   mediaAlt,
				"image": blob,
			}},
		}
	}

	body := map[string]any{
		"repo":       b.did,
		"collection": "app.bsky.feed.post",
		"record":     record,
	}
	return b.xrpcJSON(ctx, "com.atproto.repo.createRecord", body, nil)
}

func (b *Bluesky) createSession(ctx context.Context) error {
	var session struct {
		AccessJwt string `json:"accessJwt"`
		DID       string `json:"did"`
	}
	body := map[string]string{
		"identifier": b.handle,
		"password":   b.appPassword,
	}
	if err := b.xrpcJSON(ctx, "com.atproto.server.createSession", body, &session); err != nil {
		return err
	}
	if session.AccessJwt == "" || session.DID == "" {
		return fmt.Errorf("incomplete session response")
	}
	b.accessJwt = session.AccessJwt
	b.did = session.DID
	return nil
}

func (b *Bluesky) uploadBlob(ctx context.Context, media *ports.Media) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.host+"/xrpc/com.atproto.repo.uploadBlob", bytes.NewReader(media.Data))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", media.MimeType)
	req.Header.Set("Authorization", "Bearer "+b.accessJwt)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("upload: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("upload: %s: %s", resp.Status, readErrorBody(resp.Body))
	}

	var uploaded struct {
		Blob json.RawMessage `json:"blob"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("decode upload response: %w", err)
	}
	return uploaded.Blob, nil
}

func (b *Bluesky) xrpcJSON(ctx context.Context, method string, body, out any) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		b.host+"/xrpc/"+method, bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("build %s: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if b.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+b.accessJwt)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s: %s: %s", method, resp.Status, readErrorBody(resp.Body))
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	return nil
}
