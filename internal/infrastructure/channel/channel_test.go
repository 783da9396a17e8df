package channel

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"plansbot/internal/config"
	"plansbot/internal/ports"
)

func TestSelectPrecedence(t *testing.T) {
	t.Parallel()

	twitter := config.ChannelsConfig{
		Twitter: config.TwitterConfig{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as"},
		Bluesky: config.BlueskyConfig{Handle: "bot.example.org"},
	}
	if got := Select(twitter).Name(); got != "twitter" {
		t.Fatalf("twitter credentials must win, got %s", got)
	}

	bluesky := config.ChannelsConfig{
		Bluesky:  config.BlueskyConfig{Handle: "bot.example.org", AppPassword: "pw"},
		Mastodon: config.MastodonConfig{ServerURL: "https://mastodon.example.org"},
	}
	if got := Select(bluesky).Name(); got != "bluesky" {
		t.Fatalf("bluesky identity must beat mastodon, got %s", got)
	}

	if got := Select(config.ChannelsConfig{}).Name(); got != "mastodon" {
		t.Fatalf("mastodon is the default channel, got %s", got)
	}
}

func TestTwitterPostWithMedia(t *testing.T) {
	t.Parallel()

	var uploaded, tweeted bool
	var tweetBody map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/upload":
			uploaded = true
			if err := r.ParseMultipartForm(1 << 20); err != nil {
				t.Errorf("parse multipart: %v", err)
			}
			if _, _, err := r.FormFile("media"); err != nil {
				t.Errorf("missing media form file: %v", err)
			}
			_, _ = w.Write([]byte(`{"media_id_string":"42"}`))
		case "/tweets":
			tweeted = true
			if err := json.NewDecoder(r.Body).Decode(&tweetBody); err != nil {
				t.Errorf("decode tweet: %v", err)
			}
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"data":{"id":"1"}}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	tw := NewTwitter(config.TwitterConfig{ConsumerKey: "ck", ConsumerSecret: "cs", AccessToken: "at", AccessSecret: "as"})
	tw.client = server.Client()
	tw.uploadURL = server.URL + "/upload"
	tw.tweetURL = server.URL + "/tweets"

	media := &ports.Media{Data: []byte("jpeg"), MimeType: "image/jpeg"}
	if err := tw.Post(context.Background(), "Plan A", "https://example.org/a.pdf", media); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}

	if !uploaded || !tweeted {
		t.Fatalf("expected both upload and tweet calls (uploaded=%v tweeted=%v)", uploaded, tweeted)
	}
	if tweetBody["text"] != "Plan A https://example.org/a.pdf" {
		t.Fatalf("unexpected tweet text: %v", tweetBody["text"])
	}
	mediaField, ok := tweetBody["media"].(map[string]any)
	if !ok {
		t.Fatalf("expected media ids in tweet body: %v", tweetBody)
	}
	ids, _ := mediaField["media_ids"].([]any)
	if len(ids) != 1 || ids[0] != "42" {
		t.Fatalf("unexpected media ids: %v", ids)
	}
}

func TestBlueskyPostBuildsLinkFacet(t *testing.T) {
	t.Parallel()

	var record map[string]any

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "createSession"):
			_, _ = w.Write([]byte(`{"accessJwt":"jwt","did":"did:plc:abc"}`))
		case strings.HasSuffix(r.URL.Path, "uploadBlob"):
			if got := r.Header.Get("Authorization"); got != "Bearer jwt" {
				t.Errorf("unexpected auth header: %s", got)
			}
			_, _ = w.Write([]byte(`{"blob":{"$type":"blob","ref":{"$link":"bafy"},"mimeType":"image/jpeg","size":4}}`))
		case strings.HasSuffix(r.URL.Path, "createRecord"):
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode record: %v", err)
			}
			record, _ = body["record"].(map[string]any)
			if body["repo"] != "did:plc:abc" {
				t.Errorf("unexpected repo: %v", body["repo"])
			}
			_, _ = w.Write([]byte(`{"uri":"at://did:plc:abc/app.bsky.feed.post/1"}`))
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
		}
	}))
	defer server.Close()

	bs := NewBluesky(config.BlueskyConfig{Handle: "bot.example.org", AppPassword: "pw", Host: server.URL})
	bs.client = server.Client()

	media := &ports.Media{Data: []byte("jpeg"), MimeType: "image/jpeg"}
	if err := bs.Post(context.Background(), "Plan A", "https://example.org/a.pdf", media); err != nil {
		t.Fatalf("Post returned error: %v", err)
	}

	if record == nil {
		t.Fatalf("createRecord never called")
	}
	if record["text"] != "Plan A" {
		t.Fatalf("unexpected record text: %v", record["text"])
	}

	facets, _ := record["facets"].([]any)
	if len(facets) != 1 {
		t.Fatalf("expected one facet, got %v", record["facets"])
	}
	facet, _ := facets[0].(map[string]any)
	features, _ := facet["features"].([]any)
	feature, _ := features[0].(map[string]any)
	if feature["uri"] != "https://example.org/a.pdf" {
		t.Fatalf("facet must point at the document: %v", feature)
	}

	embed, _ := record["embed"].(map[string]any)
	if embed["$type"] != "app.bsky.embed.images" {
		t.Fatalf("expected image embed, got %v", record["embed"])
	}
}

func TestBlueskySessionReused(t *testing.T) {
	t.Parallel()

	var sessions int

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "createSession"):
			sessions++
			_, _ = w.Write([]byte(`{"accessJwt":"jwt","did":"did:plc:abc"}`))
		case strings.HasSuffix(r.URL.Path, "createRecord"):
			_, _ = w.Write([]byte(`{}`))
		}
	}))
	defer server.Close()

	bs := NewBluesky(config.BlueskyConfig{Handle: "bot.example.org", AppPassword: "pw", Host: server.URL})
	bs.client = server.Client()

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := bs.Post(ctx, "Plan", "https://example.org/a.pdf", nil); err != nil {
			t.Fatalf("Post %d returned error: %v", i, err)
		}
	}

	if sessions != 1 {
		t.Fatalf("expected a single session across posts, got %d", sessions)
	}
}
