package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultTimezone   = "America/New_York"
	defaultListingURL = "https://www1.nyc.gov/html/dot/html/about/current-projects.shtml"
	defaultBucket     = "nyc-dot-current-projects-bot-mastodon-staging"
	defaultCeiling    = 15

	configPathEnv = "PLANSBOT_CONFIG"
	bucketEnv     = "BUCKET_NAME"
	sentryDSNEnv  = "SENTRY_DSN"

	twitterConsumerKeyEnv    = "TWITTER_CONSUMER_KEY"
	twitterConsumerSecretEnv = "TWITTER_CONSUMER_SECRET"
	twitterAccessTokenEnv    = "TWITTER_ACCESS_TOKEN"
	twitterAccessSecretEnv   = "TWITTER_ACCESS_TOKEN_SECRET"
	blueskyHandleEnv         = "BLUESKY_USERNAME"
	blueskyPasswordEnv       = "BLUESKY_APP_PASSWORD"
	mastodonServerEnv        = "MASTODON_API_BASE_URL"
	mastodonTokenEnv         = "MASTODON_ACCESS_TOKEN"
)

// Config holds high-level settings required across the application.
type Config struct {
	Listing   ListingConfig   `yaml:"listing"`
	Storage   StorageConfig   `yaml:"storage"`
	Detector  DetectorConfig  `yaml:"detector"`
	Channels  ChannelsConfig  `yaml:"channels"`
	Feed      FeedConfig      `yaml:"feed"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Sentry    SentryConfig    `yaml:"sentry"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// ListingConfig locates the page being watched.
type ListingConfig struct {
	URL string `yaml:"url"`
}

// StorageConfig names the bucket backing the remote state store.
type StorageConfig struct {
	Bucket string `yaml:"bucket"`
}

// DetectorConfig bounds the blast radius of a parsing regression.
type DetectorConfig struct {
	// MaxNewItems aborts the run when the delta grows past it. High-volume
	// deployments raise it well beyond the default.
	MaxNewItems int `yaml:"maxNewItems"`
}

// ChannelsConfig carries credentials for every supported channel; the one
// actually used is selected by precedence at startup.
type ChannelsConfig struct {
	Twitter  TwitterConfig  `yaml:"twitter"`
	Bluesky  BlueskyConfig  `yaml:"bluesky"`
	Mastodon MastodonConfig `yaml:"mastodon"`
}

// TwitterConfig wires OAuth1 user-context credentials.
type TwitterConfig struct {
	ConsumerKey    string `yaml:"consumerKey"`
	ConsumerSecret string `yaml:"consumerSecret"`
	AccessToken    string `yaml:"accessToken"`
	AccessSecret   string `yaml:"accessSecret"`
}

// BlueskyConfig wires an app-password identity.
type BlueskyConfig struct {
	Handle      string `yaml:"handle"`
	AppPassword string `yaml:"appPassword"`
	Host        string `yaml:"host"`
}

// MastodonConfig wires an access token for a specific instance.
type MastodonConfig struct {
	ServerURL   string `yaml:"serverUrl"`
	AccessToken string `yaml:"accessToken"`
}

// FeedConfig shapes the rendered syndication document.
type FeedConfig struct {
	Title       string         `yaml:"title"`
	Description string         `yaml:"description"`
	Timezone    string         `yaml:"timezone"`
	location    *time.Location `yaml:"-"`
}

// Location resolves the feed timezone string to a time.Location.
func (f FeedConfig) Location() *time.Location {
	if f.location != nil {
		return f.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SchedulerConfig defines the optional in-process cron loop.
type SchedulerConfig struct {
	CronExpression string         `yaml:"cronExpression"`
	Timezone       string         `yaml:"timezone"`
	location       *time.Location `yaml:"-"`
}

// Location resolves the scheduler timezone string to a time.Location.
func (s SchedulerConfig) Location() *time.Location {
	if s.location != nil {
		return s.location
	}
	loc, _ := time.LoadLocation(defaultTimezone)
	return loc
}

// SentryConfig enables error telemetry when a DSN is present.
type SentryConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig tunes log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads YAML configuration (if present) and applies environment
// overrides. An empty path falls back to the environment-named file, then
// defaults.
func Load(path string) Config {
	cfg := defaultConfig()

	if path == "" {
		path = os.Getenv(configPathEnv)
	}
	if path != "" {
		if raw, err := os.ReadFile(path); err != nil {
			log.Printf("config: cannot read %s: %v (falling back to defaults)", path, err)
		} else {
			var fileCfg Config
			if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
				log.Printf("config: cannot parse %s: %v (falling back to defaults)", path, err)
			} else {
				cfg = mergeConfig(cfg, fileCfg)
			}
		}
	}

	cfg.applyEnvOverrides()
	cfg.bindTimezones()

	return cfg
}

func (c *Config) applyEnvOverrides() {
	if v := os.Getenv(bucketEnv); v != "" {
		c.Storage.Bucket = v
	}
	if v := os.Getenv(sentryDSNEnv); v != "" {
		c.Sentry.DSN = v
	}

	if v := os.Getenv(twitterConsumerKeyEnv); v != "" {
		c.Channels.Twitter.ConsumerKey = v
	}
	if v := os.Getenv(twitterConsumerSecretEnv); v != "" {
		c.Channels.Twitter.ConsumerSecret = v
	}
	if v := os.Getenv(twitterAccessTokenEnv); v != "" {
		c.Channels.Twitter.AccessToken = v
	}
	if v := os.Getenv(twitterAccessSecretEnv); v != "" {
		c.Channels.Twitter.AccessSecret = v
	}

	if v := os.Getenv(blueskyHandleEnv); v != "" {
		c.Channels.Bluesky.Handle = v
	}
	if v := os.Getenv(blueskyPasswordEnv); v != "" {
		c.Channels.Bluesky.AppPassword = v
	}

	if v := os.Getenv(mastodonServerEnv); v != "" {
		c.Channels.Mastodon.ServerURL = v
	}
	if v := os.Getenv(mastodonTokenEnv); v != "" {
		c.Channels.Mastodon.AccessToken = v
	}
}

func (c *Config) bindTimezones() {
	c.Feed.location = resolveLocation(c.Feed.Timezone)
	c.Scheduler.location = resolveLocation(c.Scheduler.Timezone)
}

func resolveLocation(tz string) *time.Location {
	if tz == "" {
		tz = defaultTimezone
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		log.Printf("config: unknown timezone %s, reverting to %s", tz, defaultTimezone)
		loc, _ = time.LoadLocation(defaultTimezone)
	}
	return loc
}

func mergeConfig(base, override Config) Config {
	if override.Listing.URL != "" {
		base.Listing = override.Listing
	}
	if override.Storage.Bucket != "" {
		base.Storage = override.Storage
	}
	if override.Detector.MaxNewItems > 0 {
		base.Detector = override.Detector
	}

	if override.Channels.Twitter.ConsumerKey != "" {
		base.Channels.Twitter = override.Channels.Twitter
	}
	if override.Channels.Bluesky.Handle != "" {
		base.Channels.Bluesky = override.Channels.Bluesky
	}
	if override.Channels.Mastodon.ServerURL != "" {
		base.Channels.Mastodon = override.Channels.Mastodon
	}

	if override.Feed.Title != "" {
		base.Feed.Title = override.Feed.Title
	}
	if override.Feed.Description != "" {
		base.Feed.Description = override.Feed.Description
	}
	if override.Feed.Timezone != "" {
		base.Feed.Timezone = override.Feed.Timezone
	}

	if override.Scheduler.CronExpression != "" {
		base.Scheduler.CronExpression = override.Scheduler.CronExpression
	}
	if override.Scheduler.Timezone != "" {
		base.Scheduler.Timezone = override.Scheduler.Timezone
	}

	if override.Sentry.DSN != "" {
		base.Sentry = override.Sentry
	}
	if override.Logging.Level != "" {
		base.Logging = override.Logging
	}

	return base
}

func defaultConfig() Config {
	return Config{
		Listing:  ListingConfig{URL: defaultListingURL},
		Storage:  StorageConfig{Bucket: defaultBucket},
		Detector: DetectorConfig{MaxNewItems: defaultCeiling},
		Channels: ChannelsConfig{
			Bluesky: BlueskyConfig{Host: "https://bsky.social"},
		},
		Feed: FeedConfig{
			Title:       "DOT Current Projects",
			Description: "Newly published project documents from the DOT current projects page.",
			Timezone:    defaultTimezone,
		},
		Scheduler: SchedulerConfig{CronExpression: "0 * * * *", Timezone: defaultTimezone},
		Logging:   LoggingConfig{Level: "info"},
	}
}
