package config

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gsheet-api/internal/rangemap"
	"gsheet-api/internal/util"
)

type Config struct {
	// Service account key, JSON.
	GoogleCredentials []byte
	ServiceAccount    string // client_email of the key, for logs

	HTTPAddr         string
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	BodyLimit        int64

	PrivateAPIKey      string
	PrivateAPIKeyQuery string

	MaxColumns     int
	DefaultPerPage int
	SkipBlankRows  bool

	Production bool
	LogLevel   string
	LogFormat  string

	UpstreamBreaker        bool
	UpstreamBreakerTimeout time.Duration

	TelegramToken       string
	TelegramAlertChatID int64
}

func FromEnv() (Config, error) {
	return Load(os.Getenv)
}

// Load builds a Config from getenv. It fails when credentials are absent
// or cannot be parsed as a service account key.
func Load(getenv func(string) string) (Config, error) {
	env := func(k string) string { return strings.TrimSpace(getenv(k)) }

	var c Config
	var err error

	c.GoogleCredentials, err = loadCredentials(env("GOOGLE_CREDENTIALS"), env("GOOGLE_SERVICE_ACCOUNT_JSON"))
	if err != nil {
		return c, err
	}
	if c.ServiceAccount, err = checkServiceAccount(c.GoogleCredentials); err != nil {
		return c, err
	}

	c.HTTPAddr = env("HTTP_ADDR")
	if c.HTTPAddr == "" {
		port := env("PORT")
		if port == "" {
			port = "3000"
		}
		c.HTTPAddr = ":" + port
	}
	if c.HTTPReadTimeout, err = durationOr(env("HTTP_READ_TIMEOUT"), 30*time.Second); err != nil {
		return c, fmt.Errorf("HTTP_READ_TIMEOUT: %w", err)
	}
	if c.HTTPWriteTimeout, err = durationOr(env("HTTP_WRITE_TIMEOUT"), 2*time.Minute); err != nil {
		return c, fmt.Errorf("HTTP_WRITE_TIMEOUT: %w", err)
	}
	bodyLimit, err := intOr(env("BODY_LIMIT_BYTES"), 10<<20)
	if err != nil || bodyLimit < 1 {
		return c, fmt.Errorf("BODY_LIMIT_BYTES: invalid value %q", env("BODY_LIMIT_BYTES"))
	}
	c.BodyLimit = int64(bodyLimit)

	c.PrivateAPIKey = env("PRIVATE_API_KEY")
	c.PrivateAPIKeyQuery = env("PRIVATE_API_KEY_QUERY")

	if c.MaxColumns, err = intOr(env("MAX_COLUMN_COUNT"), rangemap.DefaultMaxColumns); err != nil || c.MaxColumns < 1 {
		return c, fmt.Errorf("MAX_COLUMN_COUNT: invalid value %q", env("MAX_COLUMN_COUNT"))
	}
	if c.DefaultPerPage, err = intOr(env("DEFAULT_PER_PAGE"), rangemap.DefaultPerPage); err != nil || c.DefaultPerPage < 1 {
		return c, fmt.Errorf("DEFAULT_PER_PAGE: invalid value %q", env("DEFAULT_PER_PAGE"))
	}
	c.SkipBlankRows = util.ParseBool(env("SKIP_BLANK_ROWS"), false)

	c.Production = strings.EqualFold(env("APP_ENV"), "production")
	c.LogLevel = strings.ToLower(env("LOG_LEVEL"))
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	c.LogFormat = strings.ToLower(env("LOG_FORMAT"))
	if c.LogFormat == "" {
		c.LogFormat = "json"
	}

	c.UpstreamBreaker = util.ParseBool(env("UPSTREAM_BREAKER"), true)
	if c.UpstreamBreakerTimeout, err = durationOr(env("UPSTREAM_BREAKER_TIMEOUT"), 30*time.Second); err != nil {
		return c, fmt.Errorf("UPSTREAM_BREAKER_TIMEOUT: %w", err)
	}

	c.TelegramToken = env("TELEGRAM_BOT_TOKEN")
	if raw := env("TELEGRAM_ALERT_CHAT_ID"); raw != "" {
		if c.TelegramAlertChatID, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return c, fmt.Errorf("TELEGRAM_ALERT_CHAT_ID: %w", err)
		}
	}
	if c.TelegramToken != "" && c.TelegramAlertChatID == 0 {
		return c, fmt.Errorf("TELEGRAM_ALERT_CHAT_ID is empty while TELEGRAM_BOT_TOKEN is set")
	}

	return c, nil
}

// loadCredentials takes the key from GOOGLE_CREDENTIALS (base64 encoded, or
// raw JSON) or from the file named by GOOGLE_SERVICE_ACCOUNT_JSON.
func loadCredentials(encoded, path string) ([]byte, error) {
	switch {
	case encoded != "":
		if strings.HasPrefix(encoded, "{") {
			return []byte(encoded), nil
		}
		b, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			if b, err = base64.RawStdEncoding.DecodeString(encoded); err != nil {
				return nil, fmt.Errorf("GOOGLE_CREDENTIALS is not valid base64: %w", err)
			}
		}
		return b, nil
	case path != "":
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("service account json: %w", err)
		}
		return b, nil
	}
	return nil, fmt.Errorf("GOOGLE_CREDENTIALS is empty")
}

func checkServiceAccount(b []byte) (string, error) {
	var key struct {
		ClientEmail string `json:"client_email"`
		PrivateKey  string `json:"private_key"`
	}
	if err := json.Unmarshal(b, &key); err != nil {
		return "", fmt.Errorf("service account json: %w", err)
	}
	if key.ClientEmail == "" {
		return "", fmt.Errorf("service account json: client_email is empty")
	}
	if key.PrivateKey == "" {
		return "", fmt.Errorf("service account json: private_key is empty")
	}
	return key.ClientEmail, nil
}

func intOr(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.Atoi(raw)
}

func durationOr(raw string, def time.Duration) (time.Duration, error) {
	if raw == "" {
		return def, nil
	}
	return time.ParseDuration(raw)
}
