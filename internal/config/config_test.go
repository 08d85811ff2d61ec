package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseOrigins(t *testing.T) {
	assert.Nil(t, parseOrigins(""))
	assert.Equal(t,
		[]string{"https://crackcu.com", "http://localhost:5173"},
		parseOrigins(" https://crackcu.com, ,http://localhost:5173 "),
	)
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("SENDGRID_API_KEY", "")
	t.Setenv("FRONTEND_BASE_URL", "https://crackcu.com/")
	t.Setenv("NOTIFY_MAX_ATTEMPTS", "not-a-number")
	t.Setenv("MAIL_FROM_NAME", "")
	t.Setenv("COMPRESS_RESPONSES", "off")
	t.Setenv("CATALOGUE_CACHE_SECONDS", "")

	cfg := Load()

	assert.False(t, cfg.MailEnabled())
	assert.Equal(t, "https://crackcu.com", cfg.FrontendBaseURL)
	assert.Equal(t, 3, cfg.NotifyMaxAttempts)
	assert.Equal(t, cfg.AppName, cfg.MailFromName)
	assert.True(t, cfg.CompressResponses, "unparsable bool keeps the default")
	assert.Equal(t, time.Minute, cfg.CatalogueCacheTTL)
}

func TestSubmissionTokenKey(t *testing.T) {
	assert.Equal(t, "candidate:7:exam:3:submission:abc", CacheKey.SubmissionTokenKey(3, 7, "abc"))
}

func TestPublicCatalogueKey(t *testing.T) {
	assert.Equal(t, "catalogue:public:20", CacheKey.PublicCatalogueKey(20))
}
