package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm/logger"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("rfitrack")
	require.NoError(t, err)

	assert.Equal(t, "rfitrack", cfg.ServiceName)
	assert.Equal(t, "postgres", cfg.DB.Driver)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, int64(7), cfg.Billing.TrialDays)
	assert.False(t, cfg.Billing.EnforceEventOrder)
	assert.Equal(t, 6, cfg.Auth.OTPLength)
	assert.Equal(t, 10*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, 72*time.Hour, cfg.RFI.DueSoonWindow)
	assert.Equal(t, "log", cfg.Mail.Driver)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_SQLITE_PATH", "file::memory:")
	t.Setenv("APP_URL", "https://rfi.example.com/")
	t.Setenv("BILLING_ENFORCE_EVENT_ORDER", "true")
	t.Setenv("AUTH_OTP_TTL", "5m")
	t.Setenv("DB_LOG_LEVEL", "silent")

	cfg, err := Load("rfitrack")
	require.NoError(t, err)

	assert.Equal(t, "file::memory:", cfg.DB.GetDSN())
	assert.Equal(t, "https://rfi.example.com", cfg.Server.AppURL)
	assert.True(t, cfg.Billing.EnforceEventOrder)
	assert.Equal(t, 5*time.Minute, cfg.Auth.OTPTTL)
	assert.Equal(t, logger.Silent, cfg.DB.LogLevel)
}

func TestLoad_ProductionRequiresSigningKey(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "defaultsecretkey")

	_, err := Load("rfitrack")
	require.Error(t, err)
}

func TestLoad_ProductionRejectsLogMailer(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("JWT_SIGNING_KEY", "a-real-key")

	_, err := Load("rfitrack")
	require.ErrorContains(t, err, "MAIL_DRIVER")

	t.Setenv("MAIL_DRIVER", "smtp")
	_, err = Load("rfitrack")
	require.ErrorContains(t, err, "SMTP_HOST")

	t.Setenv("SMTP_HOST", "smtp.example.com")
	cfg, err := Load("rfitrack")
	require.NoError(t, err)
	assert.Equal(t, "smtp", cfg.Mail.Driver)
	assert.Equal(t, "587", cfg.Mail.SMTPPort)
}

func TestLoad_UnknownMailDriver(t *testing.T) {
	t.Setenv("MAIL_DRIVER", "pigeon")

	_, err := Load("rfitrack")
	require.Error(t, err)
}

func TestGetDSN_Postgres(t *testing.T) {
	c := DBConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "rfi", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=rfi sslmode=disable", c.GetDSN())
}
