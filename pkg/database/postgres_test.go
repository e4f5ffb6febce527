package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/yakhtimoon-console/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5432, User: "console", Password: "s3cret", Name: "audit"}
	assert.Equal(t, "host=db port=5432 user=console password=s3cret dbname=audit sslmode=disable application_name=yakhtimoon-console", DSN(cfg))

	cfg.Password = "it's here"
	cfg.SSLMode = "require"
	assert.Equal(t, `host=db port=5432 user=console password='it\'s here' dbname=audit sslmode=require application_name=yakhtimoon-console`, DSN(cfg))

	cfg.Password = ""
	assert.Contains(t, DSN(cfg), "password='' ")
}
