package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseJWKSEndpoints(t *testing.T) {
	endpoints := parseJWKSEndpoints("https://idp.example.com=https://idp.example.com/jwks.json, https://other.example.com = https://other.example.com/keys")
	assert.Len(t, endpoints, 2)
	assert.Equal(t, "https://idp.example.com/jwks.json", endpoints["https://idp.example.com"])
	assert.Equal(t, "https://other.example.com/keys", endpoints["https://other.example.com"])
}

func TestParseJWKSEndpoints_Empty(t *testing.T) {
	assert.Empty(t, parseJWKSEndpoints(""))
}

func TestParseJWKSEndpoints_MalformedPairsSkipped(t *testing.T) {
	endpoints := parseJWKSEndpoints("justanissuer,a=b")
	assert.Len(t, endpoints, 1)
	assert.Equal(t, "b", endpoints["a"])
}

func TestConnectionString(t *testing.T) {
	cfg := &DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "aqua",
		Password: "s3cret",
		Database: "aqua_sub000",
		SSLMode:  "require",
	}
	assert.Equal(t,
		"host=db.internal port=5433 user=aqua password=s3cret dbname=aqua_sub000 sslmode=require",
		cfg.ConnectionString())
}

func TestEmailConfigEnabled(t *testing.T) {
	assert.False(t, (&EmailConfig{}).Enabled())
	assert.True(t, (&EmailConfig{APIKey: "SG.x"}).Enabled())
}
