package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_ShouldUseDefaults(t *testing.T) {
	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, 8080, config.Port)
	assert.Equal(t, 64, config.Width)
	assert.Equal(t, 75, config.Quality)
	assert.Equal(t, "d26xfdx1w8q2y3.cloudfront.net", config.CDNHost)
	assert.Equal(t, "http://127.0.0.1:8080", config.ServerURL)
	assert.Equal(t, "http://127.0.0.1:8080/_next/image", config.TransformEndpoint)
	assert.Equal(t, 10*time.Second, config.FetchTimeout)
	assert.Equal(t, originDriverCDN, config.OriginDriver)
}

func TestLoadConfig_ShouldReadEnvironment(t *testing.T) {
	t.Setenv("SERVER_URL", "http://storefront:3000")
	t.Setenv("PUBLIC_SERVER_URL", "https://shop.example.com")
	t.Setenv("IMGPROXY_WIDTH", "128")
	t.Setenv("IMGPROXY_FETCH_TIMEOUT", "3s")
	t.Setenv("IMGPROXY_ALLOWED_DOMAINS", "cdn.example.com,*.example.org")
	t.Setenv("IMGPROXY_FORCE_PNG_CONTENT_TYPE", "true")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://storefront:3000", config.ServerURL)
	assert.Equal(t, "https://shop.example.com", config.PublicServerURL)
	assert.Equal(t, "http://storefront:3000/_next/image", config.TransformEndpoint)
	assert.Equal(t, 128, config.Width)
	assert.Equal(t, 3*time.Second, config.FetchTimeout)
	assert.Equal(t, []string{"cdn.example.com", "*.example.org"}, config.AllowedDomains)
	assert.True(t, config.ForcePNGContentType)
}

func TestLoadConfig_ShouldKeepExplicitTransformEndpoint(t *testing.T) {
	t.Setenv("SERVER_URL", "http://storefront:3000/")
	t.Setenv("IMGPROXY_TRANSFORM_ENDPOINT", "http://images:9000/resize")

	config, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://images:9000/resize", config.TransformEndpoint)
}
