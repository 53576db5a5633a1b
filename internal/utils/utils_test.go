package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUserAgent(t *testing.T) {
	tests := []struct {
		name       string
		ua         string
		deviceType string
		browser    string
	}{
		{
			name:       "desktop chrome",
			ua:         "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.6099.109 Safari/537.36",
			deviceType: "desktop",
			browser:    "Chrome 120",
		},
		{
			name:       "android phone",
			ua:         "Mozilla/5.0 (Linux; Android 13; Pixel 7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Mobile Safari/537.36",
			deviceType: "mobile",
			browser:    "Chrome 120",
		},
		{
			name:       "empty",
			ua:         "",
			deviceType: "unknown",
			browser:    "Unknown",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			info := ParseUserAgent(tt.ua)
			assert.Equal(t, tt.deviceType, info.DeviceType)
			assert.Equal(t, tt.browser, info.Browser)
		})
	}
}

func TestGetRealIP(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		headers map[string]string
		want    string
	}{
		{"real ip header", map[string]string{"X-Real-IP": "41.58.10.2"}, "41.58.10.2"},
		{"first public forwarded", map[string]string{"X-Forwarded-For": "10.0.0.5, 102.89.3.4, 41.58.10.2"}, "102.89.3.4"},
		{"private real ip falls through", map[string]string{"X-Real-IP": "192.168.1.9", "X-Forwarded-For": "197.210.1.1"}, "197.210.1.1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			for k, v := range tt.headers {
				c.Request.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, GetRealIP(c))
		})
	}
}

func TestGenerateSecrets(t *testing.T) {
	secrets, err := GenerateSecrets(ServerSecrets)
	require.NoError(t, err)
	require.Len(t, secrets, 2)

	assert.Equal(t, "JWT_SECRET", secrets[0].EnvVar)
	assert.Len(t, secrets[0].Value, 64)
	assert.Equal(t, "PAYMENT_WEBHOOK_SECRET", secrets[1].EnvVar)
	assert.Len(t, secrets[1].Value, 2*128)
	assert.NotEqual(t, secrets[0].Value, secrets[1].Value[:64])
}

func TestGenerateSecret_InvalidSize(t *testing.T) {
	_, err := GenerateSecret(0)
	assert.Error(t, err)

	_, err = GenerateSecrets([]SecretSpec{{EnvVar: "BROKEN", Bytes: -1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BROKEN")
}
