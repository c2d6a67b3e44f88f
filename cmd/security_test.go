package cmd

import (
	"net/http"
	"testing"
	"time"

	"github.com/spf13/viper"

	"evalgo.org/contentupgrade/auth"
	"evalgo.org/contentupgrade/internal/config"
)

const (
	testAPIKey    = "test-api-key-1234567890"
	testJWTSecret = "test-jwt-secret-0123456789abcdef0123"
)

// TestEndpointSecurity verifies that all sensitive endpoints require proper authentication
func TestEndpointSecurity(t *testing.T) {
	hash, err := auth.HashAPIKey(testAPIKey)
	if err != nil {
		t.Fatalf("Failed to hash API key: %v", err)
	}

	adminToken, err := auth.GenerateToken("ops", auth.RoleAdmin, auth.DefaultIssuer, testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	upgraderToken, err := auth.GenerateToken("ci", auth.RoleUpgrader, auth.DefaultIssuer, testJWTSecret, time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}
	expiredToken, err := auth.GenerateToken("ci", auth.RoleUpgrader, auth.DefaultIssuer, testJWTSecret, -time.Hour)
	if err != nil {
		t.Fatalf("Failed to generate token: %v", err)
	}

	modes := map[string]func(v *viper.Viper){
		"apikey": func(v *viper.Viper) {
			v.Set("auth.mode", config.AuthAPIKey)
			v.Set("auth.api_key", testAPIKey)
		},
		"apikey-hash": func(v *viper.Viper) {
			v.Set("auth.mode", config.AuthAPIKey)
			v.Set("auth.api_key_hash", hash)
		},
		"jwt": func(v *viper.Viper) {
			v.Set("auth.mode", config.AuthJWT)
			v.Set("auth.jwt_secret", testJWTSecret)
		},
		"none": nil,
	}

	tests := []struct {
		name           string
		mode           string
		method         string
		path           string
		headers        map[string]string
		expectedStatus int
		description    string
	}{
		// Public endpoints - should be accessible
		{
			name:           "Health check is public",
			mode:           "apikey",
			method:         http.MethodGet,
			path:           "/health",
			expectedStatus: http.StatusOK,
			description:    "Health endpoint should be publicly accessible",
		},
		{
			name:           "Metrics are public",
			mode:           "jwt",
			method:         http.MethodGet,
			path:           "/metrics",
			expectedStatus: http.StatusOK,
			description:    "Metrics endpoint should be scrapeable without credentials",
		},

		// API key mode
		{
			name:           "API endpoint without API key is blocked",
			mode:           "apikey",
			method:         http.MethodPost,
			path:           "/v1/api/action",
			expectedStatus: http.StatusUnauthorized,
			description:    "API endpoint should require API key",
		},
		{
			name:           "API endpoint with invalid API key is blocked",
			mode:           "apikey",
			method:         http.MethodPost,
			path:           "/v1/api/action",
			headers:        map[string]string{"x-api-key": "invalid-key"},
			expectedStatus: http.StatusUnauthorized,
			description:    "API endpoint should reject invalid API keys",
		},
		{
			name:           "API endpoint with valid API key is allowed",
			mode:           "apikey",
			method:         http.MethodPost,
			path:           "/v1/api/action",
			headers:        map[string]string{"x-api-key": testAPIKey, "Content-Type": "application/json"},
			expectedStatus: http.StatusBadRequest, // Will fail validation but auth passed
			description:    "API endpoint should accept valid API keys",
		},
		{
			name:           "Hashed API key is accepted",
			mode:           "apikey-hash",
			method:         http.MethodGet,
			path:           "/v1/api/content-types",
			headers:        map[string]string{"x-api-key": testAPIKey},
			expectedStatus: http.StatusOK,
			description:    "A key matching auth.api_key_hash should pass",
		},
		{
			name:           "Journal requires API key",
			mode:           "apikey",
			method:         http.MethodGet,
			path:           "/v1/api/journal/active",
			expectedStatus: http.StatusUnauthorized,
			description:    "Journal endpoints should require API key",
		},
		{
			name:           "Bearer token is ignored in API key mode",
			mode:           "apikey",
			method:         http.MethodGet,
			path:           "/v1/api/content-types",
			headers:        map[string]string{"Authorization": "Bearer " + adminToken},
			expectedStatus: http.StatusUnauthorized,
			description:    "Only x-api-key authenticates in API key mode",
		},

		// JWT mode
		{
			name:           "Missing bearer token is blocked",
			mode:           "jwt",
			method:         http.MethodGet,
			path:           "/v1/api/plan?contentType=H5P.InteractiveBook&from=1.5",
			expectedStatus: http.StatusUnauthorized,
			description:    "JWT mode should require a bearer token",
		},
		{
			name:           "Valid bearer token is allowed",
			mode:           "jwt",
			method:         http.MethodGet,
			path:           "/v1/api/plan?contentType=H5P.InteractiveBook&from=1.5",
			headers:        map[string]string{"Authorization": "Bearer " + upgraderToken},
			expectedStatus: http.StatusOK,
			description:    "JWT mode should accept valid tokens",
		},
		{
			name:           "Expired bearer token is blocked",
			mode:           "jwt",
			method:         http.MethodGet,
			path:           "/v1/api/content-types",
			headers:        map[string]string{"Authorization": "Bearer " + expiredToken},
			expectedStatus: http.StatusUnauthorized,
			description:    "JWT mode should reject expired tokens",
		},
		{
			name:           "Token without bearer prefix is blocked",
			mode:           "jwt",
			method:         http.MethodGet,
			path:           "/v1/api/content-types",
			headers:        map[string]string{"Authorization": upgraderToken},
			expectedStatus: http.StatusUnauthorized,
			description:    "The Authorization header must use the Bearer scheme",
		},
		{
			name:           "Rotation requires admin role",
			mode:           "jwt",
			method:         http.MethodPost,
			path:           "/v1/api/journal/rotate",
			headers:        map[string]string{"Authorization": "Bearer " + upgraderToken},
			expectedStatus: http.StatusForbidden,
			description:    "Journal rotation should be admin only",
		},
		{
			name:           "Admin may rotate",
			mode:           "jwt",
			method:         http.MethodPost,
			path:           "/v1/api/journal/rotate",
			headers:        map[string]string{"Authorization": "Bearer " + adminToken},
			expectedStatus: http.StatusOK,
			description:    "Admins should be able to rotate the journal",
		},

		// No authentication
		{
			name:           "No auth mode allows API access",
			mode:           "none",
			method:         http.MethodGet,
			path:           "/v1/api/content-types",
			expectedStatus: http.StatusOK,
			description:    "auth.mode none should not require credentials",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, e := newTestServer(t, testConfig(t, modes[tt.mode]))

			rec := doRequest(e, tt.method, tt.path, "", tt.headers)
			if rec.Code != tt.expectedStatus {
				t.Errorf("%s: expected status %d, got %d (%s)", tt.description, tt.expectedStatus, rec.Code, rec.Body.String())
			}
		})
	}
}
