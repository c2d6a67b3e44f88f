package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/sirupsen/logrus"

	"evalgo.org/contentupgrade/internal/client"
	"evalgo.org/contentupgrade/internal/helpers"
)

// ServiceRegistration represents a service registration in the registry
type ServiceRegistration struct {
	Context    string                 `json:"@context"`
	Type       string                 `json:"@type"`
	Identifier string                 `json:"identifier"`
	Name       string                 `json:"name"`
	URL        string                 `json:"url"`
	Properties map[string]interface{} `json:"additionalProperty,omitempty"`
}

// registryClient announces this service to a service registry.
type registryClient struct {
	registryURL  string
	serviceURL   string
	identifier   string
	hostname     string
	capabilities []string
	clients      *client.Manager
	started      time.Time
	logger       logrus.FieldLogger
}

func newRegistryClient(registryURL, serviceURL string, capabilities []string, clients *client.Manager, logger logrus.FieldLogger) *registryClient {
	hostname := serviceHostname()
	return &registryClient{
		registryURL:  helpers.NormalizeURL(registryURL),
		serviceURL:   helpers.NormalizeURL(serviceURL),
		identifier:   fmt.Sprintf("contentupgrade-%s", hostname),
		hostname:     hostname,
		capabilities: capabilities,
		clients:      clients,
		started:      time.Now(),
		logger:       logger,
	}
}

// serviceHostname returns $HOSTNAME, the system hostname or "localhost".
func serviceHostname() string {
	if hostname := os.Getenv("HOSTNAME"); hostname != "" {
		return hostname
	}
	hostname, err := os.Hostname()
	if err != nil {
		return "localhost"
	}
	return hostname
}

// register registers this service as a semantic service
func (r *registryClient) register(ctx context.Context) error {
	registration := ServiceRegistration{
		Context:    "https://schema.org",
		Type:       "SoftwareApplication",
		Identifier: r.identifier,
		Name:       fmt.Sprintf("Content Upgrade Service - %s", r.hostname),
		URL:        r.serviceURL,
		Properties: map[string]interface{}{
			"version":        version,
			"hostname":       r.hostname,
			"serviceType":    "contentupgrade",
			"capabilities":   r.capabilities,
			"actionEndpoint": fmt.Sprintf("%s/v1/api/action", r.serviceURL),
			"healthEndpoint": fmt.Sprintf("%s/health", r.serviceURL),
			"documentation":  fmt.Sprintf("%s/swagger/index.html", r.serviceURL),
		},
	}

	payload, err := json.Marshal(registration)
	if err != nil {
		return fmt.Errorf("failed to marshal registration: %w", err)
	}

	resp, err := r.do(ctx, http.MethodPost, fmt.Sprintf("%s/v1/api/services", r.registryURL), payload)
	if err != nil {
		return fmt.Errorf("failed to send registration: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	return nil
}

// heartbeatLoop sends periodic heartbeats until ctx is done
func (r *registryClient) heartbeatLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := r.heartbeat(ctx); err != nil {
				r.logger.WithError(err).Warn("Failed to send registry heartbeat")
			}

		case <-ctx.Done():
			r.logger.Debug("Registry heartbeat stopped")
			return
		}
	}
}

// heartbeat sends a heartbeat to update service status
func (r *registryClient) heartbeat(ctx context.Context) error {
	heartbeat := map[string]interface{}{
		"timestamp": time.Now().Format(time.RFC3339),
		"status":    "healthy",
		"metrics": map[string]interface{}{
			"uptime": time.Since(r.started).Seconds(),
		},
	}

	payload, err := json.Marshal(heartbeat)
	if err != nil {
		return err
	}

	resp, err := r.do(ctx, http.MethodPost, fmt.Sprintf("%s/v1/api/services/%s/heartbeat", r.registryURL, r.identifier), payload)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// If service not found (404), re-register
	if resp.StatusCode == http.StatusNotFound {
		r.logger.Info("Service not found in registry, re-registering")
		return r.register(ctx)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	return nil
}

// deregister removes this service from the registry
func (r *registryClient) deregister(ctx context.Context) error {
	resp, err := r.do(ctx, http.MethodDelete, fmt.Sprintf("%s/v1/api/services/%s", r.registryURL, r.identifier), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest && resp.StatusCode != http.StatusNotFound {
		return fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	r.logger.WithField("identifier", r.identifier).Info("Deregistered service from registry")
	return nil
}

func (r *registryClient) do(ctx context.Context, method, url string, payload []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return r.clients.GetClient(r.registryURL).Do(req)
}
