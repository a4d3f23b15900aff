package secrets

import (
	"context"
	"fmt"
	"sync"

	"github.com/hashicorp/vault/api"
)

// Config holds Vault connection settings. Disabled mode keeps secrets in
// an in-memory cache only, which is what development and tests use.
type Config struct {
	Enabled    bool   `json:"enabled"`
	Address    string `json:"address"`
	Token      string `json:"token"`
	MountPath  string `json:"mount_path"`
	SecretPath string `json:"secret_path"`
	TLSEnabled bool   `json:"tls_enabled"`
	CACert     string `json:"ca_cert"`
}

// Credential is one named secret, typically a vendor API key or a
// notification channel token.
type Credential struct {
	Name   string `json:"name"`
	Key    string `json:"key"`
	Secret string `json:"secret"`
}

// Client wraps the HashiCorp Vault KV store behind a read-through cache.
type Client struct {
	client *api.Client
	config Config

	mu           sync.RWMutex
	cache        map[string]*Credential
	cacheEnabled bool
}

// NewClient creates a Vault client. With Vault disabled the client
// degrades to the in-memory cache.
func NewClient(cfg Config) (*Client, error) {
	if !cfg.Enabled {
		return &Client{
			config:       cfg,
			cache:        make(map[string]*Credential),
			cacheEnabled: true,
		}, nil
	}

	vaultConfig := api.DefaultConfig()
	vaultConfig.Address = cfg.Address

	if cfg.TLSEnabled && cfg.CACert != "" {
		tlsConfig := &api.TLSConfig{CACert: cfg.CACert}
		if err := vaultConfig.ConfigureTLS(tlsConfig); err != nil {
			return nil, fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	client, err := api.NewClient(vaultConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault client: %w", err)
	}
	client.SetToken(cfg.Token)

	return &Client{
		client:       client,
		config:       cfg,
		cache:        make(map[string]*Credential),
		cacheEnabled: true,
	}, nil
}

// Store writes a credential to Vault and the cache
func (c *Client) Store(ctx context.Context, credential Credential) error {
	if !c.config.Enabled {
		c.mu.Lock()
		c.cache[credential.Name] = &credential
		c.mu.Unlock()
		return nil
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"key":    credential.Key,
			"secret": credential.Secret,
		},
	}
	if _, err := c.client.Logical().WriteWithContext(ctx, c.secretPath(credential.Name), secretData); err != nil {
		return fmt.Errorf("failed to store credential %s: %w", credential.Name, err)
	}

	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[credential.Name] = &credential
		c.mu.Unlock()
	}
	return nil
}

// Get reads a credential, preferring the cache
func (c *Client) Get(ctx context.Context, name string) (*Credential, error) {
	if c.cacheEnabled {
		c.mu.RLock()
		if cached, ok := c.cache[name]; ok {
			c.mu.RUnlock()
			return cached, nil
		}
		c.mu.RUnlock()
	}

	if !c.config.Enabled {
		return nil, fmt.Errorf("credential %s not found and vault is disabled", name)
	}

	secret, err := c.client.Logical().ReadWithContext(ctx, c.secretPath(name))
	if err != nil {
		return nil, fmt.Errorf("failed to read credential %s: %w", name, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("credential %s not found", name)
	}
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid secret format for %s", name)
	}

	credential := &Credential{
		Name:   name,
		Key:    getString(data, "key"),
		Secret: getString(data, "secret"),
	}
	if c.cacheEnabled {
		c.mu.Lock()
		c.cache[name] = credential
		c.mu.Unlock()
	}
	return credential, nil
}

// Delete removes a credential from Vault and the cache
func (c *Client) Delete(ctx context.Context, name string) error {
	c.mu.Lock()
	delete(c.cache, name)
	c.mu.Unlock()

	if !c.config.Enabled {
		return nil
	}
	if _, err := c.client.Logical().DeleteWithContext(ctx, c.metadataPath(name)); err != nil {
		return fmt.Errorf("failed to delete credential %s: %w", name, err)
	}
	return nil
}

// ClearCache drops the in-memory cache
func (c *Client) ClearCache() {
	c.mu.Lock()
	c.cache = make(map[string]*Credential)
	c.mu.Unlock()
}

// SetCacheEnabled enables or disables caching
func (c *Client) SetCacheEnabled(enabled bool) {
	c.mu.Lock()
	c.cacheEnabled = enabled
	c.mu.Unlock()
}

// IsEnabled returns whether Vault is enabled
func (c *Client) IsEnabled() bool {
	return c.config.Enabled
}

// Health checks the Vault connection. Disabled mode is always healthy.
func (c *Client) Health(ctx context.Context) error {
	if !c.config.Enabled {
		return nil
	}
	health, err := c.client.Sys().HealthWithContext(ctx)
	if err != nil {
		return fmt.Errorf("vault health check failed: %w", err)
	}
	if health.Sealed {
		return fmt.Errorf("vault is sealed")
	}
	return nil
}

func (c *Client) secretPath(name string) string {
	return fmt.Sprintf("%s/data/%s/%s", c.config.MountPath, c.config.SecretPath, name)
}

func (c *Client) metadataPath(name string) string {
	return fmt.Sprintf("%s/metadata/%s/%s", c.config.MountPath, c.config.SecretPath, name)
}

func getString(data map[string]interface{}, key string) string {
	if val, ok := data[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
	}
	return ""
}
