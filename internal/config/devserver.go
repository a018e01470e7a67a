package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

const (
	// DefaultAPITarget is the backend the /api proxy points at when
	// VITE_API_TARGET is unset or empty.
	DefaultAPITarget = "http://localhost:8000"

	// DevServerPort is the port the frontend dev server binds to.
	DevServerPort = 5173

	// APIProxyPrefix is the path prefix forwarded to the backend.
	APIProxyPrefix = "/api"

	// VuePlugin is the framework integration activated for the UI.
	VuePlugin = "vue"
)

// DevServerConfig declares how the frontend dev server behaves: which
// framework plugins to load, which port to bind and which paths to proxy.
// It is resolved once by LoadDevServer and must not be mutated afterwards.
type DevServerConfig struct {
	Plugins []string         `json:"plugins" yaml:"plugins"`
	Server  DevServerOptions `json:"server" yaml:"server"`
}

// DevServerOptions holds the listener and proxy settings.
type DevServerOptions struct {
	Port  int                  `json:"port" yaml:"port"`
	Proxy map[string]ProxyRule `json:"proxy" yaml:"proxy"`
}

// ProxyRule forwards requests matching a path prefix to Target.
// ChangeOrigin rewrites the outbound Host and Origin headers to the target.
type ProxyRule struct {
	Target       string `json:"target" yaml:"target"`
	ChangeOrigin bool   `json:"changeOrigin" yaml:"changeOrigin"`
}

// devServerEnv is the environment surface of the dev server declaration.
type devServerEnv struct {
	// APITarget is used verbatim as the /api proxy target when non-empty.
	APITarget string `envconfig:"VITE_API_TARGET"`
}

// LoadDevServer resolves the dev server declaration from the environment.
// The proxy target is not validated: a malformed value is passed through and
// surfaces later as a failed proxied request.
func LoadDevServer() (*DevServerConfig, error) {
	var env devServerEnv
	if err := envconfig.Process("", &env); err != nil {
		return nil, fmt.Errorf("loading dev server config: %w", err)
	}

	target := env.APITarget
	if target == "" {
		target = DefaultAPITarget
	}

	return &DevServerConfig{
		Plugins: []string{VuePlugin},
		Server: DevServerOptions{
			Port: DevServerPort,
			Proxy: map[string]ProxyRule{
				APIProxyPrefix: {Target: target, ChangeOrigin: true},
			},
		},
	}, nil
}

// APITarget returns the proxy target configured for APIProxyPrefix.
func (c *DevServerConfig) APITarget() string {
	return c.Server.Proxy[APIProxyPrefix].Target
}

// Addr returns the listen address for the dev server.
func (c *DevServerConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
