package config

import (
	"github.com/caarlos0/env/v10"
	"github.com/vango-dev/waypoint/internal/errors"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "WAYPOINT_"

// envOverrides lists the settings that can be overridden from the environment.
// Unset variables leave the file's value alone.
type envOverrides struct {
	Host               string `env:"HOST"`
	Port               int    `env:"PORT"`
	Base               string `env:"BASE"`
	DefaultRoute       string `env:"DEFAULT_ROUTE"`
	NodeListenerErrors string `env:"NODE_LISTENER_ERRORS"`
	MetricsNamespace   string `env:"METRICS_NAMESPACE"`
}

// ApplyEnv applies WAYPOINT_* environment overrides.
func (c *Config) ApplyEnv() error {
	var o envOverrides
	if err := env.ParseWithOptions(&o, env.Options{Prefix: EnvPrefix}); err != nil {
		return errors.New("W122").
			WithDetail("An environment override could not be parsed.").
			Wrap(err)
	}

	if o.Host != "" {
		c.Server.Host = o.Host
	}
	if o.Port != 0 {
		c.Server.Port = o.Port
	}
	if o.Base != "" {
		c.Base = o.Base
	}
	if o.DefaultRoute != "" {
		c.DefaultRoute = o.DefaultRoute
	}
	if o.NodeListenerErrors != "" {
		c.NodeListenerErrors = o.NodeListenerErrors
	}
	if o.MetricsNamespace != "" {
		c.Metrics.Namespace = o.MetricsNamespace
	}
	return nil
}
