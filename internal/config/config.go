package config

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/vango-dev/waypoint/internal/errors"
	"github.com/vango-dev/waypoint/pkg/router"
	"github.com/vango-dev/waypoint/pkg/routetree"
)

const (
	// ConfigFileName is the base name of the configuration file.
	ConfigFileName = "waypoint"

	// DefaultPort is the default inspector port.
	DefaultPort = 7420

	// DefaultHost is the default inspector host.
	DefaultHost = "localhost"

	// DefaultNamespace is the default metrics namespace.
	DefaultNamespace = "waypoint"
)

// Format is a configuration file format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by a file name's extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return FormatJSON, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return "", errors.New("W123").WithDetail(fmt.Sprintf("%q is neither JSON nor YAML.", name))
}

// candidates are the file names Load looks for, in order.
var candidates = []string{
	ConfigFileName + ".yaml",
	ConfigFileName + ".yml",
	ConfigFileName + ".json",
}

// Config represents a waypoint configuration file.
type Config struct {
	// Name is the project name.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Routes is the route tree.
	Routes []routetree.Route `json:"routes" yaml:"routes" validate:"required,min=1"`

	// DefaultRoute is used when the start path matches nothing.
	DefaultRoute string `json:"defaultRoute,omitempty" yaml:"defaultRoute,omitempty"`

	// DefaultParams are the parameters of DefaultRoute.
	DefaultParams map[string]string `json:"defaultParams,omitempty" yaml:"defaultParams,omitempty"`

	// Base is prepended to built URLs.
	Base string `json:"base,omitempty" yaml:"base,omitempty"`

	// UseHash builds URLs with a "#" fragment.
	UseHash bool `json:"useHash,omitempty" yaml:"useHash,omitempty"`

	// HashPrefix follows the "#" when UseHash is set.
	HashPrefix string `json:"hashPrefix,omitempty" yaml:"hashPrefix,omitempty"`

	// StartPath is where the router starts (default: "/").
	StartPath string `json:"startPath,omitempty" yaml:"startPath,omitempty" validate:"omitempty,startswith=/"`

	// NodeListenerErrors is "abort" (default) or "log".
	NodeListenerErrors string `json:"nodeListenerErrors,omitempty" yaml:"nodeListenerErrors,omitempty" validate:"omitempty,oneof=abort log"`

	// Server configures the inspector.
	Server ServerConfig `json:"server,omitempty" yaml:"server,omitempty"`

	// Metrics configures Prometheus metrics.
	Metrics MetricsConfig `json:"metrics,omitempty" yaml:"metrics,omitempty"`

	// Tracing configures OpenTelemetry tracing.
	Tracing TracingConfig `json:"tracing,omitempty" yaml:"tracing,omitempty"`

	// configPath stores where the config was loaded from.
	configPath string

	// source and locations describe the document the config was parsed from.
	source    []byte
	locations map[string]*errors.Location
}

// ServerConfig contains inspector server settings.
type ServerConfig struct {
	// Host is the host to bind to.
	Host string `json:"host,omitempty" yaml:"host,omitempty" validate:"required"`

	// Port is the port to listen on.
	Port int `json:"port,omitempty" yaml:"port,omitempty" validate:"gte=1,lte=65535"`

	// Watch reloads routes when the config file changes.
	Watch bool `json:"watch,omitempty" yaml:"watch,omitempty"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	Enabled   bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Namespace string `json:"namespace,omitempty" yaml:"namespace,omitempty" validate:"omitempty,excludesall=-. "`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	Enabled    bool   `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	TracerName string `json:"tracerName,omitempty" yaml:"tracerName,omitempty"`
}

// New creates a Config with default values and no routes.
func New() *Config {
	return &Config{
		StartPath:          "/",
		NodeListenerErrors: router.NodeListenersAbort.String(),
		Server: ServerConfig{
			Host: DefaultHost,
			Port: DefaultPort,
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: DefaultNamespace,
		},
	}
}

// Load reads waypoint.yaml, waypoint.yml or waypoint.json from dir.
func Load(dir string) (*Config, error) {
	for _, name := range candidates {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("W120").
		WithDetail("No waypoint.yaml or waypoint.json found in " + dir)
}

// LoadFile reads, applies environment overrides to and validates the
// configuration at path.
func LoadFile(path string) (*Config, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("W120").
				WithDetail("No config file at " + path)
		}
		return nil, errors.New("W121").Wrap(err)
	}

	cfg, err := parse(path, data, format)
	if err != nil {
		return nil, err
	}
	cfg.configPath = path
	return cfg.finish()
}

// Parse decodes a configuration document and fills in defaults. It applies
// neither environment overrides nor validation.
func Parse(data []byte, format Format) (*Config, error) {
	return parse("", data, format)
}

func parse(name string, data []byte, format Format) (*Config, error) {
	cfg := New()
	cfg.source = data

	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, syntaxError(name, data, err)
		}
	case FormatYAML:
		locations, err := decodeYAML(data, cfg)
		if err != nil {
			return nil, syntaxError(name, data, err)
		}
		for _, loc := range locations {
			loc.File = name
		}
		cfg.locations = locations
	default:
		return nil, errors.New("W123").WithDetail(fmt.Sprintf("Unknown format %q.", format))
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) finish() (*Config, error) {
	if err := c.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.StartPath == "" {
		c.StartPath = "/"
	}
	if c.NodeListenerErrors == "" {
		c.NodeListenerErrors = router.NodeListenersAbort.String()
	}
	if c.Server.Host == "" {
		c.Server.Host = DefaultHost
	}
	if c.Server.Port == 0 {
		c.Server.Port = DefaultPort
	}
	if c.Metrics.Namespace == "" {
		c.Metrics.Namespace = DefaultNamespace
	}
	if c.Tracing.TracerName == "" {
		c.Tracing.TracerName = DefaultNamespace
	}
}

// Save writes the configuration to the file it was loaded from.
func (c *Config) Save() error {
	if c.configPath == "" {
		return errors.Newf(errors.CategoryConfig, "no config path set")
	}
	return c.SaveTo(c.configPath)
}

// SaveTo writes the configuration to path in the format its extension implies.
func (c *Config) SaveTo(path string) error {
	data, err := c.Marshal(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.New("W121").Wrap(err)
	}
	c.configPath = path
	return nil
}

// Marshal encodes the configuration in the format name's extension implies.
func (c *Config) Marshal(name string) ([]byte, error) {
	format, err := FormatOf(name)
	if err != nil {
		return nil, err
	}
	var data []byte
	if format == FormatYAML {
		data, err = marshalYAML(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return nil, errors.New("W121").Wrap(err)
	}
	return data, nil
}

// Path returns the path the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// Address returns the inspector listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RouteLocation returns where the named route is declared, if known.
func (c *Config) RouteLocation(name string) (*errors.Location, bool) {
	loc, ok := c.locations[name]
	return loc, ok
}

// locate attaches the declaration of route name to d.
func (c *Config) locate(d *errors.Diagnostic, name string) *errors.Diagnostic {
	loc, ok := c.locations[name]
	if !ok {
		return d
	}
	file := loc.File
	if file == "" {
		file = ConfigFileName
	}
	return d.WithSource(file, c.source, loc.Line, loc.Column)
}

// BuildTree builds the route tree. Errors are diagnostics located at the
// declaration of the offending route when the config was YAML.
func (c *Config) BuildTree() (*routetree.Node, error) {
	root := &routetree.Node{}
	if err := c.addRoutes(root, "", c.Routes); err != nil {
		return nil, err
	}
	return root, nil
}

func (c *Config) addRoutes(root *routetree.Node, prefix string, routes []routetree.Route) error {
	for _, r := range routes {
		name := r.Name
		if prefix != "" {
			name = prefix + "." + r.Name
		}
		if err := root.Add(routetree.Route{Name: name, Path: r.Path}); err != nil {
			return c.locate(errors.Classify(err, "W108"), name)
		}
		if err := c.addRoutes(root, name, r.Children); err != nil {
			return err
		}
	}
	return nil
}

// RouterOptions converts the configuration to router options.
func (c *Config) RouterOptions() ([]router.Option, error) {
	policy, err := router.ParseNodeListenerPolicy(c.NodeListenerErrors)
	if err != nil {
		return nil, errors.New("W122").Wrap(err)
	}

	opts := []router.Option{
		router.WithUseHash(c.UseHash),
		router.WithHashPrefix(c.HashPrefix),
		router.WithNodeListenerErrors(policy),
	}
	if c.DefaultRoute != "" {
		opts = append(opts, router.WithDefaultRoute(c.DefaultRoute, router.Params(c.DefaultParams)))
	}
	if c.Base != "" {
		opts = append(opts, router.WithBase(c.Base))
	}
	return opts, nil
}

// Router builds the route tree and a router configured from c. opts are
// applied after the configured options.
func (c *Config) Router(opts ...router.Option) (*router.Router, error) {
	tree, err := c.BuildTree()
	if err != nil {
		return nil, err
	}
	configured, err := c.RouterOptions()
	if err != nil {
		return nil, err
	}
	return router.NewWithTree(tree, append(configured, opts...)...), nil
}

// syntaxError reports a decoding failure, located when the decoder reports a
// line.
func syntaxError(name string, data []byte, err error) error {
	d := errors.New("W121").Wrap(err)
	if name == "" {
		name = ConfigFileName
	}
	if line := errorLine(data, err); line > 0 {
		d.WithSource(name, data, line, 0)
	}
	return d
}

var yamlLine = regexp.MustCompile(`line (\d+):`)

// errorLine returns the line of a decoding error, or 0.
func errorLine(data []byte, err error) int {
	var syntax *json.SyntaxError
	if stderrors.As(err, &syntax) {
		offset := min(int(syntax.Offset), len(data))
		return 1 + strings.Count(string(data[:offset]), "\n")
	}
	if m := yamlLine.FindStringSubmatch(err.Error()); m != nil {
		line, _ := strconv.Atoi(m[1])
		return line
	}
	return 0
}
