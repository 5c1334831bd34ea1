// Package config loads and persists the portscope configuration file.
//
// Configuration lives in a TOML file under the XDG config directory and is
// regenerated from defaults whenever it is missing or unparseable, so the
// rest of the program can assume a complete configuration at all times.
package config

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

var (
	// ErrConfigUnreadable is returned when the config file exists but cannot be read
	ErrConfigUnreadable = errors.New("configuration file is unreadable")
)

// Accepted values for global.privilege_backend
const (
	PrivilegeBackendAuto   = "auto"
	PrivilegeBackendPkexec = "pkexec"
	PrivilegeBackendSudo   = "sudo"
	PrivilegeBackendDoas   = "doas"
	PrivilegeBackendNone   = "none"
)

// Config represents the application configuration
type Config struct {
	Global   GlobalConfig   `toml:"global"`
	Browse   BrowseConfig   `toml:"browse"`
	Overlays OverlaysConfig `toml:"overlays"`
	Use      UseConfig      `toml:"use"`
}

// GlobalConfig holds settings that apply across the whole program
type GlobalConfig struct {
	// Theme is the display theme name, managed by the presentation layer
	Theme string `toml:"theme"`
	// PrivilegeBackend selects the escalation mechanism: auto, pkexec, sudo, doas or none
	PrivilegeBackend string `toml:"privilege_backend"`
	// InitialTab is the tab shown at startup by the presentation layer
	InitialTab string `toml:"initial_tab"`
	// CompactMode reduces presentation chrome
	CompactMode bool `toml:"compact_mode"`
	// IgnoreWarnings suppresses overlay quality warnings
	IgnoreWarnings bool `toml:"ignore_warnings"`
	// Terminal, when non-empty, is the terminal emulator argv that elevated
	// commands are handed to instead of being captured directly
	Terminal []string `toml:"terminal"`
}

// BrowseConfig holds package-search settings
type BrowseConfig struct {
	// SearchFlags are the default flags passed to the search tool when the
	// query term does not supply its own
	SearchFlags []string `toml:"search_flags"`
	// MinimumCharacters is the shortest query term accepted before any
	// external tool is invoked
	MinimumCharacters int `toml:"minimum_characters"`
	// SyntaxStyle is the highlight style used for ebuild display
	SyntaxStyle string `toml:"syntax_style"`
	// Expand controls whether dependency and file trees start expanded
	Expand bool `toml:"expand"`
	// Depth is the maximum dependency tree depth
	Depth int `toml:"depth"`
}

// OverlaysConfig holds overlay catalog settings
type OverlaysConfig struct {
	// SkipPackageCounting omits per-overlay package counts for speed
	SkipPackageCounting bool `toml:"skip_package_counting"`
	// CacheMaxAge is the catalog cache lifetime in hours
	CacheMaxAge int `toml:"cache_max_age"`
	// OverlaySource is the URL of the remote overlay catalog XML
	OverlaySource string `toml:"overlay_source"`
}

// UseConfig holds USE-flag registry settings
type UseConfig struct {
	MinimumCharacters int `toml:"minimum_characters"`
	// CacheMaxAge is the USE registry cache lifetime in hours
	CacheMaxAge int `toml:"cache_max_age"`
}

// Default returns the built-in default configuration
func Default() *Config {
	return &Config{
		Global: GlobalConfig{
			Theme:            "dark",
			PrivilegeBackend: PrivilegeBackendAuto,
			InitialTab:       "browse",
		},
		Browse: BrowseConfig{
			SearchFlags:       []string{"-f", "2"},
			MinimumCharacters: 3,
			SyntaxStyle:       "monokai",
			Depth:             3,
		},
		Overlays: OverlaysConfig{
			CacheMaxAge:   72,
			OverlaySource: "https://api.gentoo.org/overlays/repositories.xml",
		},
		Use: UseConfig{
			MinimumCharacters: 3,
			CacheMaxAge:       96,
		},
	}
}

// DefaultConfigPath returns the config file path under XDG_CONFIG_HOME,
// falling back to ~/.config.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	xdgConfig := os.Getenv("XDG_CONFIG_HOME")
	if xdgConfig == "" {
		xdgConfig = filepath.Join(home, ".config")
	}

	return filepath.Join(xdgConfig, "portscope", "config.toml"), nil
}

// Load reads configuration from the default config file, creating it with
// defaults when it does not exist.
func Load() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom reads configuration from a specific file path.
//
// A missing file is created from defaults. An unparseable file is replaced
// with defaults rather than failing startup. Missing keys keep their default
// values because decoding happens on top of a default-populated struct.
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			if saveErr := cfg.SaveTo(path); saveErr != nil {
				return nil, saveErr
			}
			return cfg, nil
		}
		return nil, errors.Join(ErrConfigUnreadable, err)
	}

	if err := toml.Unmarshal(data, cfg); err != nil {
		// Corrupted file: regenerate from defaults so the next run is clean.
		cfg = Default()
		if saveErr := cfg.SaveTo(path); saveErr != nil {
			return nil, saveErr
		}
		return cfg, nil
	}

	cfg.normalize()
	return cfg, nil
}

// normalize repairs individual values that decoded but are unusable
func (c *Config) normalize() {
	def := Default()

	switch c.Global.PrivilegeBackend {
	case PrivilegeBackendAuto, PrivilegeBackendPkexec, PrivilegeBackendSudo,
		PrivilegeBackendDoas, PrivilegeBackendNone:
	default:
		c.Global.PrivilegeBackend = def.Global.PrivilegeBackend
	}

	if c.Browse.MinimumCharacters <= 0 {
		c.Browse.MinimumCharacters = def.Browse.MinimumCharacters
	}
	if c.Browse.Depth <= 0 {
		c.Browse.Depth = def.Browse.Depth
	}
	if c.Overlays.CacheMaxAge <= 0 {
		c.Overlays.CacheMaxAge = def.Overlays.CacheMaxAge
	}
	if c.Overlays.OverlaySource == "" {
		c.Overlays.OverlaySource = def.Overlays.OverlaySource
	}
	if c.Use.MinimumCharacters <= 0 {
		c.Use.MinimumCharacters = def.Use.MinimumCharacters
	}
	if c.Use.CacheMaxAge <= 0 {
		c.Use.CacheMaxAge = def.Use.CacheMaxAge
	}
}

// Save writes configuration to the default config file
func (c *Config) Save() error {
	path, err := DefaultConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(path)
}

// SaveTo writes configuration to a specific file path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(c)
}
