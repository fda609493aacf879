package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration is a time.Duration written as a string such as "90s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// Config describes how the external renderer is invoked.
type Config struct {
	Executable  string   `toml:"executable"`
	Output      string   `toml:"output"`
	ViewAll     bool     `toml:"view_all"`
	AutoCenter  bool     `toml:"auto_center"`
	ColorScheme string   `toml:"color_scheme"`
	MinVersion  string   `toml:"min_version"` // semver constraint, e.g. ">= 2021.1"
	ExtraArgs   []string `toml:"extra_args"`
	Timeout     Duration `toml:"timeout"`
}

type configFile struct {
	Render Config `toml:"render"`
}

// DefaultConfig returns the settings used when no file is given.
func DefaultConfig() Config {
	return Config{
		Executable: "openscad",
		Timeout:    Duration{2 * time.Minute},
	}
}

// LoadConfig reads the [render] table of a TOML file on top of the
// defaults. Unknown keys are rejected.
func LoadConfig(path string) (Config, error) {
	file := configFile{Render: DefaultConfig()}
	md, err := toml.DecodeFile(path, &file)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	if err := file.Render.Validate(); err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return file.Render, nil
}

// Validate checks the settings for values the renderer cannot use.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Executable) == "" {
		return fmt.Errorf("render.executable must not be empty")
	}
	if c.Timeout.Duration < 0 {
		return fmt.Errorf("render.timeout must not be negative")
	}
	if c.MinVersion != "" {
		if _, err := parseConstraint(c.MinVersion); err != nil {
			return err
		}
	}
	return nil
}
