// Package config handles the fugue.toml client configuration.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"fugue/types"
	"fugue/vars"
)

// FileName is the configuration file looked up in the user's config directory
const FileName = "fugue.toml"

// Config represents a fugue.toml file.
type Config struct {
	Server  Server  `toml:"server"`
	Interp  Interp  `toml:"interp"`
	Log     Log     `toml:"log"`
	Startup Startup `toml:"startup"`

	// Path is the file the configuration was read from, empty for defaults.
	Path string `toml:"-"`
}

// Server names the MUD to connect to.
type Server struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Charset string `toml:"charset"`
}

// Interp holds the initial values of the interpreter's special variables.
type Interp struct {
	MaxRecur int64  `toml:"max_recur"`
	Optimize int64  `toml:"optimize"`
	Mecho    string `toml:"mecho"`
	Mprefix  string `toml:"mprefix"`
	Sub      string `toml:"sub"`
}

// Log configures commonlog.
type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Startup lists files loaded and command lines run before the prompt.
type Startup struct {
	Load     []string `toml:"load"`
	Commands []string `toml:"commands"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Server: Server{Port: 23, Charset: "utf-8"},
		Interp: Interp{MaxRecur: 100, Optimize: 1, Mecho: "off", Mprefix: "+", Sub: "off"},
	}
}

// Load parses the configuration file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	c.Path = path

	// Defaults
	def := Default()
	if !md.IsDefined("server", "port") {
		c.Server.Port = def.Server.Port
	}
	if c.Server.Charset == "" {
		c.Server.Charset = def.Server.Charset
	}
	if !md.IsDefined("interp", "max_recur") {
		c.Interp.MaxRecur = def.Interp.MaxRecur
	}
	if !md.IsDefined("interp", "optimize") {
		c.Interp.Optimize = def.Interp.Optimize
	}
	if c.Interp.Mecho == "" {
		c.Interp.Mecho = def.Interp.Mecho
	}
	if !md.IsDefined("interp", "mprefix") {
		c.Interp.Mprefix = def.Interp.Mprefix
	}
	if c.Interp.Sub == "" {
		c.Interp.Sub = def.Interp.Sub
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return nil, fmt.Errorf("%s: port %d out of range", path, c.Server.Port)
	}
	return &c, nil
}

// LoadDefault loads fugue.toml from the user's config directory, falling
// back to Default when there is none.
func LoadDefault() (*Config, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return Default(), nil
	}
	path := filepath.Join(dir, "fugue", FileName)
	if _, err := os.Stat(path); err != nil {
		return Default(), nil
	}
	return Load(path)
}

// Apply stores the interpreter settings in the special variables of
// globals. Every setting is attempted; rejected values keep the
// interpreter's defaults and are reported together.
func (c *Config) Apply(globals *vars.Store) error {
	settings := []struct {
		name string
		val  types.Value
	}{
		{"max_recur", types.NewInt(c.Interp.MaxRecur)},
		{"optimize", types.NewInt(c.Interp.Optimize)},
		{"mecho", types.NewStr(c.Interp.Mecho)},
		{"mprefix", types.NewStr(c.Interp.Mprefix)},
		{"sub", types.NewStr(c.Interp.Sub)},
	}
	var errs []error
	for _, s := range settings {
		if _, err := globals.Set(s.name, s.val); err != nil {
			errs = append(errs, fmt.Errorf("interp.%s: %w", s.name, err))
		}
	}
	return errors.Join(errs...)
}

// Address returns host:port, or "" when no server is configured.
func (s Server) Address() string {
	if s.Host == "" {
		return ""
	}
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}
