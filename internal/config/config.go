package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
	"secretsanta/internal/models"
)

// DefaultPath is used when neither -config nor CONFIG_PATH is given.
const DefaultPath = "config.yaml"

// User is one login from the users section.
type User struct {
	Name     string      `yaml:"name"`
	Password string      `yaml:"password"` // bcrypt hash
	Role     models.Role `yaml:"role"`
}

// Config is the whole config.yaml.
type Config struct {
	Title  string `yaml:"title"`
	Server struct {
		Addr    string `yaml:"addr"`
		GinMode string `yaml:"gin_mode"`
	} `yaml:"server"`
	Storage struct {
		DataFile string `yaml:"data_file"`
	} `yaml:"storage"`
	Log struct {
		Verbose bool   `yaml:"verbose"`
		File    string `yaml:"file"`
	} `yaml:"log"`
	Cookie struct {
		Name       string `yaml:"name"`
		Key        string `yaml:"key"`
		ExpiryDays int    `yaml:"expiry_days"`
		Secure     bool   `yaml:"secure"`
	} `yaml:"cookie"`
	Participants []string        `yaml:"participants"`
	Users        map[string]User `yaml:"users"`
}

// Flags are the command line options.
type Flags struct {
	ConfigPath   string
	HashPassword bool
}

// ParseFlags reads args. The config path falls back to CONFIG_PATH, then
// to the default.
func ParseFlags(args []string) (Flags, error) {
	var f Flags
	fs := flag.NewFlagSet("secretsanta", flag.ContinueOnError)
	fs.StringVar(&f.ConfigPath, "config", "", "Path to config.yaml")
	fs.BoolVar(&f.HashPassword, "hash-password", false, "Read a password from stdin and print its bcrypt hash")
	if err := fs.Parse(args); err != nil {
		return Flags{}, err
	}
	if f.ConfigPath == "" {
		f.ConfigPath = os.Getenv("CONFIG_PATH")
	}
	if f.ConfigPath == "" {
		f.ConfigPath = DefaultPath
	}
	return f, nil
}

// Load reads, defaults and validates the config at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	return Parse(data)
}

// Parse is Load without the file access.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Title == "" {
		c.Title = "Weihnachtswichteln"
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.GinMode == "" {
		c.Server.GinMode = "release"
	}
	if c.Storage.DataFile == "" {
		c.Storage.DataFile = "wichtel_data.json"
	}
	if c.Cookie.Name == "" {
		c.Cookie.Name = "wichtel_auth"
	}
	if c.Cookie.ExpiryDays == 0 {
		c.Cookie.ExpiryDays = 30
	}

	users := make(map[string]User, len(c.Users))
	for name, u := range c.Users {
		if u.Role == "" {
			u.Role = models.RoleUser
		}
		users[strings.ToLower(name)] = u
	}
	c.Users = users
}

// Validate checks the config once at startup.
func (c *Config) Validate() error {
	if len(c.Participants) < 2 {
		return errors.New("at least two participants are required")
	}
	seen := make(map[string]bool, len(c.Participants))
	for _, p := range c.Participants {
		if p == "" || p != strings.ToLower(p) {
			return fmt.Errorf("participant %q must be a non-empty lowercase identifier", p)
		}
		if seen[p] {
			return fmt.Errorf("participant %q listed twice", p)
		}
		seen[p] = true
	}

	switch c.Server.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("server.gin_mode %q must be debug, release or test", c.Server.GinMode)
	}

	if c.Cookie.Key == "" {
		return errors.New("cookie.key is required")
	}
	if c.Cookie.ExpiryDays < 0 {
		return errors.New("cookie.expiry_days must not be negative")
	}

	admins := 0
	for name, u := range c.Users {
		if !strings.HasPrefix(u.Password, "$2") {
			return fmt.Errorf("user %q: password must be a bcrypt hash", name)
		}
		switch u.Role {
		case models.RoleAdmin:
			admins++
		case models.RoleUser:
			if !seen[name] {
				return fmt.Errorf("user %q is not a participant", name)
			}
		default:
			return fmt.Errorf("user %q: unknown role %q", name, u.Role)
		}
	}
	if admins == 0 {
		return errors.New("at least one admin user is required")
	}
	return nil
}

// Roster returns the participants in configured order.
func (c *Config) Roster() []string {
	roster := make([]string, len(c.Participants))
	copy(roster, c.Participants)
	return roster
}

// LogWriter opens the configured log file, or returns stderr when none is
// set. The returned close func is never nil.
func (c *Config) LogWriter() (io.Writer, func() error, error) {
	if c.Log.File == "" {
		return os.Stderr, func() error { return nil }, nil
	}
	f, err := os.OpenFile(c.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0660)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, f.Close, nil
}

// IsAdmin reports whether username has the admin role.
func (c *Config) IsAdmin(username string) bool {
	u, ok := c.Users[username]
	return ok && u.Role == models.RoleAdmin
}
