package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"secretsanta/internal/models"
)

const validYAML = `
title: "Wichteln"
cookie:
  key: secret
participants: [paul, katrin, joachim, amon]
users:
  Admin:
    name: Admin
    password: "$2a$10$abcdefghijklmnopqrstuv"
    role: admin
  katrin:
    name: Katrin
    password: "$2a$10$abcdefghijklmnopqrstuv"
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, "wichtel_data.json", cfg.Storage.DataFile)
	assert.Equal(t, "wichtel_auth", cfg.Cookie.Name)
	assert.Equal(t, 30, cfg.Cookie.ExpiryDays)
	assert.False(t, cfg.Cookie.Secure)
	assert.Equal(t, models.RoleUser, cfg.Users["katrin"].Role)
	assert.Contains(t, cfg.Users, "admin", "usernames are lowercased")
}

func TestParse_CookieSecure(t *testing.T) {
	secure := `
cookie: {key: s, secure: true}
participants: [paul, amon]
users: {admin: {password: "$2a$x", role: admin}}`
	cfg, err := Parse([]byte(secure))
	require.NoError(t, err)
	assert.True(t, cfg.Cookie.Secure)
}

func TestConfig_Accessors(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	roster := cfg.Roster()
	assert.Equal(t, []string{"paul", "katrin", "joachim", "amon"}, roster)
	roster[0] = "changed"
	assert.Equal(t, "paul", cfg.Participants[0], "Roster() must return a copy")

	assert.True(t, cfg.IsAdmin("admin"))
	assert.False(t, cfg.IsAdmin("katrin"))
	assert.False(t, cfg.IsAdmin("nobody"))
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "participants: [paul"},
		{"one participant", `
cookie: {key: s}
participants: [paul]
users: {admin: {password: "$2a$x", role: admin}}`},
		{"duplicate participant", `
cookie: {key: s}
participants: [paul, paul]
users: {admin: {password: "$2a$x", role: admin}}`},
		{"uppercase participant", `
cookie: {key: s}
participants: [Paul, amon]
users: {admin: {password: "$2a$x", role: admin}}`},
		{"missing cookie key", `
participants: [paul, amon]
users: {admin: {password: "$2a$x", role: admin}}`},
		{"plain text password", `
cookie: {key: s}
participants: [paul, amon]
users: {admin: {password: "hunter2", role: admin}}`},
		{"unknown role", `
cookie: {key: s}
participants: [paul, amon]
users: {admin: {password: "$2a$x", role: admin}, paul: {password: "$2a$x", role: santa}}`},
		{"user not participating", `
cookie: {key: s}
participants: [paul, amon]
users: {admin: {password: "$2a$x", role: admin}, oma: {password: "$2a$x"}}`},
		{"no admin", `
cookie: {key: s}
participants: [paul, amon]
users: {paul: {password: "$2a$x"}}`},
		{"bad gin mode", `
server: {gin_mode: turbo}
cookie: {key: s}
participants: [paul, amon]
users: {admin: {password: "$2a$x", role: admin}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validYAML), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "Wichteln", cfg.Title)

	_, err = Load(filepath.Join(tmpDir, "missing.yaml"))
	assert.Error(t, err)
}

func TestParseFlags(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")

	f, err := ParseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, Flags{ConfigPath: DefaultPath}, f)

	t.Setenv("CONFIG_PATH", "/etc/wichteln.yaml")
	f, err = ParseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "/etc/wichteln.yaml", f.ConfigPath)

	f, err = ParseFlags([]string{"-config", "local.yaml"})
	require.NoError(t, err)
	assert.Equal(t, "local.yaml", f.ConfigPath, "flag overrides env")

	f, err = ParseFlags([]string{"-hash-password"})
	require.NoError(t, err)
	assert.True(t, f.HashPassword)

	_, err = ParseFlags([]string{"-unknown"})
	assert.Error(t, err)
}

func TestConfig_LogWriter(t *testing.T) {
	cfg, err := Parse([]byte(validYAML))
	require.NoError(t, err)

	w, closeLog, err := cfg.LogWriter()
	require.NoError(t, err)
	assert.Equal(t, os.Stderr, w, "without a log file everything goes to stderr")
	assert.NoError(t, closeLog())

	cfg.Log.File = filepath.Join(t.TempDir(), "wichteln.log")
	w, closeLog, err = cfg.LogWriter()
	require.NoError(t, err)
	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)
	require.NoError(t, closeLog())

	data, err := os.ReadFile(cfg.Log.File)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))

	cfg.Log.File = filepath.Join(t.TempDir(), "missing-dir", "wichteln.log")
	_, _, err = cfg.LogWriter()
	assert.Error(t, err)
}
