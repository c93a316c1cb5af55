package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tests := []struct {
		name      string
		filePath  string
		wantErr   bool
		errString string
	}{
		{
			name:     "valid config file",
			filePath: "testdata/valid_config.yaml",
			wantErr:  false,
		},
		{
			name:      "non-existent file",
			filePath:  "testdata/nonexistent.yaml",
			wantErr:   true,
			errString: "failed to read config file",
		},
		{
			name:      "malformed yaml",
			filePath:  "testdata/malformed.yaml",
			wantErr:   true,
			errString: "failed to parse config file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(tt.filePath)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
				assert.Nil(t, cfg)
			} else {
				require.NoError(t, err)
				require.NotNil(t, cfg)

				assert.Equal(t, 8790, cfg.Server.Port)
				assert.Equal(t, "redis", cfg.Store.Backend)
				assert.Equal(t, "localhost", cfg.Store.Redis.Host)
				assert.Equal(t, 6379, cfg.Store.Redis.Port)
				assert.Equal(t, "device-42", cfg.Session.UserID)
				assert.Equal(t, "tok-abc", cfg.Session.Token)
				assert.Equal(t, 30*time.Second, cfg.Download.Timeout)
				assert.Equal(t, "SumatraPDF", cfg.Printing.BackendPath)
				assert.Equal(t, []string{"HP LaserJet", "Office-Color"}, cfg.Printing.Printers)
				assert.True(t, cfg.Printing.ValidatePayloads)
				assert.True(t, cfg.History.Enabled)
				assert.Equal(t, 128, cfg.Events.Buffer)
				assert.Equal(t, "print-agent", cfg.App.Name)
			}
		})
	}
}

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{Port: 8790},
		Store: StoreConfig{
			Backend: "redis",
			Redis: RedisConfig{
				Host: "localhost",
				Port: 6379,
			},
		},
		Session: SessionConfig{
			UserID: "device-42",
			Token:  "tok-abc",
		},
		Download: DownloadConfig{Dir: "/tmp/print-agent"},
		Printing: PrintingConfig{BackendPath: "SumatraPDF"},
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(c *Config)
		wantErr   bool
		errString string
	}{
		{
			name:    "valid config",
			mutate:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "valid memory backend",
			mutate:  func(c *Config) { c.Store = StoreConfig{Backend: "memory"} },
			wantErr: false,
		},
		{
			name:      "invalid server port - too low",
			mutate:    func(c *Config) { c.Server.Port = 0 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "invalid server port - too high",
			mutate:    func(c *Config) { c.Server.Port = 70000 },
			wantErr:   true,
			errString: "invalid server port",
		},
		{
			name:      "unknown store backend",
			mutate:    func(c *Config) { c.Store.Backend = "etcd" },
			wantErr:   true,
			errString: "unknown store backend",
		},
		{
			name:      "missing redis host",
			mutate:    func(c *Config) { c.Store.Redis.Host = "" },
			wantErr:   true,
			errString: "redis host is required",
		},
		{
			name:      "invalid redis port",
			mutate:    func(c *Config) { c.Store.Redis.Port = -1 },
			wantErr:   true,
			errString: "invalid store redis port",
		},
		{
			name:      "missing user id",
			mutate:    func(c *Config) { c.Session.UserID = "" },
			wantErr:   true,
			errString: "user_id is required",
		},
		{
			name:      "missing token",
			mutate:    func(c *Config) { c.Session.Token = "" },
			wantErr:   true,
			errString: "token is required",
		},
		{
			name:      "missing download dir",
			mutate:    func(c *Config) { c.Download.Dir = "" },
			wantErr:   true,
			errString: "download dir is required",
		},
		{
			name:      "missing backend path",
			mutate:    func(c *Config) { c.Printing.BackendPath = "" },
			wantErr:   true,
			errString: "backend_path is required",
		},
		{
			name:      "history enabled without path",
			mutate:    func(c *Config) { c.History.Enabled = true },
			wantErr:   true,
			errString: "history path is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errString)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
