package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoadCasterConfig(t *testing.T) {
	path := writeTempConfig(t, `{
		"listen_address": ":2101",
		"sourcetable_file": "sourcetable.json",
		"server_username": "producer",
		"server_password": "secret",
		"enable_crc_check": true,
		"logging": {"directory": "/var/log/caster", "level": "info"}
	}`)

	cfg, err := LoadCasterConfig(path)
	if err != nil {
		t.Fatalf("LoadCasterConfig: %v", err)
	}
	if cfg.ListenAddress != ":2101" {
		t.Errorf("ListenAddress = %q", cfg.ListenAddress)
	}
	if !cfg.EnableCRCCheck {
		t.Errorf("EnableCRCCheck = false, want true")
	}
	if cfg.Logging.Directory != "/var/log/caster" {
		t.Errorf("Logging.Directory = %q", cfg.Logging.Directory)
	}
	if cfg.ProbeInterval() != 7*time.Second {
		t.Errorf("ProbeInterval() = %v, want default 7s", cfg.ProbeInterval())
	}
}

func TestLoadCasterConfigMissingFile(t *testing.T) {
	if _, err := LoadCasterConfig(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestLoadCasterConfigBadJSON(t *testing.T) {
	path := writeTempConfig(t, `{not valid json`)
	if _, err := LoadCasterConfig(path); err == nil {
		t.Fatalf("expected error for malformed JSON")
	}
}

func TestLoadClientConfig(t *testing.T) {
	path := writeTempConfig(t, `{"caster_hostname": "caster.example.com", "caster_port": 2101}`)
	cfg, err := LoadClientConfig(path)
	if err != nil {
		t.Fatalf("LoadClientConfig: %v", err)
	}
	if cfg.CasterHostName != "caster.example.com" {
		t.Errorf("CasterHostName = %q", cfg.CasterHostName)
	}
}

func TestServerConfigQueueCapacity(t *testing.T) {
	path := writeTempConfig(t, `{
		"caster_hostname": "caster.example.com",
		"caster_port": 2101,
		"queue_capacity": 256
	}`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if cfg.QueueCapacity != 256 {
		t.Errorf("QueueCapacity = %d, want 256", cfg.QueueCapacity)
	}
}

func TestCasterConfigClientCredentials(t *testing.T) {
	path := writeTempConfig(t, `{
		"listen_address": ":2101",
		"server_username": "producer",
		"server_password": "secret",
		"client_username": "consumer",
		"client_password": "hunter2"
	}`)
	cfg, err := LoadCasterConfig(path)
	if err != nil {
		t.Fatalf("LoadCasterConfig: %v", err)
	}
	if cfg.ClientUserName != "consumer" || cfg.ClientPassword != "hunter2" {
		t.Errorf("ClientUserName/ClientPassword = %q/%q", cfg.ClientUserName, cfg.ClientPassword)
	}
}

func TestLoggingConfigSlogLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"":        slog.LevelInfo,
		"info":    slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := (LoggingConfig{Level: in}).SlogLevel(); got != want {
			t.Errorf("SlogLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestServerConfigInputFilenames(t *testing.T) {
	path := writeTempConfig(t, `{
		"caster_hostname": "caster.example.com",
		"caster_port": 2101,
		"input": ["/tmp/capture1.rtcm", "/tmp/capture2.rtcm"]
	}`)
	cfg, err := LoadServerConfig(path)
	if err != nil {
		t.Fatalf("LoadServerConfig: %v", err)
	}
	if len(cfg.Filenames) != 2 || cfg.Filenames[0] != "/tmp/capture1.rtcm" {
		t.Errorf("Filenames = %v", cfg.Filenames)
	}
}
