// Package config reads the JSON configuration files for the relay's three
// binaries.  The style follows jsonconfig.GetJSONConfigFromFile and
// apps/rtcmlogger/config.GetConfig: a plain encoding/json struct, a small
// wrapper that opens the named file and logs failures through slog before
// returning the error to the caller.
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"
)

// CasterConfig configures the cmd/caster binary.
type CasterConfig struct {
	// ListenAddress is the address (host:port) the caster listens on.
	ListenAddress string `json:"listen_address"`

	// SourcetableFile names a JSON file containing the mountpoint catalogue.
	SourcetableFile string `json:"sourcetable_file"`

	// ServerUserName and ServerPassword authenticate NTRIP servers (producers)
	// trying to publish to a mountpoint.
	ServerUserName string `json:"server_username"`
	ServerPassword string `json:"server_password"`

	// ClientUserName and ClientPassword authenticate NTRIP clients (consumers)
	// trying to pull a mountpoint's stream. Left blank, the caster accepts any
	// client per spec.md §3's "credentials may be configured independently for
	// each pairing" — a caster operator who wants open consumer access simply
	// omits these.
	ClientUserName string `json:"client_username"`
	ClientPassword string `json:"client_password"`

	// ProbeIntervalSeconds controls how often the caster checks liveness of
	// its producer and consumer connections.  Zero means use the default (7s).
	ProbeIntervalSeconds uint `json:"probe_interval_seconds"`

	// EnableCRCCheck turns on RTCM3 CRC-24Q validation of producer frames.
	// Off by default: validation cost is only worth paying when a producer
	// is suspected of corrupting frames.
	EnableCRCCheck bool `json:"enable_crc_check"`

	Logging LoggingConfig `json:"logging"`
	Status  StatusConfig  `json:"status"`
}

// ClientConfig configures the cmd/ntripclient binary (the download direction:
// pulling corrections from an upstream caster).
type ClientConfig struct {
	CasterHostName string `json:"caster_hostname"`
	CasterPort     uint   `json:"caster_port"`
	Mountpoint     string `json:"mountpoint"`
	UserName       string `json:"username"`
	Password       string `json:"password"`

	Logging LoggingConfig `json:"logging"`
}

// ServerConfig configures the cmd/ntripserver binary (the upload direction:
// pushing corrections from a receiver up to a caster).
type ServerConfig struct {
	CasterHostName string `json:"caster_hostname"`
	CasterPort     uint   `json:"caster_port"`
	Mountpoint     string `json:"mountpoint"`
	UserName       string `json:"username"`
	Password       string `json:"password"`

	// Filenames is a list of local device/file names to try, first one wins —
	// the same search jsonconfig.findInputDevice does for a receiver whose
	// capture file reappears under a different name.
	Filenames []string `json:"input"`

	// QueueCapacity bounds the outbound SendQueue; see ntripserver.SendQueue.
	QueueCapacity uint `json:"queue_capacity"`

	Logging LoggingConfig `json:"logging"`
}

// LoggingConfig configures rtlog's daily activity log.
type LoggingConfig struct {
	Directory string `json:"directory"`
	Level     string `json:"level"`
}

// SlogLevel parses Level ("debug", "info", "warn", "error", case
// insensitive) into a slog.Level, defaulting to slog.LevelInfo for an empty
// or unrecognised value.
func (l LoggingConfig) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// StatusConfig configures the optional HTTP status page, served on a
// separate host/port from the NTRIP traffic itself.
type StatusConfig struct {
	Enabled bool   `json:"enabled"`
	Host    string `json:"host"`
	Port    int    `json:"port"`
}

// ProbeInterval returns the caster's configured liveness probe interval,
// defaulting to 7s per SPEC_FULL.md's resolution of the probe-interval
// Open Question.
func (c CasterConfig) ProbeInterval() time.Duration {
	return secondsOrDefault(c.ProbeIntervalSeconds, 7)
}

func secondsOrDefault(seconds uint, def uint) time.Duration {
	if seconds == 0 {
		seconds = def
	}
	return time.Duration(seconds) * time.Second
}

// LoadCasterConfig reads and parses a CasterConfig from the named file.
func LoadCasterConfig(path string) (*CasterConfig, error) {
	var c CasterConfig
	if err := loadJSON(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadClientConfig reads and parses a ClientConfig from the named file.
func LoadClientConfig(path string) (*ClientConfig, error) {
	var c ClientConfig
	if err := loadJSON(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadServerConfig reads and parses a ServerConfig from the named file.
func LoadServerConfig(path string) (*ServerConfig, error) {
	var c ServerConfig
	if err := loadJSON(path, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func loadJSON(path string, out any) error {
	file, err := os.Open(path)
	if err != nil {
		slog.Error("cannot open config file", "path", path, "error", err)
		return err
	}
	defer file.Close()

	if err := parseJSON(file, out); err != nil {
		slog.Error("cannot parse config file", "path", path, "error", err)
		return err
	}
	return nil
}

func parseJSON(r io.Reader, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("config: reading: %w", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config: parsing: %w", err)
	}
	return nil
}
