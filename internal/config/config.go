package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/eversync/eversync/internal/utils"
)

var (
	home, _            = os.UserHomeDir()
	DefaultHomeDir     = filepath.Join(home, ".eversync")
	DefaultConfigPath  = filepath.Join(DefaultHomeDir, "config.json")
	DefaultStatePath   = filepath.Join(DefaultHomeDir, "state.json")
	DefaultLogFilePath = filepath.Join(DefaultHomeDir, "logs", "eversync.log")
	DefaultServiceHost = "app.yinxiang.com"
	DefaultNotebook    = "Eversync"
	DefaultWorkers     = 4
	MaxWorkers         = 32
)

var (
	ErrNoToken       = errors.New("config: developer token missing, set EVERSYNC_DEV_TOKEN")
	ErrNoNotebook    = errors.New("config: notebook name missing")
	ErrNoServiceHost = errors.New("config: service host missing")
)

type Config struct {
	Dir         string `json:"dir"`
	Notebook    string `json:"notebook"`
	ServiceHost string `json:"service_host"`
	Token       string `json:"-"`
	StateFile   string `json:"state_file"`
	LogFile     string `json:"log_file"`
	Workers     int    `json:"workers"`
	Force       bool   `json:"-"`
	Debug       bool   `json:"debug"`
	Path        string `json:"-"`
}

// Validate normalizes paths and the service url in place. It runs before any
// network or state I/O so a bad setup fails fast.
func (c *Config) Validate() error {
	c.Token = strings.TrimSpace(c.Token)
	if c.Token == "" {
		return ErrNoToken
	}

	c.Notebook = strings.TrimSpace(c.Notebook)
	if c.Notebook == "" {
		return ErrNoNotebook
	}

	baseURL, err := ServiceURL(c.ServiceHost)
	if err != nil {
		return err
	}
	c.ServiceHost = baseURL

	if c.Dir == "" {
		c.Dir = "."
	}
	if c.Dir, err = utils.ResolvePath(c.Dir); err != nil {
		return fmt.Errorf("dir: %w", err)
	}

	if c.StateFile == "" {
		c.StateFile = DefaultStatePath
	}
	if c.StateFile, err = utils.ResolvePath(c.StateFile); err != nil {
		return fmt.Errorf("state file: %w", err)
	}

	if c.LogFile == "" {
		c.LogFile = DefaultLogFilePath
	}
	if c.LogFile, err = utils.ResolvePath(c.LogFile); err != nil {
		return fmt.Errorf("log file: %w", err)
	}

	switch {
	case c.Workers <= 0:
		c.Workers = DefaultWorkers
	case c.Workers > MaxWorkers:
		c.Workers = MaxWorkers
	}

	return nil
}

// ServiceURL turns a bare host (`app.yinxiang.com`) or a full url into the
// base url of the note service.
func ServiceURL(host string) (string, error) {
	host = strings.TrimSpace(host)
	if host == "" {
		return "", ErrNoServiceHost
	}
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}

	u, err := url.Parse(host)
	if err != nil {
		return "", fmt.Errorf("invalid service url %q: %w", host, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", fmt.Errorf("invalid service url %q: scheme must be http or https", host)
	}
	if u.Host == "" {
		return "", fmt.Errorf("invalid service url %q: missing host", host)
	}

	return strings.TrimRight(u.String(), "/"), nil
}
