// Package config defines the necessary types to configure the portal.
// Configuration is read from config.yaml in /etc/advbs-portal,
// $HOME/.advbs-portal or the working directory.
package config

import (
	"time"

	"github.com/openkcm/common-sdk/pkg/commoncfg"
)

type Config struct {
	commoncfg.BaseConfig `mapstructure:",squash" yaml:",inline"`

	HTTP       HTTPServer `yaml:"http"`
	Backend    Backend    `yaml:"backend"`
	TokenStore TokenStore `yaml:"tokenStore"`
	Portal     Portal     `yaml:"portal"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" default:"127.0.0.1:3000"`
	ShutdownTimeout time.Duration `yaml:"shutdownTimeout" default:"5s"`
	// CSRFSecret signs the form tokens. When unset a random secret is drawn
	// at start, so tokens do not survive a restart.
	CSRFSecret commoncfg.SourceRef `yaml:"csrfSecret"`
}

// Backend locates the law firm's REST backend.
type Backend struct {
	BaseURL    string        `yaml:"baseURL" default:"http://localhost:8000"`
	Timeout    time.Duration `yaml:"timeout" default:"30s"`
	CatalogTTL time.Duration `yaml:"catalogTTL" default:"5m"`
}

type TokenStoreType string

const (
	TokenStoreFile   TokenStoreType = "file"
	TokenStoreValKey TokenStoreType = "valkey"
	TokenStoreMemory TokenStoreType = "memory"
)

// TokenStore selects where the session token survives restarts.
type TokenStore struct {
	Type   TokenStoreType `yaml:"type" default:"file"`
	File   FileStore      `yaml:"file"`
	ValKey ValKey         `yaml:"valkey"`
}

type FileStore struct {
	// Dir defaults to $HOME/.advbs-portal.
	Dir string `yaml:"dir"`
}

type ValKey struct {
	Host      commoncfg.SourceRef `yaml:"host"`
	User      commoncfg.SourceRef `yaml:"user"`
	Password  commoncfg.SourceRef `yaml:"password"`
	SecretRef commoncfg.SecretRef `yaml:"secretRef"`
	Prefix    string              `yaml:"prefix" default:"advbs-portal"`
}

type Portal struct {
	// ReverifyInterval is how often an authenticated session is checked
	// against the backend, and how often a signed-out one looks for a token
	// saved by another process. Zero disables the check.
	ReverifyInterval time.Duration `yaml:"reverifyInterval" default:"5m"`
	Landing          Landing       `yaml:"landing"`
}

// Landing is the content of the public landing page.
type Landing struct {
	FirmName      string   `yaml:"firmName" default:"Advocacia de Trânsito"`
	Practice      string   `yaml:"practice" default:"Direito de Trânsito"`
	Contact       string   `yaml:"contact"`
	Highlights    []string `yaml:"highlights"`
	Registrations []string `yaml:"registrations"`
}

// Default mirrors the default tags. The CLI uses it when no config.yaml is
// found, so that a bare binary can talk to a local backend.
func Default() *Config {
	cfg := &Config{
		HTTP: HTTPServer{
			Address:         "127.0.0.1:3000",
			ShutdownTimeout: 5 * time.Second,
		},
		Backend: Backend{
			BaseURL:    "http://localhost:8000",
			Timeout:    30 * time.Second,
			CatalogTTL: 5 * time.Minute,
		},
		TokenStore: TokenStore{
			Type: TokenStoreFile,
			ValKey: ValKey{
				Prefix: "advbs-portal",
			},
		},
		Portal: Portal{
			ReverifyInterval: 5 * time.Minute,
			Landing: Landing{
				FirmName: "Advocacia de Trânsito",
				Practice: "Direito de Trânsito",
			},
		},
	}
	cfg.Application.Name = "advbs-portal"

	return cfg
}
