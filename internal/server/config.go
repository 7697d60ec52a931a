package server

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the server configuration, loaded from an HCL file.
//
//	server {
//	  addr      = ":7373"
//	  log_level = "info"
//	}
//	words {
//	  file = "/etc/roletrando/words.txt"
//	}
//	ranking {
//	  database = "/var/lib/roletrando/ranking.db"
//	}
type Config struct {
	Server  *ServerSettings  `hcl:"server,block"`
	Words   *WordsSettings   `hcl:"words,block"`
	Ranking *RankingSettings `hcl:"ranking,block"`
}

// ServerSettings contains listener-level configuration.
type ServerSettings struct {
	Addr     string `hcl:"addr,optional"`
	LogLevel string `hcl:"log_level,optional"`
}

// WordsSettings points at the word/tip list. An empty file means the
// embedded default list.
type WordsSettings struct {
	File string `hcl:"file,optional"`
}

// RankingSettings locates the leaderboard database.
type RankingSettings struct {
	Database string `hcl:"database,optional"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Server: &ServerSettings{
			Addr:     ":7373",
			LogLevel: "info",
		},
		Words:   &WordsSettings{},
		Ranking: &RankingSettings{Database: "roletrando.db"},
	}
}

// LoadConfig loads configuration from an HCL file, falling back to
// DefaultConfig when the file does not exist. Missing values are filled with
// defaults.
func LoadConfig(filename string) (*Config, error) {
	if _, err := os.Stat(filename); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var config Config
	diags = gohcl.DecodeBody(file.Body, nil, &config)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	defaults := DefaultConfig()
	if config.Server == nil {
		config.Server = defaults.Server
	}
	if config.Server.Addr == "" {
		config.Server.Addr = defaults.Server.Addr
	}
	if config.Server.LogLevel == "" {
		config.Server.LogLevel = defaults.Server.LogLevel
	}
	if config.Words == nil {
		config.Words = defaults.Words
	}
	if config.Ranking == nil {
		config.Ranking = defaults.Ranking
	}
	if config.Ranking.Database == "" {
		config.Ranking.Database = defaults.Ranking.Database
	}

	return &config, nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Server.Addr == "" {
		return fmt.Errorf("server addr must not be empty")
	}
	switch c.Server.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Server.LogLevel)
	}
	if c.Ranking.Database == "" {
		return fmt.Errorf("ranking database must not be empty")
	}
	return nil
}
