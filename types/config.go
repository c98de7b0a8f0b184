/*
Copyright © 2025 TaskFlow contributors
*/
package types

import "time"

// AppConfig represents the complete application configuration
type AppConfig struct {
	Verbose    bool             `mapstructure:"verbose"`
	Config     string           `mapstructure:"config"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Mongo      MongoConfig      `mapstructure:"mongo"`
	Pagination PaginationConfig `mapstructure:"pagination" validate:"required"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`
	// Mode is "development" or "production". Development mode includes
	// internal error detail in 500 responses.
	Mode string `mapstructure:"mode" validate:"required,oneof=development production"`
}

// MongoConfig holds the document backend settings. An empty URI means no
// database is configured and the in-memory store serves all requests.
type MongoConfig struct {
	URI        string `mapstructure:"uri"`
	Database   string `mapstructure:"database" validate:"required_with=URI"`
	Collection string `mapstructure:"collection" validate:"required_with=URI"`
	// ConnectTimeoutSeconds bounds server selection (default 5).
	ConnectTimeoutSeconds int `mapstructure:"connectTimeoutSeconds" validate:"omitempty,min=1,max=120"`
	// SocketTimeoutSeconds bounds idle socket reads (default 30).
	SocketTimeoutSeconds int `mapstructure:"socketTimeoutSeconds" validate:"omitempty,min=1,max=600"`
}

// ConnectTimeout returns the configured connect timeout as a duration.
func (c MongoConfig) ConnectTimeout() time.Duration {
	if c.ConnectTimeoutSeconds <= 0 {
		return 5 * time.Second
	}
	return time.Duration(c.ConnectTimeoutSeconds) * time.Second
}

// SocketTimeout returns the configured socket timeout as a duration.
func (c MongoConfig) SocketTimeout() time.Duration {
	if c.SocketTimeoutSeconds <= 0 {
		return 30 * time.Second
	}
	return time.Duration(c.SocketTimeoutSeconds) * time.Second
}

// PaginationConfig holds listing defaults
type PaginationConfig struct {
	DefaultLimit int `mapstructure:"defaultLimit" validate:"required,min=1"`
	MaxLimit     int `mapstructure:"maxLimit" validate:"required,min=1"`
}

// IsDevelopment reports whether the server runs in development mode.
func (c AppConfig) IsDevelopment() bool {
	return c.Server.Mode == "development"
}
