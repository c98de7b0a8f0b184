package cmd

import (
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestSetDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	setDefaults()

	if got := viper.GetInt("server.port"); got != 8080 {
		t.Errorf("server.port default = %d, want 8080", got)
	}
	if got := viper.GetString("server.mode"); got != "development" {
		t.Errorf("server.mode default = %q, want development", got)
	}
	if got := viper.GetString("mongo.uri"); got != "" {
		t.Errorf("mongo.uri should default to empty (memory fallback), got %q", got)
	}
	if got := viper.GetInt("pagination.defaultLimit"); got != 10 {
		t.Errorf("pagination.defaultLimit default = %d, want 10", got)
	}
}

func TestMongoTimeoutDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	setDefaults()

	if got := viper.GetInt("mongo.connectTimeoutSeconds"); time.Duration(got)*time.Second != 5*time.Second {
		t.Errorf("connect timeout default = %ds, want 5s", got)
	}
	if got := viper.GetInt("mongo.socketTimeoutSeconds"); time.Duration(got)*time.Second != 30*time.Second {
		t.Errorf("socket timeout default = %ds, want 30s", got)
	}
}
