/*
Copyright © 2025 TaskFlow contributors
*/
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/taskflowhq/taskflow/types"
)

const (
	configName = ".taskflow"
	envPrefix  = "TASKFLOW"
)

// GlobalAppConfig holds the global application configuration instance.
var GlobalAppConfig types.AppConfig

var validate = validator.New()

// InitConfig reads in config file and ENV variables if set.
func InitConfig() {
	// Load .env file first if present; absence is fine.
	_ = godotenv.Load()

	viper.SetEnvPrefix(envPrefix) // e.g., TASKFLOW_MONGO_URI
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults()

	if cfgFileFlag := viper.GetString("config"); cfgFileFlag != "" {
		viper.SetConfigFile(cfgFileFlag)
	} else {
		home, err := os.UserHomeDir()
		cobra.CheckErr(err)
		viper.AddConfigPath(".")
		viper.AddConfigPath(home)
		viper.SetConfigName(configName)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err == nil {
		if viper.GetBool("verbose") {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	} else {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			fmt.Fprintln(os.Stderr, "Error reading config file:", viper.ConfigFileUsed(), "-", err)
		}
	}

	if err := viper.Unmarshal(&GlobalAppConfig); err != nil {
		fmt.Fprintln(os.Stderr, "Error unmarshaling config:", err)
		os.Exit(1)
	}
	if err := validate.Struct(&GlobalAppConfig); err != nil {
		fmt.Fprintln(os.Stderr, "Invalid configuration:", err)
		os.Exit(1)
	}
}

// setDefaults registers every configuration default with viper.
func setDefaults() {
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.mode", "development")

	// An empty mongo.uri means the in-memory store serves everything.
	viper.SetDefault("mongo.uri", "")
	viper.SetDefault("mongo.database", "taskflow")
	viper.SetDefault("mongo.collection", "tasks")
	viper.SetDefault("mongo.connectTimeoutSeconds", 5)
	viper.SetDefault("mongo.socketTimeoutSeconds", 30)

	viper.SetDefault("pagination.defaultLimit", 10)
	viper.SetDefault("pagination.maxLimit", 100)
}

// GetConfig returns the unmarshaled application configuration.
func GetConfig() types.AppConfig {
	return GlobalAppConfig
}
