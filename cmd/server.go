package main

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"procodus.dev/fleet-inventory/internal/httpapi"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Run the inventory API server",
	Long: `Run the fleet inventory API server that:
- Serves the REST API for tenants, gateways, devices, and device types
- Persists inventory state in PostgreSQL
- Records every gateway mutation in the audit log
- Optionally publishes gateway lifecycle events to RabbitMQ`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(serverCmd)

	// Server-specific flags
	serverCmd.Flags().Int("http-port", 8080, "HTTP server port")
	serverCmd.Flags().String("db-host", "localhost", "PostgreSQL host")
	serverCmd.Flags().Int("db-port", 5432, "PostgreSQL port")
	serverCmd.Flags().String("db-user", "inventory", "PostgreSQL user")
	serverCmd.Flags().String("db-password", "", "PostgreSQL password")
	serverCmd.Flags().String("db-name", "inventory", "PostgreSQL database name")
	serverCmd.Flags().String("db-sslmode", "disable", "PostgreSQL SSL mode")
	serverCmd.Flags().String("mq-url", "", "RabbitMQ URL for the gateway event feed (empty disables it)")
	serverCmd.Flags().String("mq-queue", "gateway-events", "RabbitMQ queue for gateway events")
	serverCmd.Flags().Bool("debug", false, "expose internal error detail in 500 responses")

	// Bind flags to viper
	_ = viper.BindPFlag("server.http.port", serverCmd.Flags().Lookup("http-port"))
	_ = viper.BindPFlag("server.db.host", serverCmd.Flags().Lookup("db-host"))
	_ = viper.BindPFlag("server.db.port", serverCmd.Flags().Lookup("db-port"))
	_ = viper.BindPFlag("server.db.user", serverCmd.Flags().Lookup("db-user"))
	_ = viper.BindPFlag("server.db.password", serverCmd.Flags().Lookup("db-password"))
	_ = viper.BindPFlag("server.db.name", serverCmd.Flags().Lookup("db-name"))
	_ = viper.BindPFlag("server.db.sslmode", serverCmd.Flags().Lookup("db-sslmode"))
	_ = viper.BindPFlag("server.mq.url", serverCmd.Flags().Lookup("mq-url"))
	_ = viper.BindPFlag("server.mq.queue", serverCmd.Flags().Lookup("mq-queue"))
	_ = viper.BindPFlag("server.debug", serverCmd.Flags().Lookup("debug"))
}

func runServer(_ *cobra.Command, _ []string) error {
	logger := GetLogger()
	logger.Info("starting fleet inventory service")

	// Create server configuration from viper
	config := &httpapi.ServerConfig{
		Logger:     logger,
		HTTPPort:   viper.GetInt("server.http.port"),
		DBHost:     viper.GetString("server.db.host"),
		DBPort:     viper.GetInt("server.db.port"),
		DBUser:     viper.GetString("server.db.user"),
		DBPassword: viper.GetString("server.db.password"),
		DBName:     viper.GetString("server.db.name"),
		DBSSLMode:  viper.GetString("server.db.sslmode"),
		MQURL:      viper.GetString("server.mq.url"),
		MQQueue:    viper.GetString("server.mq.queue"),
		Debug:      viper.GetBool("server.debug"),
	}

	// Create and run server
	server, err := httpapi.NewServer(config)
	if err != nil {
		logger.Error("failed to create server", "error", err)
		return err
	}

	logger.Info("server configuration",
		"http_port", config.HTTPPort,
		"db_host", config.DBHost,
		"db_name", config.DBName,
		"event_feed", config.MQURL != "",
	)

	if err := server.Run(context.Background()); err != nil {
		logger.Error("server error", "error", err)
		return err
	}

	logger.Info("server stopped")
	return nil
}
