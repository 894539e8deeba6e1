package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/AtorixIT/leadconsole/internal/audit"
	"github.com/AtorixIT/leadconsole/internal/session"
	"github.com/AtorixIT/leadconsole/internal/storage"
	"github.com/AtorixIT/leadconsole/internal/task"
	"github.com/AtorixIT/leadconsole/internal/upstream"
)

const (
	commandUseName              = "server"
	commandShortDescription     = "Run the lead console"
	commandLongDescription      = "Launch the admin console for managing marketing-site lead submissions"
	missingConfigurationMessage = "missing required configuration"
	loggerCreationErrorMessage  = "logger"
	logEventListening           = "listening"
	logFieldAddress             = "addr"

	flagNameApplicationAddress  = "app-addr"
	flagNameUpstreamBaseURL     = "upstream-base-url"
	flagNameSessionSecret       = "session-secret"
	flagNameAuditDataSourceName = "audit-db-dsn"
	flagNameBrandName           = "brand-name"

	flagUsageApplicationAddress  = "address for the HTTP server to listen on"
	flagUsageUpstreamBaseURL     = "base URL of the backend lead API"
	flagUsageSessionSecret       = "secret used to sign admin session cookies"
	flagUsageAuditDataSourceName = "SQLite data source for the local audit trail (empty disables it)"
	flagUsageBrandName           = "brand name shown in the console and used in export filenames"

	environmentKeyApplicationAddress  = "APP_ADDR"
	environmentKeyUpstreamBaseURL     = "UPSTREAM_BASE_URL"
	environmentKeySessionSecret       = "SESSION_SECRET"
	environmentKeyAuditDataSourceName = "AUDIT_DB_DSN"
	environmentKeyBrandName           = "BRAND_NAME"

	defaultApplicationAddress = ":8080"
	defaultBrandName          = "atorix"

	loggerContextOpenDatabase     = "open_db"
	loggerContextAutoMigrate      = "migrate"
	loggerContextServer           = "server"
	loggerContextAuditPrune       = "audit_prune"
	readHeaderTimeoutSeconds      = 5
	startupPingTimeout            = 5 * time.Second
	auditRetentionDays            = 90
	auditRetentionInterval        = 24 * time.Hour
	unexpectedArgumentsMessage    = "unexpected command arguments"
	commandInitializationFailure  = "failed to configure command"
	flagNotDefinedMessage         = "flag %s not defined"
	environmentConfigurationError = "failed to apply environment configuration"
)

// ServerConfig captures configuration needed to run the console.
type ServerConfig struct {
	ApplicationAddress  string
	UpstreamBaseURL     string
	SessionSecret       string
	AuditDataSourceName string
	BrandName           string
}

// ServerApplication constructs and executes the server command.
type ServerApplication struct {
	configurationLoader *viper.Viper
}

// NewServerApplication creates a ServerApplication with default dependencies.
func NewServerApplication() *ServerApplication {
	return &ServerApplication{
		configurationLoader: viper.New(),
	}
}

// Command builds the Cobra command for the server.
func (application *ServerApplication) Command() (*cobra.Command, error) {
	rootCommand := &cobra.Command{
		Use:   commandUseName,
		Short: commandShortDescription,
		Long:  commandLongDescription,
		RunE:  application.runCommand,
	}

	if configurationErr := application.configureCommand(rootCommand); configurationErr != nil {
		return nil, configurationErr
	}

	return rootCommand, nil
}

func (application *ServerApplication) configureCommand(command *cobra.Command) error {
	application.configurationLoader.SetDefault(environmentKeyApplicationAddress, defaultApplicationAddress)
	application.configurationLoader.SetDefault(environmentKeyUpstreamBaseURL, "")
	application.configurationLoader.SetDefault(environmentKeySessionSecret, "")
	application.configurationLoader.SetDefault(environmentKeyAuditDataSourceName, "")
	application.configurationLoader.SetDefault(environmentKeyBrandName, defaultBrandName)
	application.configurationLoader.AutomaticEnv()

	commandFlags := command.Flags()
	commandFlags.String(flagNameApplicationAddress, defaultApplicationAddress, flagUsageApplicationAddress)
	commandFlags.String(flagNameUpstreamBaseURL, "", flagUsageUpstreamBaseURL)
	commandFlags.String(flagNameSessionSecret, "", flagUsageSessionSecret)
	commandFlags.String(flagNameAuditDataSourceName, "", flagUsageAuditDataSourceName)
	commandFlags.String(flagNameBrandName, defaultBrandName, flagUsageBrandName)

	flagBindings := []struct {
		environmentKey string
		flagName       string
	}{
		{environmentKeyApplicationAddress, flagNameApplicationAddress},
		{environmentKeyUpstreamBaseURL, flagNameUpstreamBaseURL},
		{environmentKeySessionSecret, flagNameSessionSecret},
		{environmentKeyAuditDataSourceName, flagNameAuditDataSourceName},
		{environmentKeyBrandName, flagNameBrandName},
	}
	for _, binding := range flagBindings {
		if bindErr := application.bindFlag(commandFlags, binding.environmentKey, binding.flagName); bindErr != nil {
			return bindErr
		}
		if environmentErr := application.applyEnvironmentConfiguration(commandFlags, binding.environmentKey, binding.flagName); environmentErr != nil {
			return environmentErr
		}
	}

	return nil
}

func (application *ServerApplication) bindFlag(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	flag := flagSet.Lookup(flagName)
	if flag == nil {
		return fmt.Errorf(flagNotDefinedMessage, flagName)
	}

	if bindErr := application.configurationLoader.BindPFlag(environmentKey, flag); bindErr != nil {
		return bindErr
	}

	return nil
}

func (application *ServerApplication) applyEnvironmentConfiguration(flagSet *pflag.FlagSet, environmentKey string, flagName string) error {
	environmentValue, environmentFound := os.LookupEnv(environmentKey)
	if !environmentFound {
		return nil
	}

	if setErr := flagSet.Set(flagName, environmentValue); setErr != nil {
		return fmt.Errorf("%s: %w", environmentConfigurationError, setErr)
	}

	return nil
}

func (application *ServerApplication) loadConfiguration() ServerConfig {
	return ServerConfig{
		ApplicationAddress:  application.configurationLoader.GetString(environmentKeyApplicationAddress),
		UpstreamBaseURL:     strings.TrimSpace(application.configurationLoader.GetString(environmentKeyUpstreamBaseURL)),
		SessionSecret:       strings.TrimSpace(application.configurationLoader.GetString(environmentKeySessionSecret)),
		AuditDataSourceName: strings.TrimSpace(application.configurationLoader.GetString(environmentKeyAuditDataSourceName)),
		BrandName:           strings.TrimSpace(application.configurationLoader.GetString(environmentKeyBrandName)),
	}
}

func (application *ServerApplication) runCommand(command *cobra.Command, arguments []string) error {
	if len(arguments) > 0 {
		return fmt.Errorf("%s: %s", unexpectedArgumentsMessage, strings.Join(arguments, " "))
	}

	serverConfig := application.loadConfiguration()
	if validationErr := ensureRequiredConfiguration(serverConfig); validationErr != nil {
		return validationErr
	}

	logger, loggerErr := zap.NewProduction()
	if loggerErr != nil {
		return fmt.Errorf("%s: %w", loggerCreationErrorMessage, loggerErr)
	}
	defer func() {
		_ = logger.Sync()
	}()

	auditRecorder := audit.NewRecorder(nil, logger)
	if serverConfig.AuditDataSourceName != "" {
		database, databaseErr := storage.OpenDatabase(storage.Config{
			DriverName:     storage.DriverNameSQLite,
			DataSourceName: serverConfig.AuditDataSourceName,
		})
		if databaseErr != nil {
			logger.Error(loggerContextOpenDatabase, zap.Error(databaseErr))
			return fmt.Errorf("%s: %w", loggerContextOpenDatabase, databaseErr)
		}
		if migrateErr := storage.AutoMigrate(database); migrateErr != nil {
			logger.Error(loggerContextAutoMigrate, zap.Error(migrateErr))
			return fmt.Errorf("%s: %w", loggerContextAutoMigrate, migrateErr)
		}
		auditRecorder = audit.NewRecorder(database, logger)

		retentionJob := task.NewAuditRetentionJob(database, logger, task.AuditRetentionConfig{RetentionDays: auditRetentionDays})
		retentionScheduler := task.NewScheduler(auditRetentionInterval, func(runtimeContext context.Context) {
			if pruneErr := retentionJob.Run(runtimeContext); pruneErr != nil {
				logger.Warn(loggerContextAuditPrune, zap.Error(pruneErr))
			}
		})
		retentionScheduler.Start(command.Context())
		defer retentionScheduler.Stop()
	}

	upstreamClient := upstream.NewClient(serverConfig.UpstreamBaseURL, logger)
	sessionStore := session.NewStore(serverConfig.SessionSecret, logger)

	go func() {
		pingContext, cancel := context.WithTimeout(context.Background(), startupPingTimeout)
		defer cancel()
		upstreamClient.Ping(pingContext)
	}()

	router := buildRouter(logger, upstreamClient, sessionStore, auditRecorder, serverConfig.BrandName)

	httpServer := &http.Server{
		Addr:              serverConfig.ApplicationAddress,
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeoutSeconds * time.Second,
	}

	logger.Info(logEventListening, zap.String(logFieldAddress, serverConfig.ApplicationAddress))
	if serveErr := httpServer.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
		logger.Error(loggerContextServer, zap.Error(serveErr))
		return fmt.Errorf("%s: %w", loggerContextServer, serveErr)
	}

	return nil
}

func ensureRequiredConfiguration(configuration ServerConfig) error {
	var missingParameters []string

	if configuration.UpstreamBaseURL == "" {
		missingParameters = append(missingParameters, flagNameUpstreamBaseURL)
	}

	if configuration.SessionSecret == "" {
		missingParameters = append(missingParameters, flagNameSessionSecret)
	}

	if len(missingParameters) == 0 {
		return nil
	}

	return fmt.Errorf("%s: %s", missingConfigurationMessage, strings.Join(missingParameters, ", "))
}

func main() {
	application := NewServerApplication()
	rootCommand, commandErr := application.Command()
	if commandErr != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", commandInitializationFailure, commandErr)
		os.Exit(1)
	}

	if executeErr := rootCommand.Execute(); executeErr != nil {
		os.Exit(1)
	}
}
