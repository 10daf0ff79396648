package serve

import (
	"fmt"

	cmdUtil "github.com/ValentinKolb/dTodo/cmd/util"
	"github.com/ValentinKolb/dTodo/rpc/common"
	"github.com/ValentinKolb/dTodo/rpc/server"
	"github.com/ValentinKolb/dTodo/rpc/transport/http"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	serveCmdConfig = &common.ServerConfig{}
	ServeCmd       = &cobra.Command{
		Use:     "serve",
		Short:   "Start the dTodo server",
		Long:    `Start the dTodo server with the specified configuration. The configuration can be set via command line flags, environment variables or a config file. The format of the environment variables is DTODO_<flag> (e.g. DTODO_MAX_WORKERS=1000). When a config file is given it is watched, changes of log-level and timeout are applied without restart.`,
		PreRunE: processConfig,
		RunE:    run,
	}
)

func init() {
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", cmdUtil.WrapString("The address on which the RPC and REST api will listen"))

	key = "backend"
	ServeCmd.PersistentFlags().String(key, "file", cmdUtil.WrapString("Where the lists are persisted: file (one json document per list), sqlite (single database file) or memory (nothing survives a restart)"))

	key = "data-dir"
	ServeCmd.PersistentFlags().String(key, "data", cmdUtil.WrapString("Directory of the file and sqlite backends"))

	key = "timeout"
	ServeCmd.PersistentFlags().Int64(key, 5, cmdUtil.WrapString("Timeout in seconds of every request to a worker, 0 disables it"))

	key = "shutdown-timeout"
	ServeCmd.PersistentFlags().Int64(key, 15, cmdUtil.WrapString("Seconds a graceful shutdown may take before it is aborted"))

	key = "max-workers"
	ServeCmd.PersistentFlags().Int(key, 0, cmdUtil.WrapString("Maximum number of live workers, 0 means unlimited. Requests for further keys fail until a worker stopped"))

	key = "quarantine-corrupt"
	ServeCmd.PersistentFlags().Bool(key, true, cmdUtil.WrapString("Move snapshots that can not be decoded aside and start with an empty list. If disabled, the worker of such a key fails to start"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", cmdUtil.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))

	key = "config"
	ServeCmd.PersistentFlags().String(key, "", cmdUtil.WrapString("Optional config file (toml, yaml or json) with the same keys as the flags"))
}

// processConfig reads the configuration from the command line flags, environment variables
// and config file and converts them to the server configuration
func processConfig(cmd *cobra.Command, _ []string) error {
	// bind the flags to viper
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %s: %w", configFile, err)
		}
	}

	config, err := loadConfig()
	if err != nil {
		return err
	}
	*serveCmdConfig = config
	return nil
}

// loadConfig builds a validated server configuration from viper
func loadConfig() (common.ServerConfig, error) {
	config := common.ServerConfig{
		Endpoint:              viper.GetString("endpoint"),
		Backend:               viper.GetString("backend"),
		DataDir:               viper.GetString("data-dir"),
		QuarantineCorrupt:     viper.GetBool("quarantine-corrupt"),
		TimeoutSecond:         viper.GetInt64("timeout"),
		ShutdownTimeoutSecond: viper.GetInt64("shutdown-timeout"),
		MaxWorkers:            viper.GetInt("max-workers"),
		LogLevel:              viper.GetString("log-level"),
		ConfigFile:            viper.GetString("config"),
	}
	if err := config.Validate(); err != nil {
		return common.ServerConfig{}, err
	}
	return config, nil
}

// run starts the dTodo server
func run(_ *cobra.Command, _ []string) error {
	s, err := cmdUtil.GetSerializer()
	if err != nil {
		return err
	}

	serv := server.NewRPCServer(
		*serveCmdConfig,
		http.NewHttpServerTransport(),
		s,
	)

	if serveCmdConfig.ConfigFile != "" {
		viper.OnConfigChange(func(e fsnotify.Event) {
			if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
				return
			}
			config, err := loadConfig()
			if err != nil {
				server.Logger.Warningf("ignoring invalid config change in %s: %v", e.Name, err)
				return
			}
			if err := serv.Reload(config); err != nil {
				server.Logger.Warningf("failed to apply config change: %v", err)
			}
		})
		viper.WatchConfig()
	}

	return serv.Serve()
}
