package serve

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mjansen/strata/cmd/util"
	"github.com/mjansen/strata/lib/backend"
	"github.com/mjansen/strata/lib/facade"
	"github.com/mjansen/strata/server"
)

var (
	// ServeCmd represents the serve command
	ServeCmd = &cobra.Command{
		Use:     "serve",
		Short:   "Start the strata HTTP server",
		Long:    `Start the strata HTTP server with the specified configuration. The configuration can be set via command line flags or environment variables. The format of the environment variables is STRATA_<flag> (e.g. STRATA_ENDPOINT=0.0.0.0:9090)`,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return util.BindCommandFlags(cmd) },
		RunE:    run,
	}
)

func init() {
	// initialize viper
	cobra.OnInitialize(util.InitConfig)

	// add flags
	key := "endpoint"
	ServeCmd.PersistentFlags().String(key, "0.0.0.0:8080", util.WrapString("The address on which the API will listen"))

	key = "log-level"
	ServeCmd.PersistentFlags().String(key, "info", util.WrapString("LogLevel is the level at which logs will be output (debug, info, warn, error)"))
}

// run starts the strata server
func run(_ *cobra.Command, _ []string) error {
	logger, err := newLogger(viper.GetString("log-level"))
	if err != nil {
		return err
	}
	slog.SetDefault(logger)

	// build the storage stack: backend, instrumentation, façade
	bk, err := util.GetBackend()
	if err != nil {
		return err
	}
	defer bk.Close()

	instrumented := backend.NewInstrumented(bk)

	s, err := util.GetSerializer()
	if err != nil {
		return err
	}

	store := facade.NewStore(instrumented, s)

	info := bk.Info()
	logger.Info("backend ready",
		"backend", info.Name,
		"version", info.Version,
		"serializer", s.Name(),
	)

	srv := server.New(server.Config{
		Endpoint:    viper.GetString("endpoint"),
		LogRequests: viper.GetString("log-level") == "debug",
	}, instrumented, store, logger)

	return srv.Serve()
}

// newLogger builds a text slog logger at the configured level
func newLogger(level string) (*slog.Logger, error) {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "info":
		lvl = slog.LevelInfo
	case "warning", "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		return nil, fmt.Errorf("invalid log level: %s. must be one of debug, info, warn, error", level)
	}

	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})), nil
}
