package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"

	"github.com/eugenenazirov/demo-config/internal/application"
	"github.com/eugenenazirov/demo-config/internal/config"
	"github.com/eugenenazirov/demo-config/internal/logging"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Environ(), os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "demo: %v\n", err)
		os.Exit(1)
	}
}

// run parses args, resolves the configuration and prints demo.foo to stdout.
func run(ctx context.Context, args, environ []string, stdout io.Writer) error {
	props, rest := config.ParseArgs(args)

	kingpinApp := kingpin.New("demo", "Resolves demo.foo from layered configuration sources and prints it")
	configFile := kingpinApp.Flag("config", "Path to a .properties or YAML configuration file").String()
	overrides := kingpinApp.Flag("set", "Override a property as key=value (repeatable)").Strings()
	serverURL := kingpinApp.Flag("config-server", "Config server base URL (falls back to $DEMO_CONFIG_SERVER)").String()
	appName := kingpinApp.Flag("application", "Application name requested from the config server").Default("demo").String()
	profile := kingpinApp.Flag("profile", "Profile requested from the config server (falls back to $DEMO_PROFILE, then default)").String()
	label := kingpinApp.Flag("label", "Config server label (branch or tag)").String()
	timeout := kingpinApp.Flag("config-server-timeout", "Overall time allowed for config server requests").Default("5s").Duration()
	attempts := kingpinApp.Flag("config-server-attempts", "Maximum config server requests").Default("1").Int()
	interval := kingpinApp.Flag("config-server-interval", "Minimum spacing between config server requests").Default("1s").Duration()
	failFast := kingpinApp.Flag("config-server-fail-fast", "Abort startup when the config server cannot be reached").Bool()
	logLevel := kingpinApp.Flag("log-level", "Log level").Default("info").Enum("debug", "info", "warn", "error")
	kingpinApp.Arg("args", "Additional arguments, accepted and ignored").Strings()

	if _, err := kingpinApp.Parse(rest); err != nil {
		return fmt.Errorf("parse arguments: %w", err)
	}

	env := config.NewEnvSource(environ)

	logger, err := logging.New(*logLevel)
	if err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer func() {
		_ = logger.Sync()
	}()

	app, err := application.New(ctx, application.Options{
		ConfigFile: *configFile,
		Overrides:  *overrides,
		Args:       props,
		Environ:    environ,
		Remote: application.RemoteOptions{
			URL:         withEnvFallback(*serverURL, env, "DEMO_CONFIG_SERVER"),
			Application: *appName,
			Profile:     withEnvFallback(*profile, env, "DEMO_PROFILE"),
			Label:       *label,
			Timeout:     *timeout,
			MaxAttempts: *attempts,
			Interval:    *interval,
			FailFast:    *failFast,
		},
	}, logger)
	if err != nil {
		logger.Error("failed to load configuration", zap.Error(err))
		return err
	}

	return app.Run(stdout)
}

// withEnvFallback returns value, or the named variable from env when value is empty.
// The variables come from the same environ as the demo properties, not os.Getenv.
func withEnvFallback(value string, env *config.EnvSource, name string) string {
	if value != "" {
		return value
	}
	fallback, _ := env.Lookup(name)
	return fallback
}
