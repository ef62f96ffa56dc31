package application

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/eugenenazirov/demo-config/internal/config"
)

const overridesSourceName = "overrides"

// RemoteOptions configures the optional config server source.
type RemoteOptions struct {
	URL         string
	Application string
	Profile     string
	Label       string
	Timeout     time.Duration
	MaxAttempts int
	Interval    time.Duration
	// FailFast turns a failed fetch into a startup error instead of a warning.
	FailFast bool
	Client   *http.Client
}

// Options carries everything main parsed from the command line.
type Options struct {
	// ConfigFile is an explicit property file. When set, default files are not discovered.
	ConfigFile string
	// WorkDir is searched for default property files. Empty means the current directory.
	WorkDir string
	// Overrides are key=value pairs from --set flags.
	Overrides []string
	// Args holds --dotted.key=value properties pulled from the raw arguments.
	Args *config.MapSource
	// Environ replaces os.Environ when non-nil.
	Environ []string
	Remote  RemoteOptions
}

// App holds the resolved configuration and the sources it came from.
type App struct {
	sources []config.Source
	record  config.Record
	logger  *zap.Logger
}

// New builds the source chain, highest precedence first:
// command-line properties > --set overrides > environment > property files > config server.
func New(ctx context.Context, opts Options, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	sources := make([]config.Source, 0, 6)

	if opts.Args != nil && opts.Args.Len() > 0 {
		sources = append(sources, opts.Args)
	}

	if len(opts.Overrides) > 0 {
		overrides, err := config.ParseOverrides(overridesSourceName, opts.Overrides)
		if err != nil {
			return nil, fmt.Errorf("parse overrides: %w", err)
		}
		sources = append(sources, overrides)
	}

	if opts.Environ != nil {
		sources = append(sources, config.NewEnvSource(opts.Environ))
	} else {
		sources = append(sources, config.Environment())
	}

	files, err := fileSources(opts, logger)
	if err != nil {
		return nil, err
	}
	sources = append(sources, files...)

	remote, err := remoteSource(ctx, opts.Remote, logger)
	if err != nil {
		return nil, err
	}
	if remote != nil {
		sources = append(sources, remote)
	}

	return &App{
		sources: sources,
		record:  config.Load(sources...),
		logger:  logger,
	}, nil
}

// Record returns the resolved configuration.
func (a *App) Record() config.Record {
	return a.record
}

// Run logs where each value came from and writes demo.foo to w.
func (a *App) Run(w io.Writer) error {
	a.logger.Debug("resolving configuration",
		zap.Strings("keys", config.Keys()),
		zap.Strings("sources", sourceNames(a.sources)),
	)
	for _, res := range config.Explain(a.sources...) {
		a.logger.Debug("configuration resolved",
			zap.String("key", res.Key),
			zap.String("source", res.Source),
			zap.Bool("defaulted", res.Defaulted()),
		)
	}

	if _, err := fmt.Fprintln(w, a.record.Foo()); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

// sourceNames lists the names of sources in precedence order.
func sourceNames(sources []config.Source) []string {
	names := make([]string, 0, len(sources))
	for _, src := range sources {
		names = append(names, src.Name())
	}
	return names
}

// fileSources loads the explicit config file, or the default files found in the work dir.
func fileSources(opts Options, logger *zap.Logger) ([]config.Source, error) {
	if opts.ConfigFile != "" {
		src, err := config.LoadFile(opts.ConfigFile)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		logger.Debug("config file loaded", zap.String("path", opts.ConfigFile), zap.Strings("keys", src.Keys()))
		return []config.Source{src}, nil
	}

	dir := opts.WorkDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}

	paths, err := config.DiscoverFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("discover config files: %w", err)
	}

	sources := make([]config.Source, 0, len(paths))
	for _, path := range paths {
		src, err := config.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
		logger.Debug("config file loaded", zap.String("path", path), zap.Strings("keys", src.Keys()))
		sources = append(sources, src)
	}
	return sources, nil
}

// remoteSource fetches the config server properties when a URL is configured.
// Failures are logged and skipped unless FailFast is set.
func remoteSource(ctx context.Context, opts RemoteOptions, logger *zap.Logger) (*config.MapSource, error) {
	if opts.URL == "" {
		return nil, nil
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	src, err := config.FetchRemote(ctx, config.RemoteOptions{
		URL:         opts.URL,
		Application: opts.Application,
		Profile:     opts.Profile,
		Label:       opts.Label,
		Client:      opts.Client,
		MaxAttempts: opts.MaxAttempts,
		Interval:    opts.Interval,
	})
	if err != nil {
		if opts.FailFast {
			return nil, fmt.Errorf("fetch remote configuration: %w", err)
		}
		logger.Warn("config server unavailable, continuing without it", zap.String("url", opts.URL), zap.Error(err))
		return nil, nil
	}

	logger.Debug("config server loaded", zap.String("url", opts.URL), zap.Strings("keys", src.Keys()))
	return src, nil
}
