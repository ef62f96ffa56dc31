package application

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/demo-config/internal/config"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func newApp(t *testing.T, opts Options) *App {
	t.Helper()

	if opts.WorkDir == "" {
		opts.WorkDir = t.TempDir()
	}
	if opts.Environ == nil {
		opts.Environ = []string{}
	}

	app, err := New(context.Background(), opts, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return app
}

func TestRunPrintsDefault(t *testing.T) {
	app := newApp(t, Options{})

	var out bytes.Buffer
	if err := app.Run(&out); err != nil {
		t.Fatalf("Run returned error: %v", err)
	}
	if out.String() != "bar\n" {
		t.Fatalf("expected default output, got %q", out.String())
	}
}

func TestEnvironmentSource(t *testing.T) {
	app := newApp(t, Options{Environ: []string{"DEMO_FOO=baz"}})
	if app.Record().Foo() != "baz" {
		t.Fatalf("expected baz, got %q", app.Record().Foo())
	}
}

func TestOverrideBeatsEnvironment(t *testing.T) {
	app := newApp(t, Options{
		Environ:   []string{"DEMO_FOO=baz"},
		Overrides: []string{"demo.foo=qux"},
	})
	if app.Record().Foo() != "qux" {
		t.Fatalf("expected qux, got %q", app.Record().Foo())
	}
}

func TestPrecedenceChain(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "application.properties", "demo.foo=from-file\n")

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"propertySources":[{"name":"demo.yml","source":{"demo.foo":"from-server"}}]}`))
	}))
	t.Cleanup(server.Close)

	args, _ := config.ParseArgs([]string{"--demo.foo=from-args"})
	remote := RemoteOptions{URL: server.URL, Client: server.Client()}

	testCases := []struct {
		name string
		opts Options
		want string
	}{
		{
			name: "server only",
			opts: Options{Remote: remote},
			want: "from-server",
		},
		{
			name: "file beats server",
			opts: Options{WorkDir: dir, Remote: remote},
			want: "from-file",
		},
		{
			name: "environment beats file",
			opts: Options{WorkDir: dir, Remote: remote, Environ: []string{"DEMO_FOO=from-env"}},
			want: "from-env",
		},
		{
			name: "overrides beat environment",
			opts: Options{WorkDir: dir, Remote: remote, Environ: []string{"DEMO_FOO=from-env"}, Overrides: []string{"demo.foo=from-set"}},
			want: "from-set",
		},
		{
			name: "args beat overrides",
			opts: Options{WorkDir: dir, Remote: remote, Environ: []string{"DEMO_FOO=from-env"}, Overrides: []string{"demo.foo=from-set"}, Args: args},
			want: "from-args",
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			app := newApp(t, tc.opts)
			if got := app.Record().Foo(); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}

func TestExplicitConfigFileSkipsDiscovery(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "application.properties", "demo.foo=discovered\n")
	explicit := writeFile(t, t.TempDir(), "custom.yaml", "demo:\n  foo: explicit\n")

	app := newApp(t, Options{WorkDir: dir, ConfigFile: explicit})
	if app.Record().Foo() != "explicit" {
		t.Fatalf("expected explicit, got %q", app.Record().Foo())
	}
	// environment + explicit file
	if n := len(app.sources); n != 2 {
		t.Fatalf("expected 2 sources, got %d", n)
	}
}

func TestNewErrors(t *testing.T) {
	t.Run("missing explicit file", func(t *testing.T) {
		opts := Options{WorkDir: t.TempDir(), Environ: []string{}, ConfigFile: filepath.Join(t.TempDir(), "missing.yaml")}
		if _, err := New(context.Background(), opts, zaptest.NewLogger(t)); err == nil {
			t.Fatalf("expected error for missing config file")
		}
	})

	t.Run("invalid override", func(t *testing.T) {
		opts := Options{WorkDir: t.TempDir(), Environ: []string{}, Overrides: []string{"broken"}}
		if _, err := New(context.Background(), opts, zaptest.NewLogger(t)); !errors.Is(err, config.ErrInvalidOverride) {
			t.Fatalf("expected ErrInvalidOverride, got %v", err)
		}
	})
}

func TestRemoteFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(server.Close)

	t.Run("tolerated by default", func(t *testing.T) {
		app := newApp(t, Options{Remote: RemoteOptions{URL: server.URL, Client: server.Client()}})
		if app.Record().Foo() != "bar" {
			t.Fatalf("expected default, got %q", app.Record().Foo())
		}
	})

	t.Run("fail fast", func(t *testing.T) {
		opts := Options{
			WorkDir: t.TempDir(),
			Environ: []string{},
			Remote:  RemoteOptions{URL: server.URL, Client: server.Client(), FailFast: true},
		}
		if _, err := New(context.Background(), opts, zaptest.NewLogger(t)); !errors.Is(err, config.ErrUnexpectedStatus) {
			t.Fatalf("expected ErrUnexpectedStatus, got %v", err)
		}
	})
}

func TestSourceNamesFollowPrecedence(t *testing.T) {
	args, _ := config.ParseArgs([]string{"--demo.foo=a"})
	app := newApp(t, Options{Args: args, Overrides: []string{"demo.foo=b"}})

	want := []string{config.ArgsSourceName, overridesSourceName, config.EnvSourceName}
	if got := sourceNames(app.sources); !slices.Equal(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("closed")
}

func TestRunPropagatesWriteError(t *testing.T) {
	app := newApp(t, Options{})
	if err := app.Run(failingWriter{}); err == nil {
		t.Fatalf("expected write error")
	}
}
