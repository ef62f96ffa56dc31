package config

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"
)

const (
	defaultRemoteApplication = "demo"
	defaultRemoteProfile     = "default"
)

// ErrUnexpectedStatus indicates the config server answered with a non-2xx status.
var ErrUnexpectedStatus = errors.New("unexpected config server status")

// errPermanent marks failures that another attempt cannot fix.
var errPermanent = errors.New("not retryable")

// RemoteOptions describes where and how to fetch properties from a config server.
type RemoteOptions struct {
	URL         string
	Application string
	Profile     string
	Label       string
	Client      *http.Client
	// MaxAttempts bounds the number of requests; values below 1 mean a single attempt.
	MaxAttempts int
	// Interval is the minimum spacing between attempts.
	Interval time.Duration
}

type remoteEnvironment struct {
	Name            string                 `json:"name"`
	Profiles        []string               `json:"profiles"`
	Label           *string                `json:"label"`
	Version         *string                `json:"version"`
	PropertySources []remotePropertySource `json:"propertySources"`
}

type remotePropertySource struct {
	Name   string         `json:"name"`
	Source map[string]any `json:"source"`
}

// FetchRemote loads the property sources served for the configured application and
// profile. Earlier property sources in the response take precedence over later ones.
func FetchRemote(ctx context.Context, opts RemoteOptions) (*MapSource, error) {
	endpoint, err := remoteEndpoint(opts)
	if err != nil {
		return nil, err
	}

	client := opts.Client
	if client == nil {
		client = http.DefaultClient
	}

	attempts := opts.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	every := rate.Inf
	if opts.Interval > 0 {
		every = rate.Every(opts.Interval)
	}
	limiter := rate.NewLimiter(every, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := limiter.Wait(ctx); err != nil {
			if lastErr != nil {
				return nil, fmt.Errorf("fetch %s: %w (last error: %v)", endpoint, err, lastErr)
			}
			return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
		}

		env, err := fetchEnvironment(ctx, client, endpoint)
		if err == nil {
			return NewMapSource(remoteSourceName(opts.URL), mergePropertySources(env.PropertySources)), nil
		}
		lastErr = err
		if errors.Is(err, errPermanent) {
			return nil, fmt.Errorf("fetch %s: %w", endpoint, err)
		}
	}

	return nil, fmt.Errorf("fetch %s after %d attempt(s): %w", endpoint, attempts, lastErr)
}

// remoteEndpoint builds {url}/{application}/{profile}[/{label}] from opts.
func remoteEndpoint(opts RemoteOptions) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(opts.URL), "/")
	if base == "" {
		return "", errors.New("config server URL is empty")
	}
	if _, err := url.ParseRequestURI(base); err != nil {
		return "", fmt.Errorf("parse config server URL: %w", err)
	}

	application := opts.Application
	if application == "" {
		application = defaultRemoteApplication
	}
	profile := opts.Profile
	if profile == "" {
		profile = defaultRemoteProfile
	}

	endpoint := base + "/" + url.PathEscape(application) + "/" + url.PathEscape(profile)
	if opts.Label != "" {
		// The server expects slashes inside a label encoded as "(_)".
		endpoint += "/" + url.PathEscape(strings.ReplaceAll(opts.Label, "/", "(_)"))
	}
	return endpoint, nil
}

// fetchEnvironment performs one request and decodes the config server response.
func fetchEnvironment(ctx context.Context, client *http.Client, endpoint string) (*remoteEnvironment, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 && resp.StatusCode <= 499 {
		return nil, fmt.Errorf("%w: %w: %d", errPermanent, ErrUnexpectedStatus, resp.StatusCode)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()

	var env remoteEnvironment
	if err := decoder.Decode(&env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &env, nil
}

// mergePropertySources flattens every property source into one map. Sources are
// applied last to first so the first listed source wins.
func mergePropertySources(sources []remotePropertySource) map[string]string {
	merged := make(map[string]string)
	for i := len(sources) - 1; i >= 0; i-- {
		flattenValue("", sources[i].Source, merged)
	}
	return merged
}

// flattenValue writes value into props under its dotted path. Nested objects extend
// the path with ".key", arrays with "[i]".
func flattenValue(prefix string, value any, props map[string]string) {
	switch v := value.(type) {
	case map[string]any:
		for key, child := range v {
			flattenValue(withDottedPrefix(prefix, key), child, props)
		}
	case []any:
		for i, child := range v {
			flattenValue(prefix+"["+strconv.Itoa(i)+"]", child, props)
		}
	default:
		if prefix != "" {
			props[prefix] = stringify(v)
		}
	}
}

// stringify renders a decoded JSON scalar the way it appeared on the wire.
func stringify(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

// remoteSourceName names a config server source after its base URL.
func remoteSourceName(base string) string {
	return "configServer [" + strings.TrimRight(strings.TrimSpace(base), "/") + "]"
}
