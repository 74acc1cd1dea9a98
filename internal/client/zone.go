package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/fivetwenty-io/autotask-client/internal/constants"
	"github.com/fivetwenty-io/autotask-client/internal/executor"
	athttp "github.com/fivetwenty-io/autotask-client/internal/http"
	"github.com/fivetwenty-io/autotask-client/pkg/autotask"
)

const zoneEndpoint = "zoneInformation"

// ZoneResolver looks up which zone serves an API user.
type ZoneResolver struct {
	httpClient   *athttp.Client
	exec         *executor.Executor
	cache        *autotask.CacheManager
	discoveryURL string
}

// NewZoneResolver creates a resolver querying discoveryURL.
func NewZoneResolver(httpClient *athttp.Client, exec *executor.Executor, cache *autotask.CacheManager, discoveryURL string) *ZoneResolver {
	if discoveryURL == "" {
		discoveryURL = constants.ZoneDiscoveryURL
	}

	return &ZoneResolver{
		httpClient:   httpClient,
		exec:         exec,
		cache:        cache,
		discoveryURL: discoveryURL,
	}
}

// Resolve returns the zone for username, from cache when possible.
func (r *ZoneResolver) Resolve(ctx context.Context, username string) (autotask.ZoneInfo, error) {
	key := r.cache.GetCacheKey("zone", strings.ToLower(username), nil)

	var zone autotask.ZoneInfo
	if r.cache.GetJSON(ctx, key, &zone) == nil && zone.URL != "" {
		return zone, nil
	}

	resp, err := r.exec.Execute(ctx, func(ctx context.Context) (*autotask.ResponseEnvelope, error) {
		return r.httpClient.Get(ctx, r.discoveryURL, url.Values{"user": []string{username}})
	}, zoneEndpoint, http.MethodGet)
	if err != nil {
		return autotask.ZoneInfo{}, fmt.Errorf("discovering zone for %s: %w", username, err)
	}

	err = json.Unmarshal(resp.Body, &zone)
	if err != nil {
		return autotask.ZoneInfo{}, fmt.Errorf("parsing zone information: %w", err)
	}

	if zone.URL == "" {
		return autotask.ZoneInfo{}, autotask.NewConfigurationError(
			fmt.Sprintf("%s for %s", autotask.ErrZoneNotResolved.Error(), username),
			autotask.ErrZoneNotResolved,
		)
	}

	_ = r.cache.SetJSON(ctx, key, zone, constants.ZoneCacheTTL)

	return zone, nil
}

// RESTBaseURL turns a zone or configured base URL into the versioned REST root.
func RESTBaseURL(zoneURL string) string {
	base := strings.TrimRight(zoneURL, "/")
	if strings.HasSuffix(strings.ToLower(base), "/"+constants.APIVersionPath) {
		return base
	}

	return base + "/" + constants.APIVersionPath
}

// serviceRoot strips the version segment, for endpoints outside it.
func serviceRoot(restBase string) string {
	base := strings.TrimRight(restBase, "/")
	suffix := "/" + constants.APIVersionPath

	if strings.HasSuffix(strings.ToLower(base), suffix) {
		return base[:len(base)-len(suffix)]
	}

	return base
}
