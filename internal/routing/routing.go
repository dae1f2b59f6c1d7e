// Package routing provides travel-time lookups between two geographic
// points, consulting a driving-directions service when one is configured
// and falling back to a Haversine estimate on any failure. The
// credentialed HTTP client construction mirrors a Google OAuth2 client
// shape, repointed at a directions endpoint instead of a Calendar API.
package routing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	htransport "google.golang.org/api/transport/http"

	"github.com/sanjshine99/care-app-backend/internal/geo"
	"github.com/sanjshine99/care-app-backend/internal/metrics"
)

// Client resolves the travel time in minutes between two points.
type Client interface {
	TravelTime(ctx context.Context, a, b geo.Point) (int, error)
}

// FallbackClient always estimates via Haversine at a 30km/h assumption.
// It is the zero-configuration Client and the landing point of every
// degraded-mode path in HTTPClient.
type FallbackClient struct{}

func (FallbackClient) TravelTime(_ context.Context, a, b geo.Point) (int, error) {
	return geo.HaversineTravelMinutes(a, b), nil
}

// Config holds the OAuth2 credentials for a directions provider.
type Config struct {
	ClientID     string
	ClientSecret string
	APIKey       string
	Endpoint     string // base URL of the directions API
}

// InitRoutingConfig reads directions-provider configuration from
// ROUTING_API_KEY/ROUTING_CLIENT_ID/ROUTING_CLIENT_SECRET. Returns nil
// when no API key is configured, which callers treat as "use fallback".
func InitRoutingConfig() *Config {
	apiKey := os.Getenv("ROUTING_API_KEY")
	if apiKey == "" {
		return nil
	}
	return &Config{
		ClientID:     os.Getenv("ROUTING_CLIENT_ID"),
		ClientSecret: os.Getenv("ROUTING_CLIENT_SECRET"),
		APIKey:       apiKey,
		Endpoint:     envOrDefault("ROUTING_ENDPOINT", "https://maps.googleapis.com/maps/api/directions/json"),
	}
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// HTTPClient calls a Google-Directions-API-shaped endpoint for travel
// time, falling back to FallbackClient (ceil(haversine distance / 30kph))
// on any error.
type HTTPClient struct {
	cfg      Config
	http     *http.Client
	fallback Client
}

// NewHTTPClient builds a credentialed HTTP client the way every generated
// google-api-go-client service does: route through
// google.golang.org/api/transport/http with an option.ClientOption
// carrying the credential. A client id/secret pair authenticates via an
// OAuth2 client-credentials token source; bare API keys go through
// option.WithAPIKey, which has the transport append the key to every
// outgoing request so fetch need not do it by hand.
func NewHTTPClient(cfg Config) *HTTPClient {
	ctx := context.Background()

	var opts []option.ClientOption
	if cfg.ClientID != "" && cfg.ClientSecret != "" {
		ccCfg := clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     google.Endpoint.TokenURL,
		}
		opts = append(opts, option.WithTokenSource(ccCfg.TokenSource(ctx)))
	} else {
		opts = append(opts, option.WithAPIKey(cfg.APIKey))
	}

	httpClient, _, err := htransport.NewClient(ctx, opts...)
	if err != nil {
		httpClient = &http.Client{}
	}
	httpClient.Timeout = 5 * time.Second

	return &HTTPClient{
		cfg:      cfg,
		http:     httpClient,
		fallback: FallbackClient{},
	}
}

type directionsResponse struct {
	Status string `json:"status"`
	Routes []struct {
		Legs []struct {
			Duration struct {
				Value int `json:"value"` // seconds
			} `json:"duration"`
		} `json:"legs"`
	} `json:"routes"`
}

func (c *HTTPClient) TravelTime(ctx context.Context, a, b geo.Point) (int, error) {
	minutes, err := c.fetch(ctx, a, b)
	if err != nil {
		metrics.RecordRoutingFallback()
		return c.fallback.TravelTime(ctx, a, b)
	}
	return minutes, nil
}

func (c *HTTPClient) fetch(ctx context.Context, a, b geo.Point) (int, error) {
	url := fmt.Sprintf("%s?origin=%f,%f&destination=%f,%f",
		c.cfg.Endpoint, a.Lat, a.Lon, b.Lat, b.Lon)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("routing: unexpected status %d", resp.StatusCode)
	}

	var parsed directionsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, err
	}
	if parsed.Status != "OK" || len(parsed.Routes) == 0 || len(parsed.Routes[0].Legs) == 0 {
		return 0, fmt.Errorf("routing: no route found (status=%s)", parsed.Status)
	}

	seconds := parsed.Routes[0].Legs[0].Duration.Value
	minutes := seconds / 60
	if seconds%60 != 0 {
		minutes++
	}
	return minutes, nil
}

// NewDefault returns the configured HTTPClient when ROUTING_API_KEY is
// set, otherwise the pure-Haversine FallbackClient.
func NewDefault() Client {
	cfg := InitRoutingConfig()
	if cfg == nil {
		return FallbackClient{}
	}
	return NewHTTPClient(*cfg)
}
