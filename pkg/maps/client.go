package maps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	pkgerrors "github.com/angelmondragon/farmstand-backend/pkg/errors"
)

const (
	defaultBaseURL              = "https://maps.googleapis.com/maps/api"
	defaultRegion               = "US"
	requestBodyReadLimit  int64 = 1024
	statusOK                    = "OK"
	statusZeroResults           = "ZERO_RESULTS"
)

var (
	errAPIKeyRequired = errors.New("google maps api key is required")
	zipPattern        = regexp.MustCompile(`^\d{5}$`)
)

// Client wraps the Google Geocoding API used to turn zip codes into coordinates.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	region     string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the configured API base URL.
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		trimmed := strings.TrimSpace(baseURL)
		if trimmed != "" {
			c.baseURL = trimmed
		}
	}
}

// NewClient builds the Google Maps client given an API key.
func NewClient(apiKey string, opts ...Option) (*Client, error) {
	trimmedKey := strings.TrimSpace(apiKey)
	if trimmedKey == "" {
		return nil, errAPIKeyRequired
	}

	client := &Client{
		apiKey:     trimmedKey,
		baseURL:    defaultBaseURL,
		region:     defaultRegion,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// LatLng is the latitude/longitude pair returned by Google.
type LatLng struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// IsValidZip reports whether zip is a five digit US zip code.
func IsValidZip(zip string) bool {
	return zipPattern.MatchString(zip)
}

// GeocodeZip resolves a five digit zip code to its centroid. An unknown zip returns (nil, nil).
func (c *Client) GeocodeZip(ctx context.Context, zip string) (*LatLng, error) {
	if c == nil {
		return nil, pkgerrors.New(pkgerrors.CodeDependency, "google maps client not configured")
	}
	zip = strings.TrimSpace(zip)
	if !IsValidZip(zip) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "zip code must be 5 digits")
	}

	query := url.Values{}
	query.Set("components", fmt.Sprintf("postal_code:%s|country:%s", zip, c.region))
	query.Set("key", c.apiKey)
	endpoint := fmt.Sprintf("%s/geocode/json?%s", strings.TrimRight(c.baseURL, "/"), query.Encode())

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build geocode request")
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, pkgerrors.Wrap(pkgerrors.CodeTimeout, err, "execute geocode request")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute geocode request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, requestBodyReadLimit))
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg))), "geocode request failed")
	}

	var apiResp struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"error_message"`
		Results      []struct {
			Geometry struct {
				Location LatLng `json:"location"`
			} `json:"geometry"`
		} `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode geocode response")
	}

	switch apiResp.Status {
	case statusOK:
		if len(apiResp.Results) == 0 {
			return nil, nil
		}
		loc := apiResp.Results[0].Geometry.Location
		return &loc, nil
	case statusZeroResults:
		return nil, nil
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, fmt.Errorf("status %s: %s", apiResp.Status, apiResp.ErrorMessage), "geocode request rejected")
	}
}
