package smhi

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/evanhutnik/tripcheck-service/internal/common"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

const Name = "smhi"

// The SMHI forecast grid. Positions outside it are served by the global provider.
const (
	minLat = 52.5
	maxLat = 70.75
	minLon = 2.25
	maxLon = 38.0
)

// InRegion reports whether SMHI forecasts cover the position.
func InRegion(lat, lon float64) bool {
	return lat >= minLat && lat <= maxLat && lon >= minLon && lon <= maxLon
}

type ClientOption func(*Client)

type Client struct {
	baseUrl string
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		panic("Missing baseUrl in smhi client")
	}
	return c
}

func (c *Client) Name() string {
	return Name
}

// Forecast returns the raw point forecast for a position.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*Response, error) {
	reqUrl := fmt.Sprintf("%v/api/category/pmp3g/version/2/geotype/point/lon/%.6f/lat/%.6f/data.json", c.baseUrl, lon, lat)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build smhi request: %w", err)
	}
	resp, err := common.GetWithRetry(req, Name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var respObj Response
	if err := json.NewDecoder(resp.Body).Decode(&respObj); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling response from smhi: %v", t.ErrUpstreamFormat, err)
	}
	return &respObj, nil
}

func (c *Client) Fetch(ctx context.Context, lat, lon float64, at time.Time) (*t.Observation, error) {
	resp, err := c.Forecast(ctx, lat, lon)
	if err != nil {
		return nil, err
	}
	return Normalize(resp, at)
}
