package openmeteo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/evanhutnik/tripcheck-service/internal/common"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

const Name = "open-meteo"

// ZoneResolver resolves the IANA timezone used for the daily sunrise/sunset block.
type ZoneResolver interface {
	GetTimezone(latitude, longitude float64) (string, error)
}

type ClientOption func(*Client)

type Client struct {
	baseUrl      string
	forecastDays int
	zones        ZoneResolver
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

func ForecastDaysOption(days int) ClientOption {
	return func(c *Client) {
		c.forecastDays = days
	}
}

// ZoneResolverOption sets the timezone lookup. Without one Open-Meteo picks the zone itself.
func ZoneResolverOption(zones ZoneResolver) ClientOption {
	return func(c *Client) {
		c.zones = zones
	}
}

func New(opts ...ClientOption) *Client {
	c := &Client{forecastDays: 7}
	for _, opt := range opts {
		opt(c)
	}

	if c.baseUrl == "" {
		panic("Missing baseUrl in open-meteo client")
	}
	return c
}

func (c *Client) Name() string {
	return Name
}

func (c *Client) timezone(lat, lon float64) string {
	if c.zones == nil {
		return "auto"
	}
	tz, err := c.zones.GetTimezone(lat, lon)
	if err != nil {
		return "auto"
	}
	return tz
}

// Forecast returns the raw hourly and daily forecast for a position.
func (c *Client) Forecast(ctx context.Context, lat, lon float64) (*Response, error) {
	req, err := url.Parse(c.baseUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse open-meteo baseUrl %s: %w", c.baseUrl, err)
	}

	q := req.Query()
	q.Set("latitude", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("longitude", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("hourly", strings.Join([]string{"temperature_2m", "precipitation", "weather_code", "wind_speed_10m", "visibility"}, ","))
	q.Set("daily", "sunrise,sunset")
	q.Set("timezone", c.timezone(lat, lon))
	q.Set("forecast_days", strconv.Itoa(c.forecastDays))
	q.Set("timeformat", "iso8601")
	q.Set("wind_speed_unit", "ms")
	q.Set("temperature_unit", "celsius")
	q.Set("precipitation_unit", "mm")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build open-meteo request: %w", err)
	}
	resp, err := common.GetWithRetry(ctxReq, Name)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var respObj Response
	if err := json.NewDecoder(resp.Body).Decode(&respObj); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling response from open-meteo: %v", t.ErrUpstreamFormat, err)
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
