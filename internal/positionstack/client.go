package positionstack

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/evanhutnik/tripcheck-service/internal/common"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

type ClientOption func(*Client)

func ApiKeyOption(apiKey string) ClientOption {
	return func(c *Client) {
		c.apiKey = apiKey
	}
}

func BaseUrlOption(baseUrl string) ClientOption {
	return func(c *Client) {
		c.baseUrl = baseUrl
	}
}

type Client struct {
	apiKey  string
	baseUrl string
}

func New(opts ...ClientOption) *Client {
	c := &Client{}
	for _, opt := range opts {
		opt(c)
	}

	if c.apiKey == "" {
		panic("Missing apikey in positionStack client")
	}
	if c.baseUrl == "" {
		panic("Missing baseUrl in positionStack client")
	}
	return c
}

// GeoCode resolves a free-form place name to its best match. types.ErrLocationNotFound is
// returned when positionstack has no results.
func (c *Client) GeoCode(ctx context.Context, location string) (*t.Coordinates, error) {
	req, err := url.Parse(fmt.Sprintf("%v/forward", c.baseUrl))
	if err != nil {
		return nil, fmt.Errorf("failed to parse positionstack baseUrl %s: %w", c.baseUrl, err)
	}

	q := req.Query()
	q.Add("access_key", c.apiKey)
	q.Add("query", location)
	q.Add("limit", "1")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build positionstack request: %w", err)
	}
	resp, err := common.GetWithRetry(ctxReq, "positionstack")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var respObj ForwardResponse
	if err := json.NewDecoder(resp.Body).Decode(&respObj); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling response from positionstack: %v", t.ErrUpstreamFormat, err)
	}
	if len(respObj.Data) == 0 || respObj.Data[0] == nil {
		return nil, fmt.Errorf("%w: %q", t.ErrLocationNotFound, location)
	}

	result := respObj.Data[0]
	name := result.Label
	if name == "" {
		name = result.Name
	}
	if name == "" {
		name = location
	}
	return &t.Coordinates{
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
		DisplayName: name,
	}, nil
}
