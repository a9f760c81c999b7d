package osrm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/evanhutnik/tripcheck-service/internal/common"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
)

type Response struct {
	Code    string  `json:"code"`
	Message string  `json:"message,omitempty"`
	Routes  []Route `json:"routes"`
}

type Route struct {
	Geometry Geometry `json:"geometry"`
	Duration float64  `json:"duration"`
	Distance float64  `json:"distance"`
	Legs     []Leg    `json:"legs"`
}

type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

type Leg struct {
	Summary  string  `json:"summary"`
	Duration float64 `json:"duration"`
	Distance float64 `json:"distance"`
	Steps    []Step  `json:"steps"`
}

type Step struct {
	Geometry Geometry `json:"geometry"`
	Name     string   `json:"name"`
	Ref      string   `json:"ref,omitempty"`
	Duration float64  `json:"duration"`
	Distance float64  `json:"distance"`
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
		panic("Missing baseUrl in osrm client")
	}
	return c
}

// Route requests a driving route with full GeoJSON geometry and turn-by-turn steps.
func (c *Client) Route(ctx context.Context, trip *t.Trip) (*t.Route, error) {
	reqUrl := fmt.Sprintf("%v/%f,%f;%f,%f", c.baseUrl, trip.From.Longitude, trip.From.Latitude, trip.To.Longitude, trip.To.Latitude)
	req, err := url.Parse(reqUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to parse osrm url %s: %w", reqUrl, err)
	}

	q := req.Query()
	q.Add("steps", "true")
	q.Add("overview", "full")
	q.Add("geometries", "geojson")
	req.RawQuery = q.Encode()

	ctxReq, err := http.NewRequestWithContext(ctx, http.MethodGet, req.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build osrm request: %w", err)
	}
	resp, err := common.GetWithRetry(ctxReq, "osrm")
	if err != nil {
		var statusErr *common.StatusError
		if errors.As(err, &statusErr) && statusErr.Code == http.StatusBadRequest {
			return nil, fmt.Errorf("%w: %v", t.ErrNoRouteFound, err)
		}
		return nil, err
	}
	defer resp.Body.Close()

	var respObj Response
	if err := json.NewDecoder(resp.Body).Decode(&respObj); err != nil {
		return nil, fmt.Errorf("%w: error unmarshalling response from osrm: %v", t.ErrUpstreamFormat, err)
	}
	if respObj.Code != "Ok" || len(respObj.Routes) == 0 {
		return nil, fmt.Errorf("%w: osrm returned code %q", t.ErrNoRouteFound, respObj.Code)
	}

	return routeFromOSRM(respObj.Routes[0]), nil
}

func routeFromOSRM(r Route) *t.Route {
	route := &t.Route{
		Geometry:        pointsFromGeometry(r.Geometry),
		DistanceKm:      r.Distance / 1000,
		DurationSeconds: r.Duration,
	}

	// consecutive step geometries share their boundary coordinate
	position := 0
	for _, leg := range r.Legs {
		for _, step := range leg.Steps {
			route.Steps = append(route.Steps, t.Step{
				Name:          stepName(step),
				PositionIndex: position,
				Distance:      step.Distance,
				Duration:      step.Duration,
			})
			if n := len(step.Geometry.Coordinates); n > 1 {
				position += n - 1
			}
		}
	}
	return route
}

func stepName(step Step) string {
	if step.Name != "" {
		return step.Name
	}
	return step.Ref
}

func pointsFromGeometry(g Geometry) []t.Point {
	points := make([]t.Point, 0, len(g.Coordinates))
	for _, c := range g.Coordinates {
		if len(c) < 2 {
			continue
		}
		points = append(points, t.Point{Latitude: c[1], Longitude: c[0]})
	}
	return points
}
