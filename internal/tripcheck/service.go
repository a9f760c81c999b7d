package tripcheck

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/go-playground/validator/v10"
	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/klauspost/compress/gzhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/evanhutnik/tripcheck-service/internal/config"
	"github.com/evanhutnik/tripcheck-service/internal/departure"
	"github.com/evanhutnik/tripcheck-service/internal/openmeteo"
	"github.com/evanhutnik/tripcheck-service/internal/osrm"
	ps "github.com/evanhutnik/tripcheck-service/internal/positionstack"
	"github.com/evanhutnik/tripcheck-service/internal/smhi"
	"github.com/evanhutnik/tripcheck-service/internal/timezone"
	"github.com/evanhutnik/tripcheck-service/internal/trip"
	t "github.com/evanhutnik/tripcheck-service/internal/types"
	"github.com/evanhutnik/tripcheck-service/internal/waypoint"
	"github.com/evanhutnik/tripcheck-service/internal/weather"
)

type Geocoder interface {
	GeoCode(ctx context.Context, location string) (*t.Coordinates, error)
}

type Router interface {
	Route(ctx context.Context, trip *t.Trip) (*t.Route, error)
}

type TripRequest struct {
	From      string `validate:"required,max=200"`
	To        string `validate:"required,max=200"`
	Departure time.Time
}

type TripResponse struct {
	Error string `json:"error,omitempty"`
	Retry bool   `json:"retry,omitempty"`

	TripID          string             `json:"tripId,omitempty"`
	From            *t.Coordinates     `json:"from,omitempty"`
	To              *t.Coordinates     `json:"to,omitempty"`
	Departure       *time.Time         `json:"departure,omitempty"`
	DistanceKm      float64            `json:"distanceKm,omitempty"`
	DurationSeconds float64            `json:"durationSeconds,omitempty"`
	Assessment      *t.TripAssessment  `json:"assessment,omitempty"`
	AverageScore    *float64           `json:"averageScore,omitempty"`
	Narrative       []string           `json:"narrative,omitempty"`
	Points          []trip.PointReport `json:"points,omitempty"`
	Alternatives    []Alternative      `json:"alternatives,omitempty"`
}

// Alternative is the same route driven at a later departure.
type Alternative struct {
	Departure  time.Time            `json:"departure"`
	Assessment t.TripAssessment     `json:"assessment"`
	Complete   bool                 `json:"complete"`
	Comparison departure.Comparison `json:"comparison"`
}

// CodeError is returned to the client as-is. Retry tells the client the request may
// succeed if submitted again.
type CodeError struct {
	code  int
	msg   string
	retry bool
}

func (c CodeError) Error() string {
	return c.msg
}

type Service struct {
	psc       Geocoder
	osrm      Router
	weather   weather.Source
	limit     int
	rateLimit int
	port      string
	now       func() time.Time
	valid     *validator.Validate

	Logger *zap.SugaredLogger
}

func New(cfg *config.Config) (*Service, error) {
	logger, err := cfg.Logger()
	if err != nil {
		return nil, err
	}

	zones, err := timezone.NewService()
	if err != nil {
		return nil, err
	}

	var src weather.Source = &weather.Chain{
		Regional: smhi.New(smhi.BaseUrlOption(cfg.SMHIBaseURL)),
		InRegion: smhi.InRegion,
		Global: openmeteo.New(
			openmeteo.BaseUrlOption(cfg.OpenMeteoBaseURL),
			openmeteo.ForecastDaysOption(cfg.ForecastDays),
			openmeteo.ZoneResolverOption(zones),
		),
	}
	if !cfg.DisableRedis {
		src = &weather.CachedSource{
			Source: src,
			Cache: redis.NewClient(&redis.Options{
				Addr: cfg.RedisAddress,
			}),
			TTL:    cfg.CacheTTL,
			Logger: logger,
		}
	}

	s := newService(
		ps.New(
			ps.ApiKeyOption(cfg.PositionstackAPIKey),
			ps.BaseUrlOption(cfg.PositionstackBaseURL),
		),
		osrm.New(osrm.BaseUrlOption(cfg.OSRMBaseURL)),
		src,
		logger,
	)
	s.limit = cfg.FetchConcurrency
	s.rateLimit = cfg.RateLimitPerMinute
	s.port = cfg.Port
	return s, nil
}

func newService(geo Geocoder, router Router, src weather.Source, logger *zap.SugaredLogger) *Service {
	return &Service{
		psc:       geo,
		osrm:      router,
		weather:   src,
		limit:     8,
		rateLimit: 30,
		port:      "80",
		now:       time.Now,
		valid:     validator.New(),
		Logger:    logger,
	}
}

func (s *Service) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(func(next http.Handler) http.Handler {
		return gzhttp.GzipHandler(next)
	})
	r.With(httprate.Limit(s.rateLimit, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(s.rateLimited),
	)).Get("/trip", s.TripHandler)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		io.WriteString(w, "ok")
	})
	return r
}

func (s *Service) rateLimited(w http.ResponseWriter, r *http.Request) {
	s.writeError(w, CodeError{code: http.StatusTooManyRequests, msg: "Too many trip requests, try again in a minute.", retry: true})
}

func (s *Service) Start() error {
	s.Logger.Infof("Listening on :%v", s.port)
	return http.ListenAndServe(":"+s.port, s.Handler())
}

func (s *Service) TripHandler(w http.ResponseWriter, r *http.Request) {
	resp, err := s.Trip(r.Context(), r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeResponse(w, resp)
}

func (s *Service) Trip(ctx context.Context, r *http.Request) (*TripResponse, error) {
	req, err := s.parseRequest(r)
	if err != nil {
		return nil, err
	}

	tr, err := s.tripCoordinates(ctx, req)
	if err != nil {
		return nil, err
	}

	route, err := s.tripRoute(ctx, tr)
	if err != nil {
		return nil, err
	}

	waypoints, err := waypoint.Derive(route, req.Departure, tr.From.DisplayName, tr.To.DisplayName)
	if err != nil {
		s.Logger.Errorw(err.Error(), "from", req.From, "to", req.To, "action", "Derive")
		return nil, CodeError{code: 422, msg: "The route between these locations has no usable geometry.", retry: true}
	}

	tripID := uuid.NewString()
	// one weather map per request; each departure evaluated replaces the previous one
	state := weather.NewFetchState()
	baseline, _ := s.fetch(ctx, state, tripID, waypoints)

	assessment := trip.Assess(waypoints, baseline)
	resp := &TripResponse{
		TripID:          tripID,
		From:            tr.From,
		To:              tr.To,
		Departure:       &req.Departure,
		DistanceKm:      route.DistanceKm,
		DurationSeconds: route.DurationSeconds,
		Assessment:      &assessment,
		Narrative:       trip.Narrate(waypoints, baseline),
		Points:          trip.Report(waypoints, baseline),
	}
	if avg, ok := trip.AverageScore(baseline); ok {
		resp.AverageScore = &avg
	}

	if departure.OfferAlternatives(baseline) {
		resp.Alternatives = s.alternatives(ctx, state, tripID, waypoints, assessment, baseline)
	}
	return resp, nil
}

func (s *Service) parseRequest(r *http.Request) (*TripRequest, error) {
	req := &TripRequest{
		From:      r.URL.Query().Get("from"),
		To:        r.URL.Query().Get("to"),
		Departure: s.now(),
	}
	if err := s.valid.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return nil, CodeError{code: 400, msg: fmt.Sprintf("Invalid '%v' query parameter in request", fieldParam(verrs[0].Field()))}
		}
		return nil, CodeError{code: 400, msg: "Invalid request"}
	}

	if raw := r.URL.Query().Get("departure"); raw != "" {
		dep, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, CodeError{code: 400, msg: "'departure' parameter must be an RFC3339 timestamp"}
		}
		req.Departure = dep
	}
	return req, nil
}

func fieldParam(field string) string {
	switch field {
	case "From":
		return "from"
	case "To":
		return "to"
	default:
		return field
	}
}

func (s *Service) tripCoordinates(ctx context.Context, req *TripRequest) (*t.Trip, error) {
	var fromCoord, toCoord *t.Coordinates
	g := new(errgroup.Group)

	g.Go(func() error {
		var err error
		fromCoord, err = s.geoCode(ctx, req.From)
		return err
	})
	g.Go(func() error {
		var err error
		toCoord, err = s.geoCode(ctx, req.To)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &t.Trip{
		From: fromCoord,
		To:   toCoord,
	}, nil
}

func (s *Service) geoCode(ctx context.Context, address string) (*t.Coordinates, error) {
	coords, err := s.psc.GeoCode(ctx, address)
	if errors.Is(err, t.ErrLocationNotFound) {
		return nil, CodeError{code: 404, msg: fmt.Sprintf("Unrecognized address '%v'. Check spelling or be more specific.", address), retry: true}
	} else if err != nil {
		s.Logger.Errorw(err.Error(),
			"address", address, "action", "GeoCode")
		return nil, CodeError{code: 500, msg: fmt.Sprintf("Internal error geocoding address '%v'.", address), retry: true}
	}
	return coords, nil
}

func (s *Service) tripRoute(ctx context.Context, tr *t.Trip) (*t.Route, error) {
	route, err := s.osrm.Route(ctx, tr)
	if errors.Is(err, t.ErrNoRouteFound) {
		return nil, CodeError{code: 422, msg: fmt.Sprintf("No driving route found from '%v' to '%v'.", tr.From.DisplayName, tr.To.DisplayName), retry: true}
	} else if err != nil {
		s.Logger.Errorf("Error routing trip (%v,%v) to (%v,%v): %v",
			tr.From.Latitude, tr.From.Longitude, tr.To.Latitude, tr.To.Longitude, err.Error())
		return nil, CodeError{code: 500, msg: "Internal error retrieving trip route.", retry: true}
	}
	return route, nil
}

// fetch starts tripID on state, collects weather for every waypoint and reports whether
// every index was written. Late results for an earlier id on the same state are dropped.
func (s *Service) fetch(ctx context.Context, state *weather.FetchState, tripID string, waypoints []t.Waypoint) (t.WeatherMap, bool) {
	state.Begin(tripID)
	weather.FetchAll(ctx, s.weather, waypoints, state, tripID, s.limit, s.Logger)
	return state.Snapshot(), state.Complete(len(waypoints))
}

// alternatives evaluates a departure one hour later and, when that does not help, three
// hours later.
func (s *Service) alternatives(ctx context.Context, state *weather.FetchState, tripID string, waypoints []t.Waypoint, base t.TripAssessment, baseWeather t.WeatherMap) []Alternative {
	var check departure.ExtendedCheck

	plusOne := s.alternative(ctx, state, tripID, waypoints, departure.PlusOne, base, baseWeather)
	alts := []Alternative{plusOne}

	if check.Trigger(plusOne.Complete, plusOne.Comparison.Direction) {
		alts = append(alts, s.alternative(ctx, state, tripID, waypoints, departure.PlusThree, base, baseWeather))
	}
	return alts
}

func (s *Service) alternative(ctx context.Context, state *weather.FetchState, tripID string, waypoints []t.Waypoint, offset time.Duration, base t.TripAssessment, baseWeather t.WeatherMap) Alternative {
	shifted := waypoint.Shift(waypoints, offset)
	label := fmt.Sprintf("+%dh", int(offset.Hours()))
	candID := tripID + label
	candWeather, complete := s.fetch(ctx, state, candID, shifted)
	cand := trip.Assess(shifted, candWeather)

	cmp := departure.Compare(base, baseWeather, cand, candWeather)
	cmp.Offset = label
	s.Logger.Debugw("compared departure", "trip", tripID, "offset", cmp.Offset, "direction", cmp.Direction.String(), "scoreDiff", cmp.ScoreDiff)

	var dep time.Time
	if len(shifted) > 0 {
		dep = shifted[0].ArrivalTime
	}
	return Alternative{
		Departure:  dep,
		Assessment: cand,
		Complete:   complete,
		Comparison: cmp,
	}
}

func (s *Service) writeError(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	codeErr, ok := err.(CodeError)
	if ok {
		bodyBytes, _ := json.Marshal(TripResponse{Error: codeErr.Error(), Retry: codeErr.retry})
		w.WriteHeader(codeErr.code)
		io.WriteString(w, string(bodyBytes[:]))
	} else {
		s.Logger.Errorf("Unhandled error: %v", err.Error())
		bodyBytes, _ := json.Marshal(TripResponse{Error: "Internal server error", Retry: true})
		w.WriteHeader(500)
		io.WriteString(w, string(bodyBytes[:]))
	}
}

func (s *Service) writeResponse(w http.ResponseWriter, resp *TripResponse) {
	bodyBytes, _ := json.Marshal(resp)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(200)
	io.WriteString(w, string(bodyBytes[:]))
}
