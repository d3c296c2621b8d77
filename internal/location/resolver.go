package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/skill-swap/skillswap/internal/config"
	apperrors "github.com/skill-swap/skillswap/pkg/util"
)

// Source names where a location came from.
type Source string

const (
	SourceCache      Source = "cache"
	SourceIndiaPost  Source = "india_post"
	SourceStatic     Source = "static"
	SourceZippopotam Source = "zippopotam"
)

// Location is the city and state for a postal code.
type Location struct {
	Pincode string `json:"pincode"`
	City    string `json:"city"`
	State   string `json:"state"`
	Source  Source `json:"source,omitempty"`
}

var errNoMatch = errors.New("no location for pincode")

// Resolver looks up postal codes through the India Post API, a static table and
// zippopotam.us, in that order. Hits are cached in Redis when a client is given.
type Resolver struct {
	client       *http.Client
	cache        redis.Cmdable
	primaryURL   string
	secondaryURL string
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewResolver constructs a resolver. cache may be nil.
func NewResolver(cfg config.LocationConfig, cache redis.Cmdable, logger *zap.Logger) *Resolver {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		client:       &http.Client{Timeout: timeout},
		cache:        cache,
		primaryURL:   strings.TrimRight(cfg.PrimaryURL, "/"),
		secondaryURL: strings.TrimRight(cfg.SecondaryURL, "/"),
		cacheTTL:     cfg.CacheTTL,
		logger:       logger,
	}
}

// Resolve returns the location for pincode.
func (r *Resolver) Resolve(ctx context.Context, pincode string) (*Location, error) {
	pincode = strings.TrimSpace(pincode)
	if !IsValidPincode(pincode) {
		return nil, apperrors.NewValidationError("invalid pincode", map[string]any{"pincode": pincode})
	}

	if loc, ok := r.fromCache(ctx, pincode); ok {
		return loc, nil
	}

	loc, err := r.lookup(ctx, pincode)
	if err != nil {
		details := map[string]any{"pincode": pincode}
		if hint := StateFromPrefix(pincode); hint != "" {
			details["state_hint"] = hint
		}
		r.logger.Warn("pincode lookup failed", zap.String("pincode", pincode), zap.Error(err))
		return nil, apperrors.NewBadGateway("Failed to fetch location details", details, err)
	}

	r.store(ctx, loc)
	return loc, nil
}

func (r *Resolver) lookup(ctx context.Context, pincode string) (*Location, error) {
	loc, err := r.indiaPost(ctx, pincode)
	if err == nil {
		return loc, nil
	}
	r.logger.Debug("india post lookup missed", zap.String("pincode", pincode), zap.Error(err))

	if static, ok := staticPincodes[pincode]; ok {
		static.Pincode = pincode
		static.Source = SourceStatic
		return &static, nil
	}

	loc, err2 := r.zippopotam(ctx, pincode)
	if err2 == nil {
		return loc, nil
	}
	return nil, errors.Join(err, err2)
}

type indiaPostResponse struct {
	Status     string `json:"Status"`
	PostOffice []struct {
		District string `json:"District"`
		State    string `json:"State"`
	} `json:"PostOffice"`
}

func (r *Resolver) indiaPost(ctx context.Context, pincode string) (*Location, error) {
	if r.primaryURL == "" {
		return nil, errNoMatch
	}
	var payload []indiaPostResponse
	if err := r.getJSON(ctx, r.primaryURL+"/"+pincode, &payload); err != nil {
		return nil, fmt.Errorf("india post: %w", err)
	}
	if len(payload) == 0 || payload[0].Status != "Success" || len(payload[0].PostOffice) == 0 {
		return nil, fmt.Errorf("india post: %w", errNoMatch)
	}
	office := payload[0].PostOffice[0]
	return &Location{Pincode: pincode, City: office.District, State: office.State, Source: SourceIndiaPost}, nil
}

type zippopotamResponse struct {
	Places []struct {
		PlaceName string `json:"place name"`
		State     string `json:"state"`
	} `json:"places"`
}

func (r *Resolver) zippopotam(ctx context.Context, pincode string) (*Location, error) {
	if r.secondaryURL == "" {
		return nil, errNoMatch
	}
	var payload zippopotamResponse
	if err := r.getJSON(ctx, r.secondaryURL+"/"+pincode, &payload); err != nil {
		return nil, fmt.Errorf("zippopotam: %w", err)
	}
	if len(payload.Places) == 0 {
		return nil, fmt.Errorf("zippopotam: %w", errNoMatch)
	}
	place := payload.Places[0]
	return &Location{Pincode: pincode, City: place.PlaceName, State: place.State, Source: SourceZippopotam}, nil
}

func (r *Resolver) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func cacheKey(pincode string) string {
	return "pincode:" + pincode
}

func (r *Resolver) fromCache(ctx context.Context, pincode string) (*Location, bool) {
	if r.cache == nil {
		return nil, false
	}
	raw, err := r.cache.Get(ctx, cacheKey(pincode)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("pincode cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var loc Location
	if err := json.Unmarshal(raw, &loc); err != nil {
		return nil, false
	}
	loc.Source = SourceCache
	return &loc, true
}

func (r *Resolver) store(ctx context.Context, loc *Location) {
	if r.cache == nil || r.cacheTTL <= 0 {
		return
	}
	raw, err := json.Marshal(loc)
	if err != nil {
		return
	}
	if err := r.cache.Set(ctx, cacheKey(loc.Pincode), raw, r.cacheTTL).Err(); err != nil {
		r.logger.Warn("pincode cache write failed", zap.Error(err))
	}
}
