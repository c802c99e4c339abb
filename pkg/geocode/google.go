// Package geocode wraps the Google Geocoding and Places APIs with the
// small surface the recycler finder needs.
package geocode

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/reclaimworks/assay-cli/internal/resilience"
)

// Point is a WGS84 coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place is one Places API result.
type Place struct {
	PlaceID  string  `json:"placeId"`
	Name     string  `json:"name"`
	Address  string  `json:"address"`
	Location Point   `json:"location"`
	Rating   float64 `json:"rating,omitempty"`
	OpenNow  *bool   `json:"openNow,omitempty"`
}

// Client defines the geocoding operations used by the recycler finder.
type Client interface {
	Geocode(ctx context.Context, address string) (*Point, error)
	NearbySearch(ctx context.Context, center Point, radiusMeters int, keyword string) ([]Place, error)
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api"

type httpClient struct {
	key     string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a Google Maps API client.
func NewClient(apiKey string) Client {
	return &httpClient{
		key:     apiKey,
		baseURL: defaultBaseURL,
		http:    &http.Client{Timeout: 15 * time.Second},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
	}
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location Point `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (c *httpClient) Geocode(ctx context.Context, address string) (*Point, error) {
	q := url.Values{}
	q.Set("address", address)
	q.Set("key", c.key)

	var resp geocodeResponse
	if err := c.getJSON(ctx, c.baseURL+"/geocode/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" || len(resp.Results) == 0 {
		return nil, eris.Errorf("geocode: no result for %q (status %s)", address, resp.Status)
	}
	loc := resp.Results[0].Geometry.Location
	return &loc, nil
}

type placesResponse struct {
	Status  string `json:"status"`
	Results []struct {
		PlaceID  string `json:"place_id"`
		Name     string `json:"name"`
		Vicinity string `json:"vicinity"`
		Geometry struct {
			Location Point `json:"location"`
		} `json:"geometry"`
		Rating       float64 `json:"rating"`
		OpeningHours *struct {
			OpenNow bool `json:"open_now"`
		} `json:"opening_hours"`
	} `json:"results"`
}

func (c *httpClient) NearbySearch(ctx context.Context, center Point, radiusMeters int, keyword string) ([]Place, error) {
	q := url.Values{}
	q.Set("location", fmt.Sprintf("%f,%f", center.Lat, center.Lng))
	q.Set("radius", fmt.Sprintf("%d", radiusMeters))
	q.Set("keyword", keyword)
	q.Set("key", c.key)

	var resp placesResponse
	if err := c.getJSON(ctx, c.baseURL+"/place/nearbysearch/json?"+q.Encode(), &resp); err != nil {
		return nil, err
	}
	if resp.Status != "OK" && resp.Status != "ZERO_RESULTS" {
		return nil, eris.Errorf("geocode: nearby search failed (status %s)", resp.Status)
	}

	places := make([]Place, 0, len(resp.Results))
	for _, r := range resp.Results {
		p := Place{
			PlaceID:  r.PlaceID,
			Name:     r.Name,
			Address:  r.Vicinity,
			Location: r.Geometry.Location,
			Rating:   r.Rating,
		}
		if r.OpeningHours != nil {
			open := r.OpeningHours.OpenNow
			p.OpenNow = &open
		}
		places = append(places, p)
	}
	return places, nil
}

func (c *httpClient) getJSON(ctx context.Context, rawURL string, dest any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return eris.Wrap(err, "geocode: rate limit wait")
	}

	body, err := resilience.DoVal(ctx, resilience.DefaultRetryConfig(), func(ctx context.Context) ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: build request")
		}

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, resilience.NewTransientError(err, 0)
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, eris.Wrap(err, "geocode: read response")
		}
		if resp.StatusCode != http.StatusOK {
			err := eris.Errorf("geocode: HTTP %d", resp.StatusCode)
			if resilience.IsTransientHTTPStatus(resp.StatusCode) {
				return nil, resilience.NewTransientError(err, resp.StatusCode)
			}
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return err
	}

	return eris.Wrap(json.Unmarshal(body, dest), "geocode: decode response")
}
