package repository

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/serjvanilla/go-overpass"
)

var ErrLocationNotFound = errors.New("location not found")

type GeoPoint struct {
	Lat float64
	Lon float64
}

// GeoLocator resolves a country ISO code to a representative coordinate.
type GeoLocator interface {
	LocateCountry(ctx context.Context, isoCode string) (GeoPoint, error)
}

type OverpassRepository struct {
	client  *overpass.Client
	timeout time.Duration
}

func NewOverpassRepository(endpoint string, timeout time.Duration) *OverpassRepository {
	httpClient := &http.Client{
		Timeout: timeout,
	}
	client := overpass.NewWithSettings(endpoint, 2, httpClient)
	return &OverpassRepository{
		client:  &client,
		timeout: timeout,
	}
}

func (r *OverpassRepository) LocateCountry(ctx context.Context, isoCode string) (GeoPoint, error) {
	query, err := countryQuery(isoCode)
	if err != nil {
		return GeoPoint{}, err
	}

	result, err := r.executeQuery(ctx, query)
	if err != nil {
		return GeoPoint{}, fmt.Errorf("failed to locate country %s: %w", isoCode, err)
	}

	point, ok := pickCountryNode(result)
	if !ok {
		return GeoPoint{}, ErrLocationNotFound
	}
	return point, nil
}

// countryQuery builds the Overpass QL lookup for the place=country node.
// Three letter codes are matched against the alpha3 tag.
func countryQuery(isoCode string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(isoCode))
	tag := "ISO3166-1"
	switch len(code) {
	case 2:
	case 3:
		tag = "ISO3166-1:alpha3"
	default:
		return "", fmt.Errorf("invalid ISO code %q", isoCode)
	}
	for _, ch := range code {
		if ch < 'A' || ch > 'Z' {
			return "", fmt.Errorf("invalid ISO code %q", isoCode)
		}
	}
	return fmt.Sprintf(`
		[out:json][timeout:25];
		node["place"="country"]["%s"="%s"];
		out body;
	`, tag, code), nil
}

func (r *OverpassRepository) executeQuery(ctx context.Context, query string) (*overpass.Result, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	type outcome struct {
		result overpass.Result
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := r.client.Query(query)
		done <- outcome{result: result, err: err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case out := <-done:
		if out.err != nil {
			return nil, fmt.Errorf("overpass query failed: %w", out.err)
		}
		return &out.result, nil
	}
}

// pickCountryNode returns the lowest id node so repeated lookups agree.
func pickCountryNode(result *overpass.Result) (GeoPoint, bool) {
	if result == nil || len(result.Nodes) == 0 {
		return GeoPoint{}, false
	}
	ids := make([]int64, 0, len(result.Nodes))
	for id := range result.Nodes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	node := result.Nodes[ids[0]]
	return GeoPoint{Lat: node.Lat, Lon: node.Lon}, true
}
