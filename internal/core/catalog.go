package core

import (
	"context"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/repository"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/apiclient"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/notify"
	"github.com/FR-TheFury/medic-ai-sub000/internal/infrastructure/querycache"
	"github.com/FR-TheFury/medic-ai-sub000/internal/logger"
)

// Cached entity names. Mutations invalidate by these.
const (
	EntityDiseases  = "diseases"
	EntityVariants  = "variants"
	EntityCountries = "countries"
	EntityRegions   = "regions"
	EntityRecords   = "records"
)

// CacheTTLs returns the per-entity staleness windows.
func CacheTTLs(catalog, records time.Duration) map[string]time.Duration {
	return map[string]time.Duration{
		EntityDiseases:  catalog,
		EntityVariants:  catalog,
		EntityCountries: catalog,
		EntityRegions:   catalog,
		EntityRecords:   records,
	}
}

// RecordQuery filters the records read. A zero RegionID means every region;
// an empty bound is open.
type RecordQuery struct {
	Range    model.DateRange
	RegionID int
}

func (q RecordQuery) hasRange() bool {
	return q.Range.Start != "" && q.Range.End != ""
}

// Catalog serves the CRUD entities through the query cache. Reads are cached
// per key, mutations invalidate their entity and the entities derived from it.
type Catalog struct {
	api      *apiclient.Client
	cache    *querycache.Cache
	notifier notify.Notifier
	geo      repository.GeoLocator
	logger   *logger.Logger
}

// NewCatalog builds the catalog. geo may be nil, which disables coordinate
// enrichment of countries.
func NewCatalog(api *apiclient.Client, cache *querycache.Cache, notifier notify.Notifier, geo repository.GeoLocator, log *logger.Logger) *Catalog {
	return &Catalog{
		api:      api,
		cache:    cache,
		notifier: notifier,
		geo:      geo,
		logger:   log.With("component", "catalog"),
	}
}

func mutate[T any](ctx context.Context, c *Catalog, title string, fn func(context.Context) (T, error), entities ...string) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	c.cache.Invalidate(entities...)
	c.notifier.Success(title, "")
	return out, nil
}

func deleted(fn func(context.Context, int) error, id int) func(context.Context) (struct{}, error) {
	return func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx, id)
	}
}

// Diseases

func (c *Catalog) Diseases(ctx context.Context) ([]model.Disease, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityDiseases), c.api.Diseases.List)
}

// Disease returns one disease with its variant names filled in.
func (c *Catalog) Disease(ctx context.Context, id int) (model.Disease, error) {
	d, err := querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityDiseases, id), func(ctx context.Context) (model.Disease, error) {
		return c.api.Diseases.Get(ctx, id)
	})
	if err != nil {
		return model.Disease{}, err
	}
	variants := c.Variants(ctx, id)
	d.Variants = make([]string, 0, len(variants))
	for _, v := range variants {
		d.Variants = append(d.Variants, v.Name)
	}
	return d, nil
}

// Variants never fails: an unknown disease id skips the read and backend
// errors are logged and yield an empty list.
func (c *Catalog) Variants(ctx context.Context, diseaseID int) []model.Variant {
	key := querycache.NewKey(EntityVariants, diseaseID)
	variants, err := querycache.FetchIf(ctx, c.cache, diseaseID > 0, key, func(ctx context.Context) ([]model.Variant, error) {
		return c.api.Variants.ByDisease(ctx, diseaseID)
	})
	if err != nil {
		c.logger.Warn("Failed to fetch variants", "disease_id", diseaseID, "error", err)
		return []model.Variant{}
	}
	if variants == nil {
		return []model.Variant{}
	}
	return variants
}

func (c *Catalog) CreateDisease(ctx context.Context, in model.DiseaseInput) (model.Disease, error) {
	return mutate(ctx, c, "Disease created", func(ctx context.Context) (model.Disease, error) {
		return c.api.Diseases.Create(ctx, in)
	}, EntityDiseases, EntityVariants)
}

func (c *Catalog) UpdateDisease(ctx context.Context, id int, in model.DiseaseInput) (model.Disease, error) {
	return mutate(ctx, c, "Disease updated", func(ctx context.Context) (model.Disease, error) {
		return c.api.Diseases.Update(ctx, id, in)
	}, EntityDiseases, EntityVariants)
}

func (c *Catalog) DeleteDisease(ctx context.Context, id int) error {
	_, err := mutate(ctx, c, "Disease deleted", deleted(c.api.Diseases.Delete, id), EntityDiseases, EntityVariants, EntityRecords)
	return err
}

// Countries

func (c *Catalog) Countries(ctx context.Context) ([]model.Country, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityCountries), func(ctx context.Context) ([]model.Country, error) {
		countries, err := c.api.Countries.List(ctx)
		if err != nil {
			return nil, err
		}
		for i := range countries {
			c.enrich(ctx, &countries[i])
		}
		return countries, nil
	})
}

func (c *Catalog) Country(ctx context.Context, id int) (model.Country, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityCountries, id), func(ctx context.Context) (model.Country, error) {
		country, err := c.api.Countries.Get(ctx, id)
		if err != nil {
			return model.Country{}, err
		}
		c.enrich(ctx, &country)
		return country, nil
	})
}

// enrich fills missing coordinates from the geo locator. Failures leave the
// country as it was.
func (c *Catalog) enrich(ctx context.Context, country *model.Country) {
	if c.geo == nil || country.HasCoordinates() || country.ISOCode == "" {
		return
	}
	point, err := c.geo.LocateCountry(ctx, country.ISOCode)
	if err != nil {
		c.logger.Debug("Geo enrichment skipped", "iso", country.ISOCode, "error", err)
		return
	}
	lat, lon := point.Lat, point.Lon
	country.Latitude = &lat
	country.Longitude = &lon
}

func (c *Catalog) CreateCountry(ctx context.Context, in model.Country) (model.Country, error) {
	return mutate(ctx, c, "Country added", func(ctx context.Context) (model.Country, error) {
		return c.api.Countries.Create(ctx, in)
	}, EntityCountries, EntityRegions)
}

func (c *Catalog) UpdateCountry(ctx context.Context, id int, in model.Country) (model.Country, error) {
	return mutate(ctx, c, "Country updated", func(ctx context.Context) (model.Country, error) {
		return c.api.Countries.Update(ctx, id, in)
	}, EntityCountries, EntityRegions)
}

func (c *Catalog) DeleteCountry(ctx context.Context, id int) error {
	_, err := mutate(ctx, c, "Country deleted", deleted(c.api.Countries.Delete, id), EntityCountries, EntityRegions, EntityRecords)
	return err
}

// Regions

func (c *Catalog) Regions(ctx context.Context) ([]model.Region, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityRegions), c.api.Regions.List)
}

func (c *Catalog) RegionsByCountry(ctx context.Context, countryID int) ([]model.Region, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityRegions, "country", countryID), func(ctx context.Context) ([]model.Region, error) {
		return c.api.Regions.ByCountry(ctx, countryID)
	})
}

func (c *Catalog) Region(ctx context.Context, id int) (model.Region, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityRegions, id), func(ctx context.Context) (model.Region, error) {
		return c.api.Regions.Get(ctx, id)
	})
}

func (c *Catalog) CreateRegion(ctx context.Context, in model.Region) (model.Region, error) {
	return mutate(ctx, c, "Region added", func(ctx context.Context) (model.Region, error) {
		return c.api.Regions.Create(ctx, in)
	}, EntityRegions, EntityRecords)
}

func (c *Catalog) UpdateRegion(ctx context.Context, id int, in model.Region) (model.Region, error) {
	return mutate(ctx, c, "Region updated", func(ctx context.Context) (model.Region, error) {
		return c.api.Regions.Update(ctx, id, in)
	}, EntityRegions, EntityRecords)
}

func (c *Catalog) DeleteRegion(ctx context.Context, id int) error {
	_, err := mutate(ctx, c, "Region deleted", deleted(c.api.Regions.Delete, id), EntityRegions, EntityRecords)
	return err
}

// Records

func (c *Catalog) Records(ctx context.Context, q RecordQuery) ([]model.Record, error) {
	key := querycache.NewKey(EntityRecords, q.Range.Start, q.Range.End, q.RegionID)
	return querycache.Fetch(ctx, c.cache, key, func(ctx context.Context) ([]model.Record, error) {
		switch {
		case q.hasRange() && q.RegionID > 0:
			return c.api.Records.ByRegionAndDateRange(ctx, q.RegionID, q.Range)
		case q.hasRange():
			return c.api.Records.ByDateRange(ctx, q.Range)
		default:
			records, err := c.api.Records.List(ctx)
			if err != nil {
				return nil, err
			}
			return FilterRecords(records, q.Range.Start, q.Range.End, q.RegionID), nil
		}
	})
}

// RecordSearch narrows a record query by disease and by a term matched
// against region and disease names.
type RecordSearch struct {
	RecordQuery
	DiseaseID int
	Term      string
}

func (c *Catalog) SearchRecords(ctx context.Context, s RecordSearch) ([]model.Record, error) {
	records, err := c.Records(ctx, s.RecordQuery)
	if err != nil {
		return nil, err
	}
	var names RecordNames
	if s.Term != "" {
		names = c.recordNames(ctx)
	}
	return SearchRecords(records, s.DiseaseID, s.Term, names), nil
}

// recordNames falls back to numbered labels for whatever list cannot be read.
func (c *Catalog) recordNames(ctx context.Context) RecordNames {
	names := RecordNames{Regions: map[int]string{}, Diseases: map[int]string{}}
	if regions, err := c.Regions(ctx); err != nil {
		c.logger.Warn("Failed to fetch region names", "error", err)
	} else {
		for _, r := range regions {
			names.Regions[r.ID] = r.Name
		}
	}
	if diseases, err := c.Diseases(ctx); err != nil {
		c.logger.Warn("Failed to fetch disease names", "error", err)
	} else {
		for _, d := range diseases {
			names.Diseases[d.ID] = d.Name
		}
	}
	return names
}

func (c *Catalog) Record(ctx context.Context, id int) (model.Record, error) {
	return querycache.Fetch(ctx, c.cache, querycache.NewKey(EntityRecords, "id", id), func(ctx context.Context) (model.Record, error) {
		return c.api.Records.Get(ctx, id)
	})
}

func (c *Catalog) CreateRecord(ctx context.Context, in model.Record) (model.Record, error) {
	return mutate(ctx, c, "Record added", func(ctx context.Context) (model.Record, error) {
		return c.api.Records.Create(ctx, in)
	}, EntityRecords)
}

func (c *Catalog) UpdateRecord(ctx context.Context, id int, in model.Record) (model.Record, error) {
	return mutate(ctx, c, "Record updated", func(ctx context.Context) (model.Record, error) {
		return c.api.Records.Update(ctx, id, in)
	}, EntityRecords)
}

func (c *Catalog) DeleteRecord(ctx context.Context, id int) error {
	_, err := mutate(ctx, c, "Record deleted", deleted(c.api.Records.Delete, id), EntityRecords)
	return err
}
