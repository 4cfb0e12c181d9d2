package apiclient

import (
	"bytes"
	"context"
	"fmt"
	"net/http"

	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
)

func (c *Client) get(ctx context.Context, path string, query map[string]string, result interface{}) error {
	if len(query) == 0 {
		return c.do(ctx, http.MethodGet, path, nil, result)
	}
	req := c.http.R().SetContext(ctx).SetQueryParams(query)
	return c.execute(req, http.MethodGet, path, result)
}

func (c *Client) post(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPost, path, body, result)
}

func (c *Client) put(ctx context.Context, path string, body, result interface{}) error {
	return c.do(ctx, http.MethodPut, path, body, result)
}

func (c *Client) delete(ctx context.Context, path string) error {
	return c.do(ctx, http.MethodDelete, path, nil, nil)
}

type AuthAPI struct{ c *Client }

func (a AuthAPI) Login(ctx context.Context, username, password string) (model.TokenResponse, error) {
	var out model.TokenResponse
	err := a.c.post(ctx, "/token", model.LoginRequest{Username: username, Password: password}, &out)
	return out, err
}

func (a AuthAPI) Register(ctx context.Context, username, email, password string) (model.User, error) {
	var out model.UserWire
	err := a.c.post(ctx, "/users", model.RegisterRequest{Username: username, Email: email, Password: password}, &out)
	if err != nil {
		return model.User{}, err
	}
	user := model.User{Username: out.Username, Email: out.Email}
	if out.ID != nil {
		user.ID = fmt.Sprint(out.ID)
	}
	return user, nil
}

type DiseasesAPI struct{ c *Client }

func (d DiseasesAPI) List(ctx context.Context) ([]model.Disease, error) {
	var wire []model.DiseaseWire
	if err := d.c.get(ctx, "/maladies/", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Disease, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.Normalize())
	}
	return out, nil
}

func (d DiseasesAPI) Get(ctx context.Context, id int) (model.Disease, error) {
	var wire model.DiseaseWire
	if err := d.c.get(ctx, fmt.Sprintf("/maladies/%d", id), nil, &wire); err != nil {
		return model.Disease{}, err
	}
	return wire.Normalize(), nil
}

func (d DiseasesAPI) Create(ctx context.Context, in model.DiseaseInput) (model.Disease, error) {
	var wire model.DiseaseWire
	if err := d.c.post(ctx, "/maladies/", model.DiseaseWire{Name: in.Name}, &wire); err != nil {
		return model.Disease{}, err
	}
	return wire.Normalize(), nil
}

func (d DiseasesAPI) Update(ctx context.Context, id int, in model.DiseaseInput) (model.Disease, error) {
	var wire model.DiseaseWire
	if err := d.c.put(ctx, fmt.Sprintf("/maladies/%d", id), model.DiseaseWire{Name: in.Name}, &wire); err != nil {
		return model.Disease{}, err
	}
	return wire.Normalize(), nil
}

func (d DiseasesAPI) Delete(ctx context.Context, id int) error {
	return d.c.delete(ctx, fmt.Sprintf("/maladies/%d", id))
}

type VariantsAPI struct{ c *Client }

func (v VariantsAPI) ByDisease(ctx context.Context, diseaseID int) ([]model.Variant, error) {
	var wire []model.VariantWire
	if err := v.c.get(ctx, fmt.Sprintf("/variants/by-maladie/%d", diseaseID), nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Variant, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.Normalize())
	}
	return out, nil
}

type CountriesAPI struct{ c *Client }

func (p CountriesAPI) List(ctx context.Context) ([]model.Country, error) {
	var wire []model.CountryWire
	if err := p.c.get(ctx, "/pays/", nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Country, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.Normalize())
	}
	return out, nil
}

func (p CountriesAPI) Get(ctx context.Context, id int) (model.Country, error) {
	var wire model.CountryWire
	if err := p.c.get(ctx, fmt.Sprintf("/pays/%d", id), nil, &wire); err != nil {
		return model.Country{}, err
	}
	return wire.Normalize(), nil
}

func (p CountriesAPI) Create(ctx context.Context, in model.Country) (model.Country, error) {
	in.ID = 0
	var wire model.CountryWire
	if err := p.c.post(ctx, "/pays/", model.CountryToWire(in), &wire); err != nil {
		return model.Country{}, err
	}
	return wire.Normalize(), nil
}

func (p CountriesAPI) Update(ctx context.Context, id int, in model.Country) (model.Country, error) {
	in.ID = 0
	var wire model.CountryWire
	if err := p.c.put(ctx, fmt.Sprintf("/pays/%d", id), model.CountryToWire(in), &wire); err != nil {
		return model.Country{}, err
	}
	return wire.Normalize(), nil
}

func (p CountriesAPI) Delete(ctx context.Context, id int) error {
	return p.c.delete(ctx, fmt.Sprintf("/pays/%d", id))
}

type RegionsAPI struct{ c *Client }

func (r RegionsAPI) list(ctx context.Context, path string) ([]model.Region, error) {
	var wire []model.RegionWire
	if err := r.c.get(ctx, path, nil, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Region, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.Normalize())
	}
	return out, nil
}

func (r RegionsAPI) List(ctx context.Context) ([]model.Region, error) {
	return r.list(ctx, "/regions/")
}

func (r RegionsAPI) ByCountry(ctx context.Context, countryID int) ([]model.Region, error) {
	return r.list(ctx, fmt.Sprintf("/regions/by_pays/%d", countryID))
}

func (r RegionsAPI) Get(ctx context.Context, id int) (model.Region, error) {
	var wire model.RegionWire
	if err := r.c.get(ctx, fmt.Sprintf("/regions/%d", id), nil, &wire); err != nil {
		return model.Region{}, err
	}
	return wire.Normalize(), nil
}

func (r RegionsAPI) Create(ctx context.Context, in model.Region) (model.Region, error) {
	in.ID = 0
	var wire model.RegionWire
	if err := r.c.post(ctx, "/regions/", model.RegionToWire(in), &wire); err != nil {
		return model.Region{}, err
	}
	return wire.Normalize(), nil
}

func (r RegionsAPI) Update(ctx context.Context, id int, in model.Region) (model.Region, error) {
	in.ID = 0
	var wire model.RegionWire
	if err := r.c.put(ctx, fmt.Sprintf("/regions/%d", id), model.RegionToWire(in), &wire); err != nil {
		return model.Region{}, err
	}
	return wire.Normalize(), nil
}

func (r RegionsAPI) Delete(ctx context.Context, id int) error {
	return r.c.delete(ctx, fmt.Sprintf("/regions/%d", id))
}

type RecordsAPI struct{ c *Client }

func (r RecordsAPI) list(ctx context.Context, path string, query map[string]string) ([]model.Record, error) {
	var wire []model.RecordWire
	if err := r.c.get(ctx, path, query, &wire); err != nil {
		return nil, err
	}
	out := make([]model.Record, 0, len(wire))
	for _, w := range wire {
		out = append(out, w.Normalize())
	}
	return out, nil
}

func (r RecordsAPI) List(ctx context.Context) ([]model.Record, error) {
	return r.list(ctx, "/releves/", nil)
}

func (r RecordsAPI) ByDateRange(ctx context.Context, rng model.DateRange) ([]model.Record, error) {
	return r.list(ctx, "/releves/range/", rangeQuery(rng))
}

func (r RecordsAPI) ByRegionAndDateRange(ctx context.Context, regionID int, rng model.DateRange) ([]model.Record, error) {
	return r.list(ctx, fmt.Sprintf("/releves/region/%d/range/", regionID), rangeQuery(rng))
}

func (r RecordsAPI) Get(ctx context.Context, id int) (model.Record, error) {
	var wire model.RecordWire
	if err := r.c.get(ctx, fmt.Sprintf("/releves/%d", id), nil, &wire); err != nil {
		return model.Record{}, err
	}
	return wire.Normalize(), nil
}

func (r RecordsAPI) Create(ctx context.Context, in model.Record) (model.Record, error) {
	in.ID = 0
	var wire model.RecordWire
	if err := r.c.post(ctx, "/releves/", model.RecordToWire(in), &wire); err != nil {
		return model.Record{}, err
	}
	return wire.Normalize(), nil
}

func (r RecordsAPI) Update(ctx context.Context, id int, in model.Record) (model.Record, error) {
	in.ID = 0
	var wire model.RecordWire
	if err := r.c.put(ctx, fmt.Sprintf("/releves/%d", id), model.RecordToWire(in), &wire); err != nil {
		return model.Record{}, err
	}
	return wire.Normalize(), nil
}

func (r RecordsAPI) Delete(ctx context.Context, id int) error {
	return r.c.delete(ctx, fmt.Sprintf("/releves/%d", id))
}

func rangeQuery(rng model.DateRange) map[string]string {
	return map[string]string{"start_date": rng.Start, "end_date": rng.End}
}

type PredictionsAPI struct{ c *Client }

func (p PredictionsAPI) Mortality(ctx context.Context, req model.MortalityRequest) (model.MortalityResponse, error) {
	var out model.MortalityResponse
	err := p.c.post(ctx, "/prediction/mortalite/", req, &out)
	return out, err
}

func (p PredictionsAPI) Hospitalization(ctx context.Context, req model.HospitalizationRequest) (model.HospitalizationResponse, error) {
	var out model.HospitalizationResponse
	err := p.c.post(ctx, "/prediction/hospitalisation/", req, &out)
	return out, err
}

// HospitalizationCSV uploads a validated CSV file together with the target country.
func (p PredictionsAPI) HospitalizationCSV(ctx context.Context, filename string, content []byte, country string) (model.HospitalizationResponse, error) {
	var out model.HospitalizationResponse
	err := p.c.upload(ctx, "/prediction/hospitalisation/csv/", "file", filename, bytes.NewReader(content), map[string]string{"pays": country}, &out)
	return out, err
}

func (p PredictionsAPI) Temporal(ctx context.Context, req model.TemporalRequest) (model.SeriesResponse, error) {
	var out model.SeriesResponse
	err := p.c.post(ctx, "/prediction/temporal", req, &out)
	return out, err
}

func (p PredictionsAPI) NewCases(ctx context.Context, req model.NewCasesRequest) (model.SeriesResponse, error) {
	var out model.SeriesResponse
	err := p.c.post(ctx, "/prediction/nouveaux-cas/", req, &out)
	return out, err
}
