package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/FR-TheFury/medic-ai-sub000/internal/core"
	"github.com/FR-TheFury/medic-ai-sub000/internal/domain/model"
	"github.com/gorilla/mux"
)

func pathID(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil || id <= 0 {
		return 0, &core.ValidationError{Field: "id", Message: "Invalid id"}
	}
	return id, nil
}

// queryInt reads an optional positive integer parameter. Absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return 0, &core.ValidationError{Field: name, Message: "Must be a positive integer"}
	}
	return v, nil
}

func queryDate(r *http.Request, name string) (string, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return "", nil
	}
	if _, err := time.Parse(model.DateLayout, raw); err != nil {
		return "", &core.ValidationError{Field: name, Message: "Dates must use the YYYY-MM-DD format"}
	}
	return raw, nil
}

// rangeParams reads start, end and region. end before start is rejected.
func rangeParams(r *http.Request) (start, end string, regionID int, err error) {
	if start, err = queryDate(r, "start"); err != nil {
		return "", "", 0, err
	}
	if end, err = queryDate(r, "end"); err != nil {
		return "", "", 0, err
	}
	if start != "" && end != "" && end < start {
		return "", "", 0, &core.ValidationError{Field: "end", Message: "The end date must not be before the start date"}
	}
	if regionID, err = queryInt(r, "region"); err != nil {
		return "", "", 0, err
	}
	return start, end, regionID, nil
}

// pageParams reads page and pageSize.
func pageParams(r *http.Request) (page, size int, err error) {
	if page, err = queryInt(r, "page"); err != nil {
		return 0, 0, err
	}
	if size, err = queryInt(r, "pageSize"); err != nil {
		return 0, 0, err
	}
	return page, size, nil
}

// respond writes v, or the mapped error when err is set.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v interface{}, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, status, v)
}

func (h *Handler) respondDeleted(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) ListDiseases(w http.ResponseWriter, r *http.Request) {
	diseases, err := h.catalog.Diseases(r.Context())
	h.respond(w, r, http.StatusOK, diseases, err)
}

func (h *Handler) GetDisease(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	disease, err := h.catalog.Disease(r.Context(), id)
	h.respond(w, r, http.StatusOK, disease, err)
}

func (h *Handler) CreateDisease(w http.ResponseWriter, r *http.Request) {
	var in model.DiseaseInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Name == "" {
		h.writeError(w, r, &core.ValidationError{Field: "name", Message: "The name is required"})
		return
	}
	disease, err := h.catalog.CreateDisease(r.Context(), in)
	h.respond(w, r, http.StatusCreated, disease, err)
}

func (h *Handler) UpdateDisease(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	var in model.DiseaseInput
	if err := decodeJSON(r, &in); err != nil {
		h.writeError(w, r, err)
		return
	}
	if in.Name == "" {
		h.writeError(w, r, &core.ValidationError{Field: "name", Message: "The name is required"})
		return
	}
	disease, err := h.catalog.UpdateDisease(r.Context(), id, in)
	h.respond(w, r, http.StatusOK, disease, err)
}

func (h *Handler) DeleteDisease(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondDeleted(w, r, h.catalog.DeleteDisease(r.Context(), id))
}

// ListCountries pages the countries whose name contains q.
func (h *Handler) ListCountries(w http.ResponseWriter, r *http.Request) {
	page, size, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	countries, err := h.catalog.Countries(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, core.Paginate(core.SearchCountries(countries, r.URL.Query().Get("q")), page, size))
}

func (h *Handler) GetCountry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	country, err := h.catalog.Country(r.Context(), id)
	h.respond(w, r, http.StatusOK, country, err)
}

func (h *Handler) CreateCountry(w http.ResponseWriter, r *http.Request) {
	in, err := decodeCountry(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	country, err := h.catalog.CreateCountry(r.Context(), in)
	h.respond(w, r, http.StatusCreated, country, err)
}

func (h *Handler) UpdateCountry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := decodeCountry(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	country, err := h.catalog.UpdateCountry(r.Context(), id, in)
	h.respond(w, r, http.StatusOK, country, err)
}

func (h *Handler) DeleteCountry(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondDeleted(w, r, h.catalog.DeleteCountry(r.Context(), id))
}

func decodeCountry(r *http.Request) (model.Country, error) {
	var in model.Country
	if err := decodeJSON(r, &in); err != nil {
		return in, err
	}
	switch {
	case in.Name == "":
		return in, &core.ValidationError{Field: "name", Message: "The name is required"}
	case in.ISOCode == "":
		return in, &core.ValidationError{Field: "isoCode", Message: "The ISO code is required"}
	}
	return in, nil
}

func (h *Handler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.catalog.Regions(r.Context())
	h.respond(w, r, http.StatusOK, regions, err)
}

func (h *Handler) ListCountryRegions(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	regions, err := h.catalog.RegionsByCountry(r.Context(), id)
	h.respond(w, r, http.StatusOK, regions, err)
}

func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := h.catalog.Region(r.Context(), id)
	h.respond(w, r, http.StatusOK, region, err)
}

func (h *Handler) CreateRegion(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRegion(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := h.catalog.CreateRegion(r.Context(), in)
	h.respond(w, r, http.StatusCreated, region, err)
}

func (h *Handler) UpdateRegion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := decodeRegion(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	region, err := h.catalog.UpdateRegion(r.Context(), id, in)
	h.respond(w, r, http.StatusOK, region, err)
}

func (h *Handler) DeleteRegion(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondDeleted(w, r, h.catalog.DeleteRegion(r.Context(), id))
}

func decodeRegion(r *http.Request) (model.Region, error) {
	var in model.Region
	if err := decodeJSON(r, &in); err != nil {
		return in, err
	}
	switch {
	case in.Name == "":
		return in, &core.ValidationError{Field: "name", Message: "The name is required"}
	case in.CountryID <= 0:
		return in, &core.ValidationError{Field: "countryId", Message: "Please select a country"}
	}
	return in, nil
}

// ListRecords pages the records matching the date range, region, disease
// and the q term over region and disease names.
func (h *Handler) ListRecords(w http.ResponseWriter, r *http.Request) {
	start, end, regionID, err := rangeParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	diseaseID, err := queryInt(r, "disease")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	page, size, err := pageParams(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	records, err := h.catalog.SearchRecords(r.Context(), core.RecordSearch{
		RecordQuery: core.RecordQuery{
			Range:    model.DateRange{Start: start, End: end},
			RegionID: regionID,
		},
		DiseaseID: diseaseID,
		Term:      r.URL.Query().Get("q"),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, core.Paginate(records, page, size))
}

func (h *Handler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.catalog.Record(r.Context(), id)
	h.respond(w, r, http.StatusOK, record, err)
}

func (h *Handler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	in, err := decodeRecord(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.catalog.CreateRecord(r.Context(), in)
	h.respond(w, r, http.StatusCreated, record, err)
}

func (h *Handler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	in, err := decodeRecord(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	record, err := h.catalog.UpdateRecord(r.Context(), id, in)
	h.respond(w, r, http.StatusOK, record, err)
}

func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.respondDeleted(w, r, h.catalog.DeleteRecord(r.Context(), id))
}

func decodeRecord(r *http.Request) (model.Record, error) {
	var in model.Record
	if err := decodeJSON(r, &in); err != nil {
		return in, err
	}
	if _, ok := in.Day(); !ok {
		return in, &core.ValidationError{Field: "date", Message: "Dates must use the YYYY-MM-DD format"}
	}
	switch {
	case in.RegionID <= 0:
		return in, &core.ValidationError{Field: "regionId", Message: "Please select a region"}
	case in.DiseaseID <= 0:
		return in, &core.ValidationError{Field: "diseaseId", Message: "Please select a disease"}
	}
	return in, nil
}
