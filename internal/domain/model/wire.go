package model

// Wire types mirror the backend JSON schema field for field.

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type UserWire struct {
	ID       interface{} `json:"id"`
	Username string      `json:"username"`
	Email    string      `json:"email"`
}

type DiseaseWire struct {
	ID   int    `json:"idMaladie,omitempty"`
	Name string `json:"nomMaladie"`
}

func (w DiseaseWire) Normalize() Disease {
	return Disease{ID: w.ID, Name: w.Name, Variants: []string{}}
}

type VariantWire struct {
	ID        int    `json:"idVariant,omitempty"`
	Name      string `json:"nomVariant"`
	DiseaseID int    `json:"idMaladie"`
}

func (w VariantWire) Normalize() Variant {
	return Variant{ID: w.ID, Name: w.Name, DiseaseID: w.DiseaseID}
}

// CountryWire keeps the numeric columns untyped because DECIMAL values are
// serialized as strings by the backend.
type CountryWire struct {
	ID          int         `json:"idPays,omitempty"`
	ISOCode     string      `json:"isoPays"`
	Name        string      `json:"nomPays"`
	Population  interface{} `json:"populationTotale"`
	Latitude    interface{} `json:"latitudePays"`
	Longitude   interface{} `json:"longitudePays"`
	Area        interface{} `json:"Superficie"`
	Density     interface{} `json:"densitePopulation"`
	ContinentID *int        `json:"idContinent"`
	Continent   string      `json:"continent,omitempty"`
}

func (w CountryWire) Normalize() Country {
	return Country{
		ID:          w.ID,
		Name:        w.Name,
		ISOCode:     w.ISOCode,
		Population:  NormalizeInt(w.Population),
		ContinentID: w.ContinentID,
		Continent:   w.Continent,
		Latitude:    NormalizeNumber(w.Latitude),
		Longitude:   NormalizeNumber(w.Longitude),
		Area:        NormalizeNumber(w.Area),
		Density:     NormalizeNumber(w.Density),
	}
}

func CountryToWire(c Country) CountryWire {
	w := CountryWire{
		ID:          c.ID,
		ISOCode:     c.ISOCode,
		Name:        c.Name,
		ContinentID: c.ContinentID,
	}
	if c.Population != nil {
		w.Population = *c.Population
	}
	if c.Latitude != nil {
		w.Latitude = *c.Latitude
	}
	if c.Longitude != nil {
		w.Longitude = *c.Longitude
	}
	if c.Area != nil {
		w.Area = *c.Area
	}
	if c.Density != nil {
		w.Density = *c.Density
	}
	return w
}

type RegionWire struct {
	ID        int         `json:"idRegion,omitempty"`
	Name      string      `json:"nomEtat"`
	Code      string      `json:"codeEtat"`
	Latitude  interface{} `json:"lattitudeRegion"`
	Longitude interface{} `json:"longitudeRegion"`
	CountryID int         `json:"idPays"`
}

func (w RegionWire) Normalize() Region {
	return Region{
		ID:        w.ID,
		Name:      w.Name,
		Code:      w.Code,
		CountryID: w.CountryID,
		Latitude:  NormalizeNumber(w.Latitude),
		Longitude: NormalizeNumber(w.Longitude),
	}
}

func RegionToWire(r Region) RegionWire {
	w := RegionWire{ID: r.ID, Name: r.Name, Code: r.Code, CountryID: r.CountryID}
	if r.Latitude != nil {
		w.Latitude = *r.Latitude
	}
	if r.Longitude != nil {
		w.Longitude = *r.Longitude
	}
	return w
}

// RecordWire counts are pointers because the backend allows null for all of them.
type RecordWire struct {
	ID               int    `json:"idReleve,omitempty"`
	Date             string `json:"dateReleve"`
	NewCases         *int   `json:"nbNouveauCas"`
	Deaths           *int   `json:"nbDeces"`
	Recovered        *int   `json:"nbGueri"`
	Hospitalizations *int   `json:"nbHospitalisation"`
	ICUAdmissions    *int   `json:"nbHospiSoinsIntensif"`
	FullyVaccinated  *int   `json:"nbVaccineTotalement"`
	OnVentilator     *int   `json:"nbSousRespirateur"`
	Vaccinated       *int   `json:"nbVaccine"`
	Tests            *int   `json:"nbTeste"`
	RegionID         int    `json:"idRegion"`
	DiseaseID        int    `json:"idMaladie"`
}

func (w RecordWire) Normalize() Record {
	return Record{
		ID:               w.ID,
		Date:             w.Date,
		NewCases:         orZero(w.NewCases),
		Deaths:           orZero(w.Deaths),
		Recovered:        orZero(w.Recovered),
		Hospitalizations: orZero(w.Hospitalizations),
		ICUAdmissions:    orZero(w.ICUAdmissions),
		TestsPerformed:   orZero(w.Tests),
		VaccinatedCount:  orZero(w.FullyVaccinated),
		Vaccinated:       orZero(w.Vaccinated),
		OnVentilator:     orZero(w.OnVentilator),
		RegionID:         w.RegionID,
		DiseaseID:        w.DiseaseID,
	}
}

func RecordToWire(r Record) RecordWire {
	return RecordWire{
		ID:               r.ID,
		Date:             r.Date,
		NewCases:         intPtr(r.NewCases),
		Deaths:           intPtr(r.Deaths),
		Recovered:        intPtr(r.Recovered),
		Hospitalizations: intPtr(r.Hospitalizations),
		ICUAdmissions:    intPtr(r.ICUAdmissions),
		FullyVaccinated:  intPtr(r.VaccinatedCount),
		OnVentilator:     intPtr(r.OnVentilator),
		Vaccinated:       intPtr(r.Vaccinated),
		Tests:            intPtr(r.TestsPerformed),
		RegionID:         r.RegionID,
		DiseaseID:        r.DiseaseID,
	}
}

func orZero(p *int) int {
	if p == nil {
		return 0
	}
	return *p
}

func intPtr(v int) *int { return &v }
