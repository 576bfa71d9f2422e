package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Resource is one of the six JEEFHH city resources.
type Resource string

const (
	ResourceJobs       Resource = "JOBS"
	ResourceEnergy     Resource = "ENERGY"
	ResourceEducation  Resource = "EDUCATION"
	ResourceFood       Resource = "FOOD"
	ResourceHousing    Resource = "HOUSING"
	ResourceHealthcare Resource = "HEALTHCARE"
)

// Resources lists the JEEFHH resources in canonical order.
var Resources = []Resource{
	ResourceJobs,
	ResourceEnergy,
	ResourceEducation,
	ResourceFood,
	ResourceHousing,
	ResourceHealthcare,
}

// Domain is one of the six CARENS livability dimensions.
type Domain string

const (
	DomainCulture       Domain = "CULTURE"
	DomainAffordability Domain = "AFFORDABILITY"
	DomainResilience    Domain = "RESILIENCE"
	DomainEnvironment   Domain = "ENVIRONMENT"
	DomainNoise         Domain = "NOISE"
	DomainSafety        Domain = "SAFETY"
)

// Domains lists the CARENS dimensions in canonical order.
var Domains = []Domain{
	DomainCulture,
	DomainAffordability,
	DomainResilience,
	DomainEnvironment,
	DomainNoise,
	DomainSafety,
}

type Catalogs struct {
	Buildings BuildingCatalog
}

type BuildingCatalog struct {
	Palette    []string
	ByID       map[string]BuildingDef
	ByCategory map[string][]string
	DefsDigest string
}

type BuildingDef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`

	// Derived from livability at load time; the value in the file is ignored.
	CivicScore float64 `json:"civicScore,omitempty"`

	Economics  Economics         `json:"economics"`
	Resources  ResourceProfile   `json:"resources"`
	Livability LivabilityProfile `json:"livability"`
}

type Economics struct {
	BuildCost        float64 `json:"buildCost"`
	ConstructionDays int     `json:"constructionDays"`
	MaxRevenue       float64 `json:"maxRevenue"`
	MaintenanceCost  float64 `json:"maintenanceCost"`
	DecayRate        float64 `json:"decayRate"`
}

// ResourceProfile declares what a building adds to and takes from the six
// city-wide resource pools. Absent fields decode to 0, which is the
// "contributes nothing" default everywhere downstream.
type ResourceProfile struct {
	JobsProvided       float64 `json:"jobsProvided,omitempty"`
	JobsRequired       float64 `json:"jobsRequired,omitempty"`
	EnergyProvided     float64 `json:"energyProvided,omitempty"`
	EnergyRequired     float64 `json:"energyRequired,omitempty"`
	EducationProvided  float64 `json:"educationProvided,omitempty"`
	EducationRequired  float64 `json:"educationRequired,omitempty"`
	FoodProvided       float64 `json:"foodProvided,omitempty"`
	FoodRequired       float64 `json:"foodRequired,omitempty"`
	HousingProvided    float64 `json:"housingProvided,omitempty"`
	HousingRequired    float64 `json:"housingRequired,omitempty"`
	HealthcareProvided float64 `json:"healthcareProvided,omitempty"`
	HealthcareRequired float64 `json:"healthcareRequired,omitempty"`
}

func (p ResourceProfile) Provided(r Resource) float64 {
	switch r {
	case ResourceJobs:
		return p.JobsProvided
	case ResourceEnergy:
		return p.EnergyProvided
	case ResourceEducation:
		return p.EducationProvided
	case ResourceFood:
		return p.FoodProvided
	case ResourceHousing:
		return p.HousingProvided
	case ResourceHealthcare:
		return p.HealthcareProvided
	}
	return 0
}

func (p ResourceProfile) Required(r Resource) float64 {
	switch r {
	case ResourceJobs:
		return p.JobsRequired
	case ResourceEnergy:
		return p.EnergyRequired
	case ResourceEducation:
		return p.EducationRequired
	case ResourceFood:
		return p.FoodRequired
	case ResourceHousing:
		return p.HousingRequired
	case ResourceHealthcare:
		return p.HealthcareRequired
	}
	return 0
}

// LivabilityEffect is a building's influence on one CARENS dimension:
// Impact at distance 0, fading linearly out to Attenuation cells.
type LivabilityEffect struct {
	Impact      float64 `json:"impact,omitempty"`
	Attenuation float64 `json:"attenuation,omitempty"`
}

type LivabilityProfile struct {
	Culture       LivabilityEffect `json:"culture,omitempty"`
	Affordability LivabilityEffect `json:"affordability,omitempty"`
	Resilience    LivabilityEffect `json:"resilience,omitempty"`
	Environment   LivabilityEffect `json:"environment,omitempty"`
	Noise         LivabilityEffect `json:"noise,omitempty"`
	Safety        LivabilityEffect `json:"safety,omitempty"`
}

func (p LivabilityProfile) Effect(d Domain) LivabilityEffect {
	switch d {
	case DomainCulture:
		return p.Culture
	case DomainAffordability:
		return p.Affordability
	case DomainResilience:
		return p.Resilience
	case DomainEnvironment:
		return p.Environment
	case DomainNoise:
		return p.Noise
	case DomainSafety:
		return p.Safety
	}
	return LivabilityEffect{}
}

// MaxAttenuation is the widest livability reach the building declares.
// Mutation invalidation uses it to size the dirty neighborhood.
func (p LivabilityProfile) MaxAttenuation() float64 {
	max := 0.0
	for _, d := range Domains {
		if e := p.Effect(d); e.Impact != 0 && e.Attenuation > max {
			max = e.Attenuation
		}
	}
	return max
}

// civicScore sums impact/sqrt(attenuation) over the six dimensions.
// Zero or missing attenuation counts as 1 so the term stays defined.
func civicScore(p LivabilityProfile) float64 {
	total := 0.0
	for _, d := range Domains {
		e := p.Effect(d)
		if e.Impact == 0 {
			continue
		}
		att := e.Attenuation
		if att <= 0 {
			att = 1
		}
		total += e.Impact / math.Sqrt(att)
	}
	return math.Round(total*10) / 10
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	return &c, nil
}

// LoadValidated is Load plus a schema check of buildings.json before decoding.
func LoadValidated(configDir, schemaPath string) (*Catalogs, error) {
	raw, err := os.ReadFile(filepath.Join(configDir, "buildings.json"))
	if err != nil {
		return nil, err
	}
	schema, err := jsonschema.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", filepath.Base(schemaPath), err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("buildings.json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("buildings.json: %w", err)
	}
	return Load(configDir)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.DefsDigest = sha256Hex(raw)

	// The file groups defs by category.
	var byCategory map[string][]BuildingDef
	if err := json.Unmarshal(raw, &byCategory); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}

	out.ByID = map[string]BuildingDef{}
	out.ByCategory = map[string][]string{}
	for category, defs := range byCategory {
		for _, d := range defs {
			if d.ID == "" {
				return fmt.Errorf("buildings.json: empty id in category %q", category)
			}
			if _, dup := out.ByID[d.ID]; dup {
				return fmt.Errorf("buildings.json: duplicate id %q", d.ID)
			}
			if d.Category == "" {
				d.Category = category
			}
			d.CivicScore = civicScore(d.Livability)
			out.ByID[d.ID] = d
			out.ByCategory[category] = append(out.ByCategory[category], d.ID)
		}
	}

	ids := make([]string, 0, len(out.ByID))
	for id := range out.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out.Palette = ids
	for _, members := range out.ByCategory {
		sort.Strings(members)
	}
	return nil
}
