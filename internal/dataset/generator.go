// Package dataset provides the dashboard's data providers: a deterministic
// mock generator and a loader for tabular files. Both produce
// domain.Datasets; neither knows anything about dashboard state.
package dataset

import (
	"math"
	"math/rand/v2"
	"time"

	"dashcore/pkg/domain"
)

// Default dimension values used by the mock generator.
var (
	Departments = []string{"Sales", "Marketing", "Engineering", "Operations", "Support"}
	Regions     = []string{"North America", "Europe", "APAC", "LATAM"}
	Industries  = []string{"Retail", "Finance", "Healthcare", "Manufacturing", "Technology"}
)

// GeneratorConfig parameterises Generate.
type GeneratorConfig struct {
	Seed   uint64
	Months int
	// End is the first day of the newest generated month.
	End time.Time
}

// DefaultGeneratorConfig returns a 24 month window ending December 2024.
func DefaultGeneratorConfig(seed uint64) GeneratorConfig {
	return GeneratorConfig{
		Seed:   seed,
		Months: 24,
		End:    time.Date(2024, time.December, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Generate builds revenue, customers and kpis datasets. The same config
// always yields the same records.
func Generate(cfg GeneratorConfig) domain.Datasets {
	if cfg.Months <= 0 {
		cfg.Months = 24
	}
	if cfg.End.IsZero() {
		cfg.End = DefaultGeneratorConfig(cfg.Seed).End
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15))
	start := cfg.End.AddDate(0, -(cfg.Months - 1), 0)

	var revenue, customers []domain.Record
	for m := 0; m < cfg.Months; m++ {
		month := start.AddDate(0, m, 0)
		date := month.Format(domain.DateLayout)
		seasonal := 1 + 0.15*math.Sin(2*math.Pi*float64(month.Month()-1)/12)
		growth := 1 + 0.02*float64(m)
		for _, dept := range Departments {
			region := Regions[rng.IntN(len(Regions))]
			industry := Industries[rng.IntN(len(Industries))]
			gross := round2((50_000 + rng.Float64()*100_000) * seasonal * growth)
			net := round2(gross * (0.55 + rng.Float64()*0.25))
			revenue = append(revenue, domain.Record{
				domain.ColumnDate:       date,
				domain.ColumnDepartment: dept,
				domain.ColumnRegion:     region,
				domain.ColumnIndustry:   industry,
				"gross":                 gross,
				"net":                   net,
				"profit":                round2(net * (0.1 + rng.Float64()*0.2)),
			})
		}
		for _, region := range Regions {
			industry := Industries[rng.IntN(len(Industries))]
			active := 200 + rng.IntN(800) + 15*m
			customers = append(customers, domain.Record{
				domain.ColumnDate:     date,
				domain.ColumnRegion:   region,
				domain.ColumnIndustry: industry,
				"customers":           active,
				"new":                 rng.IntN(60),
				"churned":             rng.IntN(30),
			})
		}
	}
	return domain.Datasets{
		domain.DatasetRevenue:   revenue,
		domain.DatasetCustomers: customers,
		domain.DatasetKPIs:      kpis(revenue, customers, rng),
	}
}

func kpis(revenue, customers []domain.Record, rng *rand.Rand) []domain.Record {
	var gross, net, profit float64
	for _, r := range revenue {
		gross += r["gross"].(float64)
		net += r["net"].(float64)
		profit += r["profit"].(float64)
	}
	var active int
	for _, r := range customers {
		active += r["customers"].(int)
	}
	kpi := func(name string, value, target float64) domain.Record {
		return domain.Record{"name": name, "value": round2(value), "target": round2(target)}
	}
	return []domain.Record{
		kpi("gross_revenue", gross, gross*(0.9+rng.Float64()*0.2)),
		kpi("net_revenue", net, net*(0.9+rng.Float64()*0.2)),
		kpi("profit", profit, profit*(0.9+rng.Float64()*0.2)),
		kpi("customers", float64(active), float64(active)*1.1),
	}
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
