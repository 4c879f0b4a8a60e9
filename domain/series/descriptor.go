package series

import "time"

// Resolution is the native temporal resolution of a gridded product.
type Resolution string

const (
	ResolutionDaily   Resolution = "daily"
	ResolutionMonthly Resolution = "monthly"
	ResolutionHourly  Resolution = "hourly"
	Resolution3Hourly Resolution = "3hourly"
)

// DateRange bounds the dates a product is valid for. A zero bound is open.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// DatasetDescriptor is static metadata for one gridded precipitation product.
// NativeResolution drives whether the orchestrator aggregates ground data
// before comparison; ConversionFactor converts source units to millimetres.
type DatasetDescriptor struct {
	Name             string
	Collection       string
	Variable         string
	NativeResolution Resolution
	ConversionFactor float64
	ValidRange       *DateRange
}

// MonthlyNative reports whether the product only exists at monthly resolution,
// in which case daily-level statistics are meaningless for it.
func (d DatasetDescriptor) MonthlyNative() bool {
	return d.NativeResolution == ResolutionMonthly
}

// DefaultCatalog returns descriptors for the supported gridded products,
// keyed by uppercase dataset name.
func DefaultCatalog() map[string]DatasetDescriptor {
	return map[string]DatasetDescriptor{
		"ERA5": {
			Name:             "ERA5",
			Collection:       "ECMWF/ERA5_LAND/DAILY_AGGR",
			Variable:         "total_precipitation_sum",
			NativeResolution: ResolutionDaily,
			ConversionFactor: 1000, // metres to mm
		},
		"DAYMET": {
			Name:             "DAYMET",
			Collection:       "NASA/ORNL/DAYMET_V4",
			Variable:         "prcp",
			NativeResolution: ResolutionDaily,
			ConversionFactor: 1,
		},
		"PRISM": {
			Name:             "PRISM",
			Collection:       "OREGONSTATE/PRISM/AN81d",
			Variable:         "ppt",
			NativeResolution: ResolutionDaily,
			ConversionFactor: 1,
		},
		"CHIRPS": {
			Name:             "CHIRPS",
			Collection:       "UCSB-CHG/CHIRPS/DAILY",
			Variable:         "precipitation",
			NativeResolution: ResolutionDaily,
			ConversionFactor: 1,
		},
		"FLDAS": {
			Name:             "FLDAS",
			Collection:       "NASA/FLDAS/NOAH01/C/GL/M/V001",
			Variable:         "Rainf_f_tavg",
			NativeResolution: ResolutionMonthly,
			ConversionFactor: 1,
		},
		"GSMAP": {
			Name:             "GSMAP",
			Collection:       "JAXA/GPM_L3/GSMaP/v8/operational",
			Variable:         "hourlyPrecipRate",
			NativeResolution: ResolutionHourly,
			ConversionFactor: 1,
		},
		"GLDAS": {
			Name:             "GLDAS",
			Collection:       "NASA/GLDAS/V021/NOAH/G025/T3H",
			Variable:         "Rainf_f_tavg",
			NativeResolution: Resolution3Hourly,
			ConversionFactor: 1,
		},
	}
}

// DescriptorFor looks up a dataset in the catalog, falling back to a plain
// daily descriptor so unknown products still get analyzed.
func DescriptorFor(catalog map[string]DatasetDescriptor, name string) DatasetDescriptor {
	if d, ok := catalog[name]; ok {
		return d
	}
	return DatasetDescriptor{
		Name:             name,
		NativeResolution: ResolutionDaily,
		ConversionFactor: 1,
	}
}
