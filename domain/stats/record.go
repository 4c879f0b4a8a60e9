package stats

// Metric column names, matching the persisted table headers.
const (
	MetricObsMean  = "obs_mean"
	MetricPredMean = "pred_mean"
	MetricBias     = "bias"
	MetricMAE      = "mae"
	MetricRMSE     = "rmse"
	MetricR2       = "r2"
	MetricRelBias  = "rel_bias"
	MetricRelRMSE  = "rel_rmse"
	MetricNSE      = "nse"
	MetricCorr     = "corr"
	MetricPBIAS    = "pbias"
)

// MetricNames lists all metric columns in persisted order.
var MetricNames = []string{
	MetricObsMean, MetricPredMean, MetricBias, MetricMAE, MetricRMSE,
	MetricR2, MetricRelBias, MetricRelRMSE, MetricNSE, MetricCorr, MetricPBIAS,
}

// Direction classifies how a metric's quality relates to its magnitude,
// which decides which tail the outlier filter may clip.
type Direction int

const (
	// TwoSided metrics are clipped at both percentile bounds.
	TwoSided Direction = iota
	// HigherIsBetter metrics only lose their lower tail; a very good score
	// is never discarded.
	HigherIsBetter
	// LowerIsBetter metrics only lose their upper tail.
	LowerIsBetter
)

// DirectionOf returns the filtering direction for a metric column.
// Unclassified columns default to two-sided.
func DirectionOf(metric string) Direction {
	switch metric {
	case MetricR2, MetricNSE, MetricCorr:
		return HigherIsBetter
	case MetricRMSE, MetricMAE, MetricBias, MetricPBIAS, MetricRelBias, MetricRelRMSE:
		return LowerIsBetter
	default:
		return TwoSided
	}
}

// Record holds the goodness-of-fit statistics for one station at one
// aggregation level. Immutable once computed; the outlier filter copies
// records before blanking cells.
type Record struct {
	Station  string
	Count    int
	ObsMean  float64
	PredMean float64
	Bias     float64
	MAE      float64
	RMSE     float64
	R2       float64
	RelBias  float64
	RelRMSE  float64
	NSE      float64
	Corr     float64
	PBIAS    float64

	// DegeneratePBIAS marks a zero observed sum, a likely data defect
	// distinct from an ordinary insufficient-sample NaN.
	DegeneratePBIAS bool
}

// Metric returns the value of a named metric column.
func (r *Record) Metric(name string) (float64, bool) {
	switch name {
	case MetricObsMean:
		return r.ObsMean, true
	case MetricPredMean:
		return r.PredMean, true
	case MetricBias:
		return r.Bias, true
	case MetricMAE:
		return r.MAE, true
	case MetricRMSE:
		return r.RMSE, true
	case MetricR2:
		return r.R2, true
	case MetricRelBias:
		return r.RelBias, true
	case MetricRelRMSE:
		return r.RelRMSE, true
	case MetricNSE:
		return r.NSE, true
	case MetricCorr:
		return r.Corr, true
	case MetricPBIAS:
		return r.PBIAS, true
	default:
		return 0, false
	}
}

// SetMetric overwrites the value of a named metric column.
func (r *Record) SetMetric(name string, v float64) bool {
	switch name {
	case MetricObsMean:
		r.ObsMean = v
	case MetricPredMean:
		r.PredMean = v
	case MetricBias:
		r.Bias = v
	case MetricMAE:
		r.MAE = v
	case MetricRMSE:
		r.RMSE = v
	case MetricR2:
		r.R2 = v
	case MetricRelBias:
		r.RelBias = v
	case MetricRelRMSE:
		r.RelRMSE = v
	case MetricNSE:
		r.NSE = v
	case MetricCorr:
		r.Corr = v
	case MetricPBIAS:
		r.PBIAS = v
	default:
		return false
	}
	return true
}
