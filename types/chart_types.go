package types

// ChartKind identifies the visual representation of a chart payload.
type ChartKind string

const (
	ChartLine     ChartKind = "line"
	ChartBar      ChartKind = "bar"
	ChartPie      ChartKind = "pie"
	ChartDoughnut ChartKind = "doughnut"
)

// ChartSeries is one named series of data points plus per-series options.
type ChartSeries struct {
	Label   string            `json:"label"`
	Data    []float64         `json:"data"`
	Options map[string]string `json:"options,omitempty"`
}

// ChartPayload is a normalized chart representation. It is pure data:
// all aggregation queries happen before the payload is constructed.
type ChartPayload struct {
	Kind   ChartKind     `json:"kind"`
	Labels []string      `json:"labels"`
	Series []ChartSeries `json:"series"`
}

// TrendDirection indicates how a metric moved against the previous period.
type TrendDirection string

const (
	TrendUp   TrendDirection = "up"
	TrendDown TrendDirection = "down"
	TrendFlat TrendDirection = "flat"
)

// MetricPayload is a single dashboard stat tile. Like ChartPayload it is
// pure data produced from aggregates computed by the caller.
type MetricPayload struct {
	Label   string         `json:"label"`
	Value   string         `json:"value"`
	Trend   TrendDirection `json:"trend,omitempty"`
	Change  string         `json:"change,omitempty"`
	Icon    string         `json:"icon,omitempty"`
	Color   string         `json:"color,omitempty"`
	Variant string         `json:"variant,omitempty"`
}

// NewChartPayload builds a chart payload from labels and series.
func NewChartPayload(kind ChartKind, labels []string, series ...ChartSeries) ChartPayload {
	return ChartPayload{Kind: kind, Labels: labels, Series: series}
}

// TrendOf classifies the movement from previous to current.
func TrendOf(current, previous float64) TrendDirection {
	switch {
	case current > previous:
		return TrendUp
	case current < previous:
		return TrendDown
	default:
		return TrendFlat
	}
}
