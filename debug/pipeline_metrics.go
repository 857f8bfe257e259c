package debug

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// StartMetricsLogger gathers g every interval and logs one line with every
// sample flattened to name{labels}=value.
func StartMetricsLogger(ctx context.Context, interval time.Duration, g prometheus.Gatherer, logger *slog.Logger) {
	if g == nil {
		return
	}
	if interval <= 0 {
		interval = 5 * time.Second
	}
	go every(ctx, interval, func() {
		families, err := g.Gather()
		if err != nil {
			logger.Warn("metrics gather", "error", err)
		}
		logger.Info("pipeline-metrics", Flatten(families)...)
	})
}

// Flatten turns metric families into slog attributes. Histograms report
// their count and sum.
func Flatten(families []*dto.MetricFamily) []any {
	var out []any
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName() + labelSuffix(m.GetLabel())
			switch mf.GetType() {
			case dto.MetricType_COUNTER:
				out = append(out, slog.Float64(key, m.GetCounter().GetValue()))
			case dto.MetricType_GAUGE:
				out = append(out, slog.Float64(key, m.GetGauge().GetValue()))
			case dto.MetricType_HISTOGRAM:
				h := m.GetHistogram()
				out = append(out,
					slog.Uint64(key+"_count", h.GetSampleCount()),
					slog.Float64(key+"_sum", h.GetSampleSum()),
				)
			case dto.MetricType_UNTYPED:
				out = append(out, slog.Float64(key, m.GetUntyped().GetValue()))
			}
		}
	}
	return out
}

func labelSuffix(labels []*dto.LabelPair) string {
	if len(labels) == 0 {
		return ""
	}
	parts := make([]string, len(labels))
	for i, l := range labels {
		parts[i] = l.GetName() + "=" + l.GetValue()
	}
	return "{" + strings.Join(parts, ",") + "}"
}
