package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

func zapNop() *zap.Logger { return zap.NewNop() }

func gaugeValue(g prometheus.Gauge) float64 { return testutil.ToFloat64(g) }
