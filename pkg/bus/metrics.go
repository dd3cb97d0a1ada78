package bus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	onlineDevices = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "osdp_bus_online_devices",
		Help: "Number of OSDP devices currently online, per serial port.",
	}, []string{"port"})

	pollErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osdp_bus_poll_errors_total",
		Help: "Total device offline transitions observed per serial port.",
	}, []string{"port"})
)
