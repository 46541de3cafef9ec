package orders

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ordersCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tienda_orders_created_total",
		Help: "Orders created with all of their lines",
	})

	compensations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tienda_order_compensations_total",
			Help: "Header deletes issued after a failed line insert",
		},
		[]string{"result"},
	)

	recalculations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tienda_order_recalculations_total",
			Help: "Order totals recalculations",
		},
		[]string{"result"},
	)
)
