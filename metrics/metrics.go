package metrics

import (
	"context"
	"strconv"

	"wagerpool/events"

	"github.com/prometheus/client_golang/prometheus"
)

// Collectors holds the pool's Prometheus instruments
type Collectors struct {
	BetsPlaced        prometheus.Counter
	BettorsAdded      *prometheus.CounterVec
	StatusTransitions *prometheus.CounterVec
	Settlements       *prometheus.CounterVec
	PayoutVolume      prometheus.Counter
	ResidualVolume    prometheus.Counter
	LedgerMovements   *prometheus.CounterVec
}

// NewCollectors creates the instruments and registers them with reg
func NewCollectors(reg prometheus.Registerer) *Collectors {
	c := &Collectors{
		BetsPlaced: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "bets_placed_total",
			Help:      "Number of bets opened.",
		}),
		BettorsAdded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "bettors_added_total",
			Help:      "Number of members that joined a bet after it opened.",
		}, []string{"group"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "bet_status_transitions_total",
			Help:      "Bet lifecycle transitions.",
		}, []string{"from", "to"}),
		Settlements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "settlements_total",
			Help:      "Settled bets by outcome.",
		}, []string{"outcome"}),
		PayoutVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "payout_volume_total",
			Help:      "Base units paid out or refunded at settlement.",
		}),
		ResidualVolume: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "residual_volume_total",
			Help:      "Base units left over by floor division at settlement.",
		}),
		LedgerMovements: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wagerpool",
			Name:      "ledger_movements_total",
			Help:      "Ledger balance movements by entry type.",
		}, []string{"entry_type"}),
	}

	reg.MustRegister(
		c.BetsPlaced,
		c.BettorsAdded,
		c.StatusTransitions,
		c.Settlements,
		c.PayoutVolume,
		c.ResidualVolume,
		c.LedgerMovements,
	)
	return c
}

// Attach updates the collectors from committed events on the bus
func (c *Collectors) Attach(bus *events.Bus) {
	bus.SubscribeAll(c.Observe)
}

// Observe records a single event
func (c *Collectors) Observe(ctx context.Context, event events.Event) {
	switch e := event.(type) {
	case events.BetPlacedEvent:
		c.BetsPlaced.Inc()
	case events.BettorAddedEvent:
		c.BettorsAdded.WithLabelValues(strconv.Itoa(int(e.Group))).Inc()
	case events.BetStatusChangedEvent:
		c.StatusTransitions.WithLabelValues(string(e.OldStatus), string(e.NewStatus)).Inc()
	case events.BetSettledEvent:
		outcome := "void"
		if !e.Void && e.WinningGroup != nil {
			outcome = "group" + strconv.Itoa(int(*e.WinningGroup))
		}
		c.Settlements.WithLabelValues(outcome).Inc()
		c.PayoutVolume.Add(e.TotalPaid.InexactFloat64())
		c.ResidualVolume.Add(e.Residual.InexactFloat64())
	case events.BalanceChangeEvent:
		c.LedgerMovements.WithLabelValues(string(e.EntryType)).Inc()
	}
}
