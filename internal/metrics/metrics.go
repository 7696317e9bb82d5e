package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EntriesRecorded counts entries queued by the recorder, by entry type.
	EntriesRecorded = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "telescope_entries_recorded_total",
			Help: "Total number of entries queued for storage",
		},
		[]string{"type"},
	)

	// EntriesFiltered counts entries rejected by recorder filters.
	EntriesFiltered = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telescope_entries_filtered_total",
			Help: "Total number of entries dropped by filters",
		},
	)

	EntriesStored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telescope_entries_stored_total",
			Help: "Total number of entries written to the entries repository",
		},
	)

	StoreErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "telescope_store_errors_total",
			Help: "Total number of failed entries repository writes",
		},
	)

	// LivewireCalls counts monitoring records built from component calls.
	LivewireCalls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "livewire_calls_recorded_total",
			Help: "Total number of component calls turned into request entries",
		},
	)

	// LivewireComponentsSkipped counts batched components that could not be mapped.
	LivewireComponentsSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "livewire_components_skipped_total",
			Help: "Total number of batched components skipped while recording",
		},
		[]string{"reason"},
	)
)
