package plasma

// Stats is a point-in-time snapshot of client-side bookkeeping. It is
// always available via Client.Stats(); it never blocks and never touches
// the wire.
type Stats struct {
	// MmapRegions is the number of distinct mmap regions currently held
	// open in this process's mmap table.
	MmapRegions int

	// MmapBytes is the total length of all currently mapped regions.
	MmapBytes int64

	// InUseEntries is the number of objects the in-use table currently
	// tracks (any local_refs, sealed or not).
	InUseEntries int

	// ReleaseHistoryEntries is the number of objects sitting in the
	// release history (refs == 0, retained for reuse locality).
	ReleaseHistoryEntries int

	// ReleaseHistoryBytes is this client's estimate of resident bytes
	// held by the release history, compared against L3CacheBytes to
	// decide when to flush the oldest entry.
	ReleaseHistoryBytes int64
}

// MetricsRecorder receives counter/gauge updates mirroring client activity,
// for callers that want Stats() mirrored into an observability backend
// instead of polling it. A nil MetricsRecorder disables all reporting; the
// client never requires one.
type MetricsRecorder interface {
	// ObserveStats is called after any operation that changes Stats(),
	// with the just-computed snapshot.
	ObserveStats(Stats)

	// IncOps increments a named operation counter (e.g. "create", "get",
	// "release") alongside a result tag ("ok", "error").
	IncOps(op, result string)

	// ObserveOpDuration records how long one named operation took.
	ObserveOpDuration(op string, seconds float64)
}

// noopMetrics implements MetricsRecorder as a no-op; used internally when
// ClientConfig.Metrics is nil so call sites never need a nil check.
type noopMetrics struct{}

func (noopMetrics) ObserveStats(Stats)                       {}
func (noopMetrics) IncOps(op, result string)                 {}
func (noopMetrics) ObserveOpDuration(op string, sec float64) {}

// MetricsOrNoop returns m, or a no-op MetricsRecorder if m is nil. Callers
// outside this package use it so they never need their own nil check
// before calling a MetricsRecorder method.
func MetricsOrNoop(m MetricsRecorder) MetricsRecorder {
	if m == nil {
		return noopMetrics{}
	}
	return m
}
