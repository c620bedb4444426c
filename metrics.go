package authcore

import "sync/atomic"

// MetricID identifies one operation counter.
type MetricID uint16

const (
	// MetricSignUpSuccess counts created accounts.
	MetricSignUpSuccess MetricID = iota
	// MetricSignUpDuplicate counts sign-ups rejected for a taken email.
	MetricSignUpDuplicate
	// MetricSignInSuccess counts sign-ins that issued tokens.
	MetricSignInSuccess
	// MetricSignInFailure counts bad-credential sign-ins.
	MetricSignInFailure
	// MetricTOTPRequired counts sign-ins answered with a code challenge.
	MetricTOTPRequired
	// MetricTOTPSuccess counts accepted time-based codes.
	MetricTOTPSuccess
	// MetricTOTPFailure counts rejected codes.
	MetricTOTPFailure
	// MetricBackupCodeUsed counts consumed backup codes.
	MetricBackupCodeUsed
	// MetricRefreshSuccess counts minted access tokens.
	MetricRefreshSuccess
	// MetricRefreshFailure counts rejected refresh tokens.
	MetricRefreshFailure
	// MetricSignOut counts watermark bumps from sign-out.
	MetricSignOut
	// MetricPasswordChangeSuccess counts completed password changes.
	MetricPasswordChangeSuccess
	// MetricPasswordResetRequest counts issued reset codes.
	MetricPasswordResetRequest
	// MetricPasswordResetConfirm counts completed resets.
	MetricPasswordResetConfirm
	// MetricEmailVerificationRequest counts issued verification codes.
	MetricEmailVerificationRequest
	// MetricEmailVerificationConfirm counts verified addresses.
	MetricEmailVerificationConfirm

	metricIDCount
)

const cacheLineSize = 64

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics holds lock-free operation counters. The write path is
// allocation-free; Snapshot deep-copies for exporters.
type Metrics struct {
	enabled  bool
	counters [metricIDCount]paddedCounter
}

// MetricsSnapshot is a point-in-time copy of all counters.
type MetricsSnapshot struct {
	Counters map[MetricID]uint64
}

// NewMetrics creates a Metrics instance. When cfg.Enabled is false every
// operation is a no-op.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{enabled: cfg.Enabled}
}

// Inc atomically increments one counter.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Snapshot returns a copy of all counters.
func (m *Metrics) Snapshot() MetricsSnapshot {
	snap := MetricsSnapshot{Counters: make(map[MetricID]uint64, metricIDCount)}
	if m == nil || !m.enabled {
		return snap
	}
	for id := MetricID(0); id < metricIDCount; id++ {
		snap.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}
	return snap
}
