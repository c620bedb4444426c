package authcore

import (
	"context"
	"sync"
	"testing"
)

func TestMetricsCountOperations(t *testing.T) {
	engine, _, _, _ := newTestEngine(t)
	ctx := context.Background()

	signUpTestUser(t, engine)
	if _, err := engine.SignIn(ctx, SignInInput{Email: testEmail, Password: testPassword}); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if _, err := engine.SignIn(ctx, SignInInput{Email: testEmail, Password: "Wrong123!"}); err == nil {
		t.Fatal("wrong password accepted")
	}

	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricSignUpSuccess]; got != 1 {
		t.Errorf("sign-up counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricSignInSuccess]; got != 1 {
		t.Errorf("sign-in success counter = %d, want 1", got)
	}
	if got := snap.Counters[MetricSignInFailure]; got != 1 {
		t.Errorf("sign-in failure counter = %d, want 1", got)
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := testConfig()
	cfg.Metrics.Enabled = false
	engine, _, _, _ := newTestEngineWithConfig(t, cfg)

	signUpTestUser(t, engine)
	snap := engine.MetricsSnapshot()
	if got := snap.Counters[MetricSignUpSuccess]; got != 0 {
		t.Errorf("disabled metrics counted %d sign-ups", got)
	}
}

func TestMetricsConcurrentInc(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const workers, perWorker = 8, 1000
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				m.Inc(MetricSignInSuccess)
			}
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Counters[MetricSignInSuccess]; got != workers*perWorker {
		t.Errorf("counter = %d, want %d", got, workers*perWorker)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *Metrics
	m.Inc(MetricSignOut)
	if len(m.Snapshot().Counters) != 0 {
		t.Error("nil metrics produced counters")
	}
	m2 := NewMetrics(MetricsConfig{Enabled: true})
	m2.Inc(metricIDCount + 1) // out of range ids are ignored
}
