package authcore

import (
	"context"
	"sync"
	"testing"
	"time"

	ptotp "github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

// fakeStore is the in-memory CredentialStore used across engine tests.
// It mirrors the contract exactly: copies in, copies out, update under
// one mutex, never upsert.
type fakeStore struct {
	mu      sync.Mutex
	records map[string]*CredentialRecord
	byEmail map[string][]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		records: make(map[string]*CredentialRecord),
		byEmail: make(map[string][]string),
	}
}

func (s *fakeStore) Get(_ context.Context, userID string) (*CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	return rec.Clone(), nil
}

func (s *fakeStore) PutIfAbsent(_ context.Context, record *CredentialRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.UserID]; ok {
		return ErrRecordExists
	}
	s.records[record.UserID] = record.Clone()
	s.byEmail[record.Email] = append(s.byEmail[record.Email], record.UserID)
	return nil
}

func (s *fakeStore) UpdateIfExists(_ context.Context, userID string, apply func(*CredentialRecord) error) (*CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.records[userID]
	if !ok {
		return nil, ErrRecordNotFound
	}
	next := current.Clone()
	if err := apply(next); err != nil {
		return nil, err
	}
	s.records[userID] = next
	return next.Clone(), nil
}

func (s *fakeStore) QueryByEmail(_ context.Context, email string) ([]*CredentialRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*CredentialRecord
	for _, id := range s.byEmail[email] {
		if rec, ok := s.records[id]; ok {
			out = append(out, rec.Clone())
		}
	}
	return out, nil
}

// mustRecord reads the stored record directly, bypassing the engine.
func (s *fakeStore) mustRecord(t *testing.T, userID string) *CredentialRecord {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[userID]
	if !ok {
		t.Fatalf("record %q not in store", userID)
	}
	return rec.Clone()
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []EmailMessage
	err  error
}

func (n *fakeNotifier) EnqueueEmail(_ context.Context, msg EmailMessage) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.sent)
}

func (n *fakeNotifier) last(t *testing.T) EmailMessage {
	t.Helper()
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.sent) == 0 {
		t.Fatal("no email was enqueued")
	}
	return n.sent[len(n.sent)-1]
}

// testClock is the engine's clock in tests. Time only moves when a test
// advances it, making expiry and watermark comparisons deterministic.
type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func newTestClock() *testClock {
	return &testClock{t: time.Unix(1_700_000_000, 0)}
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Token.AccessSecret = []byte("test-access-secret")
	cfg.Token.RefreshSecret = []byte("test-refresh-secret")
	// min cost keeps the suite fast; strength policy is unaffected
	cfg.Password.Cost = bcrypt.MinCost
	return cfg
}

func newTestEngine(t *testing.T) (*Engine, *fakeStore, *fakeNotifier, *testClock) {
	t.Helper()
	return newTestEngineWithConfig(t, testConfig())
}

func newTestEngineWithConfig(t *testing.T, cfg Config) (*Engine, *fakeStore, *fakeNotifier, *testClock) {
	t.Helper()

	store := newFakeStore()
	notifier := &fakeNotifier{}
	engine, err := New().
		WithConfig(cfg).
		WithStore(store).
		WithNotifier(notifier).
		Build()
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	t.Cleanup(engine.Close)

	clock := newTestClock()
	engine.now = clock.Now
	return engine, store, notifier, clock
}

const (
	testEmail    = "a@x.com"
	testPassword = "Abc123!@"
)

func signUpTestUser(t *testing.T, engine *Engine) *SignUpResult {
	t.Helper()
	result, err := engine.SignUp(context.Background(), SignUpInput{
		Email:           testEmail,
		Password:        testPassword,
		ConfirmPassword: testPassword,
	})
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	return result
}

// liveTOTPCode derives the code a user's authenticator would show for
// secret at the engine clock's current time.
func liveTOTPCode(t *testing.T, secret string, clock *testClock) string {
	t.Helper()
	code, err := ptotp.GenerateCode(secret, clock.Now())
	if err != nil {
		t.Fatalf("GenerateCode failed: %v", err)
	}
	return code
}

// totpCodeAt derives the authenticator code for secret at an arbitrary
// instant, for skew and replay scenarios.
func totpCodeAt(secret string, at time.Time) (string, error) {
	return ptotp.GenerateCode(secret, at)
}

// enrollAndActivate takes the test user to the Active TOTP state and
// returns the enrollment and a fresh access token issued after the
// activation bump.
func enrollAndActivate(t *testing.T, engine *Engine, clock *testClock) (*TOTPEnrollment, TokenPair) {
	t.Helper()
	ctx := context.Background()

	result := signUpTestUser(t, engine)
	enrollment, err := engine.EnrollTOTP(ctx, result.Tokens.AccessToken)
	if err != nil {
		t.Fatalf("EnrollTOTP failed: %v", err)
	}

	if err := engine.ActivateTOTP(ctx, result.Tokens.AccessToken, liveTOTPCode(t, enrollment.Secret, clock)); err != nil {
		t.Fatalf("ActivateTOTP failed: %v", err)
	}

	// past the activation bump so the new tokens clear the floor
	clock.Advance(time.Second)
	signIn, err := engine.SignIn(ctx, SignInInput{
		Email:    testEmail,
		Password: testPassword,
		TOTPCode: liveTOTPCode(t, enrollment.Secret, clock),
	})
	if err != nil {
		t.Fatalf("SignIn after activation failed: %v", err)
	}
	return enrollment, signIn.Tokens
}
