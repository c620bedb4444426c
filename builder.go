package authcore

import (
	"errors"
	"log/slog"
	"time"

	"github.com/authcore-io/authcore/password"
	"github.com/authcore-io/authcore/token"
	"github.com/authcore-io/authcore/totp"
)

// Builder assembles an [Engine]. Construction is allocation-only until
// Build, which validates configuration and wires every component.
type Builder struct {
	config   Config
	store    CredentialStore
	notifier NotificationSink
	sso      IdentityExchanger
	sink     AuditSink
	logger   *slog.Logger

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithStore sets the credential store collaborator. Required.
func (b *Builder) WithStore(store CredentialStore) *Builder {
	b.store = store
	return b
}

// WithNotifier sets the outbound email sink. Required.
func (b *Builder) WithNotifier(sink NotificationSink) *Builder {
	b.notifier = sink
	return b
}

// WithSSO sets the optional federated code exchanger. Without it,
// SignInFederated fails with ErrSSONotConfigured.
func (b *Builder) WithSSO(exchanger IdentityExchanger) *Builder {
	b.sso = exchanger
	return b
}

// WithAuditSink sets the audit destination. Ignored unless
// Config.Audit.Enabled is true.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// WithLogger sets the structured logger for server-side failure detail.
// Defaults to slog.Default.
func (b *Builder) WithLogger(logger *slog.Logger) *Builder {
	b.logger = logger
	return b
}

// Build validates the configuration and collaborators and returns a
// ready Engine. Missing signing secrets fail here, at process start.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}
	if b.store == nil {
		return nil, errors.New("credential store is required")
	}
	if b.notifier == nil {
		return nil, errors.New("notification sink is required")
	}
	if err := validateConfig(b.config); err != nil {
		return nil, err
	}

	eng := &Engine{now: time.Now}

	// token expiry validation follows the engine clock
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  b.config.Token.AccessSecret,
		RefreshSecret: b.config.Token.RefreshSecret,
		AccessTTL:     b.config.Token.AccessTTL,
		RefreshTTL:    b.config.Token.RefreshTTL,
		Issuer:        b.config.Token.Issuer,
		TimeFunc:      func() time.Time { return eng.now() },
	})
	if err != nil {
		return nil, err
	}

	hasher, err := password.NewHasher(password.Config{Cost: b.config.Password.Cost})
	if err != nil {
		return nil, err
	}

	logger := b.logger
	if logger == nil {
		logger = slog.Default()
	}

	b.built = true
	eng.config = b.config
	eng.store = b.store
	eng.notifier = b.notifier
	eng.sso = b.sso
	eng.codec = codec
	eng.hasher = hasher
	eng.totp = totp.NewManager(totp.Config{
		Issuer:           b.config.Service,
		Digits:           b.config.TOTP.Digits,
		Period:           b.config.TOTP.Period,
		Skew:             b.config.TOTP.Skew,
		BackupCodeCount:  b.config.TOTP.BackupCodeCount,
		BackupCodeLength: b.config.TOTP.BackupCodeLength,
	})
	eng.audit = newAuditDispatcher(b.config.Audit, b.sink)
	eng.metrics = NewMetrics(b.config.Metrics)
	eng.logger = logger
	return eng, nil
}
