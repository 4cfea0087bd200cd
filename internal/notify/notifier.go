package notify

import (
	"sync"
	"time"

	"github.com/goliatone/go-enhance/internal/logging"
	"github.com/goliatone/go-enhance/pkg/interfaces"
)

const defaultTTL = 10 * time.Second

// Notice is the currently displayed message.
type Notice struct {
	Kind      interfaces.NoticeKind
	Message   string
	ShownAt   time.Time
	ExpiresAt time.Time
}

// Notifier holds at most one active notice and clears it lazily once its TTL
// elapses. Expiry is checked against the injected clock on every read, so no
// background timer is needed.
type Notifier struct {
	mu     sync.Mutex
	active *Notice
	ttl    time.Duration
	now    func() time.Time
	logger interfaces.Logger
}

// Option customizes a notifier.
type Option func(*Notifier)

// WithTTL overrides how long a notice stays visible.
func WithTTL(ttl time.Duration) Option {
	return func(n *Notifier) {
		if ttl > 0 {
			n.ttl = ttl
		}
	}
}

// WithClock overrides the expiry clock, used mainly for tests.
func WithClock(clock func() time.Time) Option {
	return func(n *Notifier) {
		if clock != nil {
			n.now = clock
		}
	}
}

// WithLogger sets the notifier logger.
func WithLogger(logger interfaces.Logger) Option {
	return func(n *Notifier) {
		if logger != nil {
			n.logger = logger
		}
	}
}

// NewNotifier creates a notifier with the default TTL.
func NewNotifier(opts ...Option) *Notifier {
	notifier := &Notifier{
		ttl:    defaultTTL,
		now:    time.Now,
		logger: logging.NoOp(),
	}
	for _, opt := range opts {
		opt(notifier)
	}
	return notifier
}

var _ interfaces.Presenter = (*Notifier)(nil)

// Present replaces any active notice.
func (n *Notifier) Present(kind interfaces.NoticeKind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	shownAt := n.now()
	n.active = &Notice{
		Kind:      kind,
		Message:   message,
		ShownAt:   shownAt,
		ExpiresAt: shownAt.Add(n.ttl),
	}
	n.logger.Info("notice presented", "kind", string(kind), "message", message)
}

// Dismiss clears the active notice. Idempotent and safe after auto-expiry.
func (n *Notifier) Dismiss() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active == nil {
		return
	}
	n.active = nil
	n.logger.Debug("notice dismissed")
}

// Active returns the current notice, or nil when none is visible. Expired
// notices are cleared on the way out.
func (n *Notifier) Active() *Notice {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.active == nil {
		return nil
	}
	if !n.now().Before(n.active.ExpiresAt) {
		n.active = nil
		return nil
	}
	notice := *n.active
	return &notice
}

// LogPresenter routes notices to the log stream for headless hosts.
type LogPresenter struct {
	logger interfaces.Logger
}

// NewLogPresenter creates a presenter that only logs.
func NewLogPresenter(logger interfaces.Logger) *LogPresenter {
	if logger == nil {
		logger = logging.NoOp()
	}
	return &LogPresenter{logger: logger}
}

var _ interfaces.Presenter = (*LogPresenter)(nil)

func (p *LogPresenter) Present(kind interfaces.NoticeKind, message string) {
	switch kind {
	case interfaces.NoticeError:
		p.logger.Error("notice", "kind", string(kind), "message", message)
	default:
		p.logger.Warn("notice", "kind", string(kind), "message", message)
	}
}

func (p *LogPresenter) Dismiss() {}
