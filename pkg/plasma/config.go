package plasma

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/arrowlake/plasma-go/internal/bytesize"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ClientConfig configures a Connect call. It is a plain Go struct built
// directly by the caller — the library owns no CLI flags, environment
// variables, or config file format of its own.
type ClientConfig struct {
	// StoreSocketPath is the Unix domain socket path of the store daemon.
	StoreSocketPath string `validate:"required"`

	// ManagerSocketPath is the optional Unix domain socket path of the
	// manager daemon. When empty, Fetch/Transfer/Info return ErrNoManager.
	ManagerSocketPath string

	// ReleaseDelay is the number of most-recently-released objects kept
	// mapped and retained in the release history before the oldest is
	// flushed (spec invariant I4). Zero leaves the count unbounded, so only
	// L3CacheBytes then limits the history.
	ReleaseDelay int `validate:"gte=0"`

	// L3CacheBytes bounds the release history by estimated resident size
	// rather than strictly by count, replacing a fixed 100MB heuristic
	// with a caller-supplied tunable. Default 100MiB.
	L3CacheBytes bytesize.ByteSize `validate:"gt=0"`

	// NumRetries bounds the number of dial retries Connect makes after its
	// first attempt (NumRetries+1 attempts in all) before giving up with
	// ErrConnection.
	NumRetries int `validate:"gte=0"`

	// RetryBaseDelay is the initial backoff between dial attempts;
	// subsequent attempts double it up to RetryMaxDelay.
	RetryBaseDelay time.Duration `validate:"gte=0"`

	// RetryMaxDelay caps the backoff delay between dial attempts.
	RetryMaxDelay time.Duration `validate:"gte=0"`

	// MaxFrameBytes caps an incoming wire frame's payload length; frames
	// larger than this are rejected with ErrTransport rather than read
	// into memory.
	MaxFrameBytes int64 `validate:"gt=0"`

	// Logger, if set, replaces the package default *slog.Logger for log
	// lines emitted by this one client instance.
	Logger *slog.Logger `validate:"-"`

	// Metrics, if set, receives counter/gauge updates mirroring Stats()
	// as operations occur. Nil means no metrics are recorded.
	Metrics MetricsRecorder `validate:"-"`
}

// Defaults for optional ClientConfig fields.
const (
	DefaultReleaseDelay   = 64
	DefaultL3CacheBytes   = 100 * bytesize.MiB
	DefaultNumRetries     = 50
	DefaultRetryBaseDelay = 10 * time.Millisecond
	DefaultRetryMaxDelay  = 1 * time.Second
	DefaultMaxFrameBytes  = 64 << 20 // 64MiB
)

// DefaultConfig returns a ClientConfig with every optional field set to its
// documented default and StoreSocketPath left empty for the caller to fill
// in.
func DefaultConfig(storeSocketPath string) ClientConfig {
	return ClientConfig{
		StoreSocketPath: storeSocketPath,
		ReleaseDelay:    DefaultReleaseDelay,
		L3CacheBytes:    DefaultL3CacheBytes,
		NumRetries:      DefaultNumRetries,
		RetryBaseDelay:  DefaultRetryBaseDelay,
		RetryMaxDelay:   DefaultRetryMaxDelay,
		MaxFrameBytes:   DefaultMaxFrameBytes,
	}
}

// Validate checks the config for obviously invalid values before Connect
// touches any socket.
func (c *ClientConfig) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return nil
}
