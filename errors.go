package featbank

import (
	"errors"
	"fmt"

	"github.com/hupe1980/featbank/backend"
)

var (
	// ErrNotFound is returned when a sampled entity has no record in any
	// loaded partition. Callers decide the fallback (skip the sample, pick
	// another clip); the store never retries or substitutes.
	ErrNotFound = errors.New("entity not found")

	// ErrLenUnsupported is returned by Len for backends that cannot count
	// entities without a full key scan (the persistent store).
	ErrLenUnsupported = errors.New("entity count not supported by this backend")
)

// ConfigError indicates an invalid construction-time configuration, such as a
// missing source directory or an unrecognized backend name. It is fatal:
// a store cannot run without its bank.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ConfigError struct {
	Option string
	Reason string
	cause  error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Option, e.Reason)
}

func (e *ConfigError) Unwrap() error { return e.cause }

// KeyParseError indicates a malformed combined sample key. Keys must have the
// form "<entity>,<timestamp>" with an integer timestamp.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type KeyParseError struct {
	Key   string
	cause error
}

func (e *KeyParseError) Error() string {
	return fmt.Sprintf("malformed sample key %q (want \"<entity>,<timestamp>\")", e.Key)
}

func (e *KeyParseError) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	// Not found unification.
	if errors.Is(err, backend.ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
