package policy

import (
	"fmt"
	"strings"

	"github.com/arloliu/strand/types"
)

// Retry policy names accepted by ByName.
const (
	NameDefault      = "default"
	NameFallthrough  = "fallthrough"
	NameAlwaysIgnore = "always_ignore"
	NameAlwaysRetry  = "always_retry"
	NameDowngrading  = "downgrading"
)

// Names returns the retry policy names accepted by ByName.
func Names() []string {
	return []string{NameDefault, NameFallthrough, NameAlwaysIgnore, NameAlwaysRetry, NameDowngrading}
}

// ByName returns the retry policy registered under name.
//
// Names match case-insensitively; "-" and "_" are interchangeable.
//
// Parameters:
//   - name: Policy name
//   - opts: Options applied when the downgrading policy is selected
//
// Returns:
//   - types.RetryPolicy: The policy
//   - error: An error wrapping types.ErrUnknownPolicy for unknown names
func ByName(name string, opts ...DowngradingOption) (types.RetryPolicy, error) {
	switch strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_") {
	case NameDefault, "":
		return NewDefault(), nil
	case NameFallthrough:
		return FallthroughInstance, nil
	case NameAlwaysIgnore:
		return NewAlwaysIgnore(), nil
	case NameAlwaysRetry:
		return NewAlwaysRetry(), nil
	case NameDowngrading, "downgrading_consistency":
		return NewDowngradingConsistency(opts...), nil
	}

	return nil, fmt.Errorf("%w: %q", types.ErrUnknownPolicy, name)
}
