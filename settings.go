package strand

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/arloliu/strand/policy"
	"github.com/arloliu/strand/types"
)

// Settings holds the executor configuration values an application loads from a
// file, such as the retry policy name and the default consistency.
//
// Example YAML:
//
//	retry_policy: downgrading
//	max_downgrade_retries: 2
//	log_decisions: true
//	default_consistency: LOCAL_QUORUM
//	backoff:
//	  base: 20ms
//	  max: 1s
type Settings struct {
	RetryPolicy         string           `yaml:"retry_policy"`
	LogDecisions        bool             `yaml:"log_decisions"`
	MaxDowngradeRetries *int             `yaml:"max_downgrade_retries"`
	DefaultConsistency  string           `yaml:"default_consistency"`
	Backoff             *BackoffSettings `yaml:"backoff"`
}

// BackoffSettings enables a delay between retries.
type BackoffSettings struct {
	Base time.Duration `yaml:"base"`
	Max  time.Duration `yaml:"max"`
}

// ParseSettings decodes and validates YAML settings.
//
// Parameters:
//   - data: YAML document
//
// Returns:
//   - *Settings: The decoded settings
//   - error: Decoding error, or an error wrapping types.ErrUnknownPolicy or
//     types.ErrInvalidConsistency
func ParseSettings(data []byte) (*Settings, error) {
	var s Settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("strand: failed to parse settings: %w", err)
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}

	return &s, nil
}

// LoadSettings reads settings from a YAML file.
//
// Parameters:
//   - path: File path
//
// Returns:
//   - *Settings: The decoded settings
//   - error: Read, decoding or validation error
func LoadSettings(path string) (*Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("strand: failed to read settings file: %w", err)
	}

	return ParseSettings(data)
}

// Validate checks the policy name, consistency and durations.
func (s *Settings) Validate() error {
	if _, err := s.retryPolicy(); err != nil {
		return err
	}
	if s.DefaultConsistency != "" {
		if _, err := types.ParseConsistency(s.DefaultConsistency); err != nil {
			return err
		}
	}
	if s.Backoff != nil && (s.Backoff.Base < 0 || s.Backoff.Max < 0) {
		return errors.New("strand: backoff durations must not be negative")
	}

	return nil
}

// Options converts the settings into executor options.
//
// Parameters:
//   - logger: Logger used for decision logging (nil keeps the executor default)
//
// Returns:
//   - []Option: Options to pass to NewExecutor
//   - error: Validation error
func (s *Settings) Options(logger types.Logger) ([]Option, error) {
	p, err := s.retryPolicy()
	if err != nil {
		return nil, err
	}

	if s.Backoff != nil && s.Backoff.Base > 0 {
		backoffOpts := []policy.BackoffOption{policy.WithBackoffBase(s.Backoff.Base)}
		if s.Backoff.Max > 0 {
			backoffOpts = append(backoffOpts, policy.WithBackoffMax(s.Backoff.Max))
		}
		p = policy.NewBackoff(p, backoffOpts...)
	}

	opts := []Option{
		WithRetryPolicy(p),
		WithLogDecisions(s.LogDecisions),
	}

	if s.DefaultConsistency != "" {
		cl, err := types.ParseConsistency(s.DefaultConsistency)
		if err != nil {
			return nil, err
		}
		opts = append(opts, WithDefaultConsistency(cl))
	}

	if logger != nil {
		opts = append(opts, WithLogger(logger))
	}

	return opts, nil
}

func (s *Settings) retryPolicy() (types.RetryPolicy, error) {
	var downgradeOpts []policy.DowngradingOption
	if s.MaxDowngradeRetries != nil {
		downgradeOpts = append(downgradeOpts, policy.WithMaxDowngradeRetries(*s.MaxDowngradeRetries))
	}

	return policy.ByName(s.RetryPolicy, downgradeOpts...)
}
