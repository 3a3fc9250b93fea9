package replication

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Well-known strategy class names.
const (
	SimpleStrategyClass          = "SimpleStrategy"
	NetworkTopologyStrategyClass = "NetworkTopologyStrategy"
	LocalStrategyClass           = "LocalStrategy"
	EverywhereStrategyClass      = "EverywhereStrategy"

	// ReplicationFactorOption is the SimpleStrategy option key.
	ReplicationFactorOption = "replication_factor"

	classOption   = "class"
	locatorPrefix = "org.apache.cassandra.locator."
)

// Config is the replication configuration of a keyspace.
type Config struct {
	// Class is the strategy class, short or fully qualified.
	Class string `json:"class"`

	// Options maps option names (replication_factor or datacenter names) to values.
	Options map[string]string `json:"options"`
}

// NewConfig builds a Config from loosely typed option values, as found in gocql
// keyspace metadata or decoded JSON.
//
// Parameters:
//   - class: Strategy class name
//   - options: Option values (string, integer or float)
//
// Returns:
//   - Config: The normalized configuration
func NewConfig(class string, options map[string]any) Config {
	cfg := Config{Class: class, Options: make(map[string]string, len(options))}
	for k, v := range options {
		if k == classOption {
			continue
		}
		cfg.Options[k] = stringifyOption(v)
	}

	return cfg
}

// ShortClass returns the class name without the org.apache.cassandra.locator prefix.
func (c Config) ShortClass() string {
	return shortClass(c.Class)
}

// factor parses a numeric option.
func (c Config) factor(name string) (int, bool) {
	v, ok := c.Options[name]
	if !ok {
		return 0, false
	}

	return parseFactor(v)
}

func shortClass(class string) string {
	class = strings.TrimSpace(class)
	if len(class) >= len(locatorPrefix) && strings.EqualFold(class[:len(locatorPrefix)], locatorPrefix) {
		return class[len(locatorPrefix):]
	}

	return class
}

// parseFactor accepts "3" and Cassandra's transient notation "3/1" (full/transient),
// returning the full replica count.
func parseFactor(v string) (int, bool) {
	v = strings.TrimSpace(v)
	if i := strings.IndexByte(v, '/'); i >= 0 {
		v = v[:i]
	}

	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

func stringifyOption(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case int:
		return strconv.Itoa(val)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case int64:
		return strconv.FormatInt(val, 10)
	case float64:
		if val == math.Trunc(val) {
			return strconv.FormatInt(int64(val), 10)
		}

		return strconv.FormatFloat(val, 'f', -1, 64)
	}

	return fmt.Sprint(v)
}
