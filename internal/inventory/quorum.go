package inventory

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/eidaops/eidaqc/internal/fdsn"
)

// QuorumError reports a freshly fetched catalog that failed validation and
// must not replace the cache.
type QuorumError struct {
	NetworkCount    int
	MinNetworkCount int
	Missing         []string
}

func (e *QuorumError) Error() string {
	if e.NetworkCount < e.MinNetworkCount {
		return fmt.Sprintf("catalog has %d networks, need at least %d",
			e.NetworkCount, e.MinNetworkCount)
	}

	return fmt.Sprintf("catalog is missing reference networks %s",
		strings.Join(e.Missing, ","))
}

// Validator checks a fetched catalog for plausibility before it may replace
// the cache. A routing service that lost most of its members still answers,
// just with far fewer networks; such crippled answers must not poison the
// cache.
type Validator struct {
	log             logrus.FieldLogger
	minNetworkCount int
	reference       []string
	ignoreMissing   bool
}

// NewValidator creates a validator requiring at least minNetworkCount
// distinct networks and the presence of every reference network.
func NewValidator(log logrus.FieldLogger, minNetworkCount int, reference []string, ignoreMissing bool) *Validator {
	return &Validator{
		log:             log.WithField("component", "quorum"),
		minNetworkCount: minNetworkCount,
		reference:       reference,
		ignoreMissing:   ignoreMissing,
	}
}

// Validate returns a QuorumError when the catalog is implausibly small or
// reference networks are absent. With ignoreMissing, absent reference
// networks are logged but tolerated.
func (v *Validator) Validate(catalog *fdsn.Catalog) error {
	count := len(catalog.DistinctNetworks())
	if count < v.minNetworkCount {
		v.log.WithFields(logrus.Fields{
			"networks": count,
			"min":      v.minNetworkCount,
		}).Warn("Catalog update rejected, too few networks")

		return &QuorumError{NetworkCount: count, MinNetworkCount: v.minNetworkCount}
	}

	missing := v.missingReferences(catalog)
	if len(missing) == 0 {
		return nil
	}

	if v.ignoreMissing {
		v.log.WithField("networks", strings.Join(missing, ",")).
			Warn("Ignoring missing reference networks")

		return nil
	}

	v.log.WithField("networks", strings.Join(missing, ",")).
		Warn("Catalog update rejected, reference networks missing")

	return &QuorumError{
		NetworkCount:    count,
		MinNetworkCount: v.minNetworkCount,
		Missing:         missing,
	}
}

func (v *Validator) missingReferences(catalog *fdsn.Catalog) []string {
	have := catalog.NetworkSet()

	var missing []string

	for _, net := range v.reference {
		if _, ok := have[net]; !ok {
			missing = append(missing, net)
		}
	}

	sort.Strings(missing)

	return missing
}
