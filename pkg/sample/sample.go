// Package sample draws reproducible record samples for human verification.
package sample

import (
	"math"
	"math/rand"

	"privaflow/pkg/logger"
	"privaflow/pkg/record"
)

// Result is one verification sample. Capped is set when the request asked
// for more records than exist, in which case the full population is returned.
type Result struct {
	Records []record.DataFlowRecord `json:"records"`
	Capped  bool                    `json:"capped"`
	Seed    int64                   `json:"seed"`
}

// Draw picks n records uniformly without replacement. The seed makes the
// draw reproducible for audit. n larger than the population returns every
// record with the Capped flag set; n <= 0 returns an empty sample.
func Draw(records []record.DataFlowRecord, n int, seed int64) Result {
	res := Result{Seed: seed}
	if n <= 0 {
		return res
	}
	if n >= len(records) {
		res.Records = append(res.Records, records...)
		res.Capped = n > len(records)
		if res.Capped {
			logger.Warn("[Sample] Requested sample exceeds population, capping",
				"requested", n,
				"population", len(records),
			)
		}
		return res
	}

	rng := rand.New(rand.NewSource(seed))
	picked := rng.Perm(len(records))[:n]
	res.Records = make([]record.DataFlowRecord, 0, n)
	for _, i := range picked {
		res.Records = append(res.Records, records[i])
	}
	return res
}

// DrawRate samples a fraction of the population, rounding the count up so a
// non-zero rate over a non-empty population always yields at least one record.
func DrawRate(records []record.DataFlowRecord, rate float64, seed int64) Result {
	if rate <= 0 || len(records) == 0 {
		return Result{Seed: seed}
	}
	if rate >= 1 {
		return Draw(records, len(records), seed)
	}
	n := int(math.Ceil(rate * float64(len(records))))
	return Draw(records, n, seed)
}
