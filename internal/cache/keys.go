package cache

import (
	"fmt"

	"github.com/google/uuid"
)

func JobStatusKey(jobID uuid.UUID) string {
	return fmt.Sprintf("job:%s", jobID)
}

func RateLimitKey(clientKey string) string {
	return fmt.Sprintf("ratelimit:%s", clientKey)
}

// InsightsKey addresses an externally-owned aggregate insights document
// (dashboard rollups). The worker only ever deletes these.
func InsightsKey(kind string) string {
	return fmt.Sprintf("insights:%s", kind)
}

// InsightsKeys lists every aggregate key invalidated after a successful job.
func InsightsKeys() []string {
	return []string{
		InsightsKey("sentiment"),
		InsightsKey("topics"),
		InsightsKey("attrition"),
	}
}
