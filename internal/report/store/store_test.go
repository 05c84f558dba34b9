package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Every state whose balance has been seeded must be scanned for drift,
// including approved loans that have not activated yet. Pending and
// rejected loans carry no seeded balance and stay out of the scan.
func TestDriftScanCoversBalanceBearingStatuses(t *testing.T) {
	for _, status := range []string{"approved", "active", "completed", "overdue"} {
		assert.Contains(t, balanceBearingStatuses, status)
	}

	assert.NotContains(t, balanceBearingStatuses, "pending")
	assert.NotContains(t, balanceBearingStatuses, "rejected")
}
