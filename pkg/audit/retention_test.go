package audit

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/juris-platform/baseline/pkg/baseline"
)

func TestRetentionWorker_Sweep(t *testing.T) {
	store := newTestAuditStore(t)

	require.NoError(t, store.Append(&baseline.AuditEventRecord{
		ID: "old", CompanyID: "acme", EventType: "request", Actor: "olivia",
		Outcome: "success", CreatedAt: time.Now().Add(-400 * 24 * time.Hour),
	}))
	require.NoError(t, store.Append(&baseline.AuditEventRecord{
		ID: "recent", CompanyID: "acme", EventType: "request", Actor: "olivia",
		Outcome: "success", CreatedAt: time.Now(),
	}))

	worker := NewRetentionWorker(store, 365, nil)
	worker.sweep()

	events, _, total, err := store.ListFiltered(baseline.AuditFilter{CompanyID: "acme"}, 10, "")
	require.NoError(t, err)
	require.Equal(t, 1, total)
	assert.Equal(t, "recent", events[0].ID)
}

func TestRetentionWorker_DisabledWithoutRetention(t *testing.T) {
	worker := NewRetentionWorker(nil, 0, nil)
	// Run returns immediately when disabled; a hang here would fail the
	// test by timeout.
	worker.Run(context.Background())
}
