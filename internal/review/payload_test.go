package review

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmeshcher/starquest/internal/model"
)

func fixClock(t *testing.T, at time.Time) {
	t.Helper()
	prev := now
	now = func() time.Time { return at }
	t.Cleanup(func() { now = prev })
}

func TestBuildApprovalPayload_Defaults(t *testing.T) {
	at := time.Date(2026, 10, 19, 8, 30, 0, 0, time.UTC)
	fixClock(t, at)

	p := BuildApprovalPayload("", time.Time{})
	fields := p.Fields()

	assert.Equal(t, model.ReviewStatusApproved, p.Status())
	assert.Equal(t, "approved", fields[FieldStatus])
	assert.Equal(t, at, fields[FieldReviewedAt])
	_, ok := fields[FieldReviewedBy]
	assert.False(t, ok, "reviewed_by must be absent")
	assert.Len(t, fields, 2)
}

func TestBuildApprovalPayload_JSONOmitsReviewer(t *testing.T) {
	raw, err := json.Marshal(BuildApprovalPayload("", time.Time{}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Contains(t, decoded, "status")
	assert.Contains(t, decoded, "reviewed_at")
	assert.NotContains(t, decoded, "reviewed_by")
}

func TestBuildApprovalPayload_WithReviewer(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("CST", 8*3600))

	fields := BuildApprovalPayload("parent-1", at).Fields()

	assert.Equal(t, "parent-1", fields[FieldReviewedBy])
	assert.Equal(t, at.UTC(), fields[FieldReviewedAt])
}

func TestBuildRejectionPayload_BlankReasonIsNull(t *testing.T) {
	p := BuildRejectionPayload("  ", "", time.Time{})
	fields := p.Fields()

	v, ok := fields[FieldParentResponse]
	require.True(t, ok, "parent_response must be present")
	assert.Nil(t, v)
	assert.Equal(t, "rejected", fields[FieldStatus])
	assert.NotContains(t, fields, FieldReviewedBy)

	raw, err := json.Marshal(p)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"parent_response":null`)
}

func TestBuildRejectionPayload_TrimsReason(t *testing.T) {
	p := BuildRejectionPayload("  room not tidy \n", "parent-1", time.Time{})

	require.NotNil(t, p.ParentResponse)
	assert.Equal(t, "room not tidy", *p.ParentResponse)
	assert.Equal(t, "room not tidy", p.Fields()[FieldParentResponse])
	assert.Equal(t, model.ReviewStatusRejected, p.Status())
}

func TestPayloadInterface(t *testing.T) {
	payloads := []Payload{
		BuildApprovalPayload("p", time.Time{}),
		BuildRejectionPayload("no", "p", time.Time{}),
	}

	for _, p := range payloads {
		assert.Equal(t, string(p.Status()), p.Fields()[FieldStatus])
	}
}
