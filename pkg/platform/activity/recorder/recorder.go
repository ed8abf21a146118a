// Package recorder bundles the category publishers behind one dependency so
// services emit through a single injected collaborator instead of three.
package recorder

import (
	"context"

	"conforma/pkg/platform/activity"
	"conforma/pkg/platform/activity/publishers/compliance"
	"conforma/pkg/platform/activity/publishers/ops"
	"conforma/pkg/platform/activity/publishers/security"
)

// Recorder routes events to the right-sized publisher for their category.
// All methods are nil-receiver safe so services and tests can run without a
// wired trail.
type Recorder struct {
	compliance *compliance.Publisher
	security   *security.Publisher
	ops        *ops.Tracker
}

// New creates a recorder over the three category publishers. Any of them may
// be nil; the corresponding category then becomes a no-op.
func New(compliancePub *compliance.Publisher, securityPub *security.Publisher, opsTracker *ops.Tracker) *Recorder {
	return &Recorder{
		compliance: compliancePub,
		security:   securityPub,
		ops:        opsTracker,
	}
}

// Compliance emits a fail-closed compliance event. A non-nil error means the
// trail write failed and the calling operation must not proceed.
func (r *Recorder) Compliance(ctx context.Context, event activity.ComplianceEvent) error {
	if r == nil || r.compliance == nil {
		return nil
	}
	return r.compliance.Emit(ctx, event)
}

// Security emits a buffered security event. Never blocks, never fails.
func (r *Recorder) Security(ctx context.Context, event activity.SecurityEvent) {
	if r == nil || r.security == nil {
		return
	}
	r.security.Emit(ctx, event)
}

// Ops tracks a best-effort operational event.
func (r *Recorder) Ops(ctx context.Context, event activity.OpsEvent) {
	if r == nil || r.ops == nil {
		return
	}
	r.ops.Track(ctx, event)
}

// Close flushes buffered security events.
func (r *Recorder) Close() error {
	if r == nil || r.security == nil {
		return nil
	}
	return r.security.Close()
}
