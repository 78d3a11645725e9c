// Package server defines the boundary to the remote issue tracker. The
// synchronization engine consumes these interfaces; transport concerns
// (pagination, schema discovery, request shaping) stay behind them.
package server

import (
	"context"
	"time"

	"github.com/crmarques/boardprompt/resource"
)

// Query narrows a fetch. Zero values mean "no filter"; the provider fills
// in session defaults (current sprint, current user) where the tracker
// requires one.
type Query struct {
	// Sprint is a sprint name, a sprint id, or the literal "backlog".
	Sprint string
	// Assignee is a user id; empty means the session user.
	Assignee string
	// Status filters cards by workflow status name.
	Status string
	// Text matches against card summary and description.
	Text string
	// CardID scopes worklog fetches to one card.
	CardID string
}

// Credential is the session credential together with its server-side
// expiry, used by the refresher to renew proactively.
type Credential struct {
	Token     string
	ExpiresAt time.Time
}

// TimeToLive reports the remaining validity relative to now.
func (c Credential) TimeToLive(now time.Time) time.Duration {
	return c.ExpiresAt.Sub(now)
}

// RemoteClient is the transport to the issue tracker. Implementations
// return faults-typed errors: RemoteError for transport failures (retried
// by the caller with bounded backoff), AuthError for credential rejection
// (never retried), NotFoundError and ConflictError mapped from remote
// status codes.
type RemoteClient interface {
	// Fetch returns all resources of one type matching the query, in
	// server order.
	Fetch(ctx context.Context, typ resource.Type, query Query) ([]resource.Resource, error)

	// Update applies changed fields to one remote entity. The provider
	// reports per-field rejections as a single typed error.
	Update(ctx context.Context, typ resource.Type, id string, changed resource.Fields) error

	// Create makes a new remote entity and returns its mirrored form.
	Create(ctx context.Context, typ resource.Type, fields resource.Fields) (resource.Resource, error)

	// Delete removes one remote entity.
	Delete(ctx context.Context, typ resource.Type, id string) error

	// RenewCredential re-authenticates and returns a fresh credential.
	// Failure is an AuthError and fatal for the session.
	RenewCredential(ctx context.Context) (Credential, error)
}

// BoardInfo is the per-session board context resolved once at startup.
type BoardInfo struct {
	BoardID     string
	ProjectID   string
	UserID      string
	SprintID    string
	SprintName  string
	SprintState string
}

// BoardResolver is an optional client capability that resolves the
// configured board, project, active sprint, and session user.
type BoardResolver interface {
	ResolveBoard(ctx context.Context) (BoardInfo, error)
}
