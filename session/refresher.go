package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/crmarques/boardprompt/faults"
	"github.com/crmarques/boardprompt/resource"
	"github.com/crmarques/boardprompt/server"
)

// Drift is a non-empty difference observed between two fetches of the
// same collection. Informational, never fatal.
type Drift struct {
	Type    resource.Type
	Changes resource.Changes
}

// Refresher keeps the session credential valid and the monitored
// collections reasonably fresh. It only ever publishes new snapshots by
// installing them through the collection; an edit in flight is not
// aborted, its stale version is caught at patch time.
type Refresher struct {
	session  *Session
	client   server.RemoteClient
	interval time.Duration
	margin   time.Duration
	logger   *slog.Logger
	onDrift  func(Drift)
	now      func() time.Time
}

type RefresherOption func(*Refresher)

// WithDriftHandler registers a callback invoked for every non-empty drift.
func WithDriftHandler(handler func(Drift)) RefresherOption {
	return func(r *Refresher) {
		r.onDrift = handler
	}
}

func withClock(now func() time.Time) RefresherOption {
	return func(r *Refresher) {
		r.now = now
	}
}

func NewRefresher(
	sess *Session,
	client server.RemoteClient,
	interval time.Duration,
	credentialMargin time.Duration,
	logger *slog.Logger,
	opts ...RefresherOption,
) *Refresher {
	if logger == nil {
		logger = slog.Default()
	}
	refresher := &Refresher{
		session:  sess,
		client:   client,
		interval: interval,
		margin:   credentialMargin,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(refresher)
	}
	return refresher
}

// Run re-fetches the monitored collections on the configured interval
// until the context is canceled. Credential renewal failure is fatal and
// ends the loop with an AuthError; everything else is logged and retried
// on the next tick.
func (r *Refresher) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := r.RefreshAll(ctx); err != nil {
				if faults.IsCategory(err, faults.AuthError) {
					r.logger.Error("credential renewal failed, session is over", "error", err)
					return err
				}
				r.logger.Warn("background refresh failed", "error", err)
			}
		}
	}
}

// RefreshAll renews the credential if needed, then re-fetches every
// collection that has been loaded at least once, reporting non-empty
// drift per collection. Fetch failures skip the affected collection and
// surface as the returned error after the remaining ones are refreshed.
func (r *Refresher) RefreshAll(ctx context.Context) ([]Drift, error) {
	if err := r.EnsureCredential(ctx); err != nil {
		return nil, err
	}

	var drifts []Drift
	var firstErr error
	for _, col := range r.session.Collections() {
		previous := col.Current()
		if previous == nil {
			continue // never loaded, nothing to refresh
		}

		installed, err := col.Reload(ctx)
		if err != nil {
			r.logger.Warn("collection refresh failed",
				"collection", string(col.Type()),
				"error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		changes, err := resource.Diff(previous, installed)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if changes.Empty() {
			continue
		}

		drift := Drift{Type: col.Type(), Changes: changes}
		drifts = append(drifts, drift)
		r.logger.Info("drift detected",
			"collection", string(col.Type()),
			"added", len(changes.Added),
			"removed", len(changes.Removed),
			"modified", len(changes.Modified))
		if r.onDrift != nil {
			r.onDrift(drift)
		}
	}

	r.session.markRefreshed(r.now())
	return drifts, firstErr
}

// EnsureCredential renews the session credential when its remaining
// validity falls below the configured margin. Renewal failure is an
// AuthError: fatal, never retried here.
func (r *Refresher) EnsureCredential(ctx context.Context) error {
	credential := r.session.Credential()
	if credential.ExpiresAt.IsZero() {
		return nil // credential does not expire
	}
	if credential.TimeToLive(r.now()) > r.margin {
		return nil
	}

	renewed, err := r.client.RenewCredential(ctx)
	if err != nil {
		if faults.IsCategory(err, faults.AuthError) {
			return err
		}
		return faults.Auth("credential renewal failed", err)
	}

	r.session.SetCredential(renewed)
	r.logger.Info("credential renewed", "expires_at", renewed.ExpiresAt)
	return nil
}
