package workspace

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/parkyoonha/searchedia-sub001/internal/domain"
	models "github.com/parkyoonha/searchedia-sub001/internal/domain/models/workspace"
	wsSvc "github.com/parkyoonha/searchedia-sub001/internal/domain/services/workspace"
)

// errSessionChanged ends a pass pinned to a session that has since ended.
var errSessionChanged = errors.New("session changed")

// SyncAll runs one full reconciliation pass for the signed-in user: remote
// ids missing from State are deleted (projects before folders), then every
// State record is upserted (folders before projects). Failures are
// collected per record and the pass carries on; nothing is rolled back.
func (e *Engine) SyncAll(ctx context.Context) (*wsSvc.SyncReport, error) {
	return e.syncAll(ctx, 0)
}

// syncAll runs a pass pinned to generation want; zero accepts whichever
// session is current once it has loaded.
func (e *Engine) syncAll(ctx context.Context, want uint64) (*wsSvc.SyncReport, error) {
	if want == 0 && e.currentUserID() == "" {
		return nil, fmt.Errorf("sync: %w", domain.ErrUnauthorized)
	}

	gen, userID, err := e.acquireSync(ctx, want)
	if err != nil {
		return nil, err
	}
	defer e.syncMu.Unlock()

	report := &wsSvc.SyncReport{
		UserID:    userID,
		StartedAt: time.Now().UTC(),
		Deleted:   []models.EntityRef{},
		Failures:  []wsSvc.SyncFailure{},
	}

	e.logger.Info("reconciliation started", "user_id", userID, "generation", gen)

	err = e.reconcile(ctx, gen, userID, report)
	report.FinishedAt = time.Now().UTC()

	e.mu.Lock()
	if gen == e.gen {
		e.lastSync = report
	}
	e.mu.Unlock()

	e.logger.Info("reconciliation finished",
		"user_id", userID,
		"deleted", len(report.Deleted),
		"folders_upserted", report.FoldersUpserted,
		"projects_upserted", report.ProjectsUpserted,
		"failures", len(report.Failures),
		"aborted", report.Aborted,
		"duration", report.FinishedAt.Sub(report.StartedAt),
	)

	return report, err
}

// acquireSync takes syncMu for a session whose initial load has settled.
// Purging against a half-loaded State would delete good remote rows, and
// the session can change while a pass waits for syncMu, so the guard is
// checked again once the lock is held.
func (e *Engine) acquireSync(ctx context.Context, want uint64) (uint64, string, error) {
	for {
		if want != 0 && !e.isCurrent(want) {
			return 0, "", fmt.Errorf("sync: %w", errSessionChanged)
		}
		if err := e.WaitLoaded(ctx); err != nil {
			return 0, "", fmt.Errorf("sync: wait for initial load: %w", err)
		}

		e.syncMu.Lock()
		e.mu.Lock()
		gen, session, loaded := e.gen, e.session, e.loaded
		e.mu.Unlock()

		switch {
		case session == nil:
			e.syncMu.Unlock()
			return 0, "", fmt.Errorf("sync: %w", domain.ErrUnauthorized)
		case want != 0 && gen != want:
			e.syncMu.Unlock()
			return 0, "", fmt.Errorf("sync: %w", errSessionChanged)
		case !loaded:
			e.syncMu.Unlock()
			continue
		}
		return gen, session.UserID, nil
	}
}

func (e *Engine) reconcile(ctx context.Context, gen uint64, userID string, report *wsSvc.SyncReport) error {
	steps := []func() error{
		func() error {
			return e.purge(ctx, gen, userID, models.EntityProject, e.projects.ListIDs, e.projects.Delete, report)
		},
		func() error {
			return e.purge(ctx, gen, userID, models.EntityFolder, e.folders.ListIDs, e.folders.Delete, report)
		},
		func() error { return e.upsertAll(ctx, gen, userID, report) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
		if report.Aborted {
			return nil
		}
	}
	return nil
}

// purge deletes remote ids of kind that State does not hold. Presence is
// re-checked right before each delete, so a record created during the pass
// is never removed.
func (e *Engine) purge(
	ctx context.Context,
	gen uint64,
	userID string,
	kind models.EntityKind,
	listIDs func(context.Context, string) ([]string, error),
	del func(context.Context, string, string) error,
	report *wsSvc.SyncReport,
) error {
	ids, err := listIDs(ctx, userID)
	if err != nil {
		e.logger.Warn("failed to list remote ids", "kind", kind, "error", err)
		report.Failures = append(report.Failures, wsSvc.SyncFailure{
			Ref:   models.EntityRef{Kind: kind},
			Op:    wsSvc.SyncOpList,
			Error: err.Error(),
		})
		return nil
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return err
		}
		if !e.isCurrent(gen) {
			report.Aborted = true
			return nil
		}

		ref := models.EntityRef{Kind: kind, ID: id}
		if e.state.Has(ref) {
			continue
		}

		if err := del(ctx, id, userID); err != nil {
			e.logger.Warn("failed to delete stale remote record", "kind", kind, "id", id, "error", err)
			report.Failures = append(report.Failures, wsSvc.SyncFailure{Ref: ref, Op: wsSvc.SyncOpDelete, Error: err.Error()})
			continue
		}
		e.logger.Debug("stale remote record deleted", "kind", kind, "id", id)
		report.Deleted = append(report.Deleted, ref)
	}
	return nil
}

// upsertAll writes every State record, folders first. Each record is read
// again right before its write.
func (e *Engine) upsertAll(ctx context.Context, gen uint64, userID string, report *wsSvc.SyncReport) error {
	snap := e.state.Snapshot()

	refs := make([]models.EntityRef, 0, len(snap.Folders)+len(snap.Projects))
	for _, f := range snap.Folders {
		refs = append(refs, models.EntityRef{Kind: models.EntityFolder, ID: f.ID})
	}
	for _, p := range snap.Projects {
		refs = append(refs, models.EntityRef{Kind: models.EntityProject, ID: p.ID})
	}

	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			report.Aborted = true
			return err
		}
		if !e.isCurrent(gen) {
			report.Aborted = true
			return nil
		}
		if !e.state.Has(ref) {
			continue
		}

		if err := e.upsertRecord(ctx, ref, userID); err != nil {
			e.logger.Warn("failed to upsert record", "kind", ref.Kind, "id", ref.ID, "error", err)
			report.Failures = append(report.Failures, wsSvc.SyncFailure{Ref: ref, Op: wsSvc.SyncOpUpsert, Error: err.Error()})
			continue
		}
		if ref.Kind == models.EntityFolder {
			report.FoldersUpserted++
		} else {
			report.ProjectsUpserted++
		}
	}
	return nil
}

// syncInBackgroundLocked starts a reconciliation pass that outlives the
// caller. Caller holds e.mu.
func (e *Engine) syncInBackgroundLocked(reason string) {
	ctx := e.ctx
	gen := e.gen

	e.bgMu.Lock()
	if e.bgRuns == 0 {
		e.bgIdle = make(chan struct{})
	}
	e.bgRuns++
	e.bgMu.Unlock()

	go func() {
		defer e.backgroundDone()

		report, err := e.syncAll(ctx, gen)
		if errors.Is(err, errSessionChanged) {
			e.logger.Debug("background reconciliation skipped", "reason", reason, "generation", gen)
			return
		}
		if err != nil {
			e.logger.Warn("background reconciliation failed", "reason", reason, "error", err)
			return
		}
		if !report.OK() && e.isCurrent(gen) {
			e.notes.add(wsSvc.NotificationWarning,
				fmt.Sprintf("Sync finished with %d failed change(s). They will be retried on the next sync.", len(report.Failures)),
				nil)
		}
	}()
}

func (e *Engine) backgroundDone() {
	e.bgMu.Lock()
	defer e.bgMu.Unlock()
	e.bgRuns--
	if e.bgRuns == 0 {
		close(e.bgIdle)
	}
}
