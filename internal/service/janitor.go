package service

import (
	"context"
	"fmt"
	"log"

	"github.com/robfig/cron/v3"

	"whiteboard/internal/binding"
	"whiteboard/internal/storage"
)

// ─────────────────────────────────────────────────────────────
// Janitor - scheduled binding repair and history pruning
// ─────────────────────────────────────────────────────────────

// Janitor periodically walks every page, repairs its bindings and trims its
// undo history to the configured size.
type Janitor struct {
	pages    *storage.NotebookStore
	drawings *DrawingService
	undos    *storage.UndoStore
	schedule string

	running   runningJobsGuard
	cronSched *cron.Cron
}

// JanitorReport summarizes one pass.
type JanitorReport struct {
	Pages         int                  `json:"pages"`
	RepairedPages int                  `json:"repairedPages"`
	Bindings      binding.RepairReport `json:"bindings"`
	PrunedUndo    int                  `json:"prunedUndo"`
	Failed        int                  `json:"failed"`
}

// NewJanitor creates a Janitor running on schedule, a cron spec such as
// "@every 10m". An empty schedule disables scheduling; RunOnce still works.
func NewJanitor(pages *storage.NotebookStore, drawings *DrawingService, undos *storage.UndoStore, schedule string) *Janitor {
	return &Janitor{
		pages:    pages,
		drawings: drawings,
		undos:    undos,
		schedule: schedule,
	}
}

// Start schedules passes. It returns an error for an invalid schedule.
func (j *Janitor) Start(ctx context.Context) error {
	if j.schedule == "" {
		log.Printf("janitor: no schedule, disabled")
		return nil
	}
	c := cron.New()
	_, err := c.AddFunc(j.schedule, func() {
		rep, err := j.RunOnce(ctx)
		if err != nil {
			log.Printf("janitor: pass failed: %v", err)
			return
		}
		if rep.RepairedPages > 0 || rep.PrunedUndo > 0 || rep.Failed > 0 {
			log.Printf("janitor: %d page(s), repaired %d, pruned %d undo node(s), %d failed",
				rep.Pages, rep.RepairedPages, rep.PrunedUndo, rep.Failed)
		}
	})
	if err != nil {
		return fmt.Errorf("janitor: invalid schedule %q: %w", j.schedule, err)
	}
	c.Start()
	j.cronSched = c
	log.Printf("janitor: scheduled %q", j.schedule)
	return nil
}

// RunOnce performs one pass over all pages. A pass that is already running is
// not started twice; the second caller gets an empty report.
func (j *Janitor) RunOnce(ctx context.Context) (JanitorReport, error) {
	var rep JanitorReport
	if !j.running.TryLock("janitor") {
		return rep, nil
	}
	defer j.running.Unlock("janitor")

	pages, err := j.pages.ListAllPages()
	if err != nil {
		return rep, fmt.Errorf("list pages: %w", err)
	}
	for _, p := range pages {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Pages++

		r, err := j.drawings.Repair(ctx, p.ID)
		if err != nil {
			log.Printf("janitor: repair page %s: %v", p.ID, err)
			rep.Failed++
			continue
		}
		if r.Changed() {
			rep.RepairedPages++
			rep.Bindings.ClearedBindings += r.ClearedBindings
			rep.Bindings.AddedBoundIDs += r.AddedBoundIDs
			rep.Bindings.DroppedBoundIDs += r.DroppedBoundIDs
		}

		n, err := j.undos.Prune(p.ID)
		if err != nil {
			log.Printf("janitor: prune page %s: %v", p.ID, err)
			rep.Failed++
			continue
		}
		rep.PrunedUndo += n
	}
	return rep, nil
}

// Stop ends scheduling and waits for a running pass to finish or ctx to end.
func (j *Janitor) Stop(ctx context.Context) {
	if j.cronSched != nil {
		select {
		case <-j.cronSched.Stop().Done():
		case <-ctx.Done():
		}
		j.cronSched = nil
	}
	j.running.WaitAll(ctx)
}
