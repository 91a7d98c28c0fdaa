package clocksync

import (
	"context"

	"github.com/shiwa/ntpsync/internal/engine"
	"github.com/shiwa/ntpsync/internal/scheduler"
)

// Once одна синхронизация без планировщика. Без apply время только
// запрашивается, системные часы не меняются.
func (a *App) Once(ctx context.Context, apply bool) engine.Outcome {
	if err := a.Log.Start(); err != nil {
		a.Log.Writef("Logger is not available: %v", err)
	}
	a.Holder.Replace(a.LoadSettings())
	if !apply {
		return a.Engine.Query(ctx)
	}
	out := a.Engine.Attempt(ctx)
	a.observe(scheduler.TriggerManual, out)
	return out
}
