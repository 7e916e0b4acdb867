package services

import "context"

type scopeKey struct{}

// scope is the per-run identity carried through a sync pipeline.
type scope struct {
	runID string
	stage string
}

func scopeFrom(ctx context.Context) scope {
	if ctx == nil {
		return scope{}
	}
	s, _ := ctx.Value(scopeKey{}).(scope)
	return s
}

// WithRunID returns a context tagged with a sync run id. Any stage already set
// is kept.
func WithRunID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.runID = id
	return context.WithValue(ctx, scopeKey{}, s)
}

// RunIDFromContext returns the run id set by WithRunID.
func RunIDFromContext(ctx context.Context) (string, bool) {
	id := scopeFrom(ctx).runID
	return id, id != ""
}

// WithStage returns a context tagged with the current pipeline stage.
func WithStage(ctx context.Context, stage string) context.Context {
	if stage == "" {
		return ctx
	}
	s := scopeFrom(ctx)
	s.stage = stage
	return context.WithValue(ctx, scopeKey{}, s)
}

// StageFromContext returns the stage set by WithStage.
func StageFromContext(ctx context.Context) (string, bool) {
	stage := scopeFrom(ctx).stage
	return stage, stage != ""
}
