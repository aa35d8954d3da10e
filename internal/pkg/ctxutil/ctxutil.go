package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type traceDataKey struct{}
type actorDataKey struct{}

type TraceData struct {
	TraceID   string
	RequestID string
}

// ActorData identifies the authenticated operator performing a floor event.
type ActorData struct {
	ActorID uuid.UUID
	Role    string
}

func WithTraceData(ctx context.Context, td *TraceData) context.Context {
	return context.WithValue(ctx, traceDataKey{}, td)
}

func GetTraceData(ctx context.Context) *TraceData {
	if td, ok := ctx.Value(traceDataKey{}).(*TraceData); ok {
		return td
	}
	return nil
}

func WithActorData(ctx context.Context, ad *ActorData) context.Context {
	return context.WithValue(ctx, actorDataKey{}, ad)
}

func GetActorData(ctx context.Context) *ActorData {
	if ad, ok := ctx.Value(actorDataKey{}).(*ActorData); ok {
		return ad
	}
	return nil
}
