package utils

import (
	"context"

	"github.com/mmdatafocus/stock_ledger/appctx"
)

var (
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyActorName     = appctx.ContextKeyActorName
)

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func GetActorNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyActorName)
}

func SetActorNameInContext(ctx context.Context, actor string) context.Context {
	return appctx.Set(ctx, ContextKeyActorName, actor)
}
