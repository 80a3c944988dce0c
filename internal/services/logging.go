package services

import (
	"context"

	applog "expenses/internal/log"
)

// logger returns the request logger tagged with the service component.
func logger(ctx context.Context, component string) *applog.Logger {
	return applog.FromContext(ctx).WithComponent(component)
}
