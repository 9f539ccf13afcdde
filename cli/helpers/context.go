package helpers

import (
	"context"

	"github.com/compozy/traincfg/pkg/config"
)

type serviceKey struct{}

// ContextWithService stores the settings service that produced the active
// configuration, so commands can report where each value came from.
func ContextWithService(ctx context.Context, service config.Service) context.Context {
	return context.WithValue(ctx, serviceKey{}, service)
}

// ServiceFromContext returns the stored settings service, or nil.
func ServiceFromContext(ctx context.Context) config.Service {
	service, _ := ctx.Value(serviceKey{}).(config.Service)
	return service
}
