package protection

import (
	"context"
	"errors"

	"github.com/iquiquesec/ciberseguridad/internal/features"
)

// ErrFeatureDisabled is returned when a service is called while its flag is off.
var ErrFeatureDisabled = errors.New("feature disabled")

// FlagReader is the part of the feature store the registry needs.
type FlagReader interface {
	Enabled(ctx context.Context, key string) bool
}

// Registry holds the protection services and maps each to its feature flag.
type Registry struct {
	Ransomware *RansomwareService
	Endpoint   *EndpointService
	Network    *NetworkService
}

func NewRegistry(endpoint *EndpointService) *Registry {
	return &Registry{
		Ransomware: NewRansomwareService(),
		Endpoint:   endpoint,
		Network:    NewNetworkService(),
	}
}

// Status reports, per service flag key, whether the service is registered
// and its flag is enabled.
func (r *Registry) Status(ctx context.Context, flags FlagReader) map[string]bool {
	registered := map[string]bool{
		features.KeyRansomware:         r.Ransomware != nil,
		features.KeyEndpointProtection: r.Endpoint != nil,
		features.KeyNetworkDefense:     r.Network != nil,
	}
	out := make(map[string]bool, len(registered))
	for key, ok := range registered {
		out[key] = ok && flags.Enabled(ctx, key)
	}
	return out
}
