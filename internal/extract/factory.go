package extract

import (
	"fmt"

	"leadscan/internal/config"
	"leadscan/internal/port"
)

// ProviderFactory is a function that creates a Provider from a provider config.
type ProviderFactory func(cfg *config.ProviderConfig) (port.Provider, error)

// registry of provider factories, populated via RegisterProvider.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider creates a Provider from a provider config using the registered factory.
func NewProvider(cfg *config.ProviderConfig) (port.Provider, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown extraction provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// BuildChain creates the ordered provider list from config, skipping
// providers without credentials. An empty result means the extraction
// pipeline is not configured.
func BuildChain(cfg *config.ProvidersConfig) ([]port.Provider, []string, error) {
	var chain []port.Provider
	var names []string
	for _, pc := range cfg.Chain() {
		p, err := NewProvider(pc)
		if err != nil {
			return nil, nil, err
		}
		chain = append(chain, p)
		names = append(names, pc.Provider)
	}
	return chain, names, nil
}
