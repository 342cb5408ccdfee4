package consensus

import (
	"fmt"

	"soltab/internal/config"
	"soltab/internal/domain"
	"soltab/internal/port"
)

// MethodFactory builds an extraction method from its config.
type MethodFactory func(cfg *config.MethodConfig) (port.GridExtractor, error)

// registry of extraction method factories keyed by kind, filled via RegisterMethod.
var methods = map[string]MethodFactory{}

// RegisterMethod registers an extraction method factory by kind.
func RegisterMethod(kind string, factory MethodFactory) {
	methods[kind] = factory
}

// NewMethod creates an extraction method using the factory registered for cfg.Kind.
func NewMethod(cfg *config.MethodConfig) (port.GridExtractor, error) {
	factory, ok := methods[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("method %s of kind %q: %w", cfg.Name, cfg.Kind, domain.ErrUnknownMethod)
	}
	return factory(cfg)
}

// NewMethods creates every configured extraction method in order.
func NewMethods(cfgs []config.MethodConfig) ([]port.GridExtractor, error) {
	out := make([]port.GridExtractor, 0, len(cfgs))
	for i := range cfgs {
		m, err := NewMethod(&cfgs[i])
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, nil
}
