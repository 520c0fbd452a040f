package provider

import (
	"fmt"
	"os"
)

// New builds the configured provider. A nil config, a disabled config,
// or an unrecognized kind yields (nil, nil): the caller runs with
// heuristics only. Only a misconfigured but recognized backend returns
// an error.
func New(cfg *Config) (Provider, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, nil
	}

	switch cfg.Kind {
	case KindStub:
		return NewStub(cfg), nil
	case KindOllama:
		return NewOllama(cfg)
	case KindAnthropic:
		return NewAnthropic(cfg)
	case KindMCP:
		return NewMCP(cfg)
	default:
		fmt.Fprintf(os.Stderr, "Warning: unrecognized provider kind %q, continuing without a provider\n", cfg.Kind)
		return nil, nil
	}
}
