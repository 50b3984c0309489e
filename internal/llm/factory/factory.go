// Package factory constructs vendor adapters from provider configurations.
// It is the only place that knows every concrete vendor package, keeping the
// manager polymorphic over llm.Provider.
package factory

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/Napiersnotes/Dandelions/internal/llm"
	"github.com/Napiersnotes/Dandelions/internal/llm/deepseek"
	"github.com/Napiersnotes/Dandelions/internal/llm/mistral"
	"github.com/Napiersnotes/Dandelions/internal/llm/openai"
)

// New builds the adapter matching the configuration's vendor name.
// Unknown vendors are a configuration error for that one entry only.
func New(cfg llm.ProviderConfig, logger *zap.Logger) (llm.Provider, error) {
	switch cfg.Vendor {
	case "deepseek":
		return deepseek.New(cfg, logger)
	case "mistral":
		return mistral.New(cfg, logger)
	case "openai":
		return openai.New(cfg, logger)
	default:
		return nil, &llm.ConfigurationError{
			Vendor: cfg.Vendor,
			Reason: fmt.Sprintf("unknown vendor %q", cfg.Vendor),
		}
	}
}

// Vendors lists the vendor names this build supports, in a stable order.
func Vendors() []string {
	return []string{"deepseek", "mistral", "openai"}
}
