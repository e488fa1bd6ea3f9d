package inference

import (
	"fmt"
	"sort"
	"strings"
)

const (
	ProviderWorkersAI = "workersai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOllama    = "ollama"
)

// Router resolves a tool's provider name to the binding that serves it. An
// empty provider name resolves to the default provider.
type Router struct {
	bindings        map[string]Binding
	defaultProvider string
}

func NewRouter(defaultProvider string) *Router {
	return &Router{bindings: make(map[string]Binding), defaultProvider: defaultProvider}
}

func (r *Router) Register(provider string, binding Binding) {
	r.bindings[strings.ToLower(provider)] = binding
}

func (r *Router) Binding(provider string) (Binding, error) {
	if provider == "" {
		provider = r.defaultProvider
	}
	b, ok := r.bindings[strings.ToLower(provider)]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownProvider, provider)
	}
	return b, nil
}

func (r *Router) Providers() []string {
	names := make([]string, 0, len(r.bindings))
	for name := range r.bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
