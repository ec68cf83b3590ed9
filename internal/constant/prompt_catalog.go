package constant

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptCatalog resolves persona system prompts. Overrides loaded from YAML
// win over the built-in text.
type PromptCatalog struct {
	prompts map[string]string
}

type promptFile struct {
	Personas      map[string]string `yaml:"personas"`
	Consolidation string            `yaml:"consolidation"`
}

const consolidationKey = "__consolidation"

func builtinPrompts() map[string]string {
	return map[string]string{
		PersonaAnalistaCognitivo:   AnalistaCognitivoPrompt,
		PersonaSecretarioExecutivo: SecretarioExecutivoPrompt,
		PersonaBrainstormer:        BrainstormerPrompt,
		PersonaOrquestrador:        OrquestradorPrompt,
		PersonaTecelao:             TecelaoPrompt,
		consolidationKey:           ConsolidationPrompt,
	}
}

func NewPromptCatalog() *PromptCatalog {
	return &PromptCatalog{prompts: builtinPrompts()}
}

// LoadPromptCatalog applies overrides from path. An empty path or a missing
// file yields the built-in catalog.
func LoadPromptCatalog(path string) (*PromptCatalog, error) {
	c := NewPromptCatalog()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("read prompt catalog: %w", err)
	}

	var f promptFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse prompt catalog %s: %w", path, err)
	}
	for name, prompt := range f.Personas {
		if _, known := c.prompts[name]; !known || name == consolidationKey {
			return nil, fmt.Errorf("prompt catalog %s: unknown persona %q", path, name)
		}
		if prompt != "" {
			c.prompts[name] = prompt
		}
	}
	if f.Consolidation != "" {
		c.prompts[consolidationKey] = f.Consolidation
	}
	return c, nil
}

// SystemPrompt returns "" for an unknown persona.
func (c *PromptCatalog) SystemPrompt(persona string) string {
	return c.prompts[persona]
}

func (c *PromptCatalog) Consolidation() string {
	return c.prompts[consolidationKey]
}
