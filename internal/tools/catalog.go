package tools

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"aitools-backend/internal/inference"

	"gopkg.in/yaml.v2"
)

const CategoryAll = "All"

//go:embed tools.yaml
var defaultCatalog []byte

type Tool struct {
	ID           int            `yaml:"id"`
	Name         string         `yaml:"name"`
	Category     string         `yaml:"category"`
	Description  string         `yaml:"description"`
	Kind         inference.Kind `yaml:"kind"`
	Provider     string         `yaml:"provider"`
	Model        string         `yaml:"model"`
	SystemPrompt string         `yaml:"system_prompt"`
}

func (t Tool) IsImage() bool {
	return t.Kind == inference.KindImage
}

type Catalog struct {
	tools       []Tool
	defaultTool Tool
}

type catalogFile struct {
	DefaultTool string `yaml:"default_tool"`
	Tools       []Tool `yaml:"tools"`
}

// LoadCatalog parses the catalog at path, or the embedded default catalog when
// path is empty.
func LoadCatalog(path string) (*Catalog, error) {
	data := defaultCatalog
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("error reading tools file '%s': %w", path, err)
		}
		slog.Info("loaded tool catalog", "path", path)
	}
	return ParseCatalog(data)
}

func ParseCatalog(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.UnmarshalStrict(data, &file); err != nil {
		return nil, fmt.Errorf("error parsing tool catalog: %w", err)
	}

	if len(file.Tools) == 0 {
		return nil, fmt.Errorf("tool catalog has no tools")
	}

	seen := make(map[string]bool, len(file.Tools))
	for i := range file.Tools {
		tool := &file.Tools[i]
		if tool.Name == "" {
			return nil, fmt.Errorf("tool %d has no name", i)
		}
		key := strings.ToLower(tool.Name)
		if seen[key] {
			return nil, fmt.Errorf("duplicate tool name '%s'", tool.Name)
		}
		seen[key] = true

		if tool.Kind == "" {
			tool.Kind = inference.KindText
		}
		if tool.Kind != inference.KindText && tool.Kind != inference.KindImage {
			return nil, fmt.Errorf("tool '%s' has invalid kind '%s'", tool.Name, tool.Kind)
		}
		if tool.Model == "" {
			return nil, fmt.Errorf("tool '%s' has no model", tool.Name)
		}
	}

	catalog := &Catalog{tools: file.Tools}

	if file.DefaultTool == "" {
		for _, tool := range file.Tools {
			if !tool.IsImage() {
				catalog.defaultTool = tool
				return catalog, nil
			}
		}
		return nil, fmt.Errorf("tool catalog has no text tool to use as default")
	}

	def, ok := catalog.find(file.DefaultTool)
	if !ok {
		return nil, fmt.Errorf("default tool '%s' is not in the catalog", file.DefaultTool)
	}
	if def.IsImage() {
		return nil, fmt.Errorf("default tool '%s' must be a text tool", file.DefaultTool)
	}
	catalog.defaultTool = def

	return catalog, nil
}

func (c *Catalog) find(name string) (Tool, bool) {
	for _, tool := range c.tools {
		if strings.EqualFold(tool.Name, name) {
			return tool, true
		}
	}
	return Tool{}, false
}

// Lookup returns the tool with the given name. Unknown names resolve to the
// default text tool, since every unrecognized tool is served as chat.
func (c *Catalog) Lookup(name string) Tool {
	if tool, ok := c.find(strings.TrimSpace(name)); ok {
		return tool
	}
	return c.defaultTool
}

func (c *Catalog) Default() Tool {
	return c.defaultTool
}

// ImageTool returns the named image tool, or the first image tool in the
// catalog when name is empty or not an image tool.
func (c *Catalog) ImageTool(name string) (Tool, bool) {
	if tool, ok := c.find(strings.TrimSpace(name)); ok && tool.IsImage() {
		return tool, true
	}
	for _, tool := range c.tools {
		if tool.IsImage() {
			return tool, true
		}
	}
	return Tool{}, false
}

func (c *Catalog) All() []Tool {
	out := make([]Tool, len(c.tools))
	copy(out, c.tools)
	return out
}

// Filter matches tools whose category equals category ("" or All matches every
// category) and whose name contains search, ignoring case.
func (c *Catalog) Filter(category, search string) []Tool {
	search = strings.ToLower(strings.TrimSpace(search))
	out := make([]Tool, 0, len(c.tools))
	for _, tool := range c.tools {
		if category != "" && category != CategoryAll && tool.Category != category {
			continue
		}
		if search != "" && !strings.Contains(strings.ToLower(tool.Name), search) {
			continue
		}
		out = append(out, tool)
	}
	return out
}
