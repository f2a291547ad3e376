package gen

import (
	"encoding/json"
	"fmt"
	"go/token"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the options of a generation run.
type Config struct {
	// Namespace is the package name of the generated files.
	Namespace string `yaml:"namespace,omitempty" json:"namespace,omitempty"`

	// ValueSemantics emits optional fields and nested models as values
	// tagged omitempty instead of pointers.
	ValueSemantics bool `yaml:"useValueSemantics,omitempty" json:"useValueSemantics,omitempty"`

	// InitOnlyProperties emits a nil-safe GetX accessor for every field.
	InitOnlyProperties bool `yaml:"useInitOnlyProperties,omitempty" json:"useInitOnlyProperties,omitempty"`

	// DocComments emits doc comments on generated types and fields.
	DocComments bool `yaml:"generateDocComments,omitempty" json:"generateDocComments,omitempty"`

	// SchemaTypeInference resolves selection types against the schema.
	// When false, only explicit `name: Type` annotations are used.
	SchemaTypeInference bool `yaml:"useSchemaForTypeInference" json:"useSchemaForTypeInference"`

	// ValidateNonNull emits a Validate method checking non-null fields.
	ValidateNonNull bool `yaml:"validateNonNullableFields,omitempty" json:"validateNonNullableFields,omitempty"`

	// FieldDescriptions copies schema descriptions into doc comments.
	FieldDescriptions bool `yaml:"includeFieldDescriptions,omitempty" json:"includeFieldDescriptions,omitempty"`

	// SchemaFiles lists schema documents, as paths or glob patterns.
	SchemaFiles StringList `yaml:"schemaFilePaths,omitempty" json:"schemaFilePaths,omitempty"`

	// Scalars maps schema scalar names to Go types. A value of the form
	// "import/path.Name" is emitted as a qualified identifier.
	Scalars map[string]string `yaml:"customScalarMappings,omitempty" json:"customScalarMappings,omitempty"`

	// Nesting controls where models of composite fields are placed.
	Nesting NestingPolicy `yaml:"nestedModelBehavior,omitempty" json:"nestedModelBehavior,omitempty"`

	// MaxNestedDepth flattens every model deeper than this. Zero means unlimited.
	MaxNestedDepth int `yaml:"maxNestedDepth,omitempty" json:"maxNestedDepth,omitempty"`

	// Fragments lists fragment documents, as paths or glob patterns.
	Fragments StringList `yaml:"fragments,omitempty" json:"fragments,omitempty"`

	// Target is the output directory.
	Target string `yaml:"target,omitempty" json:"target,omitempty"`

	// Header is the comment at the top of each generated file.
	Header string `yaml:"header,omitempty" json:"header,omitempty"`

	// Workers bounds parallel generation and writes.
	Workers int `yaml:"workers,omitempty" json:"workers,omitempty"`

	// Logger receives diagnostics and progress messages.
	Logger *slog.Logger `yaml:"-" json:"-"`
}

// DefaultHeader is the header of generated files when none is configured.
const DefaultHeader = "Code generated by fragmodel. DO NOT EDIT."

func defaultConfig() *Config {
	return &Config{
		Namespace:           "models",
		SchemaTypeInference: true,
		Nesting:             Nested,
		Target:              "models",
		Header:              DefaultHeader,
		Workers:             runtime.GOMAXPROCS(0),
	}
}

// Log returns the configured logger or slog.Default.
func (c *Config) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return slog.Default()
	}
	return c.Logger
}

// Validate checks the config for values no option could have produced.
func (c *Config) Validate() error {
	switch {
	case !token.IsIdentifier(c.Namespace):
		return NewConfigError("Namespace", c.Namespace, "namespace must be a valid package name")
	case c.MaxNestedDepth < 0:
		return NewConfigError("MaxNestedDepth", c.MaxNestedDepth, "depth cannot be negative")
	case c.Nesting > Mixed:
		return NewConfigError("Nesting", c.Nesting, "unknown nesting policy")
	}
	for name, goType := range c.Scalars {
		if _, _, err := splitQualified(goType); err != nil {
			return NewConfigError("Scalars", name, err.Error())
		}
	}
	return nil
}

// LoadConfig reads a YAML or JSON config file on top of the defaults.
// Relative paths in the file are resolved against the file's directory.
func LoadConfig(path string, opts ...Option) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	c := defaultConfig()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing JSON config: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parsing YAML config: %w", err)
		}
	}
	dir := filepath.Dir(path)
	c.SchemaFiles = c.SchemaFiles.rel(dir)
	c.Fragments = c.Fragments.rel(dir)
	if c.Target != "" && !filepath.IsAbs(c.Target) {
		c.Target = filepath.Join(dir, c.Target)
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// NestingPolicy decides whether the model of a composite field is nested
// under its parent model or placed at the top level of the file.
type NestingPolicy uint8

// Nesting policies.
const (
	// Nested prefixes every model with its parent model name.
	Nested NestingPolicy = iota
	// Flattened names every model after its field alone.
	Flattened
	// Mixed flattens a fixed set of common names and nests the rest.
	Mixed
)

var nestingNames = [...]string{
	Nested:    "nested",
	Flattened: "flattened",
	Mixed:     "mixed",
}

// String implements fmt.Stringer.
func (p NestingPolicy) String() string {
	if int(p) < len(nestingNames) {
		return nestingNames[p]
	}
	return fmt.Sprintf("NestingPolicy(%d)", p)
}

// ParseNestingPolicy parses a policy name, ignoring case.
func ParseNestingPolicy(s string) (NestingPolicy, error) {
	for p, name := range nestingNames {
		if strings.EqualFold(s, name) {
			return NestingPolicy(p), nil
		}
	}
	return 0, NewConfigError("Nesting", s, "use nested, flattened, or mixed")
}

// MarshalText implements encoding.TextMarshaler.
func (p NestingPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *NestingPolicy) UnmarshalText(text []byte) error {
	v, err := ParseNestingPolicy(string(text))
	if err != nil {
		return err
	}
	*p = v
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *NestingPolicy) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: expected nesting policy, got %v", node.Line, node.Kind)
	}
	return p.UnmarshalText([]byte(node.Value))
}

// StringList is a list of strings that can be written as a single string.
type StringList []string

// UnmarshalYAML implements yaml.Unmarshaler for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		*s = []string{node.Value}
		return nil
	case yaml.SequenceNode:
		var list []string
		if err := node.Decode(&list); err != nil {
			return err
		}
		*s = list
		return nil
	default:
		return fmt.Errorf("expected string or list, got %v", node.Kind)
	}
}

// MarshalYAML implements yaml.Marshaler for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}
	return []string(s), nil
}

// UnmarshalJSON implements json.Unmarshaler for StringList.
func (s *StringList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*s = []string{one}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("expected string or list: %w", err)
	}
	*s = list
	return nil
}

func (s StringList) rel(dir string) StringList {
	if len(s) == 0 {
		return s
	}
	out := make(StringList, len(s))
	for i, p := range s {
		if filepath.IsAbs(p) {
			out[i] = p
			continue
		}
		out[i] = filepath.Join(dir, p)
	}
	return out
}
