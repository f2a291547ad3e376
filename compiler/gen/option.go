package gen

import (
	"errors"
	"go/token"
	"log/slog"
	"maps"
)

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
// The header is added at the top of each generated file.
func WithHeader(header string) Option {
	return func(c *Config) error {
		c.Header = header
		return nil
	}
}

// WithNamespace sets the package name of the generated files.
func WithNamespace(ns string) Option {
	return func(c *Config) error {
		if !token.IsIdentifier(ns) {
			return NewConfigError("Namespace", ns, "namespace must be a valid package name")
		}
		c.Namespace = ns
		return nil
	}
}

// WithTarget sets the output directory.
// The directory where generated code will be written.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithSchemaFiles adds schema documents, as paths or glob patterns.
func WithSchemaFiles(paths ...string) Option {
	return func(c *Config) error {
		c.SchemaFiles = append(c.SchemaFiles, paths...)
		return nil
	}
}

// WithFragments adds fragment documents, as paths or glob patterns.
func WithFragments(paths ...string) Option {
	return func(c *Config) error {
		c.Fragments = append(c.Fragments, paths...)
		return nil
	}
}

// WithScalars adds custom scalar mappings. Later mappings win.
//
//	gen.WithScalars(map[string]string{
//	    "UUID": "github.com/google/uuid.UUID",
//	    "Cursor": "string",
//	})
func WithScalars(scalars map[string]string) Option {
	return func(c *Config) error {
		for name, goType := range scalars {
			if _, _, err := splitQualified(goType); err != nil {
				return NewConfigError("Scalars", name, err.Error())
			}
		}
		if c.Scalars == nil {
			c.Scalars = make(map[string]string, len(scalars))
		}
		maps.Copy(c.Scalars, scalars)
		return nil
	}
}

// WithNesting sets the placement policy of nested models.
func WithNesting(p NestingPolicy) Option {
	return func(c *Config) error {
		if p > Mixed {
			return NewConfigError("Nesting", p, "unknown nesting policy")
		}
		c.Nesting = p
		return nil
	}
}

// WithMaxNestedDepth flattens every model nested deeper than depth.
// Zero disables the limit.
func WithMaxNestedDepth(depth int) Option {
	return func(c *Config) error {
		if depth < 0 {
			return NewConfigError("MaxNestedDepth", depth, "depth cannot be negative")
		}
		c.MaxNestedDepth = depth
		return nil
	}
}

// WithValueSemantics emits optional fields and nested models as values.
func WithValueSemantics(enabled bool) Option {
	return func(c *Config) error {
		c.ValueSemantics = enabled
		return nil
	}
}

// WithInitOnlyProperties emits a GetX accessor for every field.
func WithInitOnlyProperties(enabled bool) Option {
	return func(c *Config) error {
		c.InitOnlyProperties = enabled
		return nil
	}
}

// WithDocComments emits doc comments. When descriptions is true, schema
// descriptions are included.
func WithDocComments(enabled, descriptions bool) Option {
	return func(c *Config) error {
		c.DocComments = enabled
		c.FieldDescriptions = descriptions
		return nil
	}
}

// WithSchemaTypeInference toggles resolving selection types from the schema.
func WithSchemaTypeInference(enabled bool) Option {
	return func(c *Config) error {
		c.SchemaTypeInference = enabled
		return nil
	}
}

// WithValidateNonNull emits a Validate method on every model.
func WithValidateNonNull(enabled bool) Option {
	return func(c *Config) error {
		c.ValidateNonNull = enabled
		return nil
	}
}

// WithWorkers sets the number of parallel workers.
func WithWorkers(n int) Option {
	return func(c *Config) error {
		if n <= 0 {
			return NewConfigError("Workers", n, "workers must be positive")
		}
		c.Workers = n
		return nil
	}
}

// WithLogger sets the logger for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a new Config with the defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := defaultConfig()
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}
