// Package gen generates Go models from resolved GraphQL fragments.
//
// Every fragment produces one Go file holding a root model named after the
// fragment, plus one model per composite field and per inline-fragment type
// condition. Models are rendered with Jennifer, so imports are tracked and
// the output is gofmt'ed.
//
// # Pipeline
//
//	schema.graphql + fragments.graphql
//	        ↓
//	   schema.Parse, fragment.Parse
//	        ↓
//	   resolve.Enhance (types from the schema)
//	        ↓
//	   Generator.Build (one pass and one Scope per fragment)
//	        ↓
//	   Writer.WriteAll ({target}/{fragment}.go)
//
// # Naming and placement
//
// The model of a composite field is named after the field, singularized for
// list fields. Go has no nested types, so a nested model is prefixed with
// its parent model name: the author of PostCard becomes PostCardAuthor. The
// NestingPolicy decides which models drop the prefix:
//
//   - Nested: every model keeps the prefix
//   - Flattened: no model keeps it
//   - Mixed: common names (author, user, node, pageInfo, ...) drop it
//
// MaxNestedDepth drops the prefix of every model nested deeper than the
// limit. A name already declared in the pass is reused when the selections
// match and suffixed with a number when they don't.
//
// Inline fragments on the same type condition share one model named
// <Root>On<Type>, reached through an As<Type> field and an On<Type> method.
//
// # Configuration
//
// Configuration is done via the functional options pattern:
//
//	cfg, err := gen.NewConfig(
//	    gen.WithNamespace("models"),
//	    gen.WithNesting(gen.Mixed),
//	    gen.WithScalars(map[string]string{
//	        "UUID": "github.com/google/uuid.UUID",
//	    }),
//	)
//
// or loaded from a YAML or JSON file with LoadConfig.
//
// # Diagnostics
//
// Generation never stops on a bad field. Unresolved spreads, invalid names
// and per-model failures are reported to the diag.Reporter and returned in
// Output.Diagnostics; the failing field or model is replaced with a
// "generation failed" comment.
package gen
