package ast

// Span is a half-open byte range [Start, End) in the source
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether offset lies inside the span. The end offset is
// included so a cursor sitting just after a node still resolves to it.
func (s Span) Contains(offset int) bool {
	return s.Start <= offset && offset <= s.End
}

// Program represents the root of a WebPipe file.
// Line fields record declaration order for the formatter only; they carry
// no meaning of their own.
type Program struct {
	Configs       []Config        `json:"configs"`
	Pipelines     []NamedPipeline `json:"pipelines"`
	Variables     []Variable      `json:"variables"`
	Routes        []Route         `json:"routes"`
	Describes     []Describe      `json:"describes"`
	Comments      []Comment       `json:"comments"`
	GraphQLSchema *GraphQLSchema  `json:"graphqlSchema,omitempty"`
	Queries       []Resolver      `json:"queries"`
	Mutations     []Resolver      `json:"mutations"`
	TypeResolvers []TypeResolver  `json:"typeResolvers"`
	FeatureFlags  *FeatureFlags   `json:"featureFlags,omitempty"`
}

// Comment is a standalone comment line. Text keeps the # or // marker.
type Comment struct {
	Text string `json:"text"`
	Line int    `json:"line"`
	Span Span   `json:"span"`
}

// Config represents: config NAME { key: value ... }
type Config struct {
	Name          string           `json:"name"`
	Properties    []ConfigProperty `json:"properties"`
	InlineComment string           `json:"inlineComment,omitempty"`
	Line          int              `json:"line"`
	Span          Span             `json:"span"`
}

// ConfigProperty is one key/value pair. Keys may repeat; all are kept.
type ConfigProperty struct {
	Key   string      `json:"key"`
	Value ConfigValue `json:"value"`
	Span  Span        `json:"span"`
}

// ConfigValue is one of *StringValue, *EnvValue, *BoolValue, *NumberValue
type ConfigValue interface {
	configValue()
}

// StringValue is a double-quoted config value, stored raw
type StringValue struct {
	Value string `json:"value"`
}

// EnvValue is $NAME with an optional || "default"
type EnvValue struct {
	Name    string  `json:"name"`
	Default *string `json:"default,omitempty"`
}

type BoolValue struct {
	Value bool `json:"value"`
}

// NumberValue is an integer or decimal config value. Raw keeps the text as
// written so the printer can reproduce it.
type NumberValue struct {
	Raw   string  `json:"raw"`
	Value float64 `json:"value"`
}

func (*StringValue) configValue() {}
func (*EnvValue) configValue()    {}
func (*BoolValue) configValue()   {}
func (*NumberValue) configValue() {}

// NamedPipeline represents: pipeline NAME = |> ...
type NamedPipeline struct {
	Name          string   `json:"name"`
	Pipeline      Pipeline `json:"pipeline"`
	InlineComment string   `json:"inlineComment,omitempty"`
	Line          int      `json:"line"`
	Span          Span     `json:"span"`
}

// Variable represents: TYPE NAME = `value`
type Variable struct {
	VarType       string        `json:"varType"`
	Name          string        `json:"name"`
	Value         string        `json:"value"`
	Format        LiteralFormat `json:"format"`
	InlineComment string        `json:"inlineComment,omitempty"`
	Line          int           `json:"line"`
	Span          Span          `json:"span"`
}

// Key returns the "type::name" key used by the variable position index
func (v *Variable) Key() string {
	return v.VarType + "::" + v.Name
}

// Route represents: METHOD /path followed by a pipeline
type Route struct {
	Method        string      `json:"method"`
	Path          string      `json:"path"`
	Pipeline      PipelineRef `json:"pipeline"`
	InlineComment string      `json:"inlineComment,omitempty"`
	Line          int         `json:"line"`
	Span          Span        `json:"span"`
}

// PipelineRef is either *Inline or *Named. Named references are resolved
// by a later binding pass, never by the parser.
type PipelineRef interface {
	pipelineRef()
}

type Inline struct {
	Pipeline Pipeline `json:"pipeline"`
}

type Named struct {
	Name string `json:"name"`
	Span Span   `json:"span"`
}

func (*Inline) pipelineRef() {}
func (*Named) pipelineRef()  {}

// GraphQLSchema represents: graphqlSchema = `SDL`
type GraphQLSchema struct {
	SDL  string `json:"sdl"`
	Line int    `json:"line"`
	Span Span   `json:"span"`
	// SDLStart is the offset of the first byte inside the backticks
	SDLStart int `json:"sdlStart"`
}

// Resolver represents a query or mutation resolver: query NAME = |> ...
type Resolver struct {
	Name          string   `json:"name"`
	Pipeline      Pipeline `json:"pipeline"`
	InlineComment string   `json:"inlineComment,omitempty"`
	Line          int      `json:"line"`
	Span          Span     `json:"span"`
}

// TypeResolver represents: resolver Type.field = |> ...
type TypeResolver struct {
	TypeName      string   `json:"typeName"`
	FieldName     string   `json:"fieldName"`
	Pipeline      Pipeline `json:"pipeline"`
	InlineComment string   `json:"inlineComment,omitempty"`
	Line          int      `json:"line"`
	Span          Span     `json:"span"`
}

// FeatureFlags represents: featureFlags = |> ...
type FeatureFlags struct {
	Pipeline      Pipeline `json:"pipeline"`
	InlineComment string   `json:"inlineComment,omitempty"`
	Line          int      `json:"line"`
	Span          Span     `json:"span"`
}

// Methods is the closed set of HTTP methods a route may use
var Methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"}

// IsMethod reports whether s is one of Methods
func IsMethod(s string) bool {
	for _, m := range Methods {
		if m == s {
			return true
		}
	}
	return false
}

// LiteralFormat records how a literal was written so it can be re-printed
type LiteralFormat int

const (
	LiteralBacktick LiteralFormat = iota
	LiteralQuoted
	LiteralBare
)

func (f LiteralFormat) String() string {
	switch f {
	case LiteralBacktick:
		return "backtick"
	case LiteralQuoted:
		return "quoted"
	case LiteralBare:
		return "bare"
	default:
		return "unknown"
	}
}

// Literal is a raw value plus the quoting form it was written in
type Literal struct {
	Value  string        `json:"value"`
	Format LiteralFormat `json:"format"`
}
