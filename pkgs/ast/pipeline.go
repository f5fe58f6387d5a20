package ast

// Pipeline is an ordered sequence of steps
type Pipeline struct {
	Steps []Step `json:"steps"`
	Span  Span   `json:"span"`
}

// Step is one of *RegularStep, *ResultStep, *IfStep, *DispatchStep, *ForeachStep
type Step interface {
	Position() Span
	stepNode()
}

// ConfigType records the quoting form of a regular step's config
type ConfigType int

const (
	ConfigNone ConfigType = iota
	ConfigBacktick
	ConfigQuoted
	ConfigIdentifier
)

func (t ConfigType) String() string {
	switch t {
	case ConfigNone:
		return "none"
	case ConfigBacktick:
		return "backtick"
	case ConfigQuoted:
		return "quoted"
	case ConfigIdentifier:
		return "identifier"
	default:
		return "unknown"
	}
}

// RegularStep is a middleware call: |> name(args): config @guard
type RegularStep struct {
	Name       string     `json:"name"`
	Args       []string   `json:"args,omitempty"`
	Config     string     `json:"config"`
	ConfigType ConfigType `json:"configType"`
	Condition  TagExpr    `json:"condition,omitempty"`
	// JoinTargets is filled only for the join step
	JoinTargets []string `json:"joinTargets,omitempty"`
	Span        Span     `json:"span"`
}

// ResultStep dispatches on the outcome status of the preceding steps
type ResultStep struct {
	Branches []ResultBranch `json:"branches"`
	Span     Span           `json:"span"`
}

// ResultBranch represents: name(code): pipeline
type ResultBranch struct {
	Type       BranchType `json:"type"`
	StatusCode int        `json:"statusCode"`
	Pipeline   Pipeline   `json:"pipeline"`
	Span       Span       `json:"span"`
}

type BranchKind int

const (
	BranchOk BranchKind = iota
	BranchDefault
	BranchCustom
)

// BranchType is Ok, Default, or Custom(Name)
type BranchType struct {
	Kind BranchKind `json:"kind"`
	Name string     `json:"name,omitempty"`
}

// BranchTypeFor maps a branch label to its type
func BranchTypeFor(name string) BranchType {
	switch name {
	case "ok":
		return BranchType{Kind: BranchOk}
	case "default":
		return BranchType{Kind: BranchDefault}
	default:
		return BranchType{Kind: BranchCustom, Name: name}
	}
}

// Label returns the source spelling of the branch type
func (b BranchType) Label() string {
	switch b.Kind {
	case BranchOk:
		return "ok"
	case BranchDefault:
		return "default"
	default:
		return b.Name
	}
}

// IfStep represents: if <cond> then: <pipeline> [else: <pipeline>] end
type IfStep struct {
	Condition Pipeline  `json:"condition"`
	Then      Pipeline  `json:"then"`
	Else      *Pipeline `json:"else,omitempty"`
	Span      Span      `json:"span"`
}

// DispatchStep represents: dispatch case <tags>: <pipeline> ... [default: <pipeline>] end
type DispatchStep struct {
	Branches []DispatchBranch `json:"branches"`
	Default  *Pipeline        `json:"default,omitempty"`
	Span     Span             `json:"span"`
}

type DispatchBranch struct {
	Condition TagExpr  `json:"condition"`
	Pipeline  Pipeline `json:"pipeline"`
	Span      Span     `json:"span"`
}

// ForeachStep represents: foreach <selector> <pipeline> end
type ForeachStep struct {
	Selector string   `json:"selector"`
	Pipeline Pipeline `json:"pipeline"`
	Span     Span     `json:"span"`
}

func (s *RegularStep) Position() Span  { return s.Span }
func (s *ResultStep) Position() Span   { return s.Span }
func (s *IfStep) Position() Span       { return s.Span }
func (s *DispatchStep) Position() Span { return s.Span }
func (s *ForeachStep) Position() Span  { return s.Span }

func (*RegularStep) stepNode()  {}
func (*ResultStep) stepNode()   {}
func (*IfStep) stepNode()       {}
func (*DispatchStep) stepNode() {}
func (*ForeachStep) stepNode()  {}

// TagExpr is one of *Tag, *And, *Or
type TagExpr interface {
	tagExpr()
}

// Tag represents @name, @!name or @name(arg, ...)
type Tag struct {
	Name    string   `json:"name"`
	Negated bool     `json:"negated,omitempty"`
	Args    []string `json:"args,omitempty"`
	Span    Span     `json:"span"`
}

type And struct {
	Left  TagExpr `json:"left"`
	Right TagExpr `json:"right"`
}

type Or struct {
	Left  TagExpr `json:"left"`
	Right TagExpr `json:"right"`
}

func (*Tag) tagExpr() {}
func (*And) tagExpr() {}
func (*Or) tagExpr()  {}

// Tags returns the leaves of a tag expression in source order
func Tags(e TagExpr) []*Tag {
	switch e := e.(type) {
	case *Tag:
		return []*Tag{e}
	case *And:
		return append(Tags(e.Left), Tags(e.Right)...)
	case *Or:
		return append(Tags(e.Left), Tags(e.Right)...)
	default:
		return nil
	}
}
