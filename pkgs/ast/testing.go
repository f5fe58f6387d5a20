package ast

// Describe represents a describe "name" block of the test DSL
type Describe struct {
	Name  string       `json:"name"`
	Lets  []LetBinding `json:"lets,omitempty"`
	Mocks []Mock       `json:"mocks,omitempty"`
	Tests []It         `json:"tests"`
	Line  int          `json:"line"`
	Span  Span         `json:"span"`
}

// LetBinding represents: let NAME = value
type LetBinding struct {
	Name  string  `json:"name"`
	Value Literal `json:"value"`
	Span  Span    `json:"span"`
}

// Mock represents: with mock TARGET returning `json`
type Mock struct {
	Target  string `json:"target"`
	Returns string `json:"returns"`
	Span    Span   `json:"span"`
}

// It represents a single it "name" test case
type It struct {
	Name       string       `json:"name"`
	Mocks      []Mock       `json:"mocks,omitempty"`
	Lets       []LetBinding `json:"lets,omitempty"`
	When       When         `json:"when"`
	Input      *string      `json:"input,omitempty"`
	Body       *string      `json:"body,omitempty"`
	Headers    *string      `json:"headers,omitempty"`
	Cookies    *string      `json:"cookies,omitempty"`
	Conditions []Condition  `json:"conditions,omitempty"`
	Span       Span         `json:"span"`
}

// When is one of *CallingRoute, *ExecutingPipeline, *ExecutingVariable
type When interface {
	whenNode()
}

type CallingRoute struct {
	Method string `json:"method"`
	Path   string `json:"path"`
}

type ExecutingPipeline struct {
	Name string `json:"name"`
}

type ExecutingVariable struct {
	VarType string `json:"varType"`
	Name    string `json:"name"`
}

func (*CallingRoute) whenNode()      {}
func (*ExecutingPipeline) whenNode() {}
func (*ExecutingVariable) whenNode() {}

// Condition is one of *FieldCondition, *HeaderCondition, *CallCondition,
// *SelectorCondition
type Condition interface {
	Position() Span
	conditionNode()
}

// FieldCondition represents: FIELD [`jq`] OP VALUE
type FieldCondition struct {
	Field      string  `json:"field"`
	JqExpr     *string `json:"jqExpr,omitempty"`
	Comparison string  `json:"comparison"`
	Value      Literal `json:"value"`
	Span       Span    `json:"span"`
}

// HeaderCondition represents: header "name" OP VALUE
type HeaderCondition struct {
	Header     string  `json:"header"`
	Comparison string  `json:"comparison"`
	Value      Literal `json:"value"`
	Span       Span    `json:"span"`
}

// CallCondition represents: call TARGET with `json`
type CallCondition struct {
	Target string `json:"target"`
	With   string `json:"with"`
	Span   Span   `json:"span"`
}

type SelectorCheck int

const (
	SelectorExists SelectorCheck = iota
	SelectorText
	SelectorCount
	SelectorAttribute
)

func (c SelectorCheck) String() string {
	switch c {
	case SelectorExists:
		return "exists"
	case SelectorText:
		return "text"
	case SelectorCount:
		return "count"
	case SelectorAttribute:
		return "attribute"
	default:
		return "unknown"
	}
}

// SelectorCondition represents the DOM assertions used by browser tests:
// selector `css` exists | does not exist | text OP V | count OP V | attribute "a" OP V
type SelectorCondition struct {
	Selector   string        `json:"selector"`
	Check      SelectorCheck `json:"check"`
	Negated    bool          `json:"negated,omitempty"`
	Attribute  string        `json:"attribute,omitempty"`
	Comparison string        `json:"comparison,omitempty"`
	Value      Literal       `json:"value"`
	Span       Span          `json:"span"`
}

func (c *FieldCondition) Position() Span    { return c.Span }
func (c *HeaderCondition) Position() Span   { return c.Span }
func (c *CallCondition) Position() Span     { return c.Span }
func (c *SelectorCondition) Position() Span { return c.Span }

func (*FieldCondition) conditionNode()    {}
func (*HeaderCondition) conditionNode()   {}
func (*CallCondition) conditionNode()     {}
func (*SelectorCondition) conditionNode() {}

// LetVariable locates a let binding for go-to-definition.
// Test is empty for bindings declared at describe level.
type LetVariable struct {
	Name     string `json:"name"`
	Describe string `json:"describe"`
	Test     string `json:"test,omitempty"`
	Span     Span   `json:"span"`
}
