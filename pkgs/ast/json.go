package ast

import "encoding/json"

// Sum-type variants encode with a "kind" discriminator so consumers of the
// JSON form can tell them apart.

func marshalKind(kind string, v interface{}) ([]byte, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	head := []byte(`{"kind":"` + kind + `"`)
	if len(body) <= 2 {
		return append(head, '}'), nil
	}
	head = append(head, ',')
	return append(head, body[1:]...), nil
}

func (s *RegularStep) MarshalJSON() ([]byte, error) {
	type plain RegularStep
	return marshalKind("regular", (*plain)(s))
}

func (s *ResultStep) MarshalJSON() ([]byte, error) {
	type plain ResultStep
	return marshalKind("result", (*plain)(s))
}

func (s *IfStep) MarshalJSON() ([]byte, error) {
	type plain IfStep
	return marshalKind("if", (*plain)(s))
}

func (s *DispatchStep) MarshalJSON() ([]byte, error) {
	type plain DispatchStep
	return marshalKind("dispatch", (*plain)(s))
}

func (s *ForeachStep) MarshalJSON() ([]byte, error) {
	type plain ForeachStep
	return marshalKind("foreach", (*plain)(s))
}

func (t *Tag) MarshalJSON() ([]byte, error) {
	type plain Tag
	return marshalKind("tag", (*plain)(t))
}

func (e *And) MarshalJSON() ([]byte, error) {
	type plain And
	return marshalKind("and", (*plain)(e))
}

func (e *Or) MarshalJSON() ([]byte, error) {
	type plain Or
	return marshalKind("or", (*plain)(e))
}

func (v *StringValue) MarshalJSON() ([]byte, error) {
	type plain StringValue
	return marshalKind("string", (*plain)(v))
}

func (v *EnvValue) MarshalJSON() ([]byte, error) {
	type plain EnvValue
	return marshalKind("env", (*plain)(v))
}

func (v *BoolValue) MarshalJSON() ([]byte, error) {
	type plain BoolValue
	return marshalKind("bool", (*plain)(v))
}

func (v *NumberValue) MarshalJSON() ([]byte, error) {
	type plain NumberValue
	return marshalKind("number", (*plain)(v))
}

func (r *Inline) MarshalJSON() ([]byte, error) {
	type plain Inline
	return marshalKind("inline", (*plain)(r))
}

func (r *Named) MarshalJSON() ([]byte, error) {
	type plain Named
	return marshalKind("named", (*plain)(r))
}

func (w *CallingRoute) MarshalJSON() ([]byte, error) {
	type plain CallingRoute
	return marshalKind("callingRoute", (*plain)(w))
}

func (w *ExecutingPipeline) MarshalJSON() ([]byte, error) {
	type plain ExecutingPipeline
	return marshalKind("executingPipeline", (*plain)(w))
}

func (w *ExecutingVariable) MarshalJSON() ([]byte, error) {
	type plain ExecutingVariable
	return marshalKind("executingVariable", (*plain)(w))
}

func (c *FieldCondition) MarshalJSON() ([]byte, error) {
	type plain FieldCondition
	return marshalKind("field", (*plain)(c))
}

func (c *HeaderCondition) MarshalJSON() ([]byte, error) {
	type plain HeaderCondition
	return marshalKind("header", (*plain)(c))
}

func (c *CallCondition) MarshalJSON() ([]byte, error) {
	type plain CallCondition
	return marshalKind("call", (*plain)(c))
}

func (c *SelectorCondition) MarshalJSON() ([]byte, error) {
	type plain SelectorCondition
	return marshalKind("selector", (*plain)(c))
}

func (t ConfigType) MarshalJSON() ([]byte, error)    { return json.Marshal(t.String()) }
func (f LiteralFormat) MarshalJSON() ([]byte, error) { return json.Marshal(f.String()) }
func (c SelectorCheck) MarshalJSON() ([]byte, error) { return json.Marshal(c.String()) }

func (k BranchKind) MarshalJSON() ([]byte, error) {
	switch k {
	case BranchOk:
		return json.Marshal("ok")
	case BranchDefault:
		return json.Marshal("default")
	default:
		return json.Marshal("custom")
	}
}
