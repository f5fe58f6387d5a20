package ast

import (
	"encoding/json"
	"strings"
	"testing"
)

func regular(name string, start, end int) *RegularStep {
	return &RegularStep{Name: name, Span: Span{start, end}}
}

func sampleProgram() *Program {
	inner := regular("inner", 30, 40)
	return &Program{
		Pipelines: []NamedPipeline{{
			Name: "p",
			Pipeline: Pipeline{Steps: []Step{
				regular("first", 10, 20),
				&ForeachStep{Selector: "rows", Pipeline: Pipeline{Steps: []Step{inner}}, Span: Span{22, 50}},
			}},
		}},
		Routes: []Route{
			{Method: "GET", Path: "/named", Pipeline: &Named{Name: "p"}},
			{Method: "GET", Path: "/inline", Pipeline: &Inline{Pipeline: Pipeline{Steps: []Step{regular("last", 60, 70)}}}},
		},
	}
}

func TestTopLevelPipelines(t *testing.T) {
	got := TopLevelPipelines(sampleProgram())
	var owners []string
	for _, o := range got {
		owners = append(owners, o.Owner)
	}
	if want := "pipeline p,GET /inline"; strings.Join(owners, ",") != want {
		t.Errorf("owners = %v, want %s", owners, want)
	}
}

func TestWalk(t *testing.T) {
	var names []string
	Walk(sampleProgram(), func(s Step) bool {
		switch s := s.(type) {
		case *RegularStep:
			names = append(names, s.Name)
		case *ForeachStep:
			names = append(names, "foreach")
		}
		return true
	})
	if got, want := strings.Join(names, ","), "first,foreach,inner,last"; got != want {
		t.Errorf("walk order = %s, want %s", got, want)
	}
}

func TestStepAt(t *testing.T) {
	prog := sampleProgram()
	tests := []struct {
		offset int
		want   string
	}{
		{15, "first"},
		{25, "foreach"},
		{35, "inner"},
		{70, "last"},
		{55, ""},
	}
	for _, tt := range tests {
		got := ""
		switch s := StepAt(prog, tt.offset).(type) {
		case *RegularStep:
			got = s.Name
		case *ForeachStep:
			got = "foreach"
		}
		if got != tt.want {
			t.Errorf("StepAt(%d) = %q, want %q", tt.offset, got, tt.want)
		}
	}
}

func TestJSONKinds(t *testing.T) {
	step := &RegularStep{
		Name:       "jq",
		Config:     ".",
		ConfigType: ConfigBacktick,
		Condition:  &And{Left: &Tag{Name: "a"}, Right: &Tag{Name: "b", Negated: true}},
	}
	data, err := json.Marshal(step)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	got := string(data)
	for _, want := range []string{`"kind":"regular"`, `"configType":"backtick"`, `"condition":{"kind":"and"`, `"kind":"tag","name":"b","negated":true`} {
		if !strings.Contains(got, want) {
			t.Errorf("json %s does not contain %s", got, want)
		}
	}
}
