package ast

// Editor tooling helpers: walking every step and resolving an offset to the
// innermost step that covers it (hover, go-to-definition).

// OwnedPipeline is a top-level pipeline together with a label naming its owner
type OwnedPipeline struct {
	Owner    string
	Pipeline *Pipeline
}

// TopLevelPipelines lists every pipeline that hangs directly off a
// declaration, in declaration-kind order. Named route references have no
// pipeline and are skipped.
func TopLevelPipelines(prog *Program) []OwnedPipeline {
	var out []OwnedPipeline
	for i := range prog.Pipelines {
		out = append(out, OwnedPipeline{"pipeline " + prog.Pipelines[i].Name, &prog.Pipelines[i].Pipeline})
	}
	for i := range prog.Routes {
		r := &prog.Routes[i]
		if inline, ok := r.Pipeline.(*Inline); ok {
			out = append(out, OwnedPipeline{r.Method + " " + r.Path, &inline.Pipeline})
		}
	}
	for i := range prog.Queries {
		out = append(out, OwnedPipeline{"query " + prog.Queries[i].Name, &prog.Queries[i].Pipeline})
	}
	for i := range prog.Mutations {
		out = append(out, OwnedPipeline{"mutation " + prog.Mutations[i].Name, &prog.Mutations[i].Pipeline})
	}
	for i := range prog.TypeResolvers {
		tr := &prog.TypeResolvers[i]
		out = append(out, OwnedPipeline{"resolver " + tr.TypeName + "." + tr.FieldName, &tr.Pipeline})
	}
	if prog.FeatureFlags != nil {
		out = append(out, OwnedPipeline{"featureFlags", &prog.FeatureFlags.Pipeline})
	}
	return out
}

// Walk visits every step of every pipeline in the program depth-first.
// Returning false from fn skips the children of that step.
func Walk(prog *Program, fn func(Step) bool) {
	for _, owned := range TopLevelPipelines(prog) {
		WalkPipeline(*owned.Pipeline, fn)
	}
}

// WalkPipeline visits the steps of p and of every nested pipeline
func WalkPipeline(p Pipeline, fn func(Step) bool) {
	for _, step := range p.Steps {
		if !fn(step) {
			continue
		}
		switch s := step.(type) {
		case *RegularStep:
			// Leaf
		case *ResultStep:
			for _, b := range s.Branches {
				WalkPipeline(b.Pipeline, fn)
			}
		case *IfStep:
			WalkPipeline(s.Condition, fn)
			WalkPipeline(s.Then, fn)
			if s.Else != nil {
				WalkPipeline(*s.Else, fn)
			}
		case *DispatchStep:
			for _, b := range s.Branches {
				WalkPipeline(b.Pipeline, fn)
			}
			if s.Default != nil {
				WalkPipeline(*s.Default, fn)
			}
		case *ForeachStep:
			WalkPipeline(s.Pipeline, fn)
		}
	}
}

// StepAt finds the innermost step whose span contains offset
func StepAt(prog *Program, offset int) Step {
	var found Step
	Walk(prog, func(s Step) bool {
		if !s.Position().Contains(offset) {
			return false
		}
		found = s
		return true // keep descending for a more specific step
	})
	return found
}
