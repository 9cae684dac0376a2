package selection

import (
	"math"

	"github.com/antonmedv/expr"
	"github.com/antonmedv/expr/vm"

	"gotomato/formats/tomato"
)

var stdenv = map[string]interface{}{
	"pi":    math.Pi,
	"sqrt":  math.Sqrt,
	"hypot": math.Hypot,
}

// env holds the variables a selection expression can refer to, set to the
// values of one trial.
func env(t *tomato.Trial, freewalk bool) map[string]interface{} {
	env := map[string]interface{}{}
	for k, v := range stdenv {
		env[k] = v
	}
	env["subject"] = t.SubjectId
	env["trial"] = t.TrialId
	env["v0"] = t.V0
	env["d0"] = t.D0
	env["leader"] = t.Leader.String()
	env["model"] = t.LeaderModel
	env["freewalk"] = freewalk
	env["frames"] = t.Length()
	env["duration"] = 0.0
	if n := t.Length(); n > 0 {
		ts := t.Time(false)
		env["duration"] = ts[n-1] - ts[0]
	}
	return env
}

// Selection is a compiled boolean expression over trial attributes, e.g.
// `v0 >= 1.1 && leader == "avatar" && trial % 2 == 0`.
type Selection struct {
	Expression string
	program    *vm.Program
}

func Compile(expression string) (*Selection, error) {
	proto := env(&tomato.Trial{}, false)
	program, err := expr.Compile(expression, expr.Env(proto), expr.AsBool())
	if err != nil {
		return nil, err
	}
	return &Selection{Expression: expression, program: program}, nil
}

func (this *Selection) Match(t *tomato.Trial, freewalk bool) (bool, error) {
	out, err := expr.Run(this.program, env(t, freewalk))
	if err != nil {
		return false, err
	}
	return out.(bool), nil
}

// Apply returns a copy of s holding only the matching trials. The trials
// themselves are shared.
func (this *Selection) Apply(s *tomato.Subject) (*tomato.Subject, error) {
	out := tomato.NewSubject(s.Id)
	out.Gender, out.IPD, out.Leader = s.Gender, s.IPD, s.Leader
	for id, t := range s.Trials {
		ok, err := this.Match(t, false)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Trials[id] = t
		}
	}
	for id, t := range s.Freewalk {
		ok, err := this.Match(t, true)
		if err != nil {
			return nil, err
		}
		if ok {
			out.Freewalk[id] = t
		}
	}
	return out, nil
}
