package sqlgen

import (
	"fmt"

	"github.com/caresuite/nl2sql"
	"github.com/google/cel-go/cel"
)

// rule is one scoping instruction. When its compiled condition evaluates
// true against the request parameters, render's line joins the SCOPING
// INSTRUCTIONS block.
type rule struct {
	name    string
	program cel.Program
	render  func(params map[string]any) string
}

// builtinRules carry the roster and client scoping the service has always
// applied. They run ahead of configured rules and interpolate the request
// IDs into their prompt lines.
var builtinRules = []struct {
	name   string
	when   string
	render func(params map[string]any) string
}{
	{
		name: "roster-scope",
		when: `has(params.roster_id)`,
		render: func(params map[string]any) string {
			return rosterScopeLine(params["roster_id"])
		},
	},
	{
		name: "client-scope",
		when: `has(params.client_id)`,
		render: func(params map[string]any) string {
			return clientScopeLine(params["client_id"])
		},
	},
}

// compileRules builds the rule set once: built-ins first, then the
// configured rules in order. Conditions see a single `params` map holding
// question plus roster_id and client_id when the request carries them, so
// configured conditions should guard optional keys with has().
func compileRules(configured []nl2sql.ScopeRule) ([]rule, error) {
	env, err := cel.NewEnv(
		cel.Variable("params", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlgen: create CEL environment: %w", err)
	}

	rules := make([]rule, 0, len(builtinRules)+len(configured))
	for _, b := range builtinRules {
		prg, err := compileCondition(env, b.when)
		if err != nil {
			return nil, fmt.Errorf("sqlgen: compile built-in rule %q: %w", b.name, err)
		}
		rules = append(rules, rule{name: b.name, program: prg, render: b.render})
	}
	for _, rc := range configured {
		prg, err := compileCondition(env, rc.When)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidRule, rc.Name, err)
		}
		prompt := rc.Prompt
		rules = append(rules, rule{
			name:    rc.Name,
			program: prg,
			render:  func(map[string]any) string { return prompt },
		})
	}
	return rules, nil
}

func compileCondition(env *cel.Env, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	return env.Program(ast)
}

// evaluate returns the prompt lines of every rule whose condition fires.
func evaluate(rules []rule, params map[string]any) ([]string, error) {
	vars := map[string]any{"params": params}
	var lines []string
	for _, r := range rules {
		out, _, err := r.program.Eval(vars)
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrRuleEvaluation, r.name, err)
		}
		fired, ok := out.Value().(bool)
		if !ok {
			return nil, fmt.Errorf("%w: %q returned %T, want bool", ErrRuleEvaluation, r.name, out.Value())
		}
		if fired {
			lines = append(lines, r.render(params))
		}
	}
	return lines, nil
}
