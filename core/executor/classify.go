package executor

import (
	"fmt"
	"regexp"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// genericSuccess matches the progress lines executors print when something
// went through.
var genericSuccess = regexp.MustCompile(`(?i)confirmed|success|completed|claimed|sent`)

// DefaultSuccessRules are the task specific phrases that mark a run as done.
// Each rule is an expr-lang expression over `task` and `lines`.
var DefaultSuccessRules = map[string]string{
	"accountLogin":       `any(lines, {# contains "Account Login completed."})`,
	"accountCheckIn":     `any(lines, {# contains "Account Check-in completed."})`,
	"accountCheck":       `any(lines, {# contains "Checking Profile Stats for" || # matches "(?i)ID:\\s*\\d+, TotalPoints:"})`,
	"accountClaimFaucet": `any(lines, {# contains "Claim Faucet PHRS completed." || # contains "Faucet not available."})`,
}

func ruleEnv(task string, lines []string) map[string]any {
	return map[string]any{
		"task":  task,
		"lines": lines,
	}
}

// Classifier decides from captured log lines whether an executor that
// returned no outcome succeeded.
type Classifier struct {
	rules map[string]*vm.Program
}

// NewClassifier compiles DefaultSuccessRules with overrides applied on top.
// An empty override disables the rule of that task.
func NewClassifier(overrides map[string]string) (*Classifier, error) {
	sources := map[string]string{}
	for task, rule := range DefaultSuccessRules {
		sources[task] = rule
	}
	for task, rule := range overrides {
		sources[task] = rule
	}

	tasks := make([]string, 0, len(sources))
	for task := range sources {
		tasks = append(tasks, task)
	}
	sort.Strings(tasks)

	c := &Classifier{rules: map[string]*vm.Program{}}
	for _, task := range tasks {
		if sources[task] == "" {
			continue
		}
		program, err := expr.Compile(sources[task], expr.Env(ruleEnv("", []string{})), expr.AsBool())
		if err != nil {
			return nil, fmt.Errorf("invalid success rule for %s: %w", task, err)
		}
		c.rules[task] = program
	}
	return c, nil
}

// Succeeded is true when the task rule or the generic keyword pattern
// matches any line.
func (c *Classifier) Succeeded(task string, lines []string) bool {
	if program, ok := c.rules[task]; ok {
		result, err := expr.Run(program, ruleEnv(task, lines))
		if err == nil && result.(bool) {
			return true
		}
	}

	for _, line := range lines {
		if genericSuccess.MatchString(line) {
			return true
		}
	}
	return false
}
