// Package invariant checks converted Questionnaires against the structural
// rules every conversion must leave intact, using FHIRPath.
package invariant

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/gofhir/fhirpath"

	"github.com/gofhir/qconvert"
	"github.com/gofhir/qconvert/pkg/extension"
)

// Severity of a failed rule.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// Rule is a FHIRPath invariant. Expression may contain {profile} and
// {prefix}, replaced with the checked version's core profile and
// inter-version extension prefix.
type Rule struct {
	Key        string
	Human      string
	Severity   string
	Expression string

	// Versions limits the rule; all versions when empty.
	Versions []qconvert.FHIRVersion
}

func (r Rule) appliesTo(v qconvert.FHIRVersion) bool {
	if len(r.Versions) == 0 {
		return true
	}
	for _, rv := range r.Versions {
		if rv == v {
			return true
		}
	}
	return false
}

// Violation is a rule that did not hold.
type Violation struct {
	Key      string `json:"key"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s %s: %s", v.Severity, v.Key, v.Message)
}

var r4Family = []qconvert.FHIRVersion{qconvert.R4, qconvert.R4B, qconvert.R5}

// DefaultRules are checked after every conversion.
var DefaultRules = []Rule{
	{
		Key:        "qc-1",
		Human:      "meta.profile holds exactly the target core profile",
		Severity:   SeverityError,
		Expression: "meta.profile.count() = 1 and meta.profile.first() = '{profile}'",
	},
	{
		Key:        "qc-2",
		Human:      "no element carries an inter-version extension of its own version",
		Severity:   SeverityError,
		Expression: "(extension | descendants().extension).where(url.startsWith('{prefix}')).empty()",
	},
	{
		Key:        "qc-3",
		Human:      "linkId is unique within the Questionnaire",
		Severity:   SeverityError,
		Expression: "repeat(item).linkId.isDistinct()",
	},
	{
		Key:        "qc-4",
		Human:      "enableWhen declares an operator",
		Severity:   SeverityError,
		Expression: "repeat(item).enableWhen.all(operator.exists())",
		Versions:   r4Family,
	},
	{
		Key:        "qc-5",
		Human:      "enableWhen has no operator before R4",
		Severity:   SeverityError,
		Expression: "repeat(item).enableWhen.all(operator.empty())",
		Versions:   []qconvert.FHIRVersion{qconvert.STU3},
	},
	{
		Key:        "qc-6",
		Human:      "choice and open-choice items do not exist in R5",
		Severity:   SeverityError,
		Expression: "repeat(item).all(type != 'choice' and type != 'open-choice')",
		Versions:   []qconvert.FHIRVersion{qconvert.R5},
	},
	{
		Key:        "qc-7",
		Human:      "answerConstraint only exists in R5",
		Severity:   SeverityWarning,
		Expression: "repeat(item).answerConstraint.empty()",
		Versions:   []qconvert.FHIRVersion{qconvert.STU3, qconvert.R4, qconvert.R4B},
	},
}

// Checker evaluates rules against resource JSON.
type Checker struct {
	rules []Rule

	// Cache of compiled FHIRPath expressions.
	exprCache   map[string]*fhirpath.Expression
	exprCacheMu sync.RWMutex
}

// New creates a Checker; DefaultRules when none are given.
func New(rules ...Rule) *Checker {
	if len(rules) == 0 {
		rules = DefaultRules
	}
	return &Checker{
		rules:     rules,
		exprCache: make(map[string]*fhirpath.Expression),
	}
}

// Check evaluates the rules for version v against data. Expressions that
// fail to compile or evaluate are reported as warnings.
func (c *Checker) Check(data []byte, v qconvert.FHIRVersion) ([]Violation, error) {
	if !json.Valid(data) {
		return nil, errors.New("invalid JSON")
	}
	replacer := strings.NewReplacer(
		"{profile}", v.ProfileURL(),
		"{prefix}", extension.Prefix(v),
	)

	var out []Violation
	for _, r := range c.rules {
		if !r.appliesTo(v) {
			continue
		}
		expr, err := c.compiled(replacer.Replace(r.Expression))
		if err != nil {
			out = append(out, Violation{Key: r.Key, Severity: SeverityWarning, Message: "compile: " + err.Error()})
			continue
		}
		result, err := expr.Evaluate(data)
		if err != nil {
			out = append(out, Violation{Key: r.Key, Severity: SeverityWarning, Message: "evaluate: " + err.Error()})
			continue
		}
		if !passed(result) {
			out = append(out, Violation{Key: r.Key, Severity: r.Severity, Message: r.Human})
		}
	}
	return out, nil
}

func (c *Checker) compiled(expr string) (*fhirpath.Expression, error) {
	c.exprCacheMu.RLock()
	compiled, ok := c.exprCache[expr]
	c.exprCacheMu.RUnlock()
	if ok {
		return compiled, nil
	}

	compiled, err := fhirpath.Compile(expr)
	if err != nil {
		return nil, err
	}

	c.exprCacheMu.Lock()
	c.exprCache[expr] = compiled
	c.exprCacheMu.Unlock()
	return compiled, nil
}

// passed treats an empty result as not applicable.
func passed(result fhirpath.Collection) bool {
	if result.Empty() {
		return true
	}
	b, err := result.ToBoolean()
	if err != nil {
		return true
	}
	return b
}

// HasErrors reports whether any violation is an error.
func HasErrors(vs []Violation) bool {
	for _, v := range vs {
		if v.Severity == SeverityError {
			return true
		}
	}
	return false
}
