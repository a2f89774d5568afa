package rule

import (
	"fmt"
	"time"

	"github.com/dlclark/regexp2"
)

// constraintTimeout bounds constraint evaluation so pathological patterns
// cannot hang a scan on catastrophic backtracking.
const constraintTimeout = 5 * time.Second

// Constraint restricts the text a metavariable may bind.
type Constraint struct {
	source string
	re     *regexp2.Regexp
}

// compileConstraint compiles a constraint regex. RE2 mode is tried first
// since it cannot backtrack; patterns that need Perl features like
// backreferences fall back to the default mode.
func compileConstraint(expr string) (*Constraint, error) {
	re, err := regexp2.Compile(expr, regexp2.RE2|regexp2.Multiline)
	if err != nil {
		re, err = regexp2.Compile(expr, regexp2.None)
		if err != nil {
			return nil, fmt.Errorf("invalid constraint regex %q: %w", expr, err)
		}
	}
	re.MatchTimeout = constraintTimeout
	return &Constraint{source: expr, re: re}, nil
}

// Match reports whether text satisfies the constraint.
func (c *Constraint) Match(text string) (bool, error) {
	ok, err := c.re.MatchString(text)
	if err != nil {
		return false, fmt.Errorf("constraint regex %q: %w", c.source, err)
	}
	return ok, nil
}

// String returns the constraint's source regex.
func (c *Constraint) String() string {
	return c.source
}
