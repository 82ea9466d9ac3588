package notification

import (
	"errors"
	"strings"

	"github.com/Knetic/govaluate"
)

// Condition is a compiled announce filter. The zero value accepts
// everything.
type Condition struct {
	source string
	expr   *govaluate.EvaluableExpression
}

// ParseCondition compiles expression. Empty, "true" and "false" are
// accepted as literals.
func ParseCondition(expression string) (*Condition, error) {
	cond := strings.TrimSpace(expression)
	c := &Condition{source: cond}
	switch strings.ToLower(cond) {
	case "", "true", "false":
		return c, nil
	}
	expr, err := govaluate.NewEvaluableExpression(cond)
	if err != nil {
		return nil, err
	}
	c.expr = expr
	return c, nil
}

// String returns the source expression.
func (c *Condition) String() string {
	if c == nil {
		return ""
	}
	return c.source
}

// Evaluate runs the condition against params. Nested maps are also
// reachable through dotted keys such as "project.unit".
func (c *Condition) Evaluate(params map[string]interface{}) (bool, error) {
	if c == nil {
		return true, nil
	}
	switch strings.ToLower(c.source) {
	case "", "true":
		return true, nil
	case "false":
		return false, nil
	}
	flat := map[string]interface{}{}
	for k, v := range params {
		flat[k] = v
	}
	flattenParams("", params, flat)
	result, err := c.expr.Evaluate(flat)
	if err != nil {
		return false, err
	}
	v, ok := result.(bool)
	if !ok {
		return false, errors.New("condition did not evaluate to boolean")
	}
	return v, nil
}

func flattenParams(prefix string, m map[string]interface{}, out map[string]interface{}) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch vv := v.(type) {
		case map[string]interface{}:
			flattenParams(key, vv, out)
		default:
			out[key] = vv
		}
	}
}
