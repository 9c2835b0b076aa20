package tools

import (
	"context"
	"fmt"
	"strconv"

	"github.com/davitran/finsight/internal/log"
)

// ArithmeticInput is the argument object for the arithmetic tool.
type ArithmeticInput struct {
	Op string  `json:"op" jsonschema:"the operation to perform: add, subtract, multiply or divide"`
	A  float64 `json:"a" jsonschema:"the first operand"`
	B  float64 `json:"b" jsonschema:"the second operand"`
}

// NewArithmeticTool creates the calculator tool.
func NewArithmeticTool(logger log.Logger) (*ExecutableTool, error) {
	if logger == nil {
		logger = log.NewNop()
	}
	return NewTool(
		"arithmetic_tool",
		"Perform basic arithmetic on two numbers. Use this for any calculation involving numbers, e.g. position sizing, percentage returns or currency conversion.",
		func(_ context.Context, input ArithmeticInput) (string, error) {
			value, err := applyOp(input.Op, input.A, input.B)
			if err != nil {
				logger.Warn("arithmetic failed", "op", input.Op, "error", err)
				return fmt.Sprintf("Error: %v", err), nil
			}
			return strconv.FormatFloat(value, 'g', -1, 64), nil
		},
	)
}

func applyOp(op string, a, b float64) (float64, error) {
	switch op {
	case "add":
		return a + b, nil
	case "subtract":
		return a - b, nil
	case "multiply":
		return a * b, nil
	case "divide":
		if b == 0 {
			return 0, fmt.Errorf("division by zero")
		}
		return a / b, nil
	default:
		return 0, fmt.Errorf("unknown operation %q", op)
	}
}
