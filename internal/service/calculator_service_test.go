package service

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/papervault/papervault-api/pkg/errors"
)

func TestCalculatorServiceEvaluate(t *testing.T) {
	svc := NewCalculatorService(nil)

	cases := []struct {
		expr string
		want float64
	}{
		{"1 + 2", 3},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-3 + 5", 2},
		{"2 ^ 3 ^ 2", 512},
		{"2 * pi", 2 * math.Pi},
		{"sqrt(16)", 4},
		{"abs(-7.5)", 7.5},
		{"log(1000)", 3},
		{"ln(e)", 1},
		{"sin(0)", 0},
		{"cos(0) + tan(0)", 1},
	}
	for _, tc := range cases {
		res, err := svc.Evaluate(CalculateRequest{Expression: tc.expr})
		require.NoError(t, err, tc.expr)
		assert.InDelta(t, tc.want, res.Result, 1e-9, tc.expr)
	}
}

func TestCalculatorServiceEvaluateErrors(t *testing.T) {
	svc := NewCalculatorService(nil)

	bad := []string{
		"",
		"1 +",
		"(2 + 3",
		"2 $ 3",
		"1 / 0",
		"sqrt(-1)",
		"log(0)",
		"foo(3)",
		"unknown",
	}
	for _, expr := range bad {
		_, err := svc.Evaluate(CalculateRequest{Expression: expr})
		require.Error(t, err, expr)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code, expr)
	}
}
