// builtins.go - the standard elementwise, pairwise, and reduce function
// library, grounded in original_source's element_wise.rs operation list.
package graph

import (
	"math"
	"strconv"
)

// Unary elementwise functions. Each WGSL body mutates `data` in place;
// each Go closure is the reference evaluator softwaregpu runs instead.

func Abs() ElementWiseFunction {
	return NewElementWiseFunction("abs", "data = abs(data);", math.Abs)
}

func Neg() ElementWiseFunction {
	return NewElementWiseFunction("neg", "data = -data;", func(v float64) float64 { return -v })
}

func Exp() ElementWiseFunction {
	return NewElementWiseFunction("exp", "data = exp(data);", math.Exp)
}

func Exp2() ElementWiseFunction {
	return NewElementWiseFunction("exp2", "data = exp2(data);", math.Exp2)
}

func Log() ElementWiseFunction {
	return NewElementWiseFunction("log", "data = log(data);", math.Log)
}

func Log2() ElementWiseFunction {
	return NewElementWiseFunction("log2", "data = log2(data);", math.Log2)
}

func Sqrt() ElementWiseFunction {
	return NewElementWiseFunction("sqrt", "data = sqrt(data);", math.Sqrt)
}

func Sin() ElementWiseFunction {
	return NewElementWiseFunction("sin", "data = sin(data);", math.Sin)
}

func Cos() ElementWiseFunction {
	return NewElementWiseFunction("cos", "data = cos(data);", math.Cos)
}

func Tan() ElementWiseFunction {
	return NewElementWiseFunction("tan", "data = tan(data);", math.Tan)
}

func Asin() ElementWiseFunction {
	return NewElementWiseFunction("asin", "data = asin(data);", math.Asin)
}

func Acos() ElementWiseFunction {
	return NewElementWiseFunction("acos", "data = acos(data);", math.Acos)
}

func Atan() ElementWiseFunction {
	return NewElementWiseFunction("atan", "data = atan(data);", math.Atan)
}

func Sinh() ElementWiseFunction {
	return NewElementWiseFunction("sinh", "data = sinh(data);", math.Sinh)
}

func Cosh() ElementWiseFunction {
	return NewElementWiseFunction("cosh", "data = cosh(data);", math.Cosh)
}

func Tanh() ElementWiseFunction {
	return NewElementWiseFunction("tanh", "data = tanh(data);", math.Tanh)
}

func Asinh() ElementWiseFunction {
	return NewElementWiseFunction("asinh", "data = asinh(data);", math.Asinh)
}

func Acosh() ElementWiseFunction {
	return NewElementWiseFunction("acosh", "data = acosh(data);", math.Acosh)
}

func Atanh() ElementWiseFunction {
	return NewElementWiseFunction("atanh", "data = atanh(data);", math.Atanh)
}

// AddConst, SubConst, MulConst, DivConst are the constant-operand
// elementwise forms of the binary arithmetic ops (a PairWise against a
// literal is not worth a graph node).
func AddConst(c float64) ElementWiseFunction {
	return NewElementWiseFunction("add_const", wgslConstOp("+", c), func(v float64) float64 { return v + c })
}

func SubConst(c float64) ElementWiseFunction {
	return NewElementWiseFunction("sub_const", wgslConstOp("-", c), func(v float64) float64 { return v - c })
}

func MulConst(c float64) ElementWiseFunction {
	return NewElementWiseFunction("mul_const", wgslConstOp("*", c), func(v float64) float64 { return v * c })
}

func DivConst(c float64) ElementWiseFunction {
	return NewElementWiseFunction("div_const", wgslConstOp("/", c), func(v float64) float64 { return v / c })
}

func wgslConstOp(op string, c float64) string {
	return "data = data " + op + " " + formatConst(c) + ";"
}

func formatConst(c float64) string {
	return strconv.FormatFloat(c, 'g', -1, 64)
}

// Binary (PairWise) functions, operating on `a` and `b`.

func Add() BinaryFunction {
	return NewBinaryFunction("add", "data = a + b;", func(a, b float64) float64 { return a + b })
}

func Sub() BinaryFunction {
	return NewBinaryFunction("sub", "data = a - b;", func(a, b float64) float64 { return a - b })
}

func Mul() BinaryFunction {
	return NewBinaryFunction("mul", "data = a * b;", func(a, b float64) float64 { return a * b })
}

func Div() BinaryFunction {
	return NewBinaryFunction("div", "data = a / b;", func(a, b float64) float64 { return a / b })
}

func Min() BinaryFunction {
	return NewBinaryFunction("min", "data = min(a, b);", math.Min)
}

func Max() BinaryFunction {
	return NewBinaryFunction("max", "data = max(a, b);", math.Max)
}

func Pow() BinaryFunction {
	return NewBinaryFunction("pow", "data = pow(a, b);", math.Pow)
}

// Reduce functions, folding `acc` with `data` over the reduced axis.

func Sum() ReduceFunction {
	return NewReduceFunction("sum", "acc = acc + data;", 0, func(acc, data float64) float64 { return acc + data })
}

func Product() ReduceFunction {
	return NewReduceFunction("product", "acc = acc * data;", 1, func(acc, data float64) float64 { return acc * data })
}

func ReduceMin() ReduceFunction {
	return NewReduceFunction("reduce_min", "acc = min(acc, data);", math.Inf(1), math.Min)
}

func ReduceMax() ReduceFunction {
	return NewReduceFunction("reduce_max", "acc = max(acc, data);", math.Inf(-1), math.Max)
}
