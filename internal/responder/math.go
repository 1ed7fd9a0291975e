package responder

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"regexp"
	"strconv"
	"strings"
)

var (
	simpleRe   = regexp.MustCompile(`(?:^|[^a-z\d.])(-?\d+)\s*([+\-x*/])\s*(-?\d+)`)
	powerRe    = regexp.MustCompile(`(\d+)\s*(\^|to the power of)\s*(\d+)`)
	sqrtRe     = regexp.MustCompile(`(square root|sqrt|what is the root of)\s*(?:of\s*)?(\d+)`)
	generalRe  = regexp.MustCompile(`(?:what is|solve|calculate)\s+(.+)$`)
	pureExprRe = regexp.MustCompile(`^(?:[\d\s.()+\-*/x^]|sqrt)+$`)
	implicitX  = regexp.MustCompile(`([\d)])\s*x\s*([\d(])`)
	letterRe   = regexp.MustCompile(`[a-z]`)
	digitRe    = regexp.MustCompile(`\d`)
)

const (
	replyLetters    = "I only process numerical math expressions. Please remove any letters."
	replyDivZero    = "Dividing by zero is undefined, so there is no answer to give."
	replyNonFinite  = "That expression resulted in an infinite or non-numeric value. I cannot compute it."
	replyBadSyntax  = "I recognize that as a multi-step equation, but a syntax error or complexity prevents me from solving it."
	exprOperatorSet = "+-*/^()x"
)

// mathReply answers arithmetic found in the lowercased text t. ok is false
// when t holds no arithmetic.
func mathReply(t string) (string, bool) {
	if r, ok := simple(t); ok {
		return r, true
	}
	if r, ok := power(t); ok {
		return r, true
	}
	if r, ok := root(t); ok {
		return r, true
	}
	return general(t)
}

// partOfLarger reports whether the match t[start:end] continues into a
// longer expression, in which case the general evaluator must handle it.
func partOfLarger(t string, start, end int) bool {
	before := strings.TrimRight(t[:start], " \t")
	after := strings.TrimLeft(t[end:], " \t")
	if before != "" && strings.ContainsAny(before[len(before)-1:], "+-*/^(.0123456789") {
		return true
	}
	if after != "" && strings.ContainsAny(after[:1], "+-*/^x).0123456789") {
		return true
	}
	return false
}

func simple(t string) (string, bool) {
	loc := simpleRe.FindStringSubmatchIndex(t)
	if loc == nil || partOfLarger(t, loc[2], loc[1]) || followedByLetter(t, loc[1]) {
		return "", false
	}
	as, op, bs := t[loc[2]:loc[3]], t[loc[4]:loc[5]], t[loc[6]:loc[7]]
	a, _ := new(big.Int).SetString(as, 10)
	b, _ := new(big.Int).SetString(bs, 10)

	var res string
	switch op {
	case "+":
		res = new(big.Int).Add(a, b).String()
	case "-":
		res = new(big.Int).Sub(a, b).String()
	case "x", "*":
		res = new(big.Int).Mul(a, b).String()
	case "/":
		if b.Sign() == 0 {
			return replyDivZero, true
		}
		q, _ := new(big.Rat).SetFrac(a, b).Float64()
		res = formatNumber(q)
	}
	return fmt.Sprintf("The result of %s %s %s is: %s", a, op, b, res), true
}

func followedByLetter(t string, end int) bool {
	return end < len(t) && t[end] >= 'a' && t[end] <= 'z'
}

func root(t string) (string, bool) {
	loc := sqrtRe.FindStringSubmatchIndex(t)
	if loc == nil || partOfLarger(t, loc[0], loc[1]) {
		return "", false
	}
	n, _ := strconv.ParseFloat(t[loc[4]:loc[5]], 64)
	return fmt.Sprintf("The square root of %s is: %s", t[loc[4]:loc[5]], formatNumber(math.Sqrt(n))), true
}

func power(t string) (string, bool) {
	loc := powerRe.FindStringSubmatchIndex(t)
	if loc == nil || partOfLarger(t, loc[0], loc[1]) {
		return "", false
	}
	base, _ := strconv.ParseFloat(t[loc[2]:loc[3]], 64)
	exp, _ := strconv.ParseFloat(t[loc[6]:loc[7]], 64)
	res := math.Pow(base, exp)
	if math.IsInf(res, 0) || math.IsNaN(res) {
		return replyNonFinite, true
	}
	return fmt.Sprintf("%s raised to the power of %s is: %s", formatNumber(base), formatNumber(exp), formatNumber(res)), true
}

func general(t string) (string, bool) {
	var expr string
	if m := generalRe.FindStringSubmatch(t); m != nil {
		expr = m[1]
	} else if pureExprRe.MatchString(t) {
		expr = t
	} else {
		return "", false
	}
	expr = strings.TrimSpace(strings.TrimRight(expr, "?=! "))
	if !digitRe.MatchString(expr) || !strings.ContainsAny(expr, exprOperatorSet) {
		return "", false
	}

	// "3x4" and "(2)x(5)" mean multiplication.
	for implicitX.MatchString(expr) {
		expr = implicitX.ReplaceAllString(expr, "$1*$2")
	}
	if letterRe.MatchString(strings.ReplaceAll(expr, sqrtToken, "")) {
		return replyLetters, true
	}

	v, err := Eval(expr)
	switch {
	case errors.Is(err, ErrDivideByZero):
		return replyDivZero, true
	case err != nil:
		return replyBadSyntax, true
	case math.IsInf(v, 0) || math.IsNaN(v):
		return replyNonFinite, true
	}
	return fmt.Sprintf("Solving the expression (%s): %s", expr, formatNumber(round6(v))), true
}

func round6(v float64) float64 {
	r := math.Round(v*1e6) / 1e6
	if math.IsInf(r, 0) || math.IsNaN(r) {
		return v
	}
	return r
}

func formatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
