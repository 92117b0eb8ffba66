package calc

import "strings"

// ErrorDisplay is shown after a division by zero.
const ErrorDisplay = "Error"

// State is the complete calculator state.
//
// Invariants: Display is never empty and holds at most one decimal point; PendingOperator != OpNone
// implies PendingOperand != "".
type State struct {
	// Display is the operand being entered, the last result, or ErrorDisplay.
	Display string
	// PendingOperand is the left operand captured when an operator was chosen ("" = none).
	PendingOperand string
	// PendingOperator is applied when the right operand is complete.
	PendingOperator Operator
	// AwaitingFreshInput makes the next digit replace Display instead of extending it.
	AwaitingFreshInput bool
}

// Initial returns the idle state.
func Initial() State {
	return State{Display: "0"}
}

// Phase names where a State sits in the input cycle.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseAccumulating
	PhaseAwaitingOperand
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseAccumulating:
		return "accumulating"
	case PhaseAwaitingOperand:
		return "awaiting_operand"
	case PhaseError:
		return "error"
	default:
		return "unknown"
	}
}

// Phase classifies s. A result shown after equals counts as an accumulated operand: it can be
// used as the left operand of the next operator.
func (s State) Phase() Phase {
	switch {
	case s.Display == ErrorDisplay:
		return PhaseError
	case s.PendingOperator != OpNone && s.AwaitingFreshInput:
		return PhaseAwaitingOperand
	case s.PendingOperator == OpNone && !s.AwaitingFreshInput && s.Display == "0":
		return PhaseIdle
	default:
		return PhaseAccumulating
	}
}

// PreviousLine returns "<operand> <op>" while an operator is pending, otherwise "".
func (s State) PreviousLine() string {
	if s.PendingOperator == OpNone || s.PendingOperand == "" {
		return ""
	}
	return s.PendingOperand + " " + s.PendingOperator.String()
}

// Outcome reports the side effects of an operator or equals step.
type Outcome struct {
	// Record is valid when Completed is set.
	Record    Record
	Completed bool
	DivByZero bool
}

// InputDigit handles a digit key d ('0'..'9'). Other bytes leave s unchanged.
func InputDigit(s State, d byte) State {
	if d < '0' || d > '9' {
		return s
	}
	switch {
	case s.AwaitingFreshInput || s.Display == ErrorDisplay:
		s.Display = string(d)
		s.AwaitingFreshInput = false
	case s.Display == "0":
		s.Display = string(d)
	default:
		s.Display += string(d)
	}
	return s
}

// InputDecimalPoint handles the '.' key.
func InputDecimalPoint(s State) State {
	if s.AwaitingFreshInput || s.Display == ErrorDisplay {
		s.Display = "0."
		s.AwaitingFreshInput = false
		return s
	}
	if strings.IndexByte(s.Display, '.') >= 0 {
		return s
	}
	s.Display += "."
	return s
}

// ChooseOperator stores op as the pending operator. A pending operation is folded first, so
// evaluation runs strictly left to right. An error display is captured like any other operand
// and evaluates to NaN.
func ChooseOperator(s State, op Operator) (State, Outcome) {
	if op == OpNone {
		return s, Outcome{}
	}
	if s.PendingOperand == "" {
		s.PendingOperand = s.Display
		s.PendingOperator = op
		s.AwaitingFreshInput = true
		return s, Outcome{}
	}

	next, out := apply(s)
	if out.DivByZero {
		return next, out
	}
	next.PendingOperand = next.Display
	next.PendingOperator = op
	next.AwaitingFreshInput = true
	return next, out
}

// Equals completes the pending operation, if any.
func Equals(s State) (State, Outcome) {
	if s.PendingOperator == OpNone {
		return s, Outcome{}
	}
	next, out := apply(s)
	next.PendingOperand = ""
	next.PendingOperator = OpNone
	next.AwaitingFreshInput = true
	return next, out
}

// ClearAll returns to the idle state. History lives outside State and is kept.
func ClearAll(State) State {
	return Initial()
}

// ClearEntry resets only the display.
func ClearEntry(s State) State {
	s.Display = "0"
	return s
}

func apply(s State) (State, Outcome) {
	if s.PendingOperator == OpNone {
		return s, Outcome{}
	}
	left := parseOperand(s.PendingOperand)
	right := parseOperand(s.Display)
	if s.PendingOperator == OpDiv && right == 0 {
		return State{Display: ErrorDisplay, AwaitingFreshInput: true}, Outcome{DivByZero: true}
	}

	result := FormatNumber(s.PendingOperator.eval(left, right))
	rec := Record{
		Left:   s.PendingOperand,
		Op:     s.PendingOperator,
		Right:  s.Display,
		Result: result,
	}
	s.Display = result
	return s, Outcome{Record: rec, Completed: true}
}

// Step applies one token to s.
func Step(s State, tok Token) (State, Outcome) {
	switch tok.Kind {
	case TokenDigit:
		return InputDigit(s, tok.Digit), Outcome{}
	case TokenDecimalPoint:
		return InputDecimalPoint(s), Outcome{}
	case TokenOperator:
		return ChooseOperator(s, tok.Op)
	case TokenEquals:
		return Equals(s)
	case TokenClearAll:
		return ClearAll(s), Outcome{}
	case TokenClearEntry:
		return ClearEntry(s), Outcome{}
	default:
		return s, Outcome{}
	}
}
