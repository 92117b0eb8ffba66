package calc

// Engine owns one calculator State and its History.
//
// It is not safe for concurrent use; hosts serialize input (one token at a time) the way a single
// keyboard does.
type Engine struct {
	state   State
	history History

	onRecord func(Record)
	onError  func()
}

func NewEngine() *Engine {
	return &Engine{state: Initial()}
}

// OnRecord installs a hook called after each completed operation is added to the history.
func (e *Engine) OnRecord(fn func(Record)) { e.onRecord = fn }

// OnError installs a hook called after each division by zero.
func (e *Engine) OnError(fn func()) { e.onError = fn }

func (e *Engine) State() State         { return e.state }
func (e *Engine) Display() string      { return e.state.Display }
func (e *Engine) PreviousLine() string { return e.state.PreviousLine() }

// History returns the formatted log, newest first.
func (e *Engine) History() []string { return e.history.Lines() }

// Records returns the log, newest first.
func (e *Engine) Records() []Record { return e.history.Records() }

func (e *Engine) InputDigit(d byte)          { e.Press(DigitToken(d)) }
func (e *Engine) InputDecimalPoint()         { e.Press(DecimalPointToken) }
func (e *Engine) ChooseOperator(op Operator) { e.Press(OperatorToken(op)) }
func (e *Engine) Equals()                    { e.Press(EqualsToken) }
func (e *Engine) ClearAll()                  { e.Press(ClearAllToken) }
func (e *Engine) ClearEntry()                { e.Press(ClearEntryToken) }

// Press applies one token.
func (e *Engine) Press(tok Token) {
	next, out := Step(e.state, tok)
	e.state = next
	if out.Completed {
		e.history.Add(out.Record)
		if e.onRecord != nil {
			e.onRecord(out.Record)
		}
	}
	if out.DivByZero && e.onError != nil {
		e.onError()
	}
}

// PressAll applies toks in order.
func (e *Engine) PressAll(toks []Token) {
	for _, tok := range toks {
		e.Press(tok)
	}
}
