package calc

// HistoryLimit is the number of completed operations kept, newest first.
const HistoryLimit = 5

// Record is one completed binary operation.
type Record struct {
	Left   string
	Op     Operator
	Right  string
	Result string
}

func (r Record) String() string {
	return r.Left + " " + r.Op.String() + " " + r.Right + " = " + r.Result
}

// History is the bounded operation log. The zero value is empty and ready to use.
type History struct {
	entries []Record
}

// Add prepends r and evicts the oldest entry past HistoryLimit.
func (h *History) Add(r Record) {
	if len(h.entries) < HistoryLimit {
		h.entries = append(h.entries, Record{})
	}
	copy(h.entries[1:], h.entries[:len(h.entries)-1])
	h.entries[0] = r
}

func (h *History) Len() int { return len(h.entries) }

// Records returns a copy of the log, newest first.
func (h *History) Records() []Record {
	out := make([]Record, len(h.entries))
	copy(out, h.entries)
	return out
}

// Lines returns the log formatted as "<left> <op> <right> = <result>", newest first.
func (h *History) Lines() []string {
	out := make([]string, len(h.entries))
	for i, r := range h.entries {
		out[i] = r.String()
	}
	return out
}
