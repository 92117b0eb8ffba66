package proto

import "unicode/utf8"

// TapeEntryKind tags a line printed on the tape.
type TapeEntryKind uint8

const (
	TapeRecord TapeEntryKind = iota + 1
	TapeError
)

// TapeRecordPayload encodes a MsgTapeRecord payload.
//
// Payload format:
//
//	b[0]  : TapeEntryKind
//	b[1:] : UTF-8 line
//
// A line that does not fit in max bytes keeps its tail, where the result is, behind a
// leading '<'.
func TapeRecordPayload(kind TapeEntryKind, line string, max int) []byte {
	if max > 0 && 1+len(line) > max {
		line = clipRecord(line, max-1)
	}
	b := make([]byte, 1, 1+len(line))
	b[0] = byte(kind)
	return append(b, line...)
}

func DecodeTapeRecordPayload(b []byte) (kind TapeEntryKind, line string, ok bool) {
	if len(b) < 1 {
		return 0, "", false
	}
	kind = TapeEntryKind(b[0])
	if kind != TapeRecord && kind != TapeError {
		return 0, "", false
	}
	return kind, string(b[1:]), true
}

func clipRecord(line string, n int) string {
	if n <= 1 {
		return "<"[:n]
	}
	start := len(line) - (n - 1)
	for start < len(line) && !utf8.RuneStart(line[start]) {
		start++
	}
	return "<" + line[start:]
}
