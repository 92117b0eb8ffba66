package proto

// AppID identifies a foreground app managed by the focus service.
type AppID uint8

const (
	AppNone AppID = 0
	AppCalc AppID = 1
	AppTape AppID = 2
)

func (id AppID) String() string {
	switch id {
	case AppCalc:
		return "calc"
	case AppTape:
		return "tape"
	default:
		return "none"
	}
}

// AppSelectPayload encodes an app selection request.
//
// Payload format:
//
//	b[0]   : AppID
//	b[1:]  : optional UTF-8 argument (app-defined)
func AppSelectPayload(id AppID, arg string) []byte {
	b := make([]byte, 1, 1+len(arg))
	b[0] = byte(id)
	b = append(b, []byte(arg)...)
	return b
}

func DecodeAppSelectPayload(b []byte) (id AppID, arg string, ok bool) {
	if len(b) < 1 {
		return 0, "", false
	}
	return AppID(b[0]), string(b[1:]), true
}
