package termin

import "strings"

// SequenceKind identifies the introducer of a SequenceEvent.
type SequenceKind uint8

const (
	SequenceCSI SequenceKind = iota // ESC [
	SequenceOSC                     // ESC ]
	SequenceDCS                     // ESC P
	SequenceAPC                     // ESC _
)

func (k SequenceKind) String() string {
	switch k {
	case SequenceCSI:
		return "CSI"
	case SequenceOSC:
		return "OSC"
	case SequenceDCS:
		return "DCS"
	case SequenceAPC:
		return "APC"
	default:
		return "Unknown"
	}
}

// SequenceEvent is a complete escape sequence that does not describe user
// input: terminal replies such as cursor position reports, device attributes
// and mode reports. Raw holds every byte of the frame including ESC.
type SequenceEvent struct {
	Kind SequenceKind
	Raw  string
}

func (SequenceEvent) isEvent() {}

// body returns the bytes between the introducer and the terminator.
func (e SequenceEvent) body() string {
	if len(e.Raw) < 2 {
		return ""
	}
	s := e.Raw[2:]
	switch e.Kind {
	case SequenceCSI:
		if len(s) > 0 {
			s = s[:len(s)-1]
		}
	default:
		s = strings.TrimSuffix(s, "\x07")
		s = strings.TrimSuffix(s, "\x1b\\")
	}
	return s
}

// Final returns the final byte of a CSI sequence, or 0 for other kinds.
func (e SequenceEvent) Final() byte {
	if e.Kind != SequenceCSI || len(e.Raw) < 3 {
		return 0
	}
	return e.Raw[len(e.Raw)-1]
}

// Private returns the private marker ('?', '<', '=' or '>') that opens the
// parameters of a CSI sequence, or 0 when there is none.
func (e SequenceEvent) Private() byte {
	if e.Kind != SequenceCSI {
		return 0
	}
	b := e.body()
	if len(b) > 0 && b[0] >= '<' && b[0] <= '?' {
		return b[0]
	}
	return 0
}

// Params returns the numeric parameters of a CSI sequence. Empty parameters
// are reported as zero; sub-parameters after ':' are dropped.
func (e SequenceEvent) Params() []int {
	if e.Kind != SequenceCSI {
		return nil
	}
	b := e.body()
	if e.Private() != 0 {
		b = b[1:]
	}
	if i := strings.IndexFunc(b, func(r rune) bool { return r < '0' || r > ';' }); i >= 0 {
		b = b[:i]
	}
	if b == "" {
		return nil
	}
	var params []int
	for _, field := range strings.Split(b, ";") {
		if i := strings.IndexByte(field, ':'); i >= 0 {
			field = field[:i]
		}
		params = append(params, atoiClamped(field))
	}
	return params
}

// Data returns the payload of an OSC, DCS or APC string.
func (e SequenceEvent) Data() string {
	if e.Kind == SequenceCSI {
		return ""
	}
	return e.body()
}

// CursorPosition interprets the sequence as a cursor position report
// (CSI row ; col R). The returned coordinates are zero-based.
func (e SequenceEvent) CursorPosition() (row, col uint16, ok bool) {
	if e.Final() != 'R' || e.Private() != 0 {
		return 0, 0, false
	}
	params := e.Params()
	if len(params) != 2 {
		return 0, 0, false
	}
	r, rok := NewOneBased(clampUint16(params[0]))
	c, cok := NewOneBased(clampUint16(params[1]))
	if !rok || !cok {
		return 0, 0, false
	}
	return r.ZeroBased(), c.ZeroBased(), true
}

func atoiClamped(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int(c-'0')
		if n > 1<<24 {
			return 1 << 24
		}
	}
	return n
}

func clampUint16(n int) uint16 {
	switch {
	case n < 0:
		return 0
	case n > 0xFFFF:
		return 0xFFFF
	}
	return uint16(n)
}
