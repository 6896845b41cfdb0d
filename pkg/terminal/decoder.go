package terminal

import (
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/Veraticus/past-midnight/pkg/input"
)

// maxPending bounds an unterminated escape sequence kept across reads.
const maxPending = 64

// Decoder turns raw terminal bytes into input events. Escape sequences split across reads are
// buffered until complete. Focus reports and mouse button releases produce no events.
type Decoder struct {
	pending []byte
}

// Feed decodes data and returns the events it completes, stamped with now.
func (d *Decoder) Feed(data []byte, now time.Time) []input.Event {
	buf := append(d.pending, data...)
	d.pending = nil

	var events []input.Event
	emitKey := func(key string) {
		events = append(events, input.Event{Kind: input.KeyPress, Time: now, Key: key})
	}

	i := 0
	for i < len(buf) {
		b := buf[i]
		switch {
		case b == 0x1b:
			if i+1 >= len(buf) {
				emitKey("esc")
				i++
				continue
			}
			switch buf[i+1] {
			case '[':
				j := i + 2
				for j < len(buf) && (buf[j] < 0x40 || buf[j] > 0x7e) {
					j++
				}
				if j >= len(buf) {
					d.keep(buf[i:])
					return events
				}
				if ev, ok := parseCSI(string(buf[i+2:j+1]), now); ok {
					events = append(events, ev)
				}
				i = j + 1
			case 'O':
				if i+2 >= len(buf) {
					d.keep(buf[i:])
					return events
				}
				emitKey(ss3Key(buf[i+2]))
				i += 3
			case 0x1b:
				emitKey("esc")
				i++
			default:
				r, size := utf8.DecodeRune(buf[i+1:])
				emitKey("alt+" + string(r))
				i += 1 + size
			}
		case b < 0x20 || b == 0x7f:
			emitKey(controlKey(b))
			i++
		default:
			if !utf8.FullRune(buf[i:]) {
				d.keep(buf[i:])
				return events
			}
			r, size := utf8.DecodeRune(buf[i:])
			emitKey(string(r))
			i += size
		}
	}
	return events
}

func (d *Decoder) keep(rest []byte) {
	if len(rest) > maxPending {
		return
	}
	d.pending = append([]byte(nil), rest...)
}

// parseCSI decodes the body of a CSI sequence (everything after "ESC [").
func parseCSI(seq string, now time.Time) (input.Event, bool) {
	final := seq[len(seq)-1]
	params := seq[:len(seq)-1]

	if strings.HasPrefix(params, "<") && (final == 'M' || final == 'm') {
		return parseSGRMouse(params[1:], final == 'M', now)
	}

	key := ""
	switch final {
	case 'I', 'O':
		// Focus in/out.
		return input.Event{}, false
	case 'A':
		key = "up"
	case 'B':
		key = "down"
	case 'C':
		key = "right"
	case 'D':
		key = "left"
	case 'H':
		key = "home"
	case 'F':
		key = "end"
	case 'Z':
		key = "shift+tab"
	case '~':
		switch strings.SplitN(params, ";", 2)[0] {
		case "2":
			key = "insert"
		case "3":
			key = "delete"
		case "5":
			key = "pgup"
		case "6":
			key = "pgdown"
		default:
			key = "f" + params
		}
	default:
		key = "csi+" + string(final)
	}
	return input.Event{Kind: input.KeyPress, Time: now, Key: key}, true
}

// parseSGRMouse decodes "b;x;y" of an SGR mouse report. Coordinates are 1-based on the wire.
func parseSGRMouse(params string, press bool, now time.Time) (input.Event, bool) {
	parts := strings.Split(params, ";")
	if len(parts) != 3 {
		return input.Event{}, false
	}
	btn, err1 := strconv.Atoi(parts[0])
	x, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return input.Event{}, false
	}

	ev := input.Event{Time: now, X: x - 1, Y: y - 1}
	switch {
	case btn&64 != 0:
		ev.Kind = input.Scroll
	case btn&32 != 0:
		ev.Kind = input.PointerMove
	case !press:
		return input.Event{}, false
	default:
		ev.Kind = input.PointerPress
	}
	return ev, true
}

func ss3Key(b byte) string {
	switch b {
	case 'A':
		return "up"
	case 'B':
		return "down"
	case 'C':
		return "right"
	case 'D':
		return "left"
	case 'P':
		return "f1"
	case 'Q':
		return "f2"
	case 'R':
		return "f3"
	case 'S':
		return "f4"
	default:
		return "ss3+" + string(b)
	}
}

func controlKey(b byte) string {
	switch b {
	case '\r', '\n':
		return "enter"
	case '\t':
		return "tab"
	case 0x7f, 0x08:
		return "backspace"
	case 0x00:
		return "ctrl+space"
	default:
		return "ctrl+" + string(rune('a'+b-1))
	}
}
