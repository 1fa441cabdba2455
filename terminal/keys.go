// @focus: #sys { io } #input { keys }
package terminal

// Key is a decoded user command
type Key uint8

const (
	KeyNone Key = iota
	KeyQuit
	KeyNext
	KeyPrev
)

func (k Key) String() string {
	switch k {
	case KeyQuit:
		return "quit"
	case KeyNext:
		return "next"
	case KeyPrev:
		return "prev"
	default:
		return "none"
	}
}

// ParseKeys decodes one read worth of raw input and calls emit for every recognised key.
// Unrecognised bytes and escape sequences are skipped.
func ParseKeys(data []byte, emit func(Key)) {
	for i := 0; i < len(data); i++ {
		b := data[i]
		switch b {
		case 0x03, 'q', 'Q': // Ctrl+C
			emit(KeyQuit)
		case ' ', 'n', 'l', '\r':
			emit(KeyNext)
		case 'p', 'h', 0x7f:
			emit(KeyPrev)
		case 0x1b:
			n, k := parseEscape(data[i:])
			if k != KeyNone {
				emit(k)
			}
			i += n - 1
		}
	}
}

// parseEscape returns bytes consumed and the decoded key for a sequence starting at ESC
func parseEscape(data []byte) (int, Key) {
	if len(data) == 1 {
		// Standalone ESC
		return 1, KeyQuit
	}

	switch data[1] {
	case '[':
		// CSI: parameters until a final byte in 0x40-0x7e
		for j := 2; j < len(data); j++ {
			if data[j] >= 0x40 && data[j] <= 0x7e {
				return j + 1, arrowKey(data[j])
			}
		}
		return len(data), KeyNone
	case 'O':
		// SS3
		if len(data) < 3 {
			return len(data), KeyNone
		}
		return 3, arrowKey(data[2])
	case 0x1b:
		// ESC ESC: first one stands alone
		return 1, KeyQuit
	default:
		// Alt+key
		return 2, KeyNone
	}
}

func arrowKey(final byte) Key {
	switch final {
	case 'C', 'B':
		return KeyNext
	case 'D', 'A':
		return KeyPrev
	}
	return KeyNone
}
