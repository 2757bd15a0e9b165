// Package termin reads terminal input as events.
//
// It decodes ANSI/VT input bytes on unix and console input records on
// Windows into one event model: keys, mouse, focus, resize, bracketed paste
// and raw terminal replies. Reads can be bounded by a timeout and
// interrupted from another goroutine with a Waker.
//
// The terminal must already be in raw mode. Enabling mouse capture, focus
// reporting, bracketed paste or the kitty keyboard protocol is left to the
// caller.
//
// Typical use:
//
//	r, err := termin.Open(os.Stdin)
//	if err != nil {
//		return err
//	}
//	defer r.Close()
//
//	for {
//		ev, err := r.Read(termin.AnyEvent)
//		if err != nil {
//			return err
//		}
//		if key, ok := ev.(termin.KeyEvent); ok && key.Is(termin.KeyEscape) {
//			return nil
//		}
//	}
package termin
