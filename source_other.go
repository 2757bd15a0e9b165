//go:build !unix && !windows

package termin

import "os"

func newEventSource(in *os.File, cfg *config) (EventSource, error) {
	return nil, ErrUnsupported
}
