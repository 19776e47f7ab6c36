// Package netutil classifies network failures for send retry decisions.
package netutil

import (
	"errors"
	"net"
	"net/url"
)

// ShouldRetry reports whether err looks like a transient transport
// failure. Timeouts and dial failures qualify; anything the Telegram
// API answered, even with an error, does not.
func ShouldRetry(err error) bool {
	for err != nil {
		switch e := err.(type) {
		case *net.OpError:
			if e.Timeout() || e.Op == "dial" {
				return true
			}
			err = e.Err
			continue
		case *url.Error:
			if e.Timeout() {
				return true
			}
			err = e.Err
			continue
		}

		var netErr net.Error
		if errors.As(err, &netErr) && (netErr.Timeout() || netErr.Temporary()) {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
