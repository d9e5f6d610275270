package types

import (
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"
)

// IsTimeout reports whether err represents a timed-out operation, checked
// via the standard net.Error.Timeout() contract plus context.DeadlineExceeded.
func IsTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}

// IsRefused reports whether err represents a connection actively refused by
// the peer (e.g. ECONNREFUSED), the strongest "the path works but nobody's
// listening" signal the racer can use ahead of a bare timeout.
func IsRefused(err error) bool {
	var se *net.OpError
	if errors.As(err, &se) {
		return strings.Contains(se.Err.Error(), "refused")
	}
	return strings.Contains(err.Error(), "refused")
}

// IsAuthFailure reports whether err represents a TLS/certificate failure.
// The racer ranks this above connection-refused and timeout, since it
// implies the path and peer were reachable but authentication was rejected.
func IsAuthFailure(err error) bool {
	var ce *tls.CertificateVerificationError
	if errors.As(err, &ce) {
		return true
	}
	var re tls.RecordHeaderError
	if errors.As(err, &re) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "tls:") || strings.Contains(msg, "certificate") || strings.Contains(msg, "x509:")
}
