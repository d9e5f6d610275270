package types

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"testing"
)

type fakeTimeoutErr struct{}

func (fakeTimeoutErr) Error() string   { return "i/o timeout" }
func (fakeTimeoutErr) Timeout() bool   { return true }
func (fakeTimeoutErr) Temporary() bool { return true }

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(context.DeadlineExceeded) {
		t.Error("context.DeadlineExceeded should be a timeout")
	}
	var ne net.Error = fakeTimeoutErr{}
	if !IsTimeout(ne) {
		t.Error("a net.Error with Timeout()==true should be a timeout")
	}
	if IsTimeout(errors.New("something else")) {
		t.Error("a plain error should not be a timeout")
	}
}

func TestIsRefused(t *testing.T) {
	wrapped := &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connect: connection refused")}
	if !IsRefused(wrapped) {
		t.Error("expected net.OpError wrapping 'refused' to be detected")
	}
	if !IsRefused(fmt.Errorf("dial tcp: connection refused")) {
		t.Error("expected a plain error containing 'refused' to be detected")
	}
	if IsRefused(errors.New("i/o timeout")) {
		t.Error("a timeout error should not be classified as refused")
	}
}

func TestIsAuthFailure(t *testing.T) {
	if !IsAuthFailure(errors.New("tls: handshake failure")) {
		t.Error("expected 'tls:'-prefixed error to be an auth failure")
	}
	if !IsAuthFailure(errors.New("x509: certificate signed by unknown authority")) {
		t.Error("expected x509 error to be an auth failure")
	}
	var rhe tls.RecordHeaderError
	if !IsAuthFailure(rhe) {
		t.Error("expected tls.RecordHeaderError to be an auth failure")
	}
	if IsAuthFailure(errors.New("connection refused")) {
		t.Error("a refused error should not be classified as an auth failure")
	}
}
