package types

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindString(t *testing.T) {
	for _, c := range []struct {
		k    Kind
		want string
	}{
		{KindEstablishmentFailure, "establishmentFailure"},
		{KindSendAfterFinal, "sendAfterFinal"},
		{KindNotSupported, "notSupported"},
		{Kind(999), "unknown"},
	} {
		if got := c.k.String(); got != c.want {
			t.Errorf("Kind(%d).String() = %q, want %q", c.k, got, c.want)
		}
	}
}

func TestErrorMessage(t *testing.T) {
	cause := errors.New("boom")
	e := New(KindSendFailure, "writing frame", cause)
	if got, want := e.Error(), "sendFailure: writing frame: boom"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
	if !errors.Is(e, ErrSendFailure) {
		t.Error("expected errors.Is(e, ErrSendFailure) to match on Kind")
	}
	if errors.Is(e, ErrTimeout) {
		t.Error("did not expect e to match ErrTimeout")
	}
	if errors.Unwrap(e) != cause {
		t.Error("Unwrap should return the wrapped cause")
	}
}

func TestErrorMessageNoCauseNoReason(t *testing.T) {
	e := New(KindTimeout, "", nil)
	if got, want := e.Error(), "timeout"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestNotSupported(t *testing.T) {
	e := NotSupported("no platform adapter")
	if e.Kind != KindNotSupported {
		t.Errorf("NotSupported kind = %v, want %v", e.Kind, KindNotSupported)
	}
	if !errors.Is(e, ErrNotSupported) {
		t.Error("NotSupported result should match ErrNotSupported")
	}
}

func TestNewf(t *testing.T) {
	e := Newf(KindInvalidMessageSize, "message of %d bytes exceeds max %d", 10, 5)
	want := "invalidMessageSize: message of 10 bytes exceeds max 5"
	if got := e.Error(); got != want {
		t.Errorf("Newf error = %q, want %q", got, want)
	}
}

func TestErrorIsDistinguishesWrappedNonError(t *testing.T) {
	e := New(KindTimeout, "x", nil)
	if e.Is(fmt.Errorf("plain error")) {
		t.Error("Is should reject a non-*Error target")
	}
}
