package types

import "testing"

func TestNewTransportPropertiesDefaults(t *testing.T) {
	p := NewTransportProperties()
	if p.Reliability != Require {
		t.Errorf("Reliability = %v, want Require", p.Reliability)
	}
	if p.PreserveOrder != Require {
		t.Errorf("PreserveOrder = %v, want Require", p.PreserveOrder)
	}
	if p.CongestionControl != Require {
		t.Errorf("CongestionControl = %v, want Require", p.CongestionControl)
	}
	if p.Direction != Bidirectional {
		t.Errorf("Direction = %v, want Bidirectional", p.Direction)
	}
	if p.ConnTimeout != 30 {
		t.Errorf("ConnTimeout = %v, want 30", p.ConnTimeout)
	}
}

func TestTransportPropertiesMergeOverridesOnlyNonDefault(t *testing.T) {
	base := NewTransportProperties()
	over := TransportProperties{
		PreserveMsgBoundaries: Require,
		ZeroRTT:               Prefer,
	}
	merged := base.Merge(over)

	if merged.Reliability != Require {
		t.Errorf("expected base Reliability to survive merge, got %v", merged.Reliability)
	}
	if merged.PreserveMsgBoundaries != Require {
		t.Errorf("expected PreserveMsgBoundaries overridden to Require, got %v", merged.PreserveMsgBoundaries)
	}
	if merged.ZeroRTT != Prefer {
		t.Errorf("expected ZeroRTT overridden to Prefer, got %v", merged.ZeroRTT)
	}
	if merged.ConnTimeout != base.ConnTimeout {
		t.Errorf("expected ConnTimeout to survive merge (over.ConnTimeout is zero), got %v", merged.ConnTimeout)
	}
}

func TestTransportPropertiesMergeDirectionAndMultipath(t *testing.T) {
	base := NewTransportProperties()
	over := TransportProperties{
		Direction:     SendOnly,
		MultipathMode: MultipathActive,
	}
	merged := base.Merge(over)
	if merged.Direction != SendOnly {
		t.Errorf("Direction = %v, want SendOnly", merged.Direction)
	}
	if merged.MultipathMode != MultipathActive {
		t.Errorf("MultipathMode = %v, want MultipathActive", merged.MultipathMode)
	}
}

func TestPreferenceString(t *testing.T) {
	for _, c := range []struct {
		p    Preference
		want string
	}{
		{NoPreference, "noPreference"},
		{Prefer, "prefer"},
		{Require, "require"},
		{Avoid, "avoid"},
		{Prohibit, "prohibit"},
	} {
		if got := c.p.String(); got != c.want {
			t.Errorf("Preference(%d).String() = %q, want %q", c.p, got, c.want)
		}
	}
}
