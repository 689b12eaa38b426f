package logfields

import (
	"errors"
	"log/slog"
	"testing"
	"time"
)

// TestHelperKeyNames verifies string-based helper key/value stability.
func TestHelperKeyNames(t *testing.T) {
	cases := []struct {
		name    string
		attrKey string
		attrVal string
		attr    slog.Attr
	}{
		{"BuildID", KeyBuildID, "b1", BuildID("b1")},
		{"Trigger", KeyTrigger, "watch", Trigger("watch")},
		{"Kind", KeyKind, "document", Kind("document")},
		{"Path", KeyPath, "/tmp/x", Path("/tmp/x")},
		{"File", KeyFile, "a.mdx", File("a.mdx")},
		{"Output", KeyOutput, "/tmp/out", Output("/tmp/out")},
		{"Hook", KeyHook, "OnHostStart", Hook("OnHostStart")},
		{"URL", KeyURL, "http://localhost:3000", URL("http://localhost:3000")},
		{"Method", KeyMethod, "GET", Method("GET")},
		{"RemoteAddr", KeyRemoteAddr, "1.2.3.4", RemoteAddr("1.2.3.4")},
		{"UserAgent", KeyUserAgent, "ua", UserAgent("ua")},
	}

	for _, tc := range cases {
		if tc.attr.Key != tc.attrKey {
			// Key drift would break log ingestion schemas.
			t.Fatalf("%s: expected key %s, got %s", tc.name, tc.attrKey, tc.attr.Key)
		}
		if got := tc.attr.Value.String(); got != tc.attrVal {
			t.Fatalf("%s: expected value %s, got %v", tc.name, tc.attrVal, got)
		}
	}
}

func TestNumericHelpers(t *testing.T) {
	if v := Port(3000); v.Key != KeyPort || v.Value.Int64() != 3000 {
		t.Fatalf("Port mismatch: %v", v)
	}
	if v := Status(404); v.Key != KeyStatus {
		t.Fatalf("Status key mismatch: %s", v.Key)
	}
	if v := Count(3); v.Key != KeyCount {
		t.Fatalf("Count key mismatch: %s", v.Key)
	}
	if v := Duration(1500 * time.Microsecond); v.Value.Float64() != 1.5 {
		t.Fatalf("Duration value mismatch: %v", v.Value)
	}
}

func TestErrorHelper(t *testing.T) {
	attr := Error(nil)
	if attr.Key != KeyError || attr.Value.String() != "" {
		t.Fatalf("unexpected nil error attr: %v", attr)
	}
	attr = Error(errors.New("err-test"))
	if attr.Value.String() != "err-test" {
		t.Fatalf("expected 'err-test', got %s", attr.Value.String())
	}
}
