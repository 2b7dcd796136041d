package status

import (
	"strings"
	"testing"
)

func TestFeedTracksMountLifecycle(t *testing.T) {
	f := New()
	f.RecordMountAttached("MOUNT1")
	f.RecordConsumerCount("MOUNT1", 2)
	f.RecordFrameRelayed("MOUNT1")
	f.RecordFrameRelayed("MOUNT1")
	f.RecordFrameDropped("MOUNT1")

	out := string(f.Status())
	if !strings.Contains(out, "MOUNT1: producer=true consumers=2 relayed=2 dropped=1") {
		t.Fatalf("unexpected status output: %q", out)
	}

	f.RecordMountDetached("MOUNT1")
	out = string(f.Status())
	if strings.Contains(out, "MOUNT1") {
		t.Fatalf("expected MOUNT1 to be gone after detach: %q", out)
	}
}

func TestFeedStatusListsMountsSorted(t *testing.T) {
	f := New()
	f.RecordMountAttached("ZEBRA")
	f.RecordMountAttached("ALPHA")

	out := string(f.Status())
	if strings.Index(out, "ALPHA") > strings.Index(out, "ZEBRA") {
		t.Fatalf("expected ALPHA before ZEBRA in sorted output: %q", out)
	}
}

func TestSetLogLevel(t *testing.T) {
	f := New()
	f.SetLogLevel(0)
	if f.verbose {
		t.Fatalf("expected verbose=false after SetLogLevel(0)")
	}
	f.SetLogLevel(1)
	if !f.verbose {
		t.Fatalf("expected verbose=true after SetLogLevel(1)")
	}
}
