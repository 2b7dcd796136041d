// Package status provides the optional HTTP status/diagnostics page for a
// running Caster, on a separate listener/port from the NTRIP traffic
// itself (per SPEC_FULL.md §4.9, which keeps diagnostics off the NTRIP
// port). It is grounded on apps/proxy/reportfeed/reportfeed.go's
// ReportFeedT implementation and apps/proxy/tcpprox.go's makeReporter,
// adapted from reporting raw client/server hex dumps to reporting the
// caster's per-mountpoint connection counts.
package status

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	reporter "github.com/goblimey/go-tools/statusreporter"
)

// MountStats summarizes one mountpoint's current state.
type MountStats struct {
	Name          string
	HasProducer   bool
	ConsumerCount int
	FramesRelayed uint64
	FramesDropped uint64
}

// Feed accumulates caster statistics and renders them as a status page,
// implementing statusreporter.ReportFeedT the way ReportFeed does in
// apps/proxy/reportfeed/reportfeed.go.
type Feed struct {
	mu      sync.Mutex
	mounts  map[string]*MountStats
	verbose bool
}

var _ reporter.ReportFeedT = (*Feed)(nil)

// New creates an empty Feed.
func New() *Feed {
	return &Feed{mounts: make(map[string]*MountStats)}
}

// SetLogLevel satisfies the ReportFeedT interface: level 0 is quiet,
// anything else is verbose.
func (f *Feed) SetLogLevel(level uint8) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verbose = level != 0
}

// RecordMountAttached registers a mountpoint entering the PRODUCING state.
func (f *Feed) RecordMountAttached(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mounts[name] = &MountStats{Name: name, HasProducer: true}
}

// RecordMountDetached removes a mountpoint's entry when its producer drops.
func (f *Feed) RecordMountDetached(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.mounts, name)
}

// RecordConsumerCount updates the live consumer count for a mountpoint.
func (f *Feed) RecordConsumerCount(name string, count int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.mounts[name]; ok {
		m.ConsumerCount = count
	}
}

// RecordFrameRelayed increments the relayed-frame counter for a mountpoint.
func (f *Feed) RecordFrameRelayed(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.mounts[name]; ok {
		m.FramesRelayed++
	}
}

// RecordFrameDropped increments the dropped-frame counter for a mountpoint.
func (f *Feed) RecordFrameDropped(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := f.mounts[name]; ok {
		m.FramesDropped++
	}
}

// Status satisfies the ReportFeedT interface: a human-readable text
// summary of every active mountpoint.
func (f *Feed) Status() []byte {
	f.mu.Lock()
	defer f.mu.Unlock()

	names := make([]string, 0, len(f.mounts))
	for name := range f.mounts {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	fmt.Fprintf(&b, "caster status: %d active mount(s)\n\n", len(names))
	for _, name := range names {
		m := f.mounts[name]
		fmt.Fprintf(&b, "%s: producer=%v consumers=%d relayed=%d dropped=%d\n",
			m.Name, m.HasProducer, m.ConsumerCount, m.FramesRelayed, m.FramesDropped)
	}
	return []byte(b.String())
}

// Serve starts the status HTTP service on host:port and blocks until the
// process exits, the way apps/proxy/tcpprox.go's makeReporter starts
// reporter.MakeReporter(...).StartService() in a goroutine.
func Serve(feed *Feed, host string, port int) {
	svc := reporter.MakeReporter(feed, host, port)
	svc.SetUseTextTemplates(true)
	svc.StartService()
}
