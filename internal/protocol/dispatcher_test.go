package protocol

import (
	"fmt"
	"testing"
)

func TestDispatcherRoutesRecognizedEvents(t *testing.T) {
	var got []Event
	d := &Dispatcher{OnEvent: func(ev Event) { got = append(got, ev) }}

	d.HandleFrame([]byte(`{"type":"message","id":"m1","content":"hi","userId":"u2"}`))
	d.HandleFrame([]byte(`{"type":"alert","product_id":"sku-1","current_stock":2,"threshold":5}`))

	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Kind() != KindChatMessage || got[1].Kind() != KindInventoryAlert {
		t.Errorf("unexpected kinds: %s, %s", got[0].Kind(), got[1].Kind())
	}
}

func TestDispatcherSurvivesMalformedFrames(t *testing.T) {
	var events int
	var parseErrs int
	d := &Dispatcher{
		OnEvent: func(Event) { events++ },
		OnError: func(*ParseError) { parseErrs++ },
	}

	frames := [][]byte{
		[]byte(`{"type":"message","id":"m1"}`),
		[]byte(`not json at all`),
		[]byte(`{"no":"type"}`),
		[]byte(`{"type":"message","id":"m2"}`),
		nil,
	}
	for _, f := range frames {
		// must never panic out of the frame handler
		d.HandleFrame(f)
	}

	if events != 2 {
		t.Errorf("expected 2 dispatched events, got %d", events)
	}
	if parseErrs != 3 {
		t.Errorf("expected 3 parse errors, got %d", parseErrs)
	}
}

func TestDispatcherForwardsUnknownTypes(t *testing.T) {
	var unknown []Unknown
	var all []Event
	d := &Dispatcher{
		OnEvent:   func(ev Event) { all = append(all, ev) },
		OnUnknown: func(u Unknown) { unknown = append(unknown, u) },
	}

	d.HandleFrame([]byte(`{"type":"flash_sale","pct":20}`))

	if len(unknown) != 1 || unknown[0].Type != "flash_sale" {
		t.Fatalf("expected unknown event forwarded, got %v", unknown)
	}
	if len(all) != 1 {
		t.Errorf("expected unknown to also flow through OnEvent, got %d", len(all))
	}
}

func TestDispatcherDetectsSequenceGaps(t *testing.T) {
	d := &Dispatcher{OnEvent: func(Event) {}}

	for _, seq := range []int64{1, 2, 3} {
		d.HandleFrame([]byte(fmt.Sprintf(`{"type":"message","id":"m%d","seq":%d}`, seq, seq)))
	}
	if d.Gaps() != 0 {
		t.Fatalf("expected no gaps on contiguous seq, got %d", d.Gaps())
	}

	d.HandleFrame([]byte(`{"type":"message","id":"m7","seq":7}`))
	if d.Gaps() != 1 {
		t.Errorf("expected 1 gap after jump 3->7, got %d", d.Gaps())
	}

	// frames without seq never count as gaps
	d.HandleFrame([]byte(`{"type":"message","id":"m8"}`))
	if d.Gaps() != 1 {
		t.Errorf("expected gaps unchanged, got %d", d.Gaps())
	}
}

func TestDispatcherResetSeqRebaselinesAfterReconnect(t *testing.T) {
	d := &Dispatcher{OnEvent: func(Event) {}}

	for _, seq := range []int64{5, 6} {
		d.HandleFrame([]byte(fmt.Sprintf(`{"type":"message","id":"m%d","seq":%d}`, seq, seq)))
	}

	// server restarts its counter on a fresh connection
	d.ResetSeq()
	d.HandleFrame([]byte(`{"type":"message","id":"n1","seq":1}`))
	if d.Gaps() != 0 {
		t.Fatalf("restarted counter must not look like a gap, got %d", d.Gaps())
	}

	// tracking resumes from the new baseline
	d.HandleFrame([]byte(`{"type":"message","id":"n4","seq":4}`))
	if d.Gaps() != 1 {
		t.Errorf("expected 1 gap after jump 1->4 post reset, got %d", d.Gaps())
	}
}
