package core

import (
	"testing"
	"time"
)

func TestEventSystem(t *testing.T) {
	es := NewEventSystem()
	a, b := new(int), new(int)
	var calls []string

	handler := func(name string, handled bool) FnOnEvent {
		return func(code SystemEventCode, sender, listenerInst interface{}, data EventContext) bool {
			calls = append(calls, name+":"+data.Data.C[0])
			return handled
		}
	}
	if !es.Register(EVENT_CODE_RESOURCE_CHANGED, a, handler("a", false)) {
		t.Fatal("register a")
	}
	if es.Register(EVENT_CODE_RESOURCE_CHANGED, a, handler("a", false)) {
		t.Error("a listener registers once per code")
	}
	es.Register(EVENT_CODE_RESOURCE_CHANGED, b, handler("b", true))
	es.Register(EVENT_CODE_RESOURCE_CHANGED, nil, handler("c", false))

	ctx := EventContext{}
	ctx.Data.C[0] = "wall"
	if !es.Fire(EVENT_CODE_RESOURCE_CHANGED, nil, ctx) {
		t.Error("b handles the event")
	}
	if len(calls) != 2 || calls[0] != "a:wall" || calls[1] != "b:wall" {
		t.Errorf("unexpected calls %v", calls)
	}

	if !es.Unregister(EVENT_CODE_RESOURCE_CHANGED, b) {
		t.Error("unregister b")
	}
	if es.Unregister(EVENT_CODE_RESOURCE_CHANGED, b) {
		t.Error("b is already gone")
	}
	calls = nil
	if es.Fire(EVENT_CODE_RESOURCE_CHANGED, nil, ctx) {
		t.Error("nobody handles the event any more")
	}
	if len(calls) != 2 {
		t.Errorf("unexpected calls %v", calls)
	}

	es.Shutdown()
	calls = nil
	es.Fire(EVENT_CODE_RESOURCE_CHANGED, nil, ctx)
	if len(calls) != 0 {
		t.Error("shutdown drops registrations")
	}
}

func TestNextHashCode(t *testing.T) {
	a, b := NextHashCode(), NextHashCode()
	if b <= a {
		t.Errorf("hash codes must increase: %d then %d", a, b)
	}
}

func TestClock(t *testing.T) {
	c := NewClock()
	c.Update()
	if c.Elapsed() != 0 {
		t.Error("a clock that is not started does not advance")
	}
	c.Start()
	time.Sleep(2 * time.Millisecond)
	c.Update()
	if c.Elapsed() <= 0 {
		t.Error("a started clock advances")
	}
	c.Stop()
	e := c.Elapsed()
	c.Update()
	if c.Elapsed() != e {
		t.Error("a stopped clock keeps its elapsed time")
	}
}

func TestFrameStats(t *testing.T) {
	s := NewFrameStats()
	for i := 0; i < int(AVG_COUNT); i++ {
		s.Update(20 * time.Millisecond)
	}
	if got := s.FrameTime(); got < 19.99 || got > 20.01 {
		t.Errorf("frame time: got %v", got)
	}
	for i := 0; i < 30; i++ {
		s.Update(20 * time.Millisecond)
	}
	if s.FPS() < 49 || s.FPS() > 51 {
		t.Errorf("fps: got %v", s.FPS())
	}
}

func TestSetLogLevel(t *testing.T) {
	if err := SetLogLevel("debug"); err != nil {
		t.Error(err)
	}
	if err := SetLogLevel("loud"); err == nil {
		t.Error("unknown levels must be reported")
	}
	SetLogLevel("info")
}
