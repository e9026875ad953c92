package state

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

func TestNewDefaults(t *testing.T) {
	s := New()

	tests := []struct {
		key  Key
		want any
	}{
		{KeySearchNodeHighlighted, false},
		{KeySearchSidebarPanel, (*Panel)(nil)},
		{KeyNodeSidebarPanel, (*Panel)(nil)},
		{KeyGraphOverviewSidebarPanel, (*Panel)(nil)},
		{KeySelectedSidebar, ""},
	}
	for _, tt := range tests {
		got, err := s.Get(tt.key)
		if err != nil {
			t.Fatalf("Get(%s) error: %v", tt.key, err)
		}
		if got != tt.want {
			t.Errorf("Get(%s) = %#v, want %#v", tt.key, got, tt.want)
		}
	}
	if len(Keys()) != len(tests) {
		t.Errorf("Keys() = %d keys, want %d", len(Keys()), len(tests))
	}
}

func TestSetThenGet(t *testing.T) {
	s := New()
	panel := &Panel{ID: "p1", Title: "Search"}

	tests := []struct {
		key   Key
		value any
	}{
		{KeySearchNodeHighlighted, true},
		{KeySelectedSidebar, "search"},
		{KeySearchSidebarPanel, panel},
		{KeyNodeSidebarPanel, panel},
		{KeyGraphOverviewSidebarPanel, panel},
	}
	for _, tt := range tests {
		t.Run(string(tt.key), func(t *testing.T) {
			if err := s.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set() error: %v", err)
			}
			got, err := s.Get(tt.key)
			if err != nil {
				t.Fatalf("Get() error: %v", err)
			}
			if got != tt.value {
				t.Errorf("Get() = %#v, want %#v", got, tt.value)
			}
		})
	}
}

func TestSetNilPanel(t *testing.T) {
	s := New()
	if err := s.Set(KeyNodeSidebarPanel, &Panel{ID: "x"}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if err := s.Set(KeyNodeSidebarPanel, nil); err != nil {
		t.Fatalf("Set(nil) error: %v", err)
	}
	p, err := s.Panel(KeyNodeSidebarPanel)
	if err != nil {
		t.Fatalf("Panel() error: %v", err)
	}
	if p != nil {
		t.Errorf("Panel() = %v, want nil", p)
	}
}

func TestSubscriberCalledWithValue(t *testing.T) {
	s := New()
	var calls []any
	if _, err := s.Subscribe(KeySelectedSidebar, func(v any) error {
		calls = append(calls, v)
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	if err := s.Set(KeySelectedSidebar, "search"); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if len(calls) != 1 || calls[0] != "search" {
		t.Fatalf("calls = %v, want [search]", calls)
	}
	if got := s.SelectedSidebar(); got != "search" {
		t.Errorf("SelectedSidebar() = %q, want %q", got, "search")
	}
}

func TestSubscribersInRegistrationOrder(t *testing.T) {
	s := New()
	var order []string
	for _, name := range []string{"first", "second", "third"} {
		if _, err := s.Subscribe(KeySearchNodeHighlighted, func(v any) error {
			if v != true {
				t.Errorf("%s got %v, want true", name, v)
			}
			order = append(order, name)
			return nil
		}); err != nil {
			t.Fatalf("Subscribe() error: %v", err)
		}
	}

	if err := s.Set(KeySearchNodeHighlighted, true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	want := []string{"first", "second", "third"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("order[%d] = %q, want %q", i, order[i], want[i])
		}
	}
}

func TestSetSameValueNotifiesEveryTime(t *testing.T) {
	s := New()
	count := 0
	if _, err := s.Subscribe(KeySelectedSidebar, func(any) error {
		count++
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	for range 2 {
		if err := s.Set(KeySelectedSidebar, "node"); err != nil {
			t.Fatalf("Set() error: %v", err)
		}
	}
	if count != 2 {
		t.Errorf("listener called %d times, want 2", count)
	}
}

func TestSetWithoutSubscribers(t *testing.T) {
	s := New()
	if err := s.Set(KeySearchNodeHighlighted, true); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if !s.SearchHighlighted() {
		t.Error("SearchHighlighted() = false, want true")
	}
}

func TestOnlyKeySubscribersNotified(t *testing.T) {
	s := New()
	called := false
	if _, err := s.Subscribe(KeyNodeSidebarPanel, func(any) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if err := s.Set(KeySearchSidebarPanel, &Panel{}); err != nil {
		t.Fatalf("Set() error: %v", err)
	}
	if called {
		t.Error("listener for another key was called")
	}
}

func TestInvalidKey(t *testing.T) {
	s := New()
	before := s.Snapshot()

	if err := s.Set("bogus", true); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Set() error = %v, want ErrInvalidKey", err)
	}
	if _, err := s.Get("bogus"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Get() error = %v, want ErrInvalidKey", err)
	}
	sub, err := s.Subscribe("bogus", func(any) error { return nil })
	if !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Subscribe() error = %v, want ErrInvalidKey", err)
	}
	if sub != nil {
		t.Error("Subscribe() returned a handle for an invalid key")
	}

	after := s.Snapshot()
	if len(after) != len(before) {
		t.Fatalf("snapshot size changed: %d -> %d", len(before), len(after))
	}
	for k, v := range before {
		if after[k] != v {
			t.Errorf("%s changed: %#v -> %#v", k, v, after[k])
		}
	}
}

func TestInvalidValueDoesNotMutate(t *testing.T) {
	s := New()
	called := false
	if _, err := s.Subscribe(KeySearchNodeHighlighted, func(any) error {
		called = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	tests := []struct {
		key   Key
		value any
	}{
		{KeySearchNodeHighlighted, "yes"},
		{KeySelectedSidebar, 42},
		{KeyNodeSidebarPanel, "panel"},
		{KeySelectedSidebar, nil},
	}
	for _, tt := range tests {
		if err := s.Set(tt.key, tt.value); !errors.Is(err, ErrInvalidValue) {
			t.Errorf("Set(%s, %#v) error = %v, want ErrInvalidValue", tt.key, tt.value, err)
		}
	}
	if called {
		t.Error("listener called for rejected value")
	}
	if s.SearchHighlighted() {
		t.Error("value mutated by rejected Set")
	}
}

func TestFailingListenerStopsNotification(t *testing.T) {
	s := New()
	boom := errors.New("boom")
	secondCalled := false

	if _, err := s.Subscribe(KeyNodeSidebarPanel, func(any) error { return boom }); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if _, err := s.Subscribe(KeyNodeSidebarPanel, func(any) error {
		secondCalled = true
		return nil
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	panel := &Panel{ID: "n1"}
	err := s.Set(KeyNodeSidebarPanel, panel)
	if !errors.Is(err, boom) {
		t.Fatalf("Set() error = %v, want wrapped boom", err)
	}
	if secondCalled {
		t.Error("second listener called after first failed")
	}
	// The write happens before notification.
	got, _ := s.Panel(KeyNodeSidebarPanel)
	if got != panel {
		t.Errorf("Panel() = %v, want %v", got, panel)
	}
}

func TestUnsubscribe(t *testing.T) {
	s := New()
	var a, b int
	subA, err := s.Subscribe(KeySelectedSidebar, func(any) error { a++; return nil })
	if err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if _, err := s.Subscribe(KeySelectedSidebar, func(any) error { b++; return nil }); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}

	_ = s.SelectSidebar("search")
	subA.Unsubscribe()
	subA.Unsubscribe()
	_ = s.SelectSidebar("node")

	if a != 1 {
		t.Errorf("unsubscribed listener called %d times, want 1", a)
	}
	if b != 2 {
		t.Errorf("remaining listener called %d times, want 2", b)
	}
}

func TestUnsubscribeDuringNotification(t *testing.T) {
	s := New()
	var second int
	var sub *Subscription
	sub, _ = s.Subscribe(KeySelectedSidebar, func(any) error {
		sub.Unsubscribe()
		return nil
	})
	_, _ = s.Subscribe(KeySelectedSidebar, func(any) error { second++; return nil })

	_ = s.SelectSidebar("a")
	_ = s.SelectSidebar("b")

	if second != 2 {
		t.Errorf("second listener called %d times, want 2", second)
	}
}

func TestUnsubscribeOtherDuringNotification(t *testing.T) {
	s := New()
	var calls []string
	var b *Subscription
	_, _ = s.Subscribe(KeySelectedSidebar, func(any) error {
		calls = append(calls, "a")
		b.Unsubscribe()
		return nil
	})
	b, _ = s.Subscribe(KeySelectedSidebar, func(any) error {
		calls = append(calls, "b")
		return nil
	})
	_, _ = s.Subscribe(KeySelectedSidebar, func(any) error {
		calls = append(calls, "c")
		return nil
	})

	if err := s.SelectSidebar("x"); err != nil {
		t.Fatalf("SelectSidebar() error: %v", err)
	}
	if got := strings.Join(calls, ","); got != "a,c" {
		t.Errorf("calls = %s, want a,c", got)
	}
}

func TestLogValue(t *testing.T) {
	s := New()
	_ = s.SetPanel(KeyNodeSidebarPanel, &Panel{ID: "libfoo"})
	_ = s.SelectSidebar(SidebarNode)

	var buf bytes.Buffer
	slog.New(slog.NewTextHandler(&buf, nil)).Info("state", "store", s)
	out := buf.String()
	for _, want := range []string{
		"store.isSearchNodeHighlighted=false",
		"store.nodeSidebarPanel=libfoo",
		"store.selectedSidebar=node",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q missing %q", out, want)
		}
	}
}

func TestListenerMayReenterStore(t *testing.T) {
	s := New()
	if _, err := s.Subscribe(KeySelectedSidebar, func(v any) error {
		return s.SetSearchHighlighted(v == SidebarSearch)
	}); err != nil {
		t.Fatalf("Subscribe() error: %v", err)
	}
	if err := s.SelectSidebar(SidebarSearch); err != nil {
		t.Fatalf("SelectSidebar() error: %v", err)
	}
	if !s.SearchHighlighted() {
		t.Error("re-entrant Set from listener did not apply")
	}
}

func TestPanelRejectsNonPanelKey(t *testing.T) {
	s := New()
	if _, err := s.Panel(KeySelectedSidebar); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("Panel() error = %v, want ErrInvalidKey", err)
	}
	if err := s.SetPanel(KeySearchNodeHighlighted, nil); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("SetPanel() error = %v, want ErrInvalidKey", err)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	s := New()
	var mu sync.Mutex
	notified := 0
	_, _ = s.Subscribe(KeySearchNodeHighlighted, func(any) error {
		mu.Lock()
		notified++
		mu.Unlock()
		return nil
	})

	var wg sync.WaitGroup
	for i := range 100 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = s.SetSearchHighlighted(i%2 == 0)
		}()
		go func() {
			defer wg.Done()
			_ = s.SearchHighlighted()
			_ = s.Snapshot()
		}()
	}
	wg.Wait()

	if notified != 100 {
		t.Errorf("notified %d times, want 100", notified)
	}
}
