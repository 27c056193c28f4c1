package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

func drain[T any](sub *Subscription[T]) []T {
	var out []T
	for {
		v, ok := sub.TryRecv()
		if !ok {
			return out
		}
		out = append(out, v)
	}
}

func TestCell_ReplayCurrentValue(t *testing.T) {
	c := NewCell("a")
	c.Set("b")

	sub := c.Subscribe()
	defer sub.Close()

	got := drain(sub)
	if len(got) != 1 || got[0] != "b" {
		t.Errorf("got %v, want [b]", got)
	}
}

func TestCell_SetNotifiesInOrder(t *testing.T) {
	c := NewCell(0)
	sub := c.Subscribe()
	defer sub.Close()

	for i := 1; i <= 5; i++ {
		c.Set(i)
	}

	got := drain(sub)
	want := []int{0, 1, 2, 3, 4, 5}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("got[%d] = %d, want %d", i, got[i], want[i])
		}
	}
	if c.Get() != 5 {
		t.Errorf("Get() = %d, want 5", c.Get())
	}
}

func TestCell_CloseIsIndependent(t *testing.T) {
	c := NewCell(0)
	a := c.Subscribe()
	b := c.Subscribe()
	defer b.Close()

	if c.Subscribers() != 2 {
		t.Fatalf("Subscribers() = %d, want 2", c.Subscribers())
	}

	a.Close()
	a.Close() // idempotent

	c.Set(1)

	if c.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", c.Subscribers())
	}
	if got := drain(a); len(got) != 1 {
		t.Errorf("closed subscriber got %v, want only the replay", got)
	}
	if got := drain(b); len(got) != 2 || got[1] != 1 {
		t.Errorf("live subscriber got %v, want [0 1]", got)
	}
	if c.Get() != 1 {
		t.Errorf("Get() = %d, want 1", c.Get())
	}
}

func TestCell_UpdateChangeGated(t *testing.T) {
	c := NewCell(10)
	sub := c.Subscribe()
	defer sub.Close()
	drain(sub)

	same := func(v int) (int, bool) { return v, false }
	if c.Update(same) {
		t.Error("Update reported change for unchanged value")
	}
	if sub.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", sub.Pending())
	}

	inc := func(v int) (int, bool) { return v + 1, true }
	if !c.Update(inc) {
		t.Error("Update reported no change")
	}
	if got := drain(sub); len(got) != 1 || got[0] != 11 {
		t.Errorf("got %v, want [11]", got)
	}
}

func TestCell_Retire(t *testing.T) {
	c := NewCell("live")
	sub := c.Subscribe()
	c.Set("last")
	c.Retire()

	if c.Set("ignored") {
		t.Error("Set on retired cell reported success")
	}
	if c.Get() != "last" {
		t.Errorf("Get() = %q, want %q", c.Get(), "last")
	}

	select {
	case <-sub.Done():
	default:
		t.Fatal("subscription not ended after Retire")
	}

	ctx := context.Background()
	for _, want := range []string{"live", "last"} {
		v, err := sub.Recv(ctx)
		if err != nil {
			t.Fatalf("Recv() error = %v", err)
		}
		if v != want {
			t.Errorf("Recv() = %q, want %q", v, want)
		}
	}
	if _, err := sub.Recv(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("Recv() error = %v, want ErrClosed", err)
	}

	late := c.Subscribe()
	if got := drain(late); len(got) != 1 || got[0] != "last" {
		t.Errorf("late subscriber got %v, want [last]", got)
	}
	if _, err := late.Recv(ctx); !errors.Is(err, ErrClosed) {
		t.Errorf("late Recv() error = %v, want ErrClosed", err)
	}
}

func TestSubscription_RecvBlocksUntilSet(t *testing.T) {
	c := NewCell(0)
	sub := c.Subscribe()
	defer sub.Close()
	drain(sub)

	go func() {
		time.Sleep(20 * time.Millisecond)
		c.Set(42)
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	v, err := sub.Recv(ctx)
	if err != nil {
		t.Fatalf("Recv() error = %v", err)
	}
	if v != 42 {
		t.Errorf("Recv() = %d, want 42", v)
	}
}

func TestSubscription_RecvContextCancel(t *testing.T) {
	c := NewCell(0)
	sub := c.Subscribe()
	defer sub.Close()
	drain(sub)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if _, err := sub.Recv(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Recv() error = %v, want DeadlineExceeded", err)
	}
}

func TestSubscription_SlowReaderKeepsLatest(t *testing.T) {
	c := NewCell(0, WithQueueCapacity(1), WithQueueLimit(2))
	sub := c.Subscribe()
	defer sub.Close()

	for i := 1; i <= 10; i++ {
		c.Set(i)
	}

	got := drain(sub)
	if len(got) != 2 || got[1] != 10 {
		t.Errorf("got %v, want last two values ending in 10", got)
	}
	if sub.Dropped() != 9 {
		t.Errorf("Dropped() = %d, want 9", sub.Dropped())
	}
}

func TestSubscription_UniqueIDs(t *testing.T) {
	c := NewCell(0)
	a, b := c.Subscribe(), c.Subscribe()
	defer a.Close()
	defer b.Close()

	if a.ID() == b.ID() {
		t.Error("subscriptions share an id")
	}
}

func TestCell_UnsubscribeByID(t *testing.T) {
	c := NewCell(0)
	a, b := c.Subscribe(), c.Subscribe()
	defer b.Close()

	tests := []struct {
		name string
		id   uuid.UUID
		want bool
	}{
		{"live subscription", a.ID(), true},
		{"already removed", a.ID(), false},
		{"unknown id", uuid.New(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Unsubscribe(tt.id); got != tt.want {
				t.Errorf("Unsubscribe() = %v, want %v", got, tt.want)
			}
		})
	}

	select {
	case <-a.Done():
	default:
		t.Error("unsubscribed subscription not ended")
	}
	c.Set(1)
	if got := drain(b); len(got) != 2 || got[1] != 1 {
		t.Errorf("remaining subscriber got %v, want [0 1]", got)
	}
	if c.Subscribers() != 1 {
		t.Errorf("Subscribers() = %d, want 1", c.Subscribers())
	}
}

func TestCell_ChurnKeepsSubscriptionOrder(t *testing.T) {
	c := NewCell(0)
	keep := c.Subscribe()
	defer keep.Close()

	for i := 0; i < 50; i++ {
		c.Subscribe().Close()
	}
	last := c.Subscribe()
	defer last.Close()

	if c.Subscribers() != 2 {
		t.Fatalf("Subscribers() = %d, want 2", c.Subscribers())
	}
	c.Set(7)
	for _, sub := range []*Subscription[int]{keep, last} {
		got := drain(sub)
		if len(got) == 0 || got[len(got)-1] != 7 {
			t.Errorf("subscriber %s got %v, want last value 7", sub.ID(), got)
		}
	}
}

func TestCell_ConcurrentSetSubscribe(t *testing.T) {
	c := NewCell(0, WithQueueLimit(0))

	const writers = 4
	const perWriter = 250

	var wg sync.WaitGroup
	subs := make(chan *Subscription[int], 16)

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 16; i++ {
			subs <- c.Subscribe()
		}
		close(subs)
	}()

	for w := 0; w < writers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				c.Update(func(v int) (int, bool) { return v + 1, true })
			}
		}()
	}

	wg.Wait()

	if c.Get() != writers*perWriter {
		t.Errorf("Get() = %d, want %d", c.Get(), writers*perWriter)
	}

	// Each subscriber sees a strictly increasing subsequence ending at the final value.
	for sub := range subs {
		got := drain(sub)
		for i := 1; i < len(got); i++ {
			if got[i] <= got[i-1] {
				t.Fatalf("subscriber %s saw %d after %d", sub.ID(), got[i], got[i-1])
			}
		}
		if got[len(got)-1] != writers*perWriter {
			t.Errorf("last value = %d, want %d", got[len(got)-1], writers*perWriter)
		}
		sub.Close()
	}
}
