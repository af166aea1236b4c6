package streaming

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan ChangeEvent) ChangeEvent {
	t.Helper()
	select {
	case got := <-ch:
		return got
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return ChangeEvent{}
	}
}

func assertQuiet(t *testing.T, ch <-chan ChangeEvent) {
	t.Helper()
	select {
	case evt, ok := <-ch:
		if ok {
			t.Fatalf("unexpected event: %+v", evt)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishSubscribe(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, ChangeFilter{})
	require.NoError(t, err)
	defer cancel()

	event := ChangeEvent{
		DocumentID: "doc-1",
		Kind:       KindExecute,
		Command:    "shape.create",
		ElementIDs: []string{"Task_1"},
		At:         time.Now(),
	}
	require.NoError(t, hub.Publish(ctx, event))

	got := receive(t, ch)
	assert.Equal(t, event.DocumentID, got.DocumentID)
	assert.Equal(t, event.Command, got.Command)
	assert.Equal(t, []string{"Task_1"}, got.ElementIDs)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name   string
		filter ChangeFilter
		events []ChangeEvent
		want   []string
	}{
		{
			name:   "by document",
			filter: ChangeFilter{DocumentID: "doc-1"},
			events: []ChangeEvent{
				{DocumentID: "doc-1", Kind: KindExecute, Command: "a"},
				{DocumentID: "doc-2", Kind: KindExecute, Command: "b"},
			},
			want: []string{"a"},
		},
		{
			name:   "by kind",
			filter: ChangeFilter{Kinds: []string{KindUndo, KindRedo}},
			events: []ChangeEvent{
				{DocumentID: "doc-1", Kind: KindUndo, Command: "a"},
				{DocumentID: "doc-1", Kind: KindExecute, Command: "b"},
				{DocumentID: "doc-2", Kind: KindRedo, Command: "c"},
			},
			want: []string{"a", "c"},
		},
		{
			name:   "document and kind",
			filter: ChangeFilter{DocumentID: "doc-1", Kinds: []string{KindSave}},
			events: []ChangeEvent{
				{DocumentID: "doc-1", Kind: KindSave, Command: "a"},
				{DocumentID: "doc-2", Kind: KindSave, Command: "b"},
				{DocumentID: "doc-1", Kind: KindImport, Command: "c"},
			},
			want: []string{"a"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewMemoryHub()
			ctx := context.Background()
			ch, cancel, err := hub.Subscribe(ctx, tt.filter)
			require.NoError(t, err)
			defer cancel()

			for _, e := range tt.events {
				require.NoError(t, hub.Publish(ctx, e))
			}
			var got []string
			for range tt.want {
				got = append(got, receive(t, ch).Command)
			}
			assert.Equal(t, tt.want, got)
			assertQuiet(t, ch)
		})
	}
}

func TestMultipleSubscribers(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch1, cancel1, err := hub.Subscribe(ctx, ChangeFilter{})
	require.NoError(t, err)
	defer cancel1()
	ch2, cancel2, err := hub.Subscribe(ctx, ChangeFilter{})
	require.NoError(t, err)
	defer cancel2()

	require.NoError(t, hub.Publish(ctx, ChangeEvent{DocumentID: "doc-1", Kind: KindImport}))
	for _, ch := range []<-chan ChangeEvent{ch1, ch2} {
		assert.Equal(t, KindImport, receive(t, ch).Kind)
	}
	assert.Equal(t, 2, hub.Subscribers())
}

func TestCancelSubscription(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, ChangeFilter{})
	require.NoError(t, err)
	cancel()
	cancel()

	require.NoError(t, hub.Publish(ctx, ChangeEvent{DocumentID: "doc-1", Kind: KindExecute}))
	_, open := <-ch
	assert.False(t, open)
	assert.Zero(t, hub.Subscribers())
}

func TestBackpressure(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()

	ch, cancel, err := hub.Subscribe(ctx, ChangeFilter{})
	require.NoError(t, err)
	defer cancel()

	for range defaultChannelBuffer + 10 {
		require.NoError(t, hub.Publish(ctx, ChangeEvent{DocumentID: "doc-1", Kind: KindExecute}))
	}

	drained := 0
	for len(ch) > 0 {
		<-ch
		drained++
	}
	assert.Equal(t, defaultChannelBuffer, drained)
	assert.Equal(t, uint64(10), hub.Dropped())
}

func TestConcurrentAccess(t *testing.T) {
	hub := NewMemoryHub()
	ctx := context.Background()
	const goroutines = 20

	var wg sync.WaitGroup
	for range goroutines {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range 50 {
				_ = hub.Publish(ctx, ChangeEvent{DocumentID: "doc-1", Kind: KindExecute})
			}
		}()
		go func() {
			defer wg.Done()
			ch, cancel, err := hub.Subscribe(ctx, ChangeFilter{})
			if err != nil {
				return
			}
			for range 5 {
				select {
				case <-ch:
				case <-time.After(10 * time.Millisecond):
				}
			}
			cancel()
		}()
	}
	wg.Wait()
	assert.Zero(t, hub.Subscribers())
}

func TestCancelledContext(t *testing.T) {
	hub := NewMemoryHub()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, hub.Publish(ctx, ChangeEvent{}), context.Canceled)
	_, _, err := hub.Subscribe(ctx, ChangeFilter{})
	assert.ErrorIs(t, err, context.Canceled)
}
