package progress

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/target/mmk-interviews/internal/domain/model"
)

func event(step int) model.ProgressEvent {
	return model.NewProgressEvent(step, fmt.Sprintf("step %d", step))
}

func TestRegistry_PublishWithoutSubscriberIsNoop(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	assert.NotPanics(t, func() { r.Publish("missing", event(1)) })
	assert.Equal(t, 0, r.Subscribers())
}

func TestRegistry_DeliversInPublishOrder(t *testing.T) {
	r := NewRegistry(RegistryOptions{HeartbeatInterval: time.Second})
	s := r.Subscribe("s1")
	defer s.Close()

	for i := 1; i <= 4; i++ {
		r.Publish("s1", event(i))
	}

	for i := 1; i <= 4; i++ {
		msg, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.False(t, msg.Heartbeat)
		assert.Equal(t, i, msg.Event.Step)
	}
}

func TestRegistry_HeartbeatWhenIdle(t *testing.T) {
	r := NewRegistry(RegistryOptions{HeartbeatInterval: 20 * time.Millisecond})
	s := r.Subscribe("s1")
	defer s.Close()

	msg, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.True(t, msg.Heartbeat)

	r.Publish("s1", event(1))
	msg, err = s.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, msg.Heartbeat)
	assert.Equal(t, 1, msg.Event.Step)
}

func TestRegistry_NoHeartbeatWhenEventArrivesPromptly(t *testing.T) {
	r := NewRegistry(RegistryOptions{HeartbeatInterval: time.Second})
	s := r.Subscribe("s1")
	defer s.Close()

	go func() {
		time.Sleep(10 * time.Millisecond)
		r.Publish("s1", event(2))
	}()

	msg, err := s.Next(context.Background())
	require.NoError(t, err)
	assert.False(t, msg.Heartbeat)
	assert.Equal(t, 2, msg.Event.Step)
}

func TestStream_NextReturnsOnContextCancel(t *testing.T) {
	r := NewRegistry(RegistryOptions{HeartbeatInterval: time.Minute})
	s := r.Subscribe("s1")
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	_, err := s.Next(ctx)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}

func TestStream_CloseIsIdempotentAndDetaches(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	s := r.Subscribe("s1")
	require.Equal(t, 1, r.Subscribers())

	s.Close()
	s.Close()
	assert.Equal(t, 0, r.Subscribers())

	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, ErrStreamClosed)

	assert.NotPanics(t, func() { r.Publish("s1", event(1)) })
}

func TestRegistry_UnsubscribeThenLatePublish(t *testing.T) {
	r := NewRegistry(RegistryOptions{})
	s := r.Subscribe("s1")
	r.Unsubscribe("s1")
	r.Unsubscribe("s1")

	assert.NotPanics(t, func() { r.Publish("s1", event(3)) })
	_, err := s.Next(context.Background())
	require.ErrorIs(t, err, ErrStreamClosed)
}

func TestRegistry_SubscribeReplacesPreviousObserver(t *testing.T) {
	r := NewRegistry(RegistryOptions{HeartbeatInterval: time.Second})
	first := r.Subscribe("s1")
	second := r.Subscribe("s1")
	defer second.Close()

	_, err := first.Next(context.Background())
	require.ErrorIs(t, err, ErrStreamClosed)

	// closing the replaced stream must not detach the new one
	first.Close()
	assert.Equal(t, 1, r.Subscribers())

	r.Publish("s1", event(1))
	msg, err := second.Next(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, msg.Event.Step)
}

func TestRegistry_DropsWhenBufferFull(t *testing.T) {
	r := NewRegistry(RegistryOptions{Buffer: 2, HeartbeatInterval: time.Second})
	s := r.Subscribe("s1")
	defer s.Close()

	for i := 1; i <= 5; i++ {
		r.Publish("s1", event(i))
	}
	assert.Equal(t, uint64(3), r.Dropped())

	for i := 1; i <= 2; i++ {
		msg, err := s.Next(context.Background())
		require.NoError(t, err)
		assert.Equal(t, i, msg.Event.Step)
	}
}

func TestRegistry_StopAll(t *testing.T) {
	r := NewRegistry(RegistryOptions{HeartbeatInterval: time.Minute})
	a := r.Subscribe("a")
	b := r.Subscribe("b")

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for _, s := range []*Stream{a, b} {
		wg.Add(1)
		go func(s *Stream) {
			defer wg.Done()
			_, err := s.Next(context.Background())
			errs <- err
		}(s)
	}

	time.Sleep(10 * time.Millisecond)
	r.StopAll()
	wg.Wait()
	close(errs)

	for err := range errs {
		require.ErrorIs(t, err, ErrStreamClosed)
	}
	assert.Equal(t, 0, r.Subscribers())
}

func TestRegistry_ConcurrentPublishAndClose(t *testing.T) {
	r := NewRegistry(RegistryOptions{Buffer: 4})
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				r.Publish("s1", event(1))
			}
		}()
		go func() {
			defer wg.Done()
			s := r.Subscribe("s1")
			s.Close()
		}()
	}
	wg.Wait()
}
