package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueue_FIFOOrder(t *testing.T) {
	q := NewQueue(10)
	q.Push(Progress("job-1", "one"))
	q.Push(Progress("job-1", "two"))
	q.Push(Progress("job-1", "three"))

	events := q.Drain()
	require.Len(t, events, 3)
	assert.Equal(t, "one", events[0].Message)
	assert.Equal(t, "two", events[1].Message)
	assert.Equal(t, "three", events[2].Message)
}

func TestQueue_DropsOldestNonTerminalOnOverflow(t *testing.T) {
	q := NewQueue(2)
	q.Push(Progress("job-1", "one"))
	q.Push(Progress("job-1", "two"))
	q.Push(Progress("job-1", "three")) // evicts "one"

	events := q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, "two", events[0].Message)
	assert.Equal(t, "three", events[1].Message)
}

func TestQueue_DoneAlwaysWinsASlot(t *testing.T) {
	q := NewQueue(2)
	q.Push(Progress("job-1", "one"))
	q.Push(Progress("job-1", "two"))
	q.Push(Done("job-1", "finished")) // must not be dropped, evicts "one"

	events := q.Drain()
	require.Len(t, events, 2)
	assert.Equal(t, "two", events[0].Message)
	assert.True(t, events[1].IsTerminal())
}

func TestQueue_ExactlyOneTerminalEvent(t *testing.T) {
	q := NewQueue(4)
	q.Push(Progress("job-1", "working"))
	q.Push(Done("job-1", "done"))
	q.Push(Progress("job-1", "should be dropped, queue closed"))

	events := q.Drain()
	terminalCount := 0
	for _, e := range events {
		if e.IsTerminal() {
			terminalCount++
		}
	}
	assert.Equal(t, 1, terminalCount)
	assert.True(t, q.Closed())
}

func TestQueue_WaitUnblocksOnPush(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	done := make(chan bool, 1)
	go func() {
		done <- q.Wait(ctx)
	}()

	q.Push(Progress("job-1", "hello"))

	select {
	case woke := <-done:
		assert.True(t, woke)
	case <-time.After(time.Second):
		t.Fatal("Wait did not unblock after Push")
	}
}

func TestQueue_WaitRespectsContextCancellation(t *testing.T) {
	q := NewQueue(4)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.False(t, q.Wait(ctx))
}

func TestQueue_DrainEmptyReturnsNil(t *testing.T) {
	q := NewQueue(4)
	assert.Nil(t, q.Drain())
}
