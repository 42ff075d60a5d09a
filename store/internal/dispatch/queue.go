package dispatch

import (
	"context"
	"sync"

	"github.com/cespare/xxhash/v2"
)

type Partitionable interface {
	PartitionKey() string
}

// Queue fans messages out to a fixed set of workers. Messages with the same
// PartitionKey always reach the same worker, in send order.
type Queue[T Partitionable] struct {
	channels []chan T
	done     sync.WaitGroup
}

// NewPartitionedQueue starts numWorkers goroutines running handleFn until
// ctx is done.
func NewPartitionedQueue[T Partitionable](
	ctx context.Context,
	numWorkers, bufferSize int,
	handleFn func(context.Context, T),
) *Queue[T] {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if bufferSize < 0 {
		bufferSize = 0
	}
	q := &Queue[T]{channels: make([]chan T, numWorkers)}
	ready := sync.WaitGroup{}
	for i := 0; i < numWorkers; i++ {
		ready.Add(1)
		q.done.Add(1)
		ch := make(chan T, bufferSize)
		go func(ch chan T) {
			defer q.done.Done()
			ready.Done()
			for {
				select {
				case msg := <-ch:
					handleFn(ctx, msg)
				case <-ctx.Done():
					return
				}
			}
		}(ch)
		q.channels[i] = ch
	}
	ready.Wait()
	return q
}

// ChannelOf returns the worker channel owning msg's partition.
func (q *Queue[T]) ChannelOf(msg T) chan<- T {
	return q.channels[IndexOf(msg.PartitionKey(), len(q.channels))]
}

// Wait blocks until every worker has returned.
func (q *Queue[T]) Wait() {
	q.done.Wait()
}

func hash(key string) uint64 {
	return xxhash.Sum64String(key)
}

// IndexOf maps key onto one of n partitions.
func IndexOf(key string, n int) int {
	switch n {
	case 0:
		panic("number of channels cannot be 0")
	case 1:
		return 0
	default:
		return int(hash(key) % uint64(n))
	}
}
