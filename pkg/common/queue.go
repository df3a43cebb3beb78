// Copyright 2025 The DLRover Authors. All rights reserved.
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package common

import (
	"container/list"
	"sync"
)

// Queue is a thread-safe queue. It merges elements from concurrent
// producers so that a single consumer handles them in arrival order.
type Queue[T any] struct {
	lock sync.Mutex
	data *list.List
}

// NewQueue creates a Queue instance.
func NewQueue[T any]() *Queue[T] {
	q := new(Queue[T])
	q.data = list.New()
	return q
}

// PushFront pushes an element at the head of the queue.
func (q *Queue[T]) PushFront(v T) {
	defer q.lock.Unlock()
	q.lock.Lock()
	q.data.PushFront(v)
}

// PushBack pushes an element at the back of the queue.
func (q *Queue[T]) PushBack(v T) {
	defer q.lock.Unlock()
	q.lock.Lock()
	q.data.PushBack(v)
}

// PopFront gets the front element and removes it from the queue. The
// second value is false if the queue is empty.
func (q *Queue[T]) PopFront() (T, bool) {
	defer q.lock.Unlock()
	q.lock.Lock()
	var zero T
	iter := q.data.Front()
	if iter == nil {
		return zero, false
	}
	v := iter.Value.(T)
	q.data.Remove(iter)
	return v, true
}

// Len gets the number of elements in the queue.
func (q *Queue[T]) Len() int {
	defer q.lock.Unlock()
	q.lock.Lock()
	return q.data.Len()
}
