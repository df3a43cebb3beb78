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
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewNode(t *testing.T) {
	node := NewNode("worker", 2, NewNodeResource(4, 8192, "", 0))
	assert.Equal(t, "worker", node.Type)
	assert.Equal(t, 2, node.ID)
	assert.Equal(t, 2, node.TaskIndex)
	assert.Equal(t, NodeStatusInitial, node.Status)
	assert.True(t, node.Relaunchable)
	assert.False(t, node.IsReleased)
	assert.Equal(t, 0.0, node.UsedResource.CPU)
}

func TestUpdateStatus(t *testing.T) {
	node := NewNode("worker", 0, NewNodeResource(1, 1024, "", 0))
	node.UpdateStatus(NodeStatusRunning)
	assert.Equal(t, NodeStatusRunning, node.Status)

	// An empty status is a no-op.
	node.UpdateStatus("")
	assert.Equal(t, NodeStatusRunning, node.Status)
}

func TestUpdateResourceUsage(t *testing.T) {
	node := NewNode("worker", 0, NewNodeResource(4, 8192, "", 0))
	node.UpdateResourceUsage(3.5, 6000)
	assert.Equal(t, 3.5, node.UsedResource.CPU)
	assert.Equal(t, 6000.0, node.UsedResource.Memory)
	// The configured resource is untouched by observation ticks.
	assert.Equal(t, 4.0, node.ConfigResource.CPU)
	assert.Equal(t, 8192.0, node.ConfigResource.Memory)
}

func TestGetRelaunchNode(t *testing.T) {
	node := NewNode("worker", 1, NewNodeResource(4, 8192, "", 0))
	node.Critical = true
	node.MaxRelaunchCount = 3
	node.RelaunchCount = 1
	node.Name = "train-demo-worker-1"
	node.StartTime = time.Now()
	node.IsReleased = true
	node.UpdateStatus(NodeStatusFailed)

	successor := node.GetRelaunchNode(7)
	assert.Equal(t, 7, successor.ID)
	assert.Equal(t, 1, successor.TaskIndex)
	assert.Equal(t, "worker", successor.Type)
	assert.True(t, successor.Critical)
	assert.Equal(t, 3, successor.MaxRelaunchCount)
	assert.Equal(t, 1, successor.RelaunchCount)
	assert.Equal(t, NodeStatusInitial, successor.Status)
	assert.Equal(t, "", successor.Name)
	assert.True(t, successor.StartTime.IsZero())
	assert.False(t, successor.IsReleased)
	assert.True(t, successor.Relaunchable)

	// The failed record keeps its state and owns its resource values.
	assert.Equal(t, NodeStatusFailed, node.Status)
	successor.ConfigResource.Memory = 16384
	assert.Equal(t, 8192.0, node.ConfigResource.Memory)
}

func TestIsUnrecoverableFailure(t *testing.T) {
	ceiling := 102400.0

	node := NewNode("worker", 0, NewNodeResource(4, 8192, "", 0))
	node.MaxRelaunchCount = 3
	assert.False(t, node.IsUnrecoverableFailure(ceiling))

	// Budget spent.
	node.RelaunchCount = 3
	assert.True(t, node.IsUnrecoverableFailure(ceiling))

	// A zero budget is always unrecoverable.
	node = NewNode("worker", 0, NewNodeResource(4, 8192, "", 0))
	assert.True(t, node.IsUnrecoverableFailure(ceiling))

	// Non-retriable failure class.
	node = NewNode("worker", 0, NewNodeResource(4, 8192, "", 0))
	node.MaxRelaunchCount = 3
	node.SetExitReason(NodeExitFatalError)
	assert.True(t, node.IsUnrecoverableFailure(ceiling))

	// Memory usage crossed the hard ceiling.
	node = NewNode("worker", 0, NewNodeResource(4, 8192, "", 0))
	node.MaxRelaunchCount = 3
	node.UpdateResourceUsage(4, ceiling)
	assert.True(t, node.IsUnrecoverableFailure(ceiling))
}

func TestQueue(t *testing.T) {
	q := NewQueue[int]()
	assert.Equal(t, 0, q.Len())
	_, ok := q.PopFront()
	assert.False(t, ok)

	q.PushBack(1)
	q.PushBack(2)
	q.PushFront(0)
	assert.Equal(t, 3, q.Len())
	for want := 0; want < 3; want++ {
		v, ok := q.PopFront()
		assert.True(t, ok)
		assert.Equal(t, want, v)
	}
}
