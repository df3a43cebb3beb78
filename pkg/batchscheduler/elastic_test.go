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

package batchscheduler

import (
	"fmt"
	"testing"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/stretchr/testify/assert"
)

func newTestScheduler() *ElasticScheduler {
	jobContext := &common.JobContext{
		Namespace:  "dlrover",
		Name:       "train-demo",
		MasterHost: "127.0.0.1",
		MasterPort: 12345,
	}
	return NewElasticScheduler(jobContext, nil, nil)
}

func TestLaunchNodeQueuesPods(t *testing.T) {
	scheduler := newTestScheduler()
	for i := 0; i < 3; i++ {
		node := common.NewNode("worker", i, common.NewNodeResource(1, 1024, "", 0))
		scheduler.LaunchNode(node)
	}

	assert.Equal(t, 3, scheduler.toCreatePods.Len())
	for i := 0; i < 3; i++ {
		request, ok := scheduler.toCreatePods.PopFront()
		assert.True(t, ok)
		expectPodName := fmt.Sprintf("train-demo-worker-%d", i)
		assert.Equal(t, expectPodName, request.pod.ObjectMeta.Name)
		assert.Equal(t, "worker", request.nodeType)
		assert.Equal(t, i, request.taskIndex)
	}
}

func TestRemoveNodeQueuesPods(t *testing.T) {
	scheduler := newTestScheduler()

	node := common.NewNode("worker", 0, common.NewNodeResource(1, 1024, "", 0))
	scheduler.RemoveNode(node)
	request, ok := scheduler.toRemovePods.PopFront()
	assert.True(t, ok)
	assert.Equal(t, "train-demo-worker-0", request.pod.ObjectMeta.Name)

	// A materialized node is removed by its reported name.
	node.Name = "train-demo-worker-0-xyz"
	scheduler.RemoveNode(node)
	request, ok = scheduler.toRemovePods.PopFront()
	assert.True(t, ok)
	assert.Equal(t, "train-demo-worker-0-xyz", request.pod.ObjectMeta.Name)
}

func TestNewBatchScheduler(t *testing.T) {
	jobContext := &common.JobContext{Name: "train-demo"}
	scheduler := NewBatchScheduler("elastic", jobContext, nil, nil)
	assert.NotNil(t, scheduler)
	scheduler = NewBatchScheduler("", jobContext, nil, nil)
	assert.NotNil(t, scheduler)
	scheduler = NewBatchScheduler("volcano", jobContext, nil, nil)
	assert.Nil(t, scheduler)
}
