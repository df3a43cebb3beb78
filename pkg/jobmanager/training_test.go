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

package jobmanager

import (
	"testing"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/lifecycle"
	"github.com/Eastdfu/dlrover/pkg/recorder/mysql"
	"github.com/stretchr/testify/assert"
)

type nopCluster struct{}

func (nopCluster) LaunchNode(node *common.Node) {}
func (nopCluster) RemoveNode(node *common.Node) {}

func newTestConfig() *JobConfig {
	return &JobConfig{
		DistributionStrategy: "ps",
		ReplicaSpecs: map[string]*ReplicaSpec{
			"worker": {
				Replicas:         3,
				Resource:         "cpu=4,memory=8192Mi",
				MaxRelaunchCount: 2,
			},
			"ps": {
				Replicas:         2,
				Resource:         "cpu=8,memory=16Gi",
				Critical:         true,
				MaxRelaunchCount: -1,
			},
		},
		Policy: lifecycle.DefaultPolicyConfig(),
	}
}

func newTestManager(t *testing.T) *TrainingJobManager {
	jobContext := &common.JobContext{Namespace: "dlrover", Name: "train-demo"}
	manager, err := NewTrainingJobManager(jobContext, newTestConfig(), nopCluster{}, mysql.NewFakeClient())
	assert.NoError(t, err)
	return manager
}

func TestBuildNodes(t *testing.T) {
	manager := newTestManager(t)
	nodes := manager.buildNodes()
	assert.Len(t, nodes, 5)

	byType := make(map[string][]*common.Node)
	for _, node := range nodes {
		byType[node.Type] = append(byType[node.Type], node)
	}
	assert.Len(t, byType["worker"], 3)
	assert.Len(t, byType["ps"], 2)

	worker := byType["worker"][0]
	assert.Equal(t, 4.0, worker.ConfigResource.CPU)
	assert.Equal(t, 8192.0, worker.ConfigResource.Memory)
	assert.Equal(t, 2, worker.MaxRelaunchCount)
	assert.False(t, worker.Critical)

	ps := byType["ps"][1]
	assert.Equal(t, 16384.0, ps.ConfigResource.Memory)
	assert.True(t, ps.Critical)
	// A negative budget selects the policy default.
	assert.Equal(t, lifecycle.DefaultPolicyConfig().DefaultMaxRelaunchCount, ps.MaxRelaunchCount)
	assert.Equal(t, 1, ps.TaskIndex)

	// Each node owns a copy of the group template.
	worker.ConfigResource.Memory = 1
	assert.Equal(t, 8192.0, manager.NodeGroup("worker").Resource.Memory)
}

func TestMalformedResourceBlocksJob(t *testing.T) {
	jobContext := &common.JobContext{Namespace: "dlrover", Name: "train-demo"}
	config := newTestConfig()
	config.ReplicaSpecs["worker"].Resource = "cpu=4,memory=8192Ti"
	_, err := NewTrainingJobManager(jobContext, config, nopCluster{}, mysql.NewFakeClient())
	assert.ErrorIs(t, err, common.ErrMalformedResource)
}

func TestUpdateNodeGroup(t *testing.T) {
	manager := newTestManager(t)
	manager.UpdateNodeGroup("worker", 5, 8, 16384)
	group := manager.NodeGroup("worker")
	assert.Equal(t, 5, group.Count)
	assert.Equal(t, 16384.0, group.Resource.Memory)

	// An unknown task type yields the empty sentinel.
	group = manager.NodeGroup("evaluator")
	assert.Equal(t, 0, group.Count)
}
