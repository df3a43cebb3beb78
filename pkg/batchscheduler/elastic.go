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
	"context"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/kubeutils"
)

// ElasticScheduler launches pods without waiting for all resources of
// the job to be ready.
type ElasticScheduler struct {
	KubeScheduler
	SchedulerName string
}

// NewElasticScheduler creates an elastic scheduler.
func NewElasticScheduler(jobContext *common.JobContext, client *kubeutils.K8sClient, sink EventSink) *ElasticScheduler {
	return &ElasticScheduler{
		KubeScheduler: KubeScheduler{
			jobContext:   jobContext,
			client:       client,
			toCreatePods: common.NewQueue[*podRequest](),
			toRemovePods: common.NewQueue[*podRequest](),
			sink:         sink,
		},
		SchedulerName: "elastic",
	}
}

// Start starts a routine to launch pods.
func (scheduler *ElasticScheduler) Start(ctx context.Context) {
	go scheduler.LoopToLaunchPods(ctx)
}

// LaunchNode queues the pod materializing a node. It never blocks, the
// launch loop picks the pod up.
func (scheduler *ElasticScheduler) LaunchNode(node *common.Node) {
	pod := kubeutils.BuildPod(scheduler.jobContext, node)
	scheduler.toCreatePods.PushBack(&podRequest{
		pod:       pod,
		nodeType:  node.Type,
		taskIndex: node.TaskIndex,
	})
}

// RemoveNode queues the removal of the pod of a node. Like LaunchNode
// it never blocks.
func (scheduler *ElasticScheduler) RemoveNode(node *common.Node) {
	pod := kubeutils.BuildPod(scheduler.jobContext, node)
	if node.Name != "" {
		pod.ObjectMeta.Name = node.Name
	}
	scheduler.toRemovePods.PushBack(&podRequest{
		pod:       pod,
		nodeType:  node.Type,
		taskIndex: node.TaskIndex,
	})
}
