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
	"context"
	"fmt"
	"sort"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/lifecycle"
	"github.com/Eastdfu/dlrover/pkg/reconciler"
	logger "github.com/sirupsen/logrus"
)

// TrainingJobManager is the lifecycle manager of a distributed
// training job. It owns one node group per task type and seeds the
// reconciler with the initial roster.
type TrainingJobManager struct {
	jobContext *common.JobContext
	config     *JobConfig
	groups     map[string]*common.NodeGroupResource
	scheduler  reconciler.ClusterClient
	reconciler *reconciler.Reconciler
	startHooks []func(ctx context.Context)
}

// NewTrainingJobManager creates a training job manager. A malformed
// resource configuration blocks the job here, before any node is
// requested.
func NewTrainingJobManager(
	jobContext *common.JobContext,
	config *JobConfig,
	cluster reconciler.ClusterClient,
	recorder reconciler.EventRecorder,
) (*TrainingJobManager, error) {
	groups := make(map[string]*common.NodeGroupResource)
	for taskType, spec := range config.ReplicaSpecs {
		nodeResource, err := common.ParseNodeResource(spec.Resource)
		if err != nil {
			return nil, fmt.Errorf("invalid resource of %s: %w", taskType, err)
		}
		groups[taskType] = common.NewNodeGroupResource(spec.Replicas, nodeResource)
	}

	engine := lifecycle.NewEngine(config.Policy)
	rec := reconciler.NewReconciler(jobContext.Name, engine, cluster, recorder)
	return &TrainingJobManager{
		jobContext: jobContext,
		config:     config,
		groups:     groups,
		scheduler:  cluster,
		reconciler: rec,
	}, nil
}

// AddStartHook registers a routine started together with the manager,
// e.g. the pod watcher.
func (manager *TrainingJobManager) AddStartHook(hook func(ctx context.Context)) {
	manager.startHooks = append(manager.startHooks, hook)
}

// Reconciler exposes the reconciler for the read-only HTTP surface and
// for event sources.
func (manager *TrainingJobManager) Reconciler() *reconciler.Reconciler {
	return manager.reconciler
}

// FatalSignal exposes the job-fatal signal of the reconciler.
func (manager *TrainingJobManager) FatalSignal() <-chan *common.LifecycleEvent {
	return manager.reconciler.JobFatal()
}

// Start seeds the roster and starts the reconciliation loop.
func (manager *TrainingJobManager) Start(ctx context.Context) {
	nodes := manager.buildNodes()
	logger.Infof("job %s starts with %d nodes", manager.jobContext.Name, len(nodes))
	manager.reconciler.SeedNodes(nodes)
	manager.reconciler.Start(ctx)
	for _, hook := range manager.startHooks {
		hook(ctx)
	}
}

// UpdateNodeGroup applies a scale decision to the group template of a
// task type. Nodes stamped afterwards get the new shape, running nodes
// keep theirs.
func (manager *TrainingJobManager) UpdateNodeGroup(taskType string, count int, cpu float64, memory float64) {
	group, ok := manager.groups[taskType]
	if !ok {
		group = common.NewEmptyGroupResource()
		manager.groups[taskType] = group
	}
	group.Update(count, cpu, memory)
}

// NodeGroup returns the group template of a task type, or the empty
// sentinel if the job does not use the task type.
func (manager *TrainingJobManager) NodeGroup(taskType string) *common.NodeGroupResource {
	if group, ok := manager.groups[taskType]; ok {
		return group
	}
	return common.NewEmptyGroupResource()
}

// buildNodes stamps the group templates onto the initial nodes. Each
// node gets its own copy of the template so mutating one node's
// resource never perturbs the group or its siblings.
func (manager *TrainingJobManager) buildNodes() []*common.Node {
	taskTypes := make([]string, 0, len(manager.groups))
	for taskType := range manager.groups {
		taskTypes = append(taskTypes, taskType)
	}
	sort.Strings(taskTypes)

	var nodes []*common.Node
	for _, taskType := range taskTypes {
		group := manager.groups[taskType]
		spec := manager.config.ReplicaSpecs[taskType]
		for i := 0; i < group.Count; i++ {
			node := common.NewNode(taskType, i, group.Resource.DeepCopy())
			node.Critical = spec.Critical
			node.MaxRelaunchCount = spec.MaxRelaunchCount
			if spec.MaxRelaunchCount < 0 {
				node.MaxRelaunchCount = manager.config.Policy.DefaultMaxRelaunchCount
			}
			nodes = append(nodes, node)
		}
	}
	return nodes
}
