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

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/lifecycle"
)

// ReplicaSpec describes one task group of the job.
type ReplicaSpec struct {
	// Replicas is the number of nodes of the task group.
	Replicas int
	// Resource is the textual resource configuration of each node,
	// e.g. "cpu=4,memory=8192Mi".
	Resource string
	// Critical marks the task group whose unrecoverable node failures
	// fail the whole job.
	Critical bool
	// MaxRelaunchCount is the relaunch budget per node. A negative
	// value selects the policy default.
	MaxRelaunchCount int
}

// JobConfig is the configuration of an elastic training job.
type JobConfig struct {
	// DistributionStrategy is the training topology, e.g. "ps".
	DistributionStrategy string
	// ReplicaSpecs maps a task type to its replica spec.
	ReplicaSpecs map[string]*ReplicaSpec
	// Policy carries the relaunch policy values.
	Policy lifecycle.PolicyConfig
}

// JobManager is the interface to manage the job lifecycle.
type JobManager interface {
	Start(ctx context.Context)
	FatalSignal() <-chan *common.LifecycleEvent
}
