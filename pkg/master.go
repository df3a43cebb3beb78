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

package master

import (
	"context"

	"github.com/Eastdfu/dlrover/pkg/batchscheduler"
	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/jobmanager"
	"github.com/Eastdfu/dlrover/pkg/kubeutils"
	"github.com/Eastdfu/dlrover/pkg/reconciler"
	logger "github.com/sirupsen/logrus"
)

// JobMaster assembles the lifecycle components of one elastic job.
type JobMaster struct {
	Namespace  string
	JobName    string
	JobContext *common.JobContext
	Manager    *jobmanager.TrainingJobManager

	scheduler batchscheduler.BatchScheduler
	watcher   *kubeutils.PodWatcher
}

// NewJobMaster creates a master of a job. The k8s client may be nil in
// local runs, then no pods are scheduled and no pod events arrive.
func NewJobMaster(
	namespace string,
	jobName string,
	jobConfig *jobmanager.JobConfig,
	k8sClient *kubeutils.K8sClient,
	recorder reconciler.EventRecorder,
) (*JobMaster, error) {
	master := &JobMaster{
		Namespace:  namespace,
		JobName:    jobName,
		JobContext: common.NewJobContext(namespace, jobName),
	}

	var cluster reconciler.ClusterClient = noopCluster{}
	var scheduler batchscheduler.BatchScheduler
	if k8sClient != nil {
		// The scheduler acknowledges external calls back into the
		// reconciliation queue once the manager wires the sink.
		elastic := batchscheduler.NewElasticScheduler(master.JobContext, k8sClient, func(event *common.NodeEvent) {
			master.Manager.Reconciler().PushEvent(event)
		})
		scheduler = elastic
		cluster = elastic
	}

	manager, err := jobmanager.NewTrainingJobManager(master.JobContext, jobConfig, cluster, recorder)
	if err != nil {
		return nil, err
	}
	master.Manager = manager
	master.scheduler = scheduler

	if k8sClient != nil {
		master.watcher = kubeutils.NewPodWatcher(k8sClient, jobName, manager.Reconciler().PushEvent)
		manager.AddStartHook(master.watcher.Start)
	}

	logger.Infof("create a master of job %s", jobName)
	return master, nil
}

// Run starts all components and blocks until the job fails fatally or
// the context is cancelled.
func (master *JobMaster) Run(ctx context.Context) {
	if master.scheduler != nil {
		master.scheduler.Start(ctx)
	}
	master.Manager.Start(ctx)

	select {
	case event := <-master.Manager.FatalSignal():
		logger.Errorf("job %s fails: critical node %s-%d is unrecoverable with reason %s",
			master.JobName, event.NodeType, event.TaskIndex, event.ExitReason)
	case <-ctx.Done():
		logger.Infof("job master of %s shuts down", master.JobName)
	}
}

// noopCluster discards node requests in local runs without a cluster.
type noopCluster struct{}

func (noopCluster) LaunchNode(node *common.Node) {
	logger.Infof("skip launching node %s-%d without a cluster", node.Type, node.TaskIndex)
}

func (noopCluster) RemoveNode(node *common.Node) {}
