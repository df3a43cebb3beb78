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

// Package batchscheduler executes the create/remove requests of the
// reconciler against the cluster. Requests are queued so that the
// reconciliation loop never blocks on the cluster API.
package batchscheduler

import (
	"context"
	"time"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/kubeutils"
	logger "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/errors"
)

// BatchScheduler creates and deletes the pods of an elastic job.
type BatchScheduler interface {
	Start(ctx context.Context)
	LaunchNode(node *common.Node)
	RemoveNode(node *common.Node)
}

// EventSink receives the acknowledgment events of external calls.
type EventSink func(event *common.NodeEvent)

type podRequest struct {
	pod       *corev1.Pod
	nodeType  string
	taskIndex int
}

// KubeScheduler is the base scheduler to create and remove pods.
type KubeScheduler struct {
	jobContext   *common.JobContext
	client       *kubeutils.K8sClient
	toCreatePods *common.Queue[*podRequest]
	toRemovePods *common.Queue[*podRequest]
	sink         EventSink
}

// NewBatchScheduler creates a batch scheduler according to the
// scheduler name.
func NewBatchScheduler(schedulerName string, jobContext *common.JobContext, client *kubeutils.K8sClient, sink EventSink) BatchScheduler {
	if schedulerName == "elastic" || schedulerName == "" {
		return NewElasticScheduler(jobContext, client, sink)
	}
	return nil
}

// LoopToLaunchPods launches pods from the pod queue. Transient API
// failures requeue the pod, permanent ones are acknowledged back to
// the reconciler as events.
func (scheduler *KubeScheduler) LoopToLaunchPods(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logger.Infof("the loop to launch pods exits")
			return
		default:
			for scheduler.toCreatePods.Len() > 0 {
				request, _ := scheduler.toCreatePods.PopFront()
				err := scheduler.client.CreatePod(ctx, request.pod)
				if err == nil || errors.IsAlreadyExists(err) {
					scheduler.ack(request, nil)
				} else if errors.IsTooManyRequests(err) || errors.IsTimeout(err) || errors.IsServerTimeout(err) {
					logger.Warnf("fail to create pod %s with err: %v", request.pod.ObjectMeta.Name, err)
					// Retry to create pod due to timeout.
					scheduler.toCreatePods.PushFront(request)
					time.Sleep(5 * time.Second)
				} else {
					logger.Warnf("fail to create pod %s with err: %v", request.pod.ObjectMeta.Name, err)
					scheduler.ack(request, err)
				}
			}
			for scheduler.toRemovePods.Len() > 0 {
				request, _ := scheduler.toRemovePods.PopFront()
				err := scheduler.client.RemovePod(request.pod.ObjectMeta.Name)
				if err == nil || errors.IsNotFound(err) {
					logger.Infof("the pod %s has been removed", request.pod.ObjectMeta.Name)
					scheduler.ack(request, nil)
				} else {
					logger.Warnf("fail to remove the pod %s, err = %v", request.pod.ObjectMeta.Name, err)
					scheduler.ack(request, err)
				}
			}
		}
		time.Sleep(1 * time.Second)
	}
}

func (scheduler *KubeScheduler) ack(request *podRequest, err error) {
	if scheduler.sink == nil {
		return
	}
	scheduler.sink(&common.NodeEvent{
		EventType: common.NodeEventAck,
		NodeType:  request.nodeType,
		TaskIndex: request.taskIndex,
		NodeName:  request.pod.ObjectMeta.Name,
		Err:       err,
	})
}
