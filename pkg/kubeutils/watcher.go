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

package kubeutils

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/Eastdfu/dlrover/pkg/common"
	logger "github.com/sirupsen/logrus"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/watch"
)

// EventSink receives the node events translated from pod events.
type EventSink func(event *common.NodeEvent)

// PodWatcher translates pod status changes of a job into node events
// and pushes them into the reconciliation queue. Watch notifications
// may arrive concurrently per pod, the sink serializes them.
type PodWatcher struct {
	client  *K8sClient
	jobName string
	sink    EventSink
}

// NewPodWatcher creates a pod watcher for a job.
func NewPodWatcher(client *K8sClient, jobName string, sink EventSink) *PodWatcher {
	return &PodWatcher{
		client:  client,
		jobName: jobName,
		sink:    sink,
	}
}

// Start watches the job's pods until the context is cancelled. A broken
// watch stream is re-established.
func (watcher *PodWatcher) Start(ctx context.Context) {
	go func() {
		selector := fmt.Sprintf("%s=%s", LabelJobKey, watcher.jobName)
		for {
			if ctx.Err() != nil {
				return
			}
			stream, err := watcher.client.WatchPods(ctx, selector)
			if err != nil {
				logger.Warnf("fail to watch pods of job %s: %v", watcher.jobName, err)
				time.Sleep(5 * time.Second)
				continue
			}
			for event := range stream.ResultChan() {
				pod, ok := event.Object.(*corev1.Pod)
				if !ok {
					continue
				}
				watcher.handlePod(event.Type, pod)
			}
			logger.Infof("the pod watch stream of job %s closed, retrying", watcher.jobName)
		}
	}()
}

func (watcher *PodWatcher) handlePod(eventType watch.EventType, pod *corev1.Pod) {
	nodeType := pod.Labels[LabelReplicaTypeKey]
	taskIndex, err := strconv.Atoi(pod.Labels[LabelReplicaRankKey])
	if err != nil {
		logger.Warnf("pod %s carries no rank label", pod.Name)
		return
	}

	// A pod deleted before reaching a terminal phase, e.g. by node
	// eviction or a manual delete, keeps its last running phase in the
	// deletion notification. Report it as a kill so the slot does not
	// stay active forever.
	if eventType == watch.Deleted && !isTerminalPhase(pod.Status.Phase) {
		watcher.sink(&common.NodeEvent{
			EventType:  common.NodeEventExit,
			NodeType:   nodeType,
			TaskIndex:  taskIndex,
			NodeName:   pod.Name,
			ExitReason: common.NodeExitKilled,
		})
		return
	}

	if pod.Status.Phase == corev1.PodFailed {
		watcher.sink(&common.NodeEvent{
			EventType:  common.NodeEventExit,
			NodeType:   nodeType,
			TaskIndex:  taskIndex,
			NodeName:   pod.Name,
			ExitReason: exitReasonOfPod(pod),
		})
		return
	}

	watcher.sink(&common.NodeEvent{
		EventType: common.NodeEventStatus,
		NodeType:  nodeType,
		TaskIndex: taskIndex,
		NodeName:  pod.Name,
		Status:    nodeStatusOfPhase(pod.Status.Phase),
	})
}

func isTerminalPhase(phase corev1.PodPhase) bool {
	return phase == corev1.PodSucceeded || phase == corev1.PodFailed
}

func nodeStatusOfPhase(phase corev1.PodPhase) common.NodeStatus {
	switch phase {
	case corev1.PodPending:
		return common.NodeStatusPending
	case corev1.PodRunning:
		return common.NodeStatusRunning
	case corev1.PodSucceeded:
		return common.NodeStatusSucceeded
	case corev1.PodFailed:
		return common.NodeStatusFailed
	}
	return ""
}

// exitReasonOfPod classifies a failed pod by the terminated state of
// its main container. Exit code 137 without an OOM mark is a kill,
// e.g. by preemption.
func exitReasonOfPod(pod *corev1.Pod) common.NodeExitReason {
	for _, containerStatus := range pod.Status.ContainerStatuses {
		if containerStatus.Name != mainContainerName {
			continue
		}
		terminated := containerStatus.State.Terminated
		if terminated == nil {
			continue
		}
		if terminated.Reason == "OOMKilled" {
			return common.NodeExitOOM
		}
		if terminated.ExitCode == 137 {
			return common.NodeExitKilled
		}
		if terminated.ExitCode == 1 {
			return common.NodeExitFatalError
		}
	}
	return common.NodeExitUnknownError
}
