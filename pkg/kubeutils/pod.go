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
	"fmt"

	"github.com/Eastdfu/dlrover/pkg/common"
	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/api/resource"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
)

const (
	envMasterAddr  = "DLROVER_MASTER_ADDR"
	envPodName     = "MY_POD_NAME"
	envPodIP       = "MY_POD_IP"
	envHostIP      = "MY_HOST_IP"
	envReplicaType = "REPLICA_TYPE"
	envReplicaID   = "REPLICA_ID"
	envReplicaRank = "REPLICA_RANK"

	mainContainerName = "main"

	// LabelJobKey is the pod label carrying the job name.
	LabelJobKey = "elasticjob.dlrover/name"
	// LabelReplicaTypeKey is the pod label carrying the task type.
	LabelReplicaTypeKey = "elasticjob.dlrover/replica-type"
	// LabelReplicaIDKey is the pod label carrying the node id.
	LabelReplicaIDKey = "elasticjob.dlrover/replica-id"
	// LabelReplicaRankKey is the pod label carrying the task index.
	LabelReplicaRankKey = "elasticjob.dlrover/rank"
)

// PodName builds the deterministic pod name of a node instance.
func PodName(jobName string, node *common.Node) string {
	return fmt.Sprintf("%s-%s-%d", jobName, node.Type, node.ID)
}

// BuildPod builds a corev1.Pod materializing a node. The container
// resources come from the node's configured resource, so a relaunch
// with an enlarged footprint yields a pod with the new shape.
func BuildPod(jobContext *common.JobContext, node *common.Node) *corev1.Pod {
	podName := PodName(jobContext.Name, node)
	pod := &corev1.Pod{
		TypeMeta: metav1.TypeMeta{
			APIVersion: "v1",
			Kind:       "Pod",
		},
		ObjectMeta: metav1.ObjectMeta{
			Name:      podName,
			Namespace: jobContext.Namespace,
			Labels: map[string]string{
				LabelJobKey:         jobContext.Name,
				LabelReplicaTypeKey: node.Type,
				LabelReplicaIDKey:   fmt.Sprintf("%d", node.ID),
				LabelReplicaRankKey: fmt.Sprintf("%d", node.TaskIndex),
			},
		},
		Spec: corev1.PodSpec{
			RestartPolicy: corev1.RestartPolicyNever,
			Containers: []corev1.Container{
				{
					Name:      mainContainerName,
					Image:     node.ConfigResource.Image,
					Resources: buildResourceRequirements(node.ConfigResource),
				},
			},
		},
	}
	if node.ConfigResource.Priority != "" {
		pod.Spec.PriorityClassName = node.ConfigResource.Priority
	}

	mainContainer := &pod.Spec.Containers[0]
	insertJobMasterAddrEnv(mainContainer, jobContext.MasterHost, jobContext.MasterPort)
	insertPodMetaEnv(mainContainer)
	insertReplicaEnv(mainContainer, node)

	return pod
}

// buildResourceRequirements converts the node resource dict into the
// requests/limits of the main container.
func buildResourceRequirements(nodeResource *common.NodeResource) corev1.ResourceRequirements {
	requests := corev1.ResourceList{}
	for name, quantity := range nodeResource.ToResourceDict() {
		requests[corev1.ResourceName(name)] = resource.MustParse(quantity)
	}
	return corev1.ResourceRequirements{
		Requests: requests,
		Limits:   requests,
	}
}

func insertJobMasterAddrEnv(container *corev1.Container, host string, port int) {
	jobMasterServiceEnv := corev1.EnvVar{
		Name:  envMasterAddr,
		Value: fmt.Sprintf("%s:%d", host, port),
	}
	container.Env = append(container.Env, jobMasterServiceEnv)
}

func insertPodMetaEnv(container *corev1.Container) {
	podNameEnv := corev1.EnvVar{
		Name: envPodName,
		ValueFrom: &corev1.EnvVarSource{
			FieldRef: &corev1.ObjectFieldSelector{
				APIVersion: "v1",
				FieldPath:  "metadata.name",
			},
		},
	}
	container.Env = append(container.Env, podNameEnv)

	podIPEnv := corev1.EnvVar{
		Name: envPodIP,
		ValueFrom: &corev1.EnvVarSource{
			FieldRef: &corev1.ObjectFieldSelector{
				APIVersion: "v1",
				FieldPath:  "status.podIP",
			},
		},
	}
	container.Env = append(container.Env, podIPEnv)

	hostIPEnv := corev1.EnvVar{
		Name: envHostIP,
		ValueFrom: &corev1.EnvVarSource{
			FieldRef: &corev1.ObjectFieldSelector{
				APIVersion: "v1",
				FieldPath:  "status.hostIP",
			},
		},
	}
	container.Env = append(container.Env, hostIPEnv)
}

func insertReplicaEnv(container *corev1.Container, node *common.Node) {
	replicaTypeEnv := corev1.EnvVar{
		Name:  envReplicaType,
		Value: node.Type,
	}
	container.Env = append(container.Env, replicaTypeEnv)

	replicaIDEnv := corev1.EnvVar{
		Name:  envReplicaID,
		Value: fmt.Sprintf("%d", node.ID),
	}
	container.Env = append(container.Env, replicaIDEnv)

	rankEnv := corev1.EnvVar{
		Name:  envReplicaRank,
		Value: fmt.Sprintf("%d", node.TaskIndex),
	}
	container.Env = append(container.Env, rankEnv)
}
