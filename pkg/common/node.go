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

import "time"

// NodeStatus is the lifecycle status of a node.
type NodeStatus string

// Lifecycle statuses of a node.
const (
	NodeStatusInitial   NodeStatus = "Initial"
	NodeStatusPending   NodeStatus = "Pending"
	NodeStatusRunning   NodeStatus = "Running"
	NodeStatusSucceeded NodeStatus = "Succeeded"
	NodeStatusFailed    NodeStatus = "Failed"
	NodeStatusDeleted   NodeStatus = "Deleted"
)

// NodeExitReason is the reason why a node exited.
type NodeExitReason string

// Exit reasons reported by the cluster layer.
const (
	// NodeExitKilled means the node was killed, e.g. by preemption.
	NodeExitKilled NodeExitReason = "Killed"
	// NodeExitOOM means the node ran out of memory.
	NodeExitOOM NodeExitReason = "OOMKilled"
	// NodeExitFatalError means the failure class is not retriable.
	NodeExitFatalError NodeExitReason = "FatalError"
	// NodeExitUnknownError means the failure class is unknown.
	NodeExitUnknownError NodeExitReason = "UnknownError"
)

// Node records the information of a training node.
type Node struct {
	// Type is the task type (e.g. "ps", "worker") of the node.
	Type string
	// ID is the unique id of the node within the job and task type.
	ID int
	// Name is the name assigned once the cluster materializes the node.
	Name string
	// Status is the lifecycle status of the node.
	Status NodeStatus
	// TaskIndex is the stable logical slot of the node in the training
	// cluster. It persists across relaunches while ID does not.
	TaskIndex int
	// RelaunchCount is the number of times the logical slot has been
	// relaunched.
	RelaunchCount int
	// MaxRelaunchCount is the relaunch budget of the node.
	MaxRelaunchCount int
	// Critical marks a node whose unrecoverable failure fails the job.
	Critical bool
	// Relaunchable indicates whether the node may be relaunched on
	// failure.
	Relaunchable bool
	// IsReleased indicates the node resource has been released. A
	// released node never runs again.
	IsReleased bool
	// RecoveredFromOOM indicates the node was relaunched with an
	// enlarged memory after an OOM kill.
	RecoveredFromOOM bool
	// ExitReason is the exit reason of a finished node.
	ExitReason NodeExitReason

	StartTime  time.Time
	CreateTime time.Time
	FinishTime time.Time

	// ConfigResource is the resource the node was asked for.
	ConfigResource *NodeResource
	// UsedResource is the resource the node is observed using.
	UsedResource *NodeResource
}

// NewNode creates a node of a task type with its configured resource.
// The task index defaults to the node id.
func NewNode(nodeType string, nodeID int, configResource *NodeResource) *Node {
	now := time.Now()
	return &Node{
		Type:           nodeType,
		ID:             nodeID,
		Status:         NodeStatusInitial,
		TaskIndex:      nodeID,
		Relaunchable:   true,
		CreateTime:     now,
		FinishTime:     now,
		ConfigResource: configResource,
		UsedResource:   NewNodeResource(0, 0, "", 0),
	}
}

// UpdateInfo updates the metadata of the node. Zero-valued arguments
// are ignored.
func (node *Node) UpdateInfo(name string, startTime time.Time, createTime time.Time) {
	if name != "" {
		node.Name = name
	}
	if !startTime.IsZero() {
		node.StartTime = startTime
	}
	if !createTime.IsZero() {
		node.CreateTime = createTime
	}
}

// UpdateStatus overwrites the status of the node. An empty status is a
// no-op. The policy engine, not this setter, validates that the
// transition is legal.
func (node *Node) UpdateStatus(status NodeStatus) {
	if status != "" {
		node.Status = status
	}
}

// UpdateResourceUsage records the observed cpu/memory usage of the
// node. It never touches the configured resource.
func (node *Node) UpdateResourceUsage(cpu float64, memory float64) {
	node.UsedResource.CPU = cpu
	node.UsedResource.Memory = memory
}

// IncRelaunchCount increments the relaunch count of the node. The
// reconciler calls it exactly once per relaunch decision.
func (node *Node) IncRelaunchCount() {
	node.RelaunchCount++
}

// SetExitReason records the exit reason of the node.
func (node *Node) SetExitReason(reason NodeExitReason) {
	node.ExitReason = reason
}

// GetRelaunchNode derives the successor of a failed node. The successor
// keeps the task index, the configured resource and the relaunch
// bookkeeping of the failed node, and starts from a clean execution
// state with a fresh id. The failed record itself is never mutated.
func (node *Node) GetRelaunchNode(newID int) *Node {
	newNode := node.DeepCopy()
	newNode.ID = newID
	newNode.Name = ""
	newNode.Status = NodeStatusInitial
	newNode.StartTime = time.Time{}
	newNode.IsReleased = false
	newNode.Relaunchable = true
	return newNode
}

// DeepCopy creates a copy of the node with its own resource values.
func (node *Node) DeepCopy() *Node {
	newNode := *node
	if node.ConfigResource != nil {
		newNode.ConfigResource = node.ConfigResource.DeepCopy()
	}
	if node.UsedResource != nil {
		newNode.UsedResource = node.UsedResource.DeepCopy()
	}
	return &newNode
}

// IsUnrecoverableFailure reports whether no further relaunch may be
// attempted for the node: the relaunch budget is spent, the cluster
// reported a non-retriable failure class, or the observed memory usage
// reached the hard ceiling.
func (node *Node) IsUnrecoverableFailure(memoryCeilingMB float64) bool {
	if node.RelaunchCount >= node.MaxRelaunchCount {
		return true
	}
	if node.ExitReason == NodeExitFatalError {
		return true
	}
	if node.UsedResource != nil && node.UsedResource.Memory >= memoryCeilingMB {
		return true
	}
	return false
}
