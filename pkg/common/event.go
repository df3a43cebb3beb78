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

// NodeEventType is the kind of an observation event about a node.
type NodeEventType string

// Observation events fed into the reconciliation queue.
const (
	// NodeEventStatus reports a status change of a node.
	NodeEventStatus NodeEventType = "Status"
	// NodeEventUsage reports a resource usage sample of a node.
	NodeEventUsage NodeEventType = "Usage"
	// NodeEventExit reports that a node exited with a reason.
	NodeEventExit NodeEventType = "Exit"
	// NodeEventAck acknowledges an external create/delete request.
	NodeEventAck NodeEventType = "Ack"
)

// NodeEvent is one observation about a node. Events from concurrent
// watch and sampling sources are merged into a single serialized queue
// before they touch any node record.
type NodeEvent struct {
	EventType NodeEventType
	// NodeType and TaskIndex identify the logical slot of the node.
	NodeType  string
	TaskIndex int
	// NodeName is the materialized name reported by the cluster layer.
	NodeName   string
	Status     NodeStatus
	ExitReason NodeExitReason
	// UsedCPU and UsedMemory carry a resource usage sample.
	UsedCPU    float64
	UsedMemory float64
	// Err reports the failure of an acknowledged external call.
	Err error
}

// LifecycleEventType is the kind of a lifecycle outcome record.
type LifecycleEventType string

// Lifecycle outcomes emitted to the job-state collaborator.
const (
	// LifecycleEventRelaunch records that a failed node was replaced.
	LifecycleEventRelaunch LifecycleEventType = "relaunch"
	// LifecycleEventNodeTerminal records that a slot ended for good.
	LifecycleEventNodeTerminal LifecycleEventType = "node-terminal"
	// LifecycleEventJobFatal records that a critical node became
	// unrecoverable and the job must fail.
	LifecycleEventJobFatal LifecycleEventType = "job-fatal"
)

// LifecycleEvent is the outcome record persisted for audit.
type LifecycleEvent struct {
	Event         LifecycleEventType
	JobName       string
	NodeType      string
	TaskIndex     int
	RelaunchCount int
	ExitReason    NodeExitReason
	Time          time.Time
}
