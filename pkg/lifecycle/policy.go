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

// Package lifecycle decides the fate of failed training nodes. The
// decision logic is pure: it never blocks, never errors and resolves
// every input to exactly one action.
package lifecycle

import (
	"github.com/Eastdfu/dlrover/pkg/common"
)

// Action is the decision for a failed node.
type Action string

// Decisions of the policy engine.
const (
	// ActionNone means the node needs no intervention.
	ActionNone Action = "None"
	// ActionRelaunch means a successor node replaces the failed one.
	ActionRelaunch Action = "Relaunch"
	// ActionRemove means the node is terminally dead and its slot is
	// freed without failing the job.
	ActionRemove Action = "Remove"
	// ActionJobFatal means a critical node is unrecoverable and the
	// whole job must fail.
	ActionJobFatal Action = "JobFatal"
)

// PolicyConfig carries the relaunch policy values. They are explicit
// configuration, not package constants, so each job can tune them.
type PolicyConfig struct {
	// OOMMemoryMultiplier enlarges the configured memory of a
	// successor after an OOM kill.
	OOMMemoryMultiplier float64
	// OOMMemoryCeilingMB is the hard memory ceiling. A node observed
	// at or above it is unrecoverable, and OOM enlargement never
	// exceeds it.
	OOMMemoryCeilingMB float64
	// DefaultMaxRelaunchCount is the relaunch budget applied to nodes
	// created without an explicit budget.
	DefaultMaxRelaunchCount int
}

// DefaultPolicyConfig returns the policy values used when a job does
// not configure its own.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		OOMMemoryMultiplier:     2.0,
		OOMMemoryCeilingMB:      102400,
		DefaultMaxRelaunchCount: 3,
	}
}

// Decision is the outcome of evaluating a failed node.
type Decision struct {
	Action Action
	// Successor is the prepared relaunch candidate when Action is
	// ActionRelaunch. Its relaunch count already includes the new
	// launch and its configured memory is enlarged after an OOM kill.
	Successor *common.Node
}

// Engine evaluates failed nodes against the relaunch policy.
type Engine struct {
	config PolicyConfig
}

// NewEngine creates a policy engine.
func NewEngine(config PolicyConfig) *Engine {
	return &Engine{config: config}
}

// Config returns the policy values of the engine.
func (engine *Engine) Config() PolicyConfig {
	return engine.config
}

// Decide resolves a node and its observed exit signal to exactly one
// action. Only nodes in the Failed status yield an action other than
// ActionNone.
func (engine *Engine) Decide(node *common.Node, newID int) Decision {
	if node == nil || node.Status != common.NodeStatusFailed {
		return Decision{Action: ActionNone}
	}
	if node.Relaunchable && !node.IsUnrecoverableFailure(engine.config.OOMMemoryCeilingMB) {
		return Decision{
			Action:    ActionRelaunch,
			Successor: engine.prepareSuccessor(node, newID),
		}
	}
	if node.Critical {
		return Decision{Action: ActionJobFatal}
	}
	return Decision{Action: ActionRemove}
}

// prepareSuccessor derives the relaunch candidate. After an OOM kill
// the successor gets an enlarged memory, capped at the ceiling, and is
// marked recovered from OOM so a second OOM at the ceiling becomes
// unrecoverable instead of looping.
func (engine *Engine) prepareSuccessor(node *common.Node, newID int) *common.Node {
	successor := node.GetRelaunchNode(newID)
	successor.IncRelaunchCount()
	if node.ExitReason == common.NodeExitOOM {
		memory := successor.ConfigResource.Memory * engine.config.OOMMemoryMultiplier
		if memory > engine.config.OOMMemoryCeilingMB {
			memory = engine.config.OOMMemoryCeilingMB
		}
		successor.ConfigResource.Memory = memory
		successor.RecoveredFromOOM = true
	}
	successor.UsedResource = common.NewNodeResource(0, 0, "", 0)
	successor.ExitReason = ""
	return successor
}
