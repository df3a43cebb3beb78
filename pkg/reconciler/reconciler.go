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

// Package reconciler keeps the node roster of a job consistent with
// the relaunch policy. A single loop goroutine is the only writer of
// the roster; every observation event is funneled through a serialized
// queue before it touches a node record.
package reconciler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/lifecycle"
	"github.com/elliotchance/orderedmap"
	logger "github.com/sirupsen/logrus"
)

// ClusterClient requests node creation and deletion from the cluster
// layer. Requests are fire-and-forget: failures come back as
// acknowledgment events through the reconciliation queue, never as
// errors inside the loop.
type ClusterClient interface {
	LaunchNode(node *common.Node)
	RemoveNode(node *common.Node)
}

// EventRecorder persists lifecycle outcome records for audit.
type EventRecorder interface {
	RecordLifecycleEvent(event *common.LifecycleEvent) error
}

// Reconciler serializes all mutations of a job's node roster.
type Reconciler struct {
	jobName  string
	engine   *lifecycle.Engine
	cluster  ClusterClient
	recorder EventRecorder

	events *common.Queue[*common.NodeEvent]

	// mutex guards roster, history and nextID against concurrent
	// snapshot readers. Only the loop goroutine writes.
	mutex sync.RWMutex
	// roster maps a slot key to the currently active node of the slot,
	// so exactly one active node exists per logical slot.
	roster *orderedmap.OrderedMap
	// history keeps the terminal node records for audit. They are
	// never mutated again.
	history []*common.Node
	// nextID assigns fresh node ids per task type.
	nextID map[string]int

	fatalChan chan *common.LifecycleEvent
	fatalOnce sync.Once

	stopMutex sync.Mutex
	stopped   bool
}

// NewReconciler creates a reconciler for a job.
func NewReconciler(jobName string, engine *lifecycle.Engine, cluster ClusterClient, recorder EventRecorder) *Reconciler {
	return &Reconciler{
		jobName:   jobName,
		engine:    engine,
		cluster:   cluster,
		recorder:  recorder,
		events:    common.NewQueue[*common.NodeEvent](),
		roster:    orderedmap.NewOrderedMap(),
		nextID:    make(map[string]int),
		fatalChan: make(chan *common.LifecycleEvent, 1),
	}
}

func slotKey(nodeType string, taskIndex int) string {
	return fmt.Sprintf("%s-%d", nodeType, taskIndex)
}

// SeedNodes installs the initial roster and requests the launch of
// each node. It must be called before Start.
func (r *Reconciler) SeedNodes(nodes []*common.Node) {
	r.mutex.Lock()
	for _, node := range nodes {
		r.roster.Set(slotKey(node.Type, node.TaskIndex), node)
		if node.ID >= r.nextID[node.Type] {
			r.nextID[node.Type] = node.ID + 1
		}
	}
	r.mutex.Unlock()
	for _, node := range nodes {
		node.UpdateStatus(common.NodeStatusPending)
		r.cluster.LaunchNode(node)
	}
}

// PushEvent merges an observation event into the serialized queue.
// Events arriving after shutdown are discarded.
func (r *Reconciler) PushEvent(event *common.NodeEvent) {
	r.stopMutex.Lock()
	stopped := r.stopped
	r.stopMutex.Unlock()
	if stopped {
		logger.Infof("discard event %s for %s-%d after the loop stopped",
			event.EventType, event.NodeType, event.TaskIndex)
		return
	}
	r.events.PushBack(event)
}

// JobFatal exposes the job-fatal signal. At most one record is ever
// delivered; the orchestrator shell decides how to fail the job.
func (r *Reconciler) JobFatal() <-chan *common.LifecycleEvent {
	return r.fatalChan
}

// Start runs the reconciliation loop until the context is cancelled.
func (r *Reconciler) Start(ctx context.Context) {
	go r.loop(ctx)
}

func (r *Reconciler) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			r.shutdown()
			logger.Infof("the reconciliation loop of job %s exits", r.jobName)
			return
		default:
			for {
				event, ok := r.events.PopFront()
				if !ok {
					break
				}
				r.handleEvent(event)
			}
		}
		time.Sleep(100 * time.Millisecond)
	}
}

func (r *Reconciler) handleEvent(event *common.NodeEvent) {
	if event.EventType == common.NodeEventAck {
		if event.Err != nil {
			logger.Warnf("external call for %s-%d failed: %v",
				event.NodeType, event.TaskIndex, event.Err)
		}
		return
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	value, ok := r.roster.Get(slotKey(event.NodeType, event.TaskIndex))
	if !ok {
		logger.Infof("ignore event %s for released slot %s-%d",
			event.EventType, event.NodeType, event.TaskIndex)
		return
	}
	node := value.(*common.Node)

	switch event.EventType {
	case common.NodeEventStatus:
		node.UpdateInfo(event.NodeName, time.Time{}, time.Time{})
		node.UpdateStatus(event.Status)
		if event.Status == common.NodeStatusRunning && node.StartTime.IsZero() {
			node.StartTime = time.Now()
		}
	case common.NodeEventUsage:
		node.UpdateResourceUsage(event.UsedCPU, event.UsedMemory)
		return
	case common.NodeEventExit:
		node.UpdateInfo(event.NodeName, time.Time{}, time.Time{})
		node.SetExitReason(event.ExitReason)
		node.UpdateStatus(common.NodeStatusFailed)
		node.FinishTime = time.Now()
	}

	if node.Status == common.NodeStatusSucceeded {
		node.FinishTime = time.Now()
		return
	}
	if node.Status != common.NodeStatusFailed {
		return
	}

	decision := r.engine.Decide(node, r.nextID[node.Type])
	r.applyDecision(node, decision)
}

// applyDecision executes a policy decision. The failed record is kept
// immutable in history; a relaunch atomically swaps the roster entry
// with a freshly allocated successor.
func (r *Reconciler) applyDecision(node *common.Node, decision lifecycle.Decision) {
	key := slotKey(node.Type, node.TaskIndex)
	switch decision.Action {
	case lifecycle.ActionNone:
		return
	case lifecycle.ActionRelaunch:
		successor := decision.Successor
		r.nextID[node.Type] = successor.ID + 1
		node.IsReleased = true
		r.history = append(r.history, node)
		r.roster.Set(key, successor)
		r.record(common.LifecycleEventRelaunch, successor)
		logger.Infof("relaunch node %s-%d with id %d, relaunch count %d, memory %.0fMi",
			node.Type, node.TaskIndex, successor.ID, successor.RelaunchCount,
			successor.ConfigResource.Memory)
		if node.Name != "" {
			r.cluster.RemoveNode(node)
		}
		successor.UpdateStatus(common.NodeStatusPending)
		r.cluster.LaunchNode(successor)
	case lifecycle.ActionRemove:
		r.releaseSlot(node, key)
		r.record(common.LifecycleEventNodeTerminal, node)
		logger.Infof("node %s-%d is unrecoverable with reason %s, the slot is released",
			node.Type, node.TaskIndex, node.ExitReason)
	case lifecycle.ActionJobFatal:
		r.releaseSlot(node, key)
		event := r.record(common.LifecycleEventJobFatal, node)
		logger.Errorf("critical node %s-%d is unrecoverable with reason %s, the job fails",
			node.Type, node.TaskIndex, node.ExitReason)
		r.fatalOnce.Do(func() {
			r.fatalChan <- event
		})
	}
}

func (r *Reconciler) releaseSlot(node *common.Node, key string) {
	node.UpdateStatus(common.NodeStatusDeleted)
	node.IsReleased = true
	r.history = append(r.history, node)
	r.roster.Delete(key)
	if node.Name != "" {
		r.cluster.RemoveNode(node)
	}
}

func (r *Reconciler) record(eventType common.LifecycleEventType, node *common.Node) *common.LifecycleEvent {
	event := &common.LifecycleEvent{
		Event:         eventType,
		JobName:       r.jobName,
		NodeType:      node.Type,
		TaskIndex:     node.TaskIndex,
		RelaunchCount: node.RelaunchCount,
		ExitReason:    node.ExitReason,
		Time:          time.Now(),
	}
	if err := r.recorder.RecordLifecycleEvent(event); err != nil {
		logger.Warnf("fail to record lifecycle event %s of %s-%d: %v",
			eventType, node.Type, node.TaskIndex, err)
	}
	return event
}

// shutdown discards the remaining events, marks all active nodes
// deleted and records a terminal event per node so that the outcome of
// the job is persisted. Acknowledgments of in-flight external calls
// are dropped with the queue.
func (r *Reconciler) shutdown() {
	r.stopMutex.Lock()
	r.stopped = true
	r.stopMutex.Unlock()

	for {
		if _, ok := r.events.PopFront(); !ok {
			break
		}
	}

	r.mutex.Lock()
	defer r.mutex.Unlock()
	for el := r.roster.Front(); el != nil; el = el.Next() {
		node := el.Value.(*common.Node)
		node.UpdateStatus(common.NodeStatusDeleted)
		node.IsReleased = true
		r.record(common.LifecycleEventNodeTerminal, node)
	}
}

// Snapshot returns copies of the active nodes in slot order, for the
// read-only HTTP surface.
func (r *Reconciler) Snapshot() []*common.Node {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	nodes := make([]*common.Node, 0, r.roster.Len())
	for el := r.roster.Front(); el != nil; el = el.Next() {
		nodes = append(nodes, el.Value.(*common.Node).DeepCopy())
	}
	return nodes
}

// History returns copies of the terminal node records.
func (r *Reconciler) History() []*common.Node {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	nodes := make([]*common.Node, 0, len(r.history))
	for _, node := range r.history {
		nodes = append(nodes, node.DeepCopy())
	}
	return nodes
}

// ActiveNode returns a copy of the active node of a slot.
func (r *Reconciler) ActiveNode(nodeType string, taskIndex int) (*common.Node, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	value, ok := r.roster.Get(slotKey(nodeType, taskIndex))
	if !ok {
		return nil, false
	}
	return value.(*common.Node).DeepCopy(), true
}
