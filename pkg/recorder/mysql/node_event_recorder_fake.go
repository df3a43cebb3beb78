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

package mysql

import (
	"fmt"
	"sync"
)

// NodeEventFakeRecorder is the in-memory fake recorder of node events
type NodeEventFakeRecorder struct {
	lock    sync.Mutex
	records []*NodeEvent
}

// NewNodeEventFakeRecorder returns a new fake node event recorder
func NewNodeEventFakeRecorder() *NodeEventFakeRecorder {
	return &NodeEventFakeRecorder{}
}

func canApplyNodeEventCondition(c *NodeEventCondition, event *NodeEvent) bool {
	if c.JobName != "" && c.JobName != event.JobName {
		return false
	}
	if c.NodeType != "" && c.NodeType != event.NodeType {
		return false
	}
	if c.HasTaskIndex && c.TaskIndex != event.TaskIndex {
		return false
	}
	if c.Event != "" && c.Event != event.Event {
		return false
	}
	if c.CreatedAtRange != nil {
		if !c.CreatedAtRange.From.IsZero() && c.CreatedAtRange.From.After(event.CreatedAt) {
			return false
		}
		if !c.CreatedAtRange.To.IsZero() && c.CreatedAtRange.To.Before(event.CreatedAt) {
			return false
		}
	}
	return true
}

// Get returns a row
func (r *NodeEventFakeRecorder) Get(condition *NodeEventCondition, event *NodeEvent) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, record := range r.records {
		if canApplyNodeEventCondition(condition, record) {
			*event = *record
			return nil
		}
	}
	return fmt.Errorf("fail to find record for %v", condition)
}

// List returns multiple rows
func (r *NodeEventFakeRecorder) List(condition *NodeEventCondition, events *[]*NodeEvent) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	for _, record := range r.records {
		if canApplyNodeEventCondition(condition, record) {
			*events = append(*events, record)
		}
	}
	return nil
}

// Insert appends a row
func (r *NodeEventFakeRecorder) Insert(event *NodeEvent) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	event.ID = int64(len(r.records) + 1)
	r.records = append(r.records, event)
	return nil
}
