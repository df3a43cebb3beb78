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
	"time"

	"github.com/Eastdfu/dlrover/pkg/recorder/dbbase"
	"xorm.io/xorm"
)

// TableNodeEvent is the name of the node lifecycle event table
const TableNodeEvent = "job_node_event"

// NodeEventCondition is the struct of sql condition for the node event table
type NodeEventCondition struct {
	JobName        string
	NodeType       string
	TaskIndex      int
	HasTaskIndex   bool
	Event          string
	CreatedAtRange *dbbase.TimeRange
}

// NodeEvent is the struct of a node lifecycle event row
type NodeEvent struct {
	ID            int64 `xorm:"pk autoincr"`
	JobName       string
	NodeType      string
	TaskIndex     int
	Event         string
	RelaunchCount int
	ExitReason    string
	CreatedAt     time.Time
}

// Apply applies NodeEventCondition
func (c *NodeEventCondition) Apply(session *xorm.Session) *xorm.Session {
	if c.JobName != "" {
		session.Where("job_name = ?", c.JobName)
	}
	if c.NodeType != "" {
		session.Where("node_type = ?", c.NodeType)
	}
	if c.HasTaskIndex {
		session.Where("task_index = ?", c.TaskIndex)
	}
	if c.Event != "" {
		session.Where("event = ?", c.Event)
	}
	if r := c.CreatedAtRange; r != nil {
		if !r.From.IsZero() {
			session.Where("created_at >= ?", r.From)
		}
		if !r.To.IsZero() {
			session.Where("created_at <= ?", r.To)
		}
	}
	return session
}

// NodeEventRecorderInterface is the recorder interface of node events
type NodeEventRecorderInterface interface {
	Get(condition *NodeEventCondition, event *NodeEvent) error
	List(condition *NodeEventCondition, events *[]*NodeEvent) error
	Insert(event *NodeEvent) error
}

// NodeEventRecorder is the recorder struct of node events
type NodeEventRecorder struct {
	Recorder dbbase.RecorderInterface
}

// NewNodeEventDBRecorder creates a new NodeEventRecorder
func NewNodeEventDBRecorder(db *dbbase.Database) NodeEventRecorderInterface {
	return &NodeEventRecorder{
		Recorder: &dbbase.DatabaseRecorder{Engine: db.Engine, TableName: TableNodeEvent},
	}
}

// Get returns a row
func (r *NodeEventRecorder) Get(condition *NodeEventCondition, event *NodeEvent) error {
	if event == nil {
		event = &NodeEvent{}
	}
	return r.Recorder.Get(event, condition)
}

// List returns multiple rows
func (r *NodeEventRecorder) List(condition *NodeEventCondition, events *[]*NodeEvent) error {
	if events == nil {
		records := make([]*NodeEvent, 0)
		events = &records
	}
	return r.Recorder.List(events, condition)
}

// Insert appends a row
func (r *NodeEventRecorder) Insert(event *NodeEvent) error {
	return r.Recorder.Insert(event)
}
