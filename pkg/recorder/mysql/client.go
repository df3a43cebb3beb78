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

// Package mysql persists node lifecycle outcome records for audit.
package mysql

import (
	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/recorder/dbbase"
	log "github.com/golang/glog"
)

// Client is the struct of mysql db client
type Client struct {
	NodeEventRecorder NodeEventRecorderInterface
}

// NewClient returns a new mysql db client
func NewClient(user, password, engineType, url string) *Client {
	log.Infof("create mysql db with user(%s), engineType(%s), url(%s)", user, engineType, url)
	db := dbbase.NewDatabase(user, password, engineType, url)
	return &Client{
		NodeEventRecorder: NewNodeEventDBRecorder(db),
	}
}

// NewFakeClient returns a new fake mysql db client
func NewFakeClient() *Client {
	return &Client{
		NodeEventRecorder: NewNodeEventFakeRecorder(),
	}
}

// RecordLifecycleEvent persists a lifecycle outcome record of the
// reconciler.
func (client *Client) RecordLifecycleEvent(event *common.LifecycleEvent) error {
	return client.NodeEventRecorder.Insert(&NodeEvent{
		JobName:       event.JobName,
		NodeType:      event.NodeType,
		TaskIndex:     event.TaskIndex,
		Event:         string(event.Event),
		RelaunchCount: event.RelaunchCount,
		ExitReason:    string(event.ExitReason),
		CreatedAt:     event.Time,
	})
}
