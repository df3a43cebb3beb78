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

// Package server exposes the read-only HTTP surface of the job master.
package server

import (
	"net/http"

	"github.com/Eastdfu/dlrover/pkg/common"
	"github.com/Eastdfu/dlrover/pkg/reconciler"
	"github.com/gin-gonic/gin"
)

// NodeView is the JSON shape of a node on the HTTP surface.
type NodeView struct {
	Type             string  `json:"type"`
	ID               int     `json:"id"`
	Name             string  `json:"name,omitempty"`
	Status           string  `json:"status"`
	TaskIndex        int     `json:"taskIndex"`
	RelaunchCount    int     `json:"relaunchCount"`
	MaxRelaunchCount int     `json:"maxRelaunchCount"`
	Critical         bool    `json:"critical"`
	ExitReason       string  `json:"exitReason,omitempty"`
	ConfigCPU        float64 `json:"configCpu"`
	ConfigMemoryMB   float64 `json:"configMemoryMB"`
	UsedCPU          float64 `json:"usedCpu"`
	UsedMemoryMB     float64 `json:"usedMemoryMB"`
}

// NewRouter creates the gin router of the master service.
func NewRouter(rec *reconciler.Reconciler) *gin.Engine {
	router := gin.Default()
	router.GET("/api/v1/nodes", func(c *gin.Context) {
		c.JSON(http.StatusOK, nodeViews(rec.Snapshot()))
	})
	router.GET("/api/v1/history", func(c *gin.Context) {
		c.JSON(http.StatusOK, nodeViews(rec.History()))
	})
	router.GET("/api/v1/job/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, jobStatus(rec.Snapshot()))
	})
	return router
}

func nodeViews(nodes []*common.Node) []*NodeView {
	views := make([]*NodeView, 0, len(nodes))
	for _, node := range nodes {
		views = append(views, &NodeView{
			Type:             node.Type,
			ID:               node.ID,
			Name:             node.Name,
			Status:           string(node.Status),
			TaskIndex:        node.TaskIndex,
			RelaunchCount:    node.RelaunchCount,
			MaxRelaunchCount: node.MaxRelaunchCount,
			Critical:         node.Critical,
			ExitReason:       string(node.ExitReason),
			ConfigCPU:        node.ConfigResource.CPU,
			ConfigMemoryMB:   node.ConfigResource.Memory,
			UsedCPU:          node.UsedResource.CPU,
			UsedMemoryMB:     node.UsedResource.Memory,
		})
	}
	return views
}

func jobStatus(nodes []*common.Node) gin.H {
	counts := make(map[string]int)
	for _, node := range nodes {
		counts[string(node.Status)]++
	}
	return gin.H{
		"activeNodes": len(nodes),
		"statuses":    counts,
	}
}
