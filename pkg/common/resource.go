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

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrMalformedResource indicates that a resource configuration string
// cannot be parsed. An absent string is not malformed: it resolves to
// a zero resource so that partially specified configurations never
// abort the reconciliation loop.
var ErrMalformedResource = errors.New("malformed resource configuration")

// acceleratorVendors are the vendor domains recognized in resource keys,
// e.g. "nvidia.com/gpu=2".
var acceleratorVendors = []string{"nvidia.com", "amd.com"}

// NodeResource records a resource allotment of a node.
type NodeResource struct {
	// CPU is the number of CPU cores.
	CPU float64
	// Memory is the memory size in MB.
	Memory float64
	// GPUType is the resource name of the GPU, e.g. "nvidia.com/gpu".
	GPUType string
	// GPUNum is the number of GPUs.
	GPUNum int
	// Image is the container image of the node.
	Image string
	// Priority is the priority class of the node.
	Priority string
}

// NewNodeResource creates a NodeResource instance.
func NewNodeResource(cpu float64, memory float64, gpuType string, gpuNum int) *NodeResource {
	return &NodeResource{
		CPU:     cpu,
		Memory:  memory,
		GPUType: gpuType,
		GPUNum:  gpuNum,
	}
}

// ParseNodeResource converts a resource configuration like
// "memory=100Mi,cpu=5,nvidia.com/gpu=1" into a NodeResource instance.
// An empty string yields a zero resource, a syntactically broken string
// yields an error wrapping ErrMalformedResource.
func ParseNodeResource(resourceStr string) (*NodeResource, error) {
	resource := NewNodeResource(0, 0, "", 0)
	resourceStr = strings.TrimSpace(resourceStr)
	if resourceStr == "" {
		return resource, nil
	}
	for _, token := range strings.Split(resourceStr, ",") {
		kv := strings.SplitN(token, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("%w: token %q is not key=value", ErrMalformedResource, token)
		}
		key := strings.TrimSpace(kv[0])
		value := strings.TrimSpace(kv[1])
		switch {
		case key == "cpu":
			cpu, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: cpu %q is not a number", ErrMalformedResource, value)
			}
			resource.CPU = cpu
		case key == "memory":
			memory, err := ConvertMemoryToMB(value)
			if err != nil {
				return nil, err
			}
			resource.Memory = float64(memory)
		case isAcceleratorKey(key):
			num, err := strconv.Atoi(value)
			if err != nil {
				return nil, fmt.Errorf("%w: accelerator count %q is not an integer", ErrMalformedResource, value)
			}
			resource.GPUType = key
			resource.GPUNum = num
		}
	}
	return resource, nil
}

// ConvertMemoryToMB converts a memory quantity like "100Mi" into MB.
// The unit suffix must be one of Ki, Mi and Gi.
func ConvertMemoryToMB(memory string) (int64, error) {
	if len(memory) < 3 {
		return 0, fmt.Errorf("%w: memory %q is too short", ErrMalformedResource, memory)
	}
	unit := memory[len(memory)-2:]
	value, err := strconv.ParseInt(memory[:len(memory)-2], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: memory value %q is not an integer", ErrMalformedResource, memory)
	}
	switch unit {
	case "Gi":
		value = value * 1024
	case "Mi":
	case "Ki":
		value = value / 1024
	default:
		return 0, fmt.Errorf("%w: unknown memory unit %q", ErrMalformedResource, unit)
	}
	return value, nil
}

// ToResourceDict converts the resource into the map which the scheduler
// uses to materialize a node.
func (resource *NodeResource) ToResourceDict() map[string]string {
	dict := map[string]string{
		"cpu":    strconv.FormatFloat(resource.CPU, 'f', -1, 64),
		"memory": fmt.Sprintf("%dMi", int64(resource.Memory)),
	}
	if resource.GPUNum > 0 {
		dict[resource.GPUType] = strconv.Itoa(resource.GPUNum)
	}
	return dict
}

// DeepCopy creates a copy of the resource.
func (resource *NodeResource) DeepCopy() *NodeResource {
	newResource := *resource
	return &newResource
}

func isAcceleratorKey(key string) bool {
	for _, vendor := range acceleratorVendors {
		if strings.Contains(key, vendor) {
			return true
		}
	}
	return false
}

// NodeGroupResource contains the number of nodes of a task group and
// the resource of each node. Each group exclusively owns its resource
// template, nodes get a copy when the template is stamped onto them.
type NodeGroupResource struct {
	Count    int
	Resource *NodeResource
	Priority string
}

// NewNodeGroupResource creates a NodeGroupResource instance.
func NewNodeGroupResource(count int, resource *NodeResource) *NodeGroupResource {
	return &NodeGroupResource{
		Count:    count,
		Resource: resource,
	}
}

// NewEmptyGroupResource creates the zero-replica sentinel of a task
// group which the job does not use.
func NewEmptyGroupResource() *NodeGroupResource {
	return NewNodeGroupResource(0, NewNodeResource(0, 0, "", 0))
}

// Update replaces the replica count and the cpu/memory of the owned
// resource template.
func (group *NodeGroupResource) Update(count int, cpu float64, memory float64) {
	group.Count = count
	group.Resource.CPU = cpu
	group.Resource.Memory = memory
}
