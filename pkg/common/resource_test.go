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
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConvertMemoryToMB(t *testing.T) {
	value, err := ConvertMemoryToMB("2Gi")
	assert.NoError(t, err)
	assert.Equal(t, int64(2048), value)

	value, err = ConvertMemoryToMB("1024Ki")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), value)

	value, err = ConvertMemoryToMB("5Mi")
	assert.NoError(t, err)
	assert.Equal(t, int64(5), value)

	_, err = ConvertMemoryToMB("5Ti")
	assert.ErrorIs(t, err, ErrMalformedResource)

	_, err = ConvertMemoryToMB("xyMi")
	assert.ErrorIs(t, err, ErrMalformedResource)

	_, err = ConvertMemoryToMB("5")
	assert.ErrorIs(t, err, ErrMalformedResource)
}

func TestParseNodeResource(t *testing.T) {
	resource, err := ParseNodeResource("memory=100Mi,cpu=5,nvidia.com/gpu=2")
	assert.NoError(t, err)
	assert.Equal(t, 5.0, resource.CPU)
	assert.Equal(t, 100.0, resource.Memory)
	assert.Equal(t, "nvidia.com/gpu", resource.GPUType)
	assert.Equal(t, 2, resource.GPUNum)

	// An absent configuration is a valid zero resource.
	resource, err = ParseNodeResource("")
	assert.NoError(t, err)
	assert.Equal(t, 0.0, resource.CPU)
	assert.Equal(t, 0.0, resource.Memory)
	assert.Equal(t, 0, resource.GPUNum)

	// Absent keys default to zero.
	resource, err = ParseNodeResource("cpu=0.5")
	assert.NoError(t, err)
	assert.Equal(t, 0.5, resource.CPU)
	assert.Equal(t, 0.0, resource.Memory)

	// A malformed configuration is a hard failure, never a silent zero.
	_, err = ParseNodeResource("memory=100Ti,cpu=5")
	assert.ErrorIs(t, err, ErrMalformedResource)

	_, err = ParseNodeResource("cpu=abc")
	assert.ErrorIs(t, err, ErrMalformedResource)

	_, err = ParseNodeResource("cpu")
	assert.ErrorIs(t, err, ErrMalformedResource)

	_, err = ParseNodeResource("nvidia.com/gpu=1.5")
	assert.ErrorIs(t, err, ErrMalformedResource)
}

func TestToResourceDict(t *testing.T) {
	resource := NewNodeResource(4, 8192, "", 0)
	dict := resource.ToResourceDict()
	assert.Equal(t, map[string]string{"cpu": "4", "memory": "8192Mi"}, dict)

	resource = NewNodeResource(0.5, 100, "nvidia.com/gpu", 2)
	dict = resource.ToResourceDict()
	assert.Equal(t, "0.5", dict["cpu"])
	assert.Equal(t, "100Mi", dict["memory"])
	assert.Equal(t, "2", dict["nvidia.com/gpu"])
}

func TestResourceRoundTrip(t *testing.T) {
	resource, err := ParseNodeResource("cpu=5,memory=2Gi,nvidia.com/gpu=1")
	assert.NoError(t, err)

	tokens := make([]string, 0)
	for key, value := range resource.ToResourceDict() {
		if key == "memory" {
			tokens = append(tokens, "memory="+value)
		} else {
			tokens = append(tokens, key+"="+value)
		}
	}
	sort.Strings(tokens)
	parsed, err := ParseNodeResource(strings.Join(tokens, ","))
	assert.NoError(t, err)
	assert.Equal(t, resource.CPU, parsed.CPU)
	assert.Equal(t, resource.Memory, parsed.Memory)
	assert.Equal(t, resource.GPUType, parsed.GPUType)
	assert.Equal(t, resource.GPUNum, parsed.GPUNum)
}

func TestNodeGroupResource(t *testing.T) {
	group := NewEmptyGroupResource()
	assert.Equal(t, 0, group.Count)
	assert.Equal(t, 0.0, group.Resource.CPU)

	group.Update(3, 8, 16384)
	assert.Equal(t, 3, group.Count)
	assert.Equal(t, 8.0, group.Resource.CPU)
	assert.Equal(t, 16384.0, group.Resource.Memory)
}

func TestNodeResourceDeepCopy(t *testing.T) {
	resource := NewNodeResource(4, 8192, "nvidia.com/gpu", 1)
	copied := resource.DeepCopy()
	copied.Memory = 1
	assert.Equal(t, 8192.0, resource.Memory)
}
