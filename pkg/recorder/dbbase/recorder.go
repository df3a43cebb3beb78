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

package dbbase

import (
	"fmt"

	log "github.com/golang/glog"
	"xorm.io/xorm"
)

// Condition is the interface of db query condition
type Condition interface {
	// Apply this condition to SQL where clause
	Apply(session *xorm.Session) *xorm.Session
}

// RecorderInterface is the interface of the recorder
type RecorderInterface interface {
	// row must be a pointer
	Get(row interface{}, condition Condition) error
	// rows must be a pointer to a slice
	List(rows interface{}, condition Condition) error
	Count(condition Condition) (uint64, error)
	Insert(row interface{}) error
}

// DatabaseRecorder is the struct of the database recorder
type DatabaseRecorder struct {
	*xorm.Engine
	TableName string
}

var _ RecorderInterface = &DatabaseRecorder{}

// Get returns a single row which meets the condition
func (r *DatabaseRecorder) Get(row interface{}, condition Condition) error {
	session := r.Table(r.TableName)
	session = condition.Apply(session)
	found, err := session.Get(row)
	if err != nil {
		log.Errorf("Failed to get %v of %+v: %v", r.TableName, condition, err)
		return err
	}
	if !found {
		return fmt.Errorf("can't find %v of %+v", r.TableName, condition)
	}
	return nil
}

// List returns multiple rows which meet the condition
func (r *DatabaseRecorder) List(rows interface{}, condition Condition) error {
	session := r.Table(r.TableName)
	session = condition.Apply(session)
	err := session.Find(rows)
	if err != nil {
		log.Errorf("Failed to list %v of %+v: %v", r.TableName, condition, err)
	}
	return err
}

// Count returns the number of rows which meet the condition
func (r *DatabaseRecorder) Count(condition Condition) (uint64, error) {
	session := r.Table(r.TableName)
	session = condition.Apply(session)
	count, err := session.Count()
	if err != nil {
		log.Errorf("Failed to count %v of %+v: %v", r.TableName, condition, err)
		return 0, err
	}
	return uint64(count), nil
}

// Insert appends a row
func (r *DatabaseRecorder) Insert(row interface{}) error {
	_, err := r.Table(r.TableName).Insert(row)
	if err != nil {
		log.Errorf("Failed to insert into %v: %v", r.TableName, err)
	}
	return err
}
