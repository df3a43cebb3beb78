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
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	// mysql driver
	_ "github.com/go-sql-driver/mysql"
	log "github.com/golang/glog"
	"xorm.io/xorm"
	"xorm.io/xorm/core"
	"xorm.io/xorm/names"
)

// Database is the struct of database
type Database struct {
	*xorm.Engine
}

// NewDatabase creates a DB
func NewDatabase(username, password, engineType, url string) *Database {
	var db Database
	uri := formatURI(username, password, url)
	db.init(engineType, uri)
	return &db
}

// Make sure the database connection URL is well formatted
func formatURI(username, password, url string) string {
	var params []string
	if !strings.Contains(url, "interpolateParams=") {
		params = append(params, "interpolateParams=true")
	}
	if !strings.Contains(url, "parseTime=") {
		params = append(params, "parseTime=true")
	}
	if !strings.Contains(url, "charset=") {
		params = append(params, "charset=utf8mb4,utf8")
	}
	if len(params) > 0 {
		if !strings.Contains(url, "?") {
			url += "?"
		} else {
			url += "&"
		}
		url += strings.Join(params, "&")
	}
	log.Infof("Database URL is formatted as %s", url)
	uri := fmt.Sprintf("%s:%s@%s", username, password, url)
	return uri
}

func (db *Database) init(engineType string, uri string) {
	engine, err := xorm.NewEngine(engineType, uri)
	if err != nil {
		panic(err)
	}
	// Test DB availability as early as possible
	if err = engine.Ping(); err != nil {
		panic(err)
	}
	db.Engine = postProcessEngine(engine, true)
}

// postProcessEngine sets the default mapper and the time zone of the
// engine.
func postProcessEngine(engine *xorm.Engine, showSQL bool) *xorm.Engine {
	// Set Gonic mapper, for example: NodeType <==> node_type
	engine.SetMapper(names.GonicMapper{})
	engine.SetTZDatabase(time.UTC)
	engine.SetTZLocation(time.UTC)
	engine.ShowSQL(showSQL)
	return engine
}

// GetXormEngine wraps an existing sql.DB into an xorm engine.
func GetXormEngine(sqlDB *sql.DB, showSQL bool) (*xorm.Engine, error) {
	engine, err := xorm.NewEngineWithDB("mysql", "mock", core.FromDB(sqlDB))
	if err != nil {
		return nil, err
	}
	return postProcessEngine(engine, showSQL), nil
}

// InitMockAndDB initializes a mock db
func InitMockAndDB(showSQL bool) (*Database, sqlmock.Sqlmock, error) {
	mockDB, mock, err := sqlmock.New()
	if err != nil {
		return nil, nil, err
	}
	// Replace the underlying sql.DB with mock
	xormEngine, err := GetXormEngine(mockDB, showSQL)
	if err != nil {
		return nil, nil, err
	}
	db := &Database{Engine: xormEngine}
	return db, mock, nil
}

// TimeRange is the query range of a time column
type TimeRange struct {
	From time.Time
	To   time.Time
}
