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

package main

import (
	"context"
	"flag"
	"os/signal"
	"strconv"
	"syscall"

	master "github.com/Eastdfu/dlrover/pkg"
	"github.com/Eastdfu/dlrover/pkg/jobmanager"
	"github.com/Eastdfu/dlrover/pkg/kubeutils"
	"github.com/Eastdfu/dlrover/pkg/lifecycle"
	"github.com/Eastdfu/dlrover/pkg/reconciler"
	"github.com/Eastdfu/dlrover/pkg/recorder/mysql"
	"github.com/Eastdfu/dlrover/pkg/server"
	logger "github.com/sirupsen/logrus"
)

func main() {
	var k8sScheduling bool
	var kubeConfigPath string
	var namespace string
	var jobName string
	var port int
	var workerNum int
	var workerResource string
	var workerMaxRelaunch int
	var psNum int
	var psResource string
	var psMaxRelaunch int
	var oomMemoryMultiplier float64
	var oomMemoryCeilingMB float64
	var dbUser string
	var dbPassword string
	var dbURL string

	flag.BoolVar(&k8sScheduling, "k8s_scheduling", true, "Whether to enable scheduling pods on k8s.")
	flag.StringVar(&kubeConfigPath, "kube_config", "", "The kubeconfig path, empty for in-cluster mode.")
	flag.StringVar(&namespace, "namespace", "default", "The name of the Kubernetes namespace.")
	flag.StringVar(&jobName, "job_name", "", "The dlrover/elasticjob name.")
	flag.IntVar(&port, "port", 8080, "The port which the master service binds to.")
	flag.IntVar(&workerNum, "worker_num", 0, "The number of workers.")
	flag.StringVar(&workerResource, "worker_resource", "", "The resource of each worker, e.g. cpu=4,memory=8192Mi.")
	flag.IntVar(&workerMaxRelaunch, "worker_max_relaunch", -1, "The relaunch budget per worker, negative for the default.")
	flag.IntVar(&psNum, "ps_num", 0, "The number of parameter servers.")
	flag.StringVar(&psResource, "ps_resource", "", "The resource of each parameter server.")
	flag.IntVar(&psMaxRelaunch, "ps_max_relaunch", -1, "The relaunch budget per parameter server, negative for the default.")
	flag.Float64Var(&oomMemoryMultiplier, "oom_memory_multiplier", 2.0, "The memory multiplier of a node relaunched after OOM.")
	flag.Float64Var(&oomMemoryCeilingMB, "oom_memory_ceiling_mb", 102400, "The hard memory ceiling in MB.")
	flag.StringVar(&dbUser, "db_user", "", "The mysql user to record lifecycle events, empty for in-memory records.")
	flag.StringVar(&dbPassword, "db_password", "", "The mysql password.")
	flag.StringVar(&dbURL, "db_url", "", "The mysql url, e.g. tcp(localhost:3306)/dlrover.")
	flag.Parse()

	policy := lifecycle.DefaultPolicyConfig()
	policy.OOMMemoryMultiplier = oomMemoryMultiplier
	policy.OOMMemoryCeilingMB = oomMemoryCeilingMB

	jobConfig := &jobmanager.JobConfig{
		DistributionStrategy: "ps",
		ReplicaSpecs:         map[string]*jobmanager.ReplicaSpec{},
		Policy:               policy,
	}
	if workerNum > 0 {
		jobConfig.ReplicaSpecs["worker"] = &jobmanager.ReplicaSpec{
			Replicas:         workerNum,
			Resource:         workerResource,
			MaxRelaunchCount: workerMaxRelaunch,
		}
	}
	if psNum > 0 {
		jobConfig.ReplicaSpecs["ps"] = &jobmanager.ReplicaSpec{
			Replicas:         psNum,
			Resource:         psResource,
			Critical:         true,
			MaxRelaunchCount: psMaxRelaunch,
		}
	}

	var eventRecorder reconciler.EventRecorder
	if dbURL != "" {
		eventRecorder = mysql.NewClient(dbUser, dbPassword, "mysql", dbURL)
	} else {
		eventRecorder = mysql.NewFakeClient()
	}

	var k8sClient *kubeutils.K8sClient
	if k8sScheduling {
		// Use incluster mode without kubeconfig.
		kubeutils.NewGlobalK8sClient(kubeConfigPath, namespace)
		k8sClient = kubeutils.GlobalK8sClient
	}

	jobMaster, err := master.NewJobMaster(namespace, jobName, jobConfig, k8sClient, eventRecorder)
	if err != nil {
		logger.Fatalf("fail to create the master of job %s: %v", jobName, err)
	}

	router := server.NewRouter(jobMaster.Manager.Reconciler())
	go router.Run(":" + strconv.Itoa(port))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Infof("the master starts with namespace %s, jobName %s, port %d", namespace, jobName, port)
	jobMaster.Run(ctx)
}
