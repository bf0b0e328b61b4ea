/*
 * Licensed to the Apache Software Foundation (ASF) under one or more
 * contributor license agreements.  See the NOTICE file distributed with
 * this work for additional information regarding copyright ownership.
 * The ASF licenses this file to You under the Apache License, Version 2.0
 * (the "License"); you may not use this file except in compliance with
 * the License.  You may obtain a copy of the License at
 *
 *    http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package discovery

import (
	"os"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestProcessUptimeInvalidPID tests that invalid PIDs yield zero
// TestProcessUptimeInvalidPID 测试无效 PID 返回零
func TestProcessUptimeInvalidPID(t *testing.T) {
	assert.Equal(t, time.Duration(0), ProcessUptime(0))
	assert.Equal(t, time.Duration(0), ProcessUptime(-1))
}

// TestProcessRSSInvalidPID tests that invalid PIDs yield zero
// TestProcessRSSInvalidPID 测试无效 PID 返回零
func TestProcessRSSInvalidPID(t *testing.T) {
	assert.Equal(t, int64(0), ProcessRSS(0))
	assert.Equal(t, int64(0), ProcessRSS(-1))
}

// TestProcessRSSSelf tests reading the test process's own resident memory
// TestProcessRSSSelf 测试读取测试进程自身的常驻内存
func TestProcessRSSSelf(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix only / 仅限 Unix")
	}
	rss := ProcessRSS(os.Getpid())
	assert.Greater(t, rss, int64(0), "a live process has resident memory")
}

// TestProcessUptimeSelf tests reading the test process's own uptime.
// Zero is tolerated for a freshly started process, negatives are not.
// TestProcessUptimeSelf 测试读取测试进程自身的运行时长。
// 刚启动的进程允许为零，但不允许为负。
func TestProcessUptimeSelf(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix only / 仅限 Unix")
	}
	uptime := ProcessUptime(os.Getpid())
	assert.GreaterOrEqual(t, uptime, time.Duration(0))
}

// TestProcessUptimeInit tests uptime of PID 1, which predates this test run
// TestProcessUptimeInit 测试 PID 1 的运行时长，它早于本次测试启动
func TestProcessUptimeInit(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("linux only / 仅限 Linux")
	}
	if _, err := os.ReadFile("/proc/1/stat"); err != nil {
		t.Skipf("cannot read /proc/1/stat: %v", err)
	}
	assert.Greater(t, ProcessUptime(1), time.Duration(0))
}
