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
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// ProcessUptime returns how long the process has been running, or zero when
// the information is unavailable. Best effort only: status reporting must
// not fail because a metrics read failed.
// ProcessUptime 返回进程已运行的时长，信息不可用时返回零。
// 仅尽力而为：指标读取失败不能导致状态上报失败。
func ProcessUptime(pid int) time.Duration {
	if pid <= 0 {
		return 0
	}
	if runtime.GOOS == "linux" {
		if d, err := processUptimeLinux(pid); err == nil {
			return d
		}
	}
	return processUptimePS(pid)
}

// ProcessRSS returns the resident memory of the process in bytes, or zero
// when the information is unavailable.
// ProcessRSS 返回进程的常驻内存（字节），信息不可用时返回零。
func ProcessRSS(pid int) int64 {
	if pid <= 0 {
		return 0
	}
	if runtime.GOOS == "linux" {
		if rss, err := processRSSLinux(pid); err == nil {
			return rss
		}
	}
	return processRSSPS(pid)
}

// processUptimeLinux derives uptime from /proc/[pid]/stat and /proc/uptime
// processUptimeLinux 从 /proc/[pid]/stat 和 /proc/uptime 推算运行时长
func processUptimeLinux(pid int) (time.Duration, error) {
	statData, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return 0, err
	}

	// comm (field 2) may contain spaces, so parse from the closing paren
	// comm（第 2 个字段）可能包含空格，因此从右括号之后开始解析
	stat := string(statData)
	idx := strings.LastIndexByte(stat, ')')
	if idx < 0 || idx+2 >= len(stat) {
		return 0, fmt.Errorf("malformed stat for pid %d", pid)
	}
	fields := strings.Fields(stat[idx+2:])

	// starttime is field 22 overall, field 20 after comm
	// starttime 是整体第 22 个字段，comm 之后的第 20 个字段
	if len(fields) < 20 {
		return 0, fmt.Errorf("short stat for pid %d", pid)
	}
	startTicks, err := strconv.ParseInt(fields[19], 10, 64)
	if err != nil {
		return 0, err
	}

	uptimeData, err := os.ReadFile("/proc/uptime")
	if err != nil {
		return 0, err
	}
	uptimeFields := strings.Fields(string(uptimeData))
	if len(uptimeFields) < 1 {
		return 0, fmt.Errorf("malformed /proc/uptime")
	}
	systemUptime, err := strconv.ParseFloat(uptimeFields[0], 64)
	if err != nil {
		return 0, err
	}

	// starttime is in clock ticks, assume the usual 100Hz USER_HZ
	// starttime 以时钟周期为单位，按常见的 100Hz USER_HZ 计算
	started := float64(startTicks) / 100.0
	if started > systemUptime {
		return 0, nil
	}
	return time.Duration((systemUptime - started) * float64(time.Second)), nil
}

// processRSSLinux reads resident memory from /proc/[pid]/statm
// processRSSLinux 从 /proc/[pid]/statm 读取常驻内存
func processRSSLinux(pid int) (int64, error) {
	statmData, err := os.ReadFile(fmt.Sprintf("/proc/%d/statm", pid))
	if err != nil {
		return 0, err
	}
	fields := strings.Fields(string(statmData))
	if len(fields) < 2 {
		return 0, fmt.Errorf("malformed statm for pid %d", pid)
	}
	rssPages, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return 0, err
	}

	// RSS is in pages, convert to bytes assuming 4KB pages
	// RSS 以页为单位，按 4KB 页转换为字节
	return rssPages * 4096, nil
}

// processUptimePS falls back to ps for non-Linux systems
// processUptimePS 在非 Linux 系统上回退到 ps
func processUptimePS(pid int) time.Duration {
	out, err := exec.Command("ps", "-o", "etimes=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return 0
	}
	secs, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0
	}
	return time.Duration(secs) * time.Second
}

// processRSSPS falls back to ps for non-Linux systems
// processRSSPS 在非 Linux 系统上回退到 ps
func processRSSPS(pid int) int64 {
	out, err := exec.Command("ps", "-o", "rss=", "-p", strconv.Itoa(pid)).Output()
	if err != nil {
		return 0
	}
	kb, err := strconv.ParseInt(strings.TrimSpace(string(out)), 10, 64)
	if err != nil {
		return 0
	}
	return kb * 1024
}
