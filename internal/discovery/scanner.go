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

// Package discovery locates running instances of the fan control program.
// discovery 包负责定位正在运行的风扇控制程序实例。
//
// The process table is the only source of truth: every operation queries it
// fresh and nothing is cached or persisted between invocations.
// 进程表是唯一的事实来源：每次操作都重新查询，调用之间不缓存、不持久化任何状态。
package discovery

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
)

// Handle identifies one running instance of the monitored program.
// Handle 标识被监控程序的一个运行实例。
type Handle struct {
	// PID is the operating system process ID
	// PID 是操作系统进程 ID
	PID int `json:"pid"`

	// CommandLine is the full command line as reported by the process table
	// CommandLine 是进程表报告的完整命令行
	CommandLine string `json:"command_line"`
}

// Scanner scans the OS process table for the monitored program.
// Scanner 在操作系统进程表中扫描被监控程序。
type Scanner struct {
	scriptPath string
	matcher    Matcher
}

// NewScanner creates a Scanner for the given script path and match predicate.
// A nil matcher falls back to the default substring match.
// NewScanner 为给定的脚本路径和匹配谓词创建 Scanner。
// matcher 为 nil 时回退到默认的子串匹配。
func NewScanner(scriptPath string, matcher Matcher) *Scanner {
	if matcher == nil {
		matcher = SubstringMatcher
	}
	return &Scanner{scriptPath: scriptPath, matcher: matcher}
}

// ScriptPath returns the configured script path this scanner matches against.
// ScriptPath 返回此扫描器所匹配的脚本路径。
func (s *Scanner) ScriptPath() string {
	return s.scriptPath
}

// Scan queries the process table and returns every process whose command
// line matches the monitored script. The supervisor's own process is
// excluded. An empty result is not an error.
// Scan 查询进程表并返回命令行与被监控脚本匹配的所有进程。
// 监管程序自身的进程会被排除。结果为空不是错误。
func (s *Scanner) Scan(ctx context.Context) ([]Handle, error) {
	if runtime.GOOS == "windows" {
		return s.scanWindows(ctx)
	}
	return s.scanUnix(ctx)
}

// scanUnix scans processes on Unix/Linux via ps
// scanUnix 在 Unix/Linux 上通过 ps 扫描进程
func (s *Scanner) scanUnix(ctx context.Context) ([]Handle, error) {
	// pid= / args= suppress headers so every line is a candidate
	// pid= / args= 不输出表头，因此每一行都是候选进程
	cmd := exec.CommandContext(ctx, "ps", "-eo", "pid=,args=")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to scan process table: %w", err)
	}

	self := os.Getpid()
	var handles []Handle
	for _, line := range strings.Split(string(output), "\n") {
		h, ok := parsePSLine(line)
		if !ok || h.PID == self {
			continue
		}
		if s.matcher(h.CommandLine, s.scriptPath) {
			handles = append(handles, h)
		}
	}
	return handles, nil
}

// scanWindows scans processes on Windows via wmic
// scanWindows 在 Windows 上通过 wmic 扫描进程
func (s *Scanner) scanWindows(ctx context.Context) ([]Handle, error) {
	cmd := exec.CommandContext(ctx, "wmic", "process", "get", "CommandLine,ProcessId", "/format:csv")
	output, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("failed to scan process table: %w", err)
	}

	self := os.Getpid()
	var handles []Handle
	for _, line := range strings.Split(string(output), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		// CSV format: Node,CommandLine,ProcessId
		// CSV 格式：Node,CommandLine,ProcessId
		parts := strings.Split(line, ",")
		if len(parts) < 3 {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1]))
		if err != nil || pid == self {
			continue
		}
		cmdline := strings.Join(parts[1:len(parts)-1], ",")
		if s.matcher(cmdline, s.scriptPath) {
			handles = append(handles, Handle{PID: pid, CommandLine: cmdline})
		}
	}
	return handles, nil
}

// parsePSLine parses a single "PID ARGS" line from ps output.
// parsePSLine 解析 ps 输出中的单行 "PID ARGS"。
func parsePSLine(line string) (Handle, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Handle{}, false
	}

	// The first field is the PID, the rest is the full command line
	// 第一个字段是 PID，其余部分是完整命令行
	idx := strings.IndexAny(line, " \t")
	if idx < 0 {
		return Handle{}, false
	}
	pid, err := strconv.Atoi(line[:idx])
	if err != nil || pid <= 0 {
		return Handle{}, false
	}
	cmdline := strings.TrimSpace(line[idx+1:])
	if cmdline == "" {
		return Handle{}, false
	}
	return Handle{PID: pid, CommandLine: cmdline}, true
}
