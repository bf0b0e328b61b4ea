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

package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kodiops/fanctl/internal/supervisor"
)

// TestRootCommand tests the root command wiring
// TestRootCommand 测试根命令装配
func TestRootCommand(t *testing.T) {
	assert.Equal(t, "fanctl", rootCmd.Use)
	assert.True(t, rootCmd.HasSubCommands())
	assert.True(t, rootCmd.SilenceUsage)
	assert.True(t, rootCmd.SilenceErrors)

	want := []string{"start", "stop", "restart", "status", "logs", "version"}
	for _, name := range want {
		found := false
		for _, sub := range rootCmd.Commands() {
			if sub.Name() == name {
				found = true
				break
			}
		}
		assert.True(t, found, "missing subcommand %s", name)
	}
}

// TestUnknownCommandFails tests that an unrecognized command is rejected
// with the usage message on stderr and without performing any operation
// TestUnknownCommandFails 测试无法识别的命令被拒绝，usage 信息输出到
// 标准错误，且不执行任何操作
func TestUnknownCommandFails(t *testing.T) {
	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"frobnicate"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	code := execute()
	assert.Equal(t, 1, code)
	assert.Empty(t, out.String())

	stderr := errOut.String()
	assert.Contains(t, stderr, "unknown command")
	assert.Contains(t, stderr, "frobnicate")
	assert.Contains(t, stderr, "Usage:")
	assert.Contains(t, stderr, "fanctl [command]")
}

// TestOperationFailureOmitsUsage tests that a failing subcommand reports its
// error without the usage message, which is reserved for command-line mistakes
// TestOperationFailureOmitsUsage 测试子命令失败时只报告错误而不附带 usage，
// usage 只用于命令行用错的情况
func TestOperationFailureOmitsUsage(t *testing.T) {
	t.Setenv("FANCTL_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("FANCTL_MONITOR_SCRIPT_PATH", "relative/fan_control.py")

	var out, errOut bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&errOut)
	rootCmd.SetArgs([]string{"status"})
	defer func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	}()

	code := execute()
	assert.Equal(t, 1, code)

	stderr := errOut.String()
	assert.Contains(t, stderr, "invalid config")
	assert.NotContains(t, stderr, "Usage:")
}

// TestConfigFlagRegistered tests the persistent config flag
// TestConfigFlagRegistered 测试持久化的配置标志
func TestConfigFlagRegistered(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("config")
	require.NotNil(t, flag)
	assert.Equal(t, "c", flag.Shorthand)
	assert.Equal(t, "", flag.DefValue)
}

// TestLogsFlags tests the logs command flags and defaults
// TestLogsFlags 测试 logs 命令的标志及默认值
func TestLogsFlags(t *testing.T) {
	linesFlag := logsCmd.Flags().Lookup("lines")
	require.NotNil(t, linesFlag)
	assert.Equal(t, "n", linesFlag.Shorthand)
	assert.Equal(t, "50", linesFlag.DefValue)

	followFlag := logsCmd.Flags().Lookup("follow")
	require.NotNil(t, followFlag)
	assert.Equal(t, "f", followFlag.Shorthand)
	assert.Equal(t, "false", followFlag.DefValue)
}

// TestVersionCommand tests the version command registration
// TestVersionCommand 测试 version 命令的注册
func TestVersionCommand(t *testing.T) {
	assert.Equal(t, "version", versionCmd.Use)
	assert.NotNil(t, versionCmd.Run)
}

// TestLoadConfigRejectsInvalid tests that loadConfig validates the result
// TestLoadConfigRejectsInvalid 测试 loadConfig 会验证加载结果
func TestLoadConfigRejectsInvalid(t *testing.T) {
	t.Setenv("FANCTL_CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))
	t.Setenv("FANCTL_MONITOR_SCRIPT_PATH", "relative/fan_control.py")

	_, err := loadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

// TestFlushLines tests that lines buffered after the tailer stops are
// still printed
// TestFlushLines 测试跟踪器停止后仍缓冲的行依然会被打印
func TestFlushLines(t *testing.T) {
	lines := make(chan string, 4)
	lines <- "fan speed 40%"
	lines <- "fan speed 60%"

	var out bytes.Buffer
	flushLines(&out, lines)
	assert.Equal(t, "fan speed 40%\nfan speed 60%\n", out.String())

	// An empty channel flushes nothing / 空通道不输出任何内容
	out.Reset()
	flushLines(&out, lines)
	assert.Empty(t, out.String())
}

// TestPrintResultRouting tests that failures go to stderr and the rest to stdout
// TestPrintResultRouting 测试失败输出到标准错误，其余输出到标准输出
func TestPrintResultRouting(t *testing.T) {
	testCases := []struct {
		name       string
		result     *supervisor.Result
		wantStdout string
		wantStderr string
	}{
		{
			name:       "success goes to stdout",
			result:     &supervisor.Result{Outcome: supervisor.OutcomeDone, Message: "fan control program started (pid 42)"},
			wantStdout: "fan control program started (pid 42)\n",
		},
		{
			name:       "benign noop goes to stdout",
			result:     &supervisor.Result{Outcome: supervisor.OutcomeNoop, Message: "fan control program is not running"},
			wantStdout: "fan control program is not running\n",
		},
		{
			name:       "failure goes to stderr",
			result:     &supervisor.Result{Outcome: supervisor.OutcomeFailed, Message: "failed to start fan control program: exec: not found"},
			wantStderr: "failed to start fan control program: exec: not found\n",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var out, errOut bytes.Buffer
			cmd := &cobra.Command{}
			cmd.SetOut(&out)
			cmd.SetErr(&errOut)

			printResult(cmd, tc.result)
			assert.Equal(t, tc.wantStdout, out.String())
			assert.Equal(t, tc.wantStderr, errOut.String())
		})
	}
}
