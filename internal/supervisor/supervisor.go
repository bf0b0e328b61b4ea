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

// Package supervisor implements the fan control program lifecycle operations.
// supervisor 包实现风扇控制程序的生命周期操作。
//
// This package provides:
// 此包提供：
// - Start, Stop, Restart, Status operations / 启动、停止、重启、状态操作
// - Singleton enforcement via process-table discovery / 通过进程表发现实现单例约束
// - Detached spawn so the program outlives the supervisor / 分离启动，使程序比监管进程存活更久
//
// The supervisor is stateless between invocations: the lifecycle state is
// recomputed from a fresh process-table scan at the start of every
// operation and never cached.
// 监管程序在调用之间无状态：生命周期状态在每次操作开始时
// 通过全新的进程表扫描重新计算，绝不缓存。
package supervisor

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kodiops/fanctl/internal/config"
	"github.com/kodiops/fanctl/internal/discovery"
)

// State is the lifecycle state derived from a process-table snapshot
// State 是从进程表快照推导出的生命周期状态
type State string

const (
	// StateRunning indicates at least one matching process exists.
	// Plurality is tolerated, not treated as corruption.
	// StateRunning 表示至少存在一个匹配进程。多实例被容忍，不视为损坏。
	StateRunning State = "running"

	// StateNotRunning indicates no matching process exists
	// StateNotRunning 表示不存在匹配进程
	StateNotRunning State = "not running"
)

// Classify maps a fresh process-table snapshot to a lifecycle state.
// Pure function: the only supervisor state lives in the OS process table.
// Classify 将全新的进程表快照映射为生命周期状态。
// 纯函数：监管程序的唯一状态存在于操作系统进程表中。
func Classify(handles []discovery.Handle) State {
	if len(handles) > 0 {
		return StateRunning
	}
	return StateNotRunning
}

// Outcome classifies an operation result for exit-code mapping
// Outcome 对操作结果进行分类，用于退出码映射
type Outcome string

const (
	// OutcomeDone means the operation performed its action
	// OutcomeDone 表示操作执行了其动作
	OutcomeDone Outcome = "done"

	// OutcomeNoop means the program was already in the desired state,
	// a benign informational result rather than a hard failure
	// OutcomeNoop 表示程序已处于期望状态，是良性的提示结果而非硬失败
	OutcomeNoop Outcome = "noop"

	// OutcomeFailed means the action could not be performed
	// OutcomeFailed 表示动作无法执行
	OutcomeFailed Outcome = "failed"
)

// Result is the user-visible outcome of a single operation
// Result 是单次操作的用户可见结果
type Result struct {
	Outcome Outcome `json:"outcome"`
	Message string  `json:"message"`
	PIDs    []int   `json:"pids,omitempty"`
}

// Failed reports whether the operation failed outright
// Failed 报告操作是否彻底失败
func (r *Result) Failed() bool {
	return r.Outcome == OutcomeFailed
}

// Scanner abstracts process-table discovery for the supervisor
// Scanner 为监管程序抽象进程表发现
type Scanner interface {
	Scan(ctx context.Context) ([]discovery.Handle, error)
}

// Supervisor drives one lifecycle operation per invocation
// Supervisor 每次调用执行一个生命周期操作
type Supervisor struct {
	cfg     *config.Config
	scanner Scanner
	logger  *zap.Logger

	// Action seams, replaced in tests / 动作接缝，测试中可替换
	spawn  func(ctx context.Context, interpreter, scriptPath string) (int, error)
	signal func(pid int, sig syscall.Signal) error
	alive  func(pid int) bool
}

// New creates a Supervisor for the configured monitored program
// New 为配置的被监控程序创建 Supervisor
func New(cfg *config.Config, logger *zap.Logger) *Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	matcher := discovery.MatcherForMode(cfg.Monitor.MatchMode)
	return &Supervisor{
		cfg:     cfg,
		scanner: discovery.NewScanner(cfg.Monitor.ScriptPath, matcher),
		logger:  logger,
		spawn:   spawnDetached,
		signal:  sendSignal,
		alive:   isProcessAlive,
	}
}

// Start starts the fan control program if it is not already running.
// A second start while running is a benign no-op; exactly one instance is
// ever spawned. Spawn failure surfaces the OS error and is not retried.
// Start 在风扇控制程序未运行时启动它。
// 运行中再次 start 是良性空操作；最多只会派生一个实例。
// 派生失败时暴露操作系统错误，不会重试。
func (s *Supervisor) Start(ctx context.Context) *Result {
	handles, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Error("process table query failed", zap.Error(err))
		return &Result{Outcome: OutcomeFailed, Message: fmt.Sprintf("failed to query process table: %v", err)}
	}

	if Classify(handles) == StateRunning {
		pids := pidsOf(handles)
		s.logger.Info("start requested but program is already running", zap.Ints("pids", pids))
		return &Result{
			Outcome: OutcomeNoop,
			Message: fmt.Sprintf("fan control program is already running (pid %s)", formatPIDs(pids)),
			PIDs:    pids,
		}
	}

	pid, err := s.spawn(ctx, s.cfg.Monitor.Interpreter, s.cfg.Monitor.ScriptPath)
	if err != nil {
		s.logger.Error("spawn failed", zap.String("script", s.cfg.Monitor.ScriptPath), zap.Error(err))
		return &Result{Outcome: OutcomeFailed, Message: fmt.Sprintf("failed to start fan control program: %v", err)}
	}

	s.logger.Info("fan control program started",
		zap.Int("pid", pid),
		zap.String("interpreter", s.cfg.Monitor.Interpreter),
		zap.String("script", s.cfg.Monitor.ScriptPath))
	return &Result{
		Outcome: OutcomeDone,
		Message: fmt.Sprintf("fan control program started (pid %d)", pid),
		PIDs:    []int{pid},
	}
}

// Stop sends the configured termination signal to every matching process.
// Success means signal delivery succeeded, not that the processes have
// exited; when stop.wait_timeout is positive the supervisor additionally
// waits for exit and escalates to SIGKILL for survivors.
// Stop 向每个匹配进程发送配置的终止信号。
// 成功仅表示信号送达，不代表进程已退出；当 stop.wait_timeout 为正时，
// 监管程序会额外等待退出，并对残留进程升级为 SIGKILL。
func (s *Supervisor) Stop(ctx context.Context) *Result {
	handles, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Error("process table query failed", zap.Error(err))
		return &Result{Outcome: OutcomeFailed, Message: fmt.Sprintf("failed to query process table: %v", err)}
	}

	if Classify(handles) == StateNotRunning {
		s.logger.Info("stop requested but program is not running")
		return &Result{Outcome: OutcomeNoop, Message: "fan control program is not running"}
	}

	sig := signalFromName(s.cfg.Stop.Signal)
	pids := pidsOf(handles)
	var failed []int
	for _, pid := range pids {
		if err := s.signal(pid, sig); err != nil {
			// The process may have exited between discovery and signaling,
			// a benign race not distinguished from permission errors here
			// 进程可能在发现与发信号之间已退出，
			// 这个良性竞态在此不与权限错误区分
			s.logger.Warn("signal delivery failed", zap.Int("pid", pid), zap.Error(err))
			failed = append(failed, pid)
		}
	}

	if len(failed) > 0 {
		return &Result{
			Outcome: OutcomeFailed,
			Message: fmt.Sprintf("failed to signal process %s: the fan control program may not be running", formatPIDs(failed)),
			PIDs:    pids,
		}
	}

	if s.cfg.Stop.WaitTimeout > 0 {
		s.awaitExit(ctx, pids, s.cfg.Stop.WaitTimeout)
	}

	s.logger.Info("termination requested", zap.String("signal", signalName(sig)), zap.Ints("pids", pids))
	return &Result{
		Outcome: OutcomeDone,
		Message: fmt.Sprintf("%s sent to %d process(es)", signalName(sig), len(pids)),
		PIDs:    pids,
	}
}

// Restart stops and then starts the program, regardless of the stop
// outcome and with no delay in between. From NotRunning this reduces to a
// bare start.
// Restart 先停止再启动程序，不论停止结果如何，中间无延迟。
// 从未运行状态执行时退化为单纯的启动。
func (s *Supervisor) Restart(ctx context.Context) *Result {
	stopRes := s.Stop(ctx)
	s.logger.Info("restart: stop phase finished",
		zap.String("outcome", string(stopRes.Outcome)),
		zap.String("message", stopRes.Message))
	return s.Start(ctx)
}

// Status reports whether the fan control program is running. The first
// output line is always "running" or "not running"; detail lines follow
// per discovered process.
// Status 报告风扇控制程序是否在运行。输出首行始终为
// "running" 或 "not running"，随后是每个已发现进程的详情行。
func (s *Supervisor) Status(ctx context.Context) *Result {
	handles, err := s.scanner.Scan(ctx)
	if err != nil {
		s.logger.Error("process table query failed", zap.Error(err))
		return &Result{Outcome: OutcomeFailed, Message: fmt.Sprintf("failed to query process table: %v", err)}
	}

	if Classify(handles) == StateNotRunning {
		return &Result{Outcome: OutcomeDone, Message: string(StateNotRunning)}
	}

	lines := []string{string(StateRunning)}
	for _, h := range handles {
		lines = append(lines, fmt.Sprintf("  pid %d  uptime %s  rss %s",
			h.PID,
			formatUptime(discovery.ProcessUptime(h.PID)),
			formatBytes(discovery.ProcessRSS(h.PID))))
	}
	return &Result{
		Outcome: OutcomeDone,
		Message: strings.Join(lines, "\n"),
		PIDs:    pidsOf(handles),
	}
}

// awaitExit polls the signaled processes until they exit or the timeout
// expires, then force kills any survivors
// awaitExit 轮询被发信号的进程直到退出或超时，然后强制杀死残留进程
func (s *Supervisor) awaitExit(ctx context.Context, pids []int, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			return
		}
		allDead := true
		for _, pid := range pids {
			if s.alive(pid) {
				allDead = false
				break
			}
		}
		if allDead {
			return
		}
		time.Sleep(200 * time.Millisecond)
	}

	for _, pid := range pids {
		if s.alive(pid) {
			s.logger.Warn("process survived graceful stop, sending SIGKILL", zap.Int("pid", pid))
			_ = s.signal(pid, syscall.SIGKILL)
		}
	}
}

// Helper functions / 辅助函数

// spawnDetached launches the monitored program fully detached: its own
// session, stdio discarded, handle released without waiting. The child must
// not terminate when the invoking shell or the supervisor itself exits.
// spawnDetached 以完全分离的方式启动被监控程序：独立会话、丢弃标准输入输出、
// 不等待即释放句柄。调用方 shell 或监管进程退出时子进程不得终止。
func spawnDetached(_ context.Context, interpreter, scriptPath string) (int, error) {
	// Deliberately not CommandContext: context cancellation must never
	// kill the detached child
	// 有意不用 CommandContext：上下文取消绝不能杀死已分离的子进程
	cmd := exec.Command(interpreter, scriptPath)
	cmd.Dir = filepath.Dir(scriptPath)
	cmd.Env = os.Environ()

	// Stdin/Stdout/Stderr stay nil so the child gets /dev/null; the
	// monitored program keeps its own log file
	// Stdin/Stdout/Stderr 保持 nil，子进程获得 /dev/null；
	// 被监控程序维护自己的日志文件
	setDetachAttr(cmd)

	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid

	// No Wait: the child outlives this invocation
	// 不执行 Wait：子进程比本次调用存活更久
	_ = cmd.Process.Release()
	return pid, nil
}

// isProcessAlive checks if a process with the given PID is alive
// isProcessAlive 检查给定 PID 的进程是否存活
func isProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// On Unix, FindProcess always succeeds, so send signal 0 to check
	// 在 Unix 上 FindProcess 总是成功，因此发送信号 0 来检查
	if runtime.GOOS != "windows" {
		return process.Signal(syscall.Signal(0)) == nil
	}
	return checkProcessWindows(pid)
}

// checkProcessWindows checks if a process is alive on Windows
// checkProcessWindows 在 Windows 上检查进程是否存活
func checkProcessWindows(pid int) bool {
	cmd := exec.Command("tasklist", "/FI", fmt.Sprintf("PID eq %d", pid), "/NH")
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return strings.Contains(string(output), strconv.Itoa(pid))
}

// sendSignal sends a signal to a process
// sendSignal 向进程发送信号
func sendSignal(pid int, sig syscall.Signal) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	if runtime.GOOS == "windows" {
		// On Windows, termination is the only supported request
		// 在 Windows 上只支持终止请求
		if sig == syscall.SIGKILL || sig == syscall.SIGTERM {
			return process.Kill()
		}
		return nil
	}

	return process.Signal(sig)
}

// signalFromName maps a configured signal name to a syscall signal
// signalFromName 将配置的信号名称映射为系统调用信号
func signalFromName(name string) syscall.Signal {
	switch strings.ToLower(name) {
	case "int":
		return syscall.SIGINT
	case "hup":
		return syscall.SIGHUP
	case "kill":
		return syscall.SIGKILL
	default:
		return syscall.SIGTERM
	}
}

// signalName returns the display name of a signal
// signalName 返回信号的显示名称
func signalName(sig syscall.Signal) string {
	switch sig {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGHUP:
		return "SIGHUP"
	case syscall.SIGKILL:
		return "SIGKILL"
	default:
		return "SIGTERM"
	}
}

// pidsOf extracts the PIDs from a handle snapshot
// pidsOf 从句柄快照中提取 PID
func pidsOf(handles []discovery.Handle) []int {
	pids := make([]int, 0, len(handles))
	for _, h := range handles {
		pids = append(pids, h.PID)
	}
	return pids
}

// formatPIDs joins PIDs for display
// formatPIDs 拼接 PID 用于显示
func formatPIDs(pids []int) string {
	parts := make([]string, 0, len(pids))
	for _, pid := range pids {
		parts = append(parts, strconv.Itoa(pid))
	}
	return strings.Join(parts, ", ")
}

// formatUptime renders an uptime for display
// formatUptime 渲染运行时长用于显示
func formatUptime(d time.Duration) string {
	if d <= 0 {
		return "unknown"
	}
	return d.Round(time.Second).String()
}

// formatBytes renders a byte count for display
// formatBytes 渲染字节数用于显示
func formatBytes(n int64) string {
	switch {
	case n <= 0:
		return "unknown"
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KiB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MiB", float64(n)/(1024*1024))
	}
}
