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

// Package main is the entry point for the fanctl supervisor CLI.
// main 包是 fanctl 监管 CLI 的入口点。
//
// fanctl is a short-lived command deployed on the appliance that:
// fanctl 是部署在设备上的短生命周期命令，负责：
// - Starts the fan control program if not running / 在未运行时启动风扇控制程序
// - Stops it by signaling every matching process / 通过向所有匹配进程发信号停止它
// - Restarts it as stop-then-start / 以先停后启的方式重启
// - Reports whether it is currently alive / 报告其当前是否存活
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kodiops/fanctl/internal/config"
	"github.com/kodiops/fanctl/internal/logging"
	"github.com/kodiops/fanctl/internal/supervisor"
)

// Version information, set at build time
// 版本信息，在构建时设置
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

// configFile is the path to the configuration file
// configFile 是配置文件的路径
var configFile string

// logs command flags / logs 命令标志
var (
	logLines  int
	logFollow bool
)

// rootCmd is the root command for the fanctl CLI
// rootCmd 是 fanctl CLI 的根命令
var rootCmd = &cobra.Command{
	Use:   "fanctl",
	Short: "fanctl - supervisor for the appliance fan control program",
	Long: `fanctl supervises the long-running fan control script on the appliance.
fanctl 监管设备上长期运行的风扇控制脚本。

It performs exactly one operation per invocation and keeps no state of its
own: the running/not-running state is rediscovered from the OS process
table every time.
它每次调用只执行一个操作，自身不保存任何状态：
运行/未运行状态每次都从操作系统进程表重新发现。`,
	// cobra's own printing is silenced; execute() owns all error and
	// usage output
	// cobra 自身的打印被关闭；所有错误和 usage 输出由 execute() 负责
	SilenceUsage:  true,
	SilenceErrors: true,
}

// startCmd starts the fan control program if it is not already running
// startCmd 在风扇控制程序未运行时启动它
var startCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the fan control program if not running / 在未运行时启动风扇控制程序",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sup, logger, err := buildSupervisor()
		if err != nil {
			return err
		}
		defer logger.Sync()

		res := sup.Start(cmd.Context())
		printResult(cmd, res)

		// start always exits 0: failures are reported via the message only
		// start 始终以 0 退出：失败只通过消息报告
		return nil
	},
}

// stopCmd signals every matching process to terminate
// stopCmd 向每个匹配进程发送终止信号
var stopCmd = &cobra.Command{
	Use:   "stop",
	Short: "Stop the fan control program / 停止风扇控制程序",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sup, logger, err := buildSupervisor()
		if err != nil {
			return err
		}
		defer logger.Sync()

		res := sup.Stop(cmd.Context())
		if res.Failed() {
			// Signal delivery failure is the one non-zero exit of stop
			// 信号送达失败是 stop 唯一的非零退出情况
			return errors.New(res.Message)
		}
		printResult(cmd, res)
		return nil
	},
}

// restartCmd stops and then starts the program, regardless of stop outcome
// restartCmd 先停止再启动程序，不论停止结果如何
var restartCmd = &cobra.Command{
	Use:   "restart",
	Short: "Restart the fan control program (stop, then start) / 重启风扇控制程序（先停后启）",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sup, logger, err := buildSupervisor()
		if err != nil {
			return err
		}
		defer logger.Sync()

		res := sup.Restart(cmd.Context())
		printResult(cmd, res)
		return nil
	},
}

// statusCmd reports whether the fan control program is running
// statusCmd 报告风扇控制程序是否在运行
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report whether the fan control program is running / 报告风扇控制程序是否在运行",
	RunE: func(cmd *cobra.Command, _ []string) error {
		sup, logger, err := buildSupervisor()
		if err != nil {
			return err
		}
		defer logger.Sync()

		res := sup.Status(cmd.Context())
		if res.Failed() {
			// The only failure mode of status is an OS query error
			// status 唯一的失败情形是操作系统查询错误
			return errors.New(res.Message)
		}
		fmt.Fprintln(cmd.OutOrStdout(), res.Message)
		return nil
	},
}

// logsCmd prints or follows the monitored program's log file
// logsCmd 打印或跟踪被监控程序的日志文件
var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show the fan control program's log / 查看风扇控制程序的日志",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if logFollow {
			return followLog(cmd, cfg.Monitor.LogFile)
		}

		tail, err := supervisor.ReadLogTail(cfg.Monitor.LogFile, logLines)
		if err != nil {
			return fmt.Errorf("failed to read fan control log: %w", err)
		}
		if tail != "" {
			fmt.Fprintln(cmd.OutOrStdout(), tail)
		}
		return nil
	},
}

// versionCmd shows version information
// versionCmd 显示版本信息
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information / 打印版本信息",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("fanctl\n")
		fmt.Printf("  Version:    %s\n", Version)
		fmt.Printf("  Git Commit: %s\n", GitCommit)
		fmt.Printf("  Build Time: %s\n", BuildTime)
		fmt.Printf("  Go Version: %s\n", runtime.Version())
		fmt.Printf("  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	},
}

func init() {
	// Add flags to root command
	// 向根命令添加标志
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file path (default: /storage/.config/fanctl/config.yaml)")

	logsCmd.Flags().IntVarP(&logLines, "lines", "n", 50, "number of log lines to show / 显示的日志行数")
	logsCmd.Flags().BoolVarP(&logFollow, "follow", "f", false, "follow the log until interrupted / 持续跟踪日志直到中断")

	// Add subcommands
	// 添加子命令
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(restartCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(logsCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and validates the configuration
// loadConfig 加载并验证配置
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// buildSupervisor wires config, logger and supervisor for one operation
// buildSupervisor 为一次操作装配配置、日志记录器和监管器
func buildSupervisor() (*supervisor.Supervisor, *zap.Logger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(&cfg.Log)
	if err != nil {
		// Logging must never block an operation / 日志绝不能阻碍操作
		logger = zap.NewNop()
	}

	return supervisor.New(cfg, logger), logger, nil
}

// printResult prints an operation result, failures going to stderr
// printResult 打印操作结果，失败信息输出到标准错误
func printResult(cmd *cobra.Command, res *supervisor.Result) {
	if res.Failed() {
		fmt.Fprintln(cmd.ErrOrStderr(), res.Message)
		return
	}
	fmt.Fprintln(cmd.OutOrStdout(), res.Message)
}

// followLog streams new log lines until the user interrupts
// followLog 持续输出新的日志行直到用户中断
func followLog(cmd *cobra.Command, logFile string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lines := make(chan string, 64)
	errCh := make(chan error, 1)
	go func() {
		errCh <- supervisor.TailLog(ctx, logFile, lines)
	}()

	for {
		select {
		case line := <-lines:
			fmt.Fprintln(cmd.OutOrStdout(), line)
		case err := <-errCh:
			// The tailer has stopped; lines it already sent may still
			// sit in the channel buffer
			// 跟踪器已停止；它已发送的行可能仍留在通道缓冲中
			flushLines(cmd.OutOrStdout(), lines)
			if err == nil || errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		}
	}
}

// flushLines prints every line still buffered in the channel
// flushLines 打印通道中仍缓冲的每一行
func flushLines(out io.Writer, lines <-chan string) {
	for {
		select {
		case line := <-lines:
			fmt.Fprintln(out, line)
		default:
			return
		}
	}
}

// execute runs the CLI and returns the process exit code. Command-line
// mistakes surface on the root command and get the usage text; operation
// failures belong to their subcommand and do not.
// execute 运行 CLI 并返回进程退出码。命令行用错会出现在根命令上，
// 附带 usage 文本；操作失败属于各子命令，不附带。
func execute() int {
	cmd, err := rootCmd.ExecuteC()
	if err == nil {
		return 0
	}

	errOut := rootCmd.ErrOrStderr()
	fmt.Fprintf(errOut, "Error: %v\n", err)
	if cmd == rootCmd {
		fmt.Fprintln(errOut, rootCmd.UsageString())
	}
	return 1
}

func main() {
	os.Exit(execute())
}
