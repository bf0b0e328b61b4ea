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

// Package logging builds the supervisor's own logger.
// logging 包构建监管程序自身的日志记录器。
//
// The log is diagnostic only: user-visible operation results are printed to
// stdout/stderr by the CLI and never depend on the logger.
// 该日志仅用于诊断：用户可见的操作结果由 CLI 打印到标准输出/标准错误，
// 不依赖日志记录器。
package logging

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/kodiops/fanctl/internal/config"
)

// New creates a logger writing to the configured file through lumberjack
// rotation. At debug level the log is echoed to stderr as well, mirroring
// the monitored program's own file-plus-console logger.
// New 创建通过 lumberjack 轮转写入配置文件的日志记录器。
// debug 级别时日志同时回显到标准错误，与被监控程序自身的
// 文件加控制台日志方式一致。
func New(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		return nil, err
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	fileSink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSize,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAge,
	})

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), fileSink, level)

	if level == zapcore.DebugLevel {
		consoleCore := zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderCfg),
			zapcore.AddSync(os.Stderr),
			level,
		)
		core = zapcore.NewTee(core, consoleCore)
	}

	return zap.New(core), nil
}
