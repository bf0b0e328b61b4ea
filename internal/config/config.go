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

// Package config provides configuration management for the fanctl supervisor.
// config 包提供 fanctl 监管程序的配置管理功能。
//
// Configuration loading priority (highest to lowest):
// 配置加载优先级（从高到低）：
// 1. Environment variables / 环境变量
// 2. Configuration file / 配置文件
// 3. Default values / 默认值
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// Default configuration values
// 默认配置值
const (
	DefaultConfigPath     = "/storage/.config/fanctl/config.yaml"
	DefaultScriptPath     = "/storage/.kodi/userdata/fan_control.py"
	DefaultInterpreter    = "python3"
	DefaultMatchMode      = "substring"
	DefaultMonitorLogFile = "/var/log/fan_control.log"
	DefaultStopSignal     = "term"
	DefaultLogLevel       = "info"
	DefaultLogFile        = "/storage/.config/fanctl/fanctl.log"
	DefaultLogMaxSize     = 10 // MB
	DefaultLogMaxBackups  = 2
	DefaultLogMaxAge      = 14 // days
)

// Config represents the fanctl configuration
// Config 表示 fanctl 配置
type Config struct {
	// Monitored program configuration / 被监控程序配置
	Monitor MonitorConfig `mapstructure:"monitor"`

	// Stop behavior configuration / 停止行为配置
	Stop StopConfig `mapstructure:"stop"`

	// Supervisor log configuration / 监管程序日志配置
	Log LogConfig `mapstructure:"log"`
}

// MonitorConfig describes the monitored program. It is fixed at deploy time
// and never mutated at runtime.
// MonitorConfig 描述被监控程序。部署时固定，运行时不可变。
type MonitorConfig struct {
	// ScriptPath is the absolute path of the fan control script
	// ScriptPath 是风扇控制脚本的绝对路径
	ScriptPath string `mapstructure:"script_path"`

	// Interpreter is the program used to run the script
	// Interpreter 是运行脚本的程序
	Interpreter string `mapstructure:"interpreter"`

	// MatchMode selects the process identity predicate: substring or exact
	// MatchMode 选择进程身份谓词：substring 或 exact
	MatchMode string `mapstructure:"match_mode"`

	// LogFile is the monitored program's own log, read by `fanctl logs`
	// LogFile 是被监控程序自己的日志文件，由 `fanctl logs` 读取
	LogFile string `mapstructure:"log_file"`
}

// StopConfig controls how termination is requested
// StopConfig 控制如何请求终止
type StopConfig struct {
	// Signal is the termination signal name: term, int, hup or kill
	// Signal 是终止信号名称：term、int、hup 或 kill
	Signal string `mapstructure:"signal"`

	// WaitTimeout, when positive, makes stop wait for the processes to exit
	// and escalate to SIGKILL on timeout. Zero keeps the default
	// fire-and-forget behavior: success means signal delivery only.
	// WaitTimeout 为正时，stop 会等待进程退出并在超时后升级为 SIGKILL。
	// 为零时保持默认的只发不等行为：成功仅表示信号已送达。
	WaitTimeout time.Duration `mapstructure:"wait_timeout"`
}

// LogConfig contains the supervisor's own logging settings
// LogConfig 包含监管程序自身的日志设置
type LogConfig struct {
	// Level is the log level (debug, info, warn, error)
	// Level 是日志级别（debug, info, warn, error）
	Level string `mapstructure:"level"`

	// File is the log file path
	// File 是日志文件路径
	File string `mapstructure:"file"`

	// MaxSize is the maximum size of the log file in MB before rotation
	// MaxSize 是日志文件轮转前的最大大小（MB）
	MaxSize int `mapstructure:"max_size"`

	// MaxBackups is the maximum number of old log files to retain
	// MaxBackups 是保留的旧日志文件的最大数量
	MaxBackups int `mapstructure:"max_backups"`

	// MaxAge is the maximum number of days to retain old log files
	// MaxAge 是保留旧日志文件的最大天数
	MaxAge int `mapstructure:"max_age"`
}

// Load loads configuration from file and environment variables
// Load 从文件和环境变量加载配置
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set default values / 设置默认值
	setDefaults(v)

	// Set config file path / 设置配置文件路径
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		// Check environment variable / 检查环境变量
		envPath := os.Getenv("FANCTL_CONFIG_PATH")
		if envPath != "" {
			v.SetConfigFile(envPath)
		} else {
			v.SetConfigFile(DefaultConfigPath)
		}
	}

	// Enable environment variable override / 启用环境变量覆盖
	v.SetEnvPrefix("FANCTL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file / 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		// A missing config file is fine, the defaults describe the appliance
		// 配置文件缺失没有问题，默认值即描述了该设备
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			if _, statErr := os.Stat(v.ConfigFileUsed()); statErr == nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default configuration values
// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// Monitored program defaults / 被监控程序默认值
	v.SetDefault("monitor.script_path", DefaultScriptPath)
	v.SetDefault("monitor.interpreter", DefaultInterpreter)
	v.SetDefault("monitor.match_mode", DefaultMatchMode)
	v.SetDefault("monitor.log_file", DefaultMonitorLogFile)

	// Stop defaults / 停止默认值
	v.SetDefault("stop.signal", DefaultStopSignal)
	v.SetDefault("stop.wait_timeout", time.Duration(0))

	// Log defaults / 日志默认值
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", DefaultLogFile)
	v.SetDefault("log.max_size", DefaultLogMaxSize)
	v.SetDefault("log.max_backups", DefaultLogMaxBackups)
	v.SetDefault("log.max_age", DefaultLogMaxAge)
}

// Validate validates the configuration
// Validate 验证配置
func (c *Config) Validate() error {
	// Validate monitored program / 验证被监控程序
	if c.Monitor.ScriptPath == "" {
		return errors.New("monitor.script_path is required")
	}
	if !filepath.IsAbs(c.Monitor.ScriptPath) {
		return fmt.Errorf("monitor.script_path must be absolute: %s", c.Monitor.ScriptPath)
	}
	if c.Monitor.Interpreter == "" {
		return errors.New("monitor.interpreter is required")
	}

	// Validate match mode / 验证匹配模式
	validModes := map[string]bool{"substring": true, "exact": true}
	if !validModes[c.Monitor.MatchMode] {
		return fmt.Errorf("invalid match mode: %s (must be substring or exact)", c.Monitor.MatchMode)
	}

	// Validate stop settings / 验证停止设置
	validSignals := map[string]bool{"term": true, "int": true, "hup": true, "kill": true}
	if !validSignals[strings.ToLower(c.Stop.Signal)] {
		return fmt.Errorf("invalid stop signal: %s (must be term, int, hup, or kill)", c.Stop.Signal)
	}
	if c.Stop.WaitTimeout < 0 {
		return errors.New("stop.wait_timeout must not be negative")
	}

	// Validate log level / 验证日志级别
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Log.Level)] {
		return fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", c.Log.Level)
	}

	// Validate rotation settings / 验证轮转设置
	if c.Log.MaxSize <= 0 {
		return errors.New("log.max_size must be positive")
	}
	if c.Log.MaxBackups < 0 || c.Log.MaxAge < 0 {
		return errors.New("log.max_backups and log.max_age must not be negative")
	}

	return nil
}

// String returns a string representation of the config (for debugging)
// String 返回配置的字符串表示（用于调试）
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{Monitor.ScriptPath: %s, Monitor.Interpreter: %s, Monitor.MatchMode: %s, Stop.Signal: %s, Log.Level: %s}",
		c.Monitor.ScriptPath,
		c.Monitor.Interpreter,
		c.Monitor.MatchMode,
		c.Stop.Signal,
		c.Log.Level,
	)
}

// ToYAML serializes the configuration to YAML format
// ToYAML 将配置序列化为 YAML 格式
func (c *Config) ToYAML() ([]byte, error) {
	// Durations are rendered as strings so the file stays human-editable
	// 时长以字符串形式输出，保持配置文件可手工编辑
	doc := map[string]any{
		"monitor": map[string]any{
			"script_path": c.Monitor.ScriptPath,
			"interpreter": c.Monitor.Interpreter,
			"match_mode":  c.Monitor.MatchMode,
			"log_file":    c.Monitor.LogFile,
		},
		"stop": map[string]any{
			"signal":       c.Stop.Signal,
			"wait_timeout": c.Stop.WaitTimeout.String(),
		},
		"log": map[string]any{
			"level":       c.Log.Level,
			"file":        c.Log.File,
			"max_size":    c.Log.MaxSize,
			"max_backups": c.Log.MaxBackups,
			"max_age":     c.Log.MaxAge,
		},
	}
	return yaml.Marshal(doc)
}

// LoadFromYAML loads configuration from YAML bytes
// LoadFromYAML 从 YAML 字节加载配置
func LoadFromYAML(yamlData []byte) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	// Set defaults first / 首先设置默认值
	setDefaults(v)

	// Read from bytes / 从字节读取
	if err := v.ReadConfig(strings.NewReader(string(yamlData))); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	// Unmarshal config / 解析配置
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// Equal compares two configs for equality
// Equal 比较两个配置是否相等
func (c *Config) Equal(other *Config) bool {
	if c == nil || other == nil {
		return c == other
	}
	return *c == *other
}
