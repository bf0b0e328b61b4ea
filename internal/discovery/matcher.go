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

import "strings"

// Match modes selectable via monitor.match_mode
// 可通过 monitor.match_mode 选择的匹配模式
const (
	// MatchModeSubstring matches when the command line contains the script
	// path anywhere. This identifies interpreter-wrapped invocations
	// ("python3 /path/fan_control.py") where the process name alone would
	// not, at the cost of false positives on unrelated processes that
	// embed the same path string in their arguments.
	// MatchModeSubstring 在命令行任意位置包含脚本路径时匹配。
	// 它能识别通过解释器包装的调用（"python3 /path/fan_control.py"），
	// 代价是参数中恰好嵌入相同路径字符串的无关进程会被误判。
	MatchModeSubstring = "substring"

	// MatchModeExact matches only when the script path appears as a whole
	// argument token, the stricter alternative to the substring match.
	// MatchModeExact 仅当脚本路径作为完整参数出现时匹配，
	// 是子串匹配的更严格替代。
	MatchModeExact = "exact"
)

// Matcher decides whether a scanned command line belongs to the monitored
// program. Swapping the predicate does not touch the rest of the state
// machine.
// Matcher 判断扫描到的命令行是否属于被监控程序。
// 替换谓词不影响状态机的其余部分。
type Matcher func(cmdline, scriptPath string) bool

// SubstringMatcher is the default loose match: substring containment.
// SubstringMatcher 是默认的宽松匹配：子串包含。
func SubstringMatcher(cmdline, scriptPath string) bool {
	if scriptPath == "" {
		return false
	}
	return strings.Contains(cmdline, scriptPath)
}

// ExactArgMatcher matches only a whole argument token equal to the script path.
// ExactArgMatcher 仅匹配与脚本路径完全相等的参数。
func ExactArgMatcher(cmdline, scriptPath string) bool {
	if scriptPath == "" {
		return false
	}
	for _, arg := range strings.Fields(cmdline) {
		if arg == scriptPath {
			return true
		}
	}
	return false
}

// MatcherForMode returns the predicate for a configured match mode,
// defaulting to the substring match for unknown modes.
// MatcherForMode 返回配置的匹配模式对应的谓词，未知模式默认为子串匹配。
func MatcherForMode(mode string) Matcher {
	switch mode {
	case MatchModeExact:
		return ExactArgMatcher
	default:
		return SubstringMatcher
	}
}
