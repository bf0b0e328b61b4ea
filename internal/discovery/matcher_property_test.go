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
	"strings"
	"testing"

	"pgregory.net/rapid"
)

// scriptPathGen generates absolute script paths
// scriptPathGen 生成绝对脚本路径
func scriptPathGen() *rapid.Generator[string] {
	return rapid.Custom(func(t *rapid.T) string {
		segments := rapid.SliceOfN(rapid.StringMatching(`[a-z][a-z0-9_]{0,7}`), 1, 4).Draw(t, "segments")
		return "/" + strings.Join(segments, "/")
	})
}

// TestProperty_SubstringMatcherFindsEmbeddedPath verifies that the substring
// matcher finds the script path wherever it appears in the command line
// TestProperty_SubstringMatcherFindsEmbeddedPath 验证子串匹配器能在命令行
// 任意位置找到脚本路径
func TestProperty_SubstringMatcherFindsEmbeddedPath(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		path := scriptPathGen().Draw(t, "path")
		prefix := rapid.StringMatching(`[a-z0-9 ]{0,16}`).Draw(t, "prefix")
		suffix := rapid.StringMatching(`[a-z0-9 ]{0,16}`).Draw(t, "suffix")

		cmdline := prefix + path + suffix
		if !SubstringMatcher(cmdline, path) {
			t.Fatalf("matcher missed path %q in %q", path, cmdline)
		}
	})
}

// TestProperty_SubstringMatcherNoFalsePositives verifies that a command line
// without any path separator can never match an absolute script path
// TestProperty_SubstringMatcherNoFalsePositives 验证不含路径分隔符的命令行
// 绝不会匹配绝对脚本路径
func TestProperty_SubstringMatcherNoFalsePositives(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		path := scriptPathGen().Draw(t, "path")
		cmdline := rapid.StringMatching(`[a-z0-9 _.-]{0,32}`).Draw(t, "cmdline")

		// An absolute path always contains "/", which cmdline cannot
		// 绝对路径总是包含 "/"，而 cmdline 不可能包含
		if SubstringMatcher(cmdline, path) {
			t.Fatalf("matcher falsely matched path %q in %q", path, cmdline)
		}
	})
}

// TestProperty_ExactArgMatcherTokenSemantics verifies that the exact matcher
// accepts the path as a whole argument and rejects any extended token
// TestProperty_ExactArgMatcherTokenSemantics 验证精确匹配器接受作为完整参数的
// 路径，并拒绝任何被扩展的词元
func TestProperty_ExactArgMatcherTokenSemantics(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		path := scriptPathGen().Draw(t, "path")
		interpreter := rapid.StringMatching(`[a-z][a-z0-9]{0,9}`).Draw(t, "interpreter")
		tail := rapid.StringMatching(`[a-z0-9]{1,8}`).Draw(t, "tail")

		if !ExactArgMatcher(interpreter+" "+path, path) {
			t.Fatalf("exact matcher missed whole-token path %q", path)
		}
		if ExactArgMatcher(interpreter+" "+path+tail, path) {
			t.Fatalf("exact matcher matched extended token %q", path+tail)
		}
	})
}

// TestProperty_EmptyScriptPathNeverMatches verifies both matchers refuse an
// empty script path regardless of command line
// TestProperty_EmptyScriptPathNeverMatches 验证无论命令行如何，
// 两种匹配器都拒绝空脚本路径
func TestProperty_EmptyScriptPathNeverMatches(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cmdline := rapid.StringMatching(`[ -~]{0,64}`).Draw(t, "cmdline")

		if SubstringMatcher(cmdline, "") {
			t.Fatalf("substring matcher matched empty path against %q", cmdline)
		}
		if ExactArgMatcher(cmdline, "") {
			t.Fatalf("exact matcher matched empty path against %q", cmdline)
		}
	})
}
