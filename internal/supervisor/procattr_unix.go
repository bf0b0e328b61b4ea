//go:build !windows
// +build !windows

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

package supervisor

import (
	"os/exec"
	"syscall"
)

// setDetachAttr detaches the child process on Unix systems
// setDetachAttr 在 Unix 系统上分离子进程
// Setsid puts the child in its own session without a controlling terminal
// Setsid 使子进程拥有独立会话，不持有控制终端
// So the fan control program survives the invoking shell and the supervisor
// 这样风扇控制程序在调用 shell 和监管进程退出后仍然存活
func setDetachAttr(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true, // New session, no controlling tty / 新会话，无控制终端
	}
}
