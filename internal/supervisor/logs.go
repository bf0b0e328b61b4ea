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
	"bufio"
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"time"
)

// tailBlockSize is the read granularity when scanning a log file backwards
// tailBlockSize 是反向扫描日志文件时的读取粒度
const tailBlockSize = 32 * 1024

// ReadLogTail returns the last n lines of the monitored program's log file,
// or the whole file when n is zero. The supervisor only reads this file; the
// fan control program owns it. The file grows without bound on the
// appliance, so only the needed trailing blocks are read.
// ReadLogTail 返回被监控程序日志文件的最后 n 行，n 为零时返回整个文件。
// 监管程序只读取该文件；其归风扇控制程序所有。
// 该文件在设备上无限增长，因此只读取末尾所需的块。
func ReadLogTail(logFile string, lines int) (string, error) {
	file, err := os.Open(logFile)
	if err != nil {
		return "", err
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}
	size := info.Size()
	if size == 0 {
		return "", nil
	}

	if lines <= 0 {
		data, err := io.ReadAll(file)
		if err != nil {
			return "", err
		}
		return lastLines(data, 0), nil
	}

	// Read blocks from the end until enough line breaks are collected
	// 从末尾读取块，直到收集到足够的换行符
	var tail []byte
	offset := size
	for offset > 0 {
		blockSize := int64(tailBlockSize)
		if blockSize > offset {
			blockSize = offset
		}
		offset -= blockSize
		block := make([]byte, blockSize)
		if _, err := file.ReadAt(block, offset); err != nil {
			return "", err
		}
		tail = append(block, tail...)
		if bytes.Count(tail, []byte{'\n'}) > lines {
			break
		}
	}
	return lastLines(tail, lines), nil
}

// lastLines extracts the last n lines from raw log data, all lines when n
// is zero
// lastLines 从原始日志数据中提取最后 n 行，n 为零时提取全部行
func lastLines(data []byte, n int) string {
	text := strings.TrimRight(string(data), "\n")
	if text == "" {
		return ""
	}
	parts := strings.Split(text, "\n")
	if n > 0 && len(parts) > n {
		parts = parts[len(parts)-n:]
	}
	for i := range parts {
		parts[i] = strings.TrimRight(parts[i], "\r")
	}
	return strings.Join(parts, "\n")
}

// TailLog follows the log file from its current end and sends complete
// lines to the output channel until the context is cancelled.
// TailLog 从日志文件当前末尾开始跟踪，并将完整的行发送到输出通道，
// 直到上下文被取消。
func TailLog(ctx context.Context, logFile string, output chan<- string) error {
	file, err := os.Open(logFile)
	if err != nil {
		return err
	}
	defer file.Close()

	// Seek to end / 定位到末尾
	if _, err := file.Seek(0, io.SeekEnd); err != nil {
		return err
	}

	reader := bufio.NewReader(file)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			line, err := reader.ReadString('\n')
			if err != nil {
				if err == io.EOF {
					time.Sleep(100 * time.Millisecond)
					continue
				}
				return err
			}
			select {
			case output <- strings.TrimRight(line, "\n\r"):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
