// planctl 离线处理计划文件：互换、接替、边界、检查与统计
package main

import (
	"fmt"
	"os"
)

// 构建信息（通过 ldflags 注入）
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
