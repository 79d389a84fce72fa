package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	_ "time/tzdata" // 确保在精简镜像中也能识别时区
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
