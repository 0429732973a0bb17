package main

import (
	"os"

	"github.com/lsds/kungfu-graph/srcs/go/cmd/kungfu-run/app"
)

func main() { app.Main(os.Args[1:]) }
