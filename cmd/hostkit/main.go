package main

import "go.minekube.com/hostkit/pkg/cmd/hostkit"

func main() {
	hostkit.Execute()
}
