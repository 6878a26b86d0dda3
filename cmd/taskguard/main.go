package main

import "go.uber.org/automaxprocs/maxprocs"

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// GOMAXPROCS follows the container CPU quota, so workers: 0 does too.
	_, _ = maxprocs.Set()
	Execute()
}
