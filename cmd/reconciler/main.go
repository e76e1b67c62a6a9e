package main

import "github.com/yapay-ai/usage-reconciler/internal/cli"

func main() {
	cli.Execute()
}
