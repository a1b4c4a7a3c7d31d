package main

import (
	"context"

	"github.com/dipcp/dipcp/cmd"
)

func main() {
	ctx := context.Background()
	cmd.Execute(ctx)
}
