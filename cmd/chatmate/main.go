package main

import (
	"context"
	"fmt"
	"os"

	"github.com/raunakjaimini/chatmate/internal/cli/chatmate"
)

func main() {
	if err := chatmate.New().Execute(context.Background()); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
