package main

import (
	"context"

	"deathrace-backend/cmd/deathrace/commands"
	"deathrace-backend/lib/telemetry"
)

func main() {
	ctx := context.Background()
	if err := telemetry.SetupFromEnv(ctx, "deathrace"); err != nil {
		panic(err)
	}
	defer telemetry.Shutdown(ctx)

	commands.ExecuteContext(ctx)
}
