// Command web serves the Demand Pulse HTTP API: workbook extraction,
// forecasting, exports, health and progress WebSocket.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"demandcli/internal/app"
)

func main() {
	port := flag.Int("port", 0, "HTTP port (overrides configuration)")
	configPath := flag.String("config", "", "path to the YAML configuration file")
	flag.Parse()

	application, err := app.NewApplication(*configPath)
	if err != nil {
		slog.Error("failed to initialize application", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if *port > 0 {
		application.Config.Server.Port = *port
		application.Server.Addr = fmt.Sprintf(":%d", *port)
	}

	if err := application.Run(); err != nil {
		slog.Error("application error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
