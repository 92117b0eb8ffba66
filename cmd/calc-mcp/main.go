package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"sparkcalc/internal/buildinfo"
)

func main() {
	var (
		portFlag    = flag.Int("port", 0, "TCP port to listen on (0 for stdio)")
		versionFlag = flag.Bool("version", false, "Show version information")
	)
	flag.Parse()

	if *versionFlag {
		fmt.Println("calc-mcp " + buildinfo.Long())
		fmt.Println("Model Context Protocol server for the SparkCalc engine")
		os.Exit(0)
	}

	log.SetOutput(os.Stderr)

	mcpServer := server.NewMCPServer(
		"calc-mcp",
		buildinfo.Short(),
		server.WithToolCapabilities(true),
		server.WithLogging(),
		server.WithRecovery(),
	)

	calc := newCalculator()
	addPressKeysTool(mcpServer, calc)
	addStateTool(mcpServer, calc)
	addHistoryTool(mcpServer, calc)
	addClearAllTool(mcpServer, calc)

	if *portFlag == 0 {
		if err := server.ServeStdio(mcpServer); err != nil {
			log.Fatalf("Server failed: %v", err)
		}
		return
	}

	httpServer := server.NewStreamableHTTPServer(mcpServer)
	log.Printf("Starting HTTP server on port %d", *portFlag)
	if err := httpServer.Start(fmt.Sprintf(":%d", *portFlag)); err != nil {
		log.Fatalf("HTTP server failed: %v", err)
	}
}
