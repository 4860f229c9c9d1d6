// Command mcp serves the MemorAI memory tools over MCP stdio.
package main

import (
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/memorai/memorai/pkg/config"
	"github.com/memorai/memorai/pkg/logx"
	"github.com/memorai/memorai/pkg/memory/memoryclient"
	"github.com/memorai/memorai/pkg/memory/memorymcp"
)

const version = "1.0.0"

func main() {
	// stdout carries the MCP protocol; every log line goes to stderr
	logx.SetOutput(os.Stderr)

	cfg := config.LoadClient()
	client := memoryclient.FromConfig(cfg)

	logx.Info("MemorAI MCP server running on stdio")
	logx.Infof("MemorAI API base URL: %s", client.BaseURL())

	if err := server.ServeStdio(memorymcp.NewServer(client, version)); err != nil {
		logx.Fatalf("Fatal error running MemorAI MCP server: %v", err)
	}
}
