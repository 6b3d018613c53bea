package server

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"drowse/internal/api"
)

// NewMCPServer creates an MCP server exposing the lifecycle operations as tools.
func NewMCPServer(controller api.Controller, version string) *mcpserver.MCPServer {
	if version == "" {
		version = "dev"
	}
	s := mcpserver.NewMCPServer("drowse", version, mcpserver.WithToolCapabilities(false))
	t := &mcpTools{controller: controller}

	s.AddTool(mcp.NewTool("service_list",
		mcp.WithDescription("List all managed MCP services with their lifecycle state"),
	), t.handleList)

	nameArg := mcp.WithString("name", mcp.Required(), mcp.Description("Name of the managed service"))

	s.AddTool(mcp.NewTool("service_status",
		mcp.WithDescription("Get the lifecycle status of a managed service"),
		nameArg,
	), t.handleStatus)
	s.AddTool(mcp.NewTool("service_start",
		mcp.WithDescription("Start a managed service, or wake it if it is sleeping"),
		nameArg,
	), t.lifecycle(controller.StartService))
	s.AddTool(mcp.NewTool("service_stop",
		mcp.WithDescription("Stop a managed service"),
		nameArg,
	), t.lifecycle(controller.StopService))
	s.AddTool(mcp.NewTool("service_sleep",
		mcp.WithDescription("Put a running service to sleep if its sleep policy and resource pressure allow it"),
		nameArg,
	), t.lifecycle(controller.SleepService))
	s.AddTool(mcp.NewTool("service_wake",
		mcp.WithDescription("Wake a sleeping service and wait for it to be running"),
		nameArg,
	), t.lifecycle(controller.WakeService))
	s.AddTool(mcp.NewTool("service_wake_request",
		mcp.WithDescription("Queue an asynchronous wake of a sleeping service"),
		nameArg,
	), t.handleWakeRequest)

	s.AddTool(mcp.NewTool("metrics_system",
		mcp.WithDescription("Get aggregate lifecycle metrics: state counts, sleep ratio, host resource pressure"),
	), t.handleSystemMetrics)
	s.AddTool(mcp.NewTool("metrics_performance",
		mcp.WithDescription("Get wake/sleep latency statistics for one service, or all services when name is omitted"),
		mcp.WithString("name", mcp.Description("Name of the managed service")),
	), t.handlePerformanceMetrics)

	return s
}

type mcpTools struct {
	controller api.Controller
}

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Failed to encode result: %v", err)), nil
	}
	return mcp.NewToolResultText(string(data)), nil
}

func errorResult(err error) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultError(fmt.Sprintf("%s: %v", api.ErrorCode(err), err)), nil
}

func (t *mcpTools) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	services, err := t.controller.ListServices()
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(services)
}

func (t *mcpTools) handleStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	st, err := t.controller.GetStatus(name)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(st)
}

func (t *mcpTools) lifecycle(op lifecycleFunc) mcpserver.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name, err := request.RequireString("name")
		if err != nil {
			return mcp.NewToolResultError("name argument is required"), nil
		}
		st, err := op(context.WithoutCancel(ctx), name)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(st)
	}
}

func (t *mcpTools) handleWakeRequest(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := request.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name argument is required"), nil
	}
	ticket, err := t.controller.RequestWake(name, api.WakeSourceAPI)
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(api.WakeRequestAccepted{Status: "queued", WakeTicket: ticket})
}

func (t *mcpTools) handleSystemMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m, err := t.controller.GetSystemMetrics()
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(m)
}

func (t *mcpTools) handlePerformanceMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if name := request.GetString("name", ""); name != "" {
		summary, err := t.controller.GetPerformanceMetrics(name)
		if err != nil {
			return errorResult(err)
		}
		return jsonResult(summary)
	}
	all, err := t.controller.AllPerformanceMetrics()
	if err != nil {
		return errorResult(err)
	}
	return jsonResult(all)
}
