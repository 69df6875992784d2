package mcp

import "github.com/mark3labs/mcp-go/mcp"

var listToolDef = mcp.NewTool("calculation_list",
	mcp.WithDescription("List the most recent calculations, newest first. At most 50 are returned."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum number of calculations to return (1-50, default 50)"),
	),
)

var recordToolDef = mcp.NewTool("calculation_record",
	mcp.WithDescription("Record a finished calculation. Both fields are stored verbatim; nothing is evaluated."),
	mcp.WithString("expression",
		mcp.Required(),
		mcp.Description("Expression as displayed, e.g. \"2 + 2\""),
	),
	mcp.WithString("result",
		mcp.Required(),
		mcp.Description("Result as displayed, e.g. \"4\""),
	),
)

var clearToolDef = mcp.NewTool("calculation_clear",
	mcp.WithDescription("Permanently delete the entire calculation history. This cannot be undone."),
	mcp.WithDestructiveHintAnnotation(true),
)
