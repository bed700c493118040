// Package mcp exposes the PadLink relay's session registry as MCP tools.
//
// It is a thin client that proxies every tool call to the REST API, so the
// tools observe exactly what HTTP clients observe. The server is exposed
// over HTTP at /mcp by the main command.
package mcp
