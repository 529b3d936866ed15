package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("MAKEMODEL_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}
	c := &apiClient{
		baseURL: apiURL,
		apiKey:  os.Getenv("MAKEMODEL_API_KEY"),
		http:    &http.Client{Timeout: 150 * time.Second},
	}

	s := newServer(c)
	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

func newServer(c *apiClient) *server.MCPServer {
	s := server.NewMCPServer(
		"makemodel",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	s.AddTool(mcp.NewTool("get_make_and_model",
		mcp.WithDescription("Extract the make (brand) and model number of a Bunnings or Mitre 10 NZ product page, and report whether the brand is exclusive to that retailer. Pass either a url to fetch, or html with the page_url it came from."),
		mcp.WithString("url",
			mcp.Description("Product page to fetch"),
		),
		mcp.WithString("html",
			mcp.Description("Already rendered page HTML"),
		),
		mcp.WithString("page_url",
			mcp.Description("Address the html was captured from; required with html"),
		),
		mcp.WithString("fetch_mode",
			mcp.Description("'auto' (default) races plain HTTP against the browser, 'http' or 'browser' force one"),
			mcp.Enum("auto", "http", "browser"),
		),
	), handleGetMakeAndModel(c))

	s.AddTool(mcp.NewTool("open_session",
		mcp.WithDescription("Open a page session that keeps re-extracting a product page while it renders. Returns the session id for query_session."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("Product page to open"),
		),
	), handleOpenSession(c))

	s.AddTool(mcp.NewTool("query_session",
		mcp.WithDescription("Ask an open page session for its make and model. Returns the cached result, re-extracting if none is cached."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Id returned by open_session"),
		),
	), handleQuerySession(c))

	s.AddTool(mcp.NewTool("close_session",
		mcp.WithDescription("Close a page session and drop its cached result."),
		mcp.WithString("session_id",
			mcp.Required(),
			mcp.Description("Id returned by open_session"),
		),
	), handleCloseSession(c))

	return s
}
