package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/use-agent/makemodel/models"
)

func handleGetMakeAndModel(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		req := models.ExtractRequest{
			URL:       request.GetString("url", ""),
			HTML:      request.GetString("html", ""),
			PageURL:   request.GetString("page_url", ""),
			FetchMode: request.GetString("fetch_mode", ""),
		}
		if req.URL == "" && req.HTML == "" {
			return mcp.NewToolResultError("one of url or html is required"), nil
		}

		var resp models.ExtractResponse
		if err := c.do(ctx, http.MethodPost, "/api/v1/extract", req, &resp); err != nil {
			return toolError(err), nil
		}
		return resultText(resp.Result, resp.SearchURL), nil
	}
}

func handleOpenSession(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		url, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}

		var resp models.SessionResponse
		req := models.SessionRequest{ExtractRequest: models.ExtractRequest{URL: url}}
		if err := c.do(ctx, http.MethodPost, "/api/v1/sessions", req, &resp); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Session: %s\nPage: %s\nWatching mutations: %v",
			resp.ID, resp.PageURL, resp.Live)), nil
	}
}

func handleQuerySession(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError("session_id is required"), nil
		}

		var resp models.QueryResponse
		query := models.QueryRequest{Action: models.ActionGetMakeAndModel}
		if err := c.do(ctx, http.MethodPost, "/api/v1/sessions/"+id+"/query", query, &resp); err != nil {
			return toolError(err), nil
		}
		return resultText(resp.Result, ""), nil
	}
}

func handleCloseSession(c *apiClient) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id, err := request.RequireString("session_id")
		if err != nil {
			return mcp.NewToolResultError("session_id is required"), nil
		}
		if err := c.do(ctx, http.MethodDelete, "/api/v1/sessions/"+id, nil, nil); err != nil {
			return toolError(err), nil
		}
		return mcp.NewToolResultText("Session " + id + " closed."), nil
	}
}

// toolError keeps "could not reach the page" apart from "nothing found":
// a missing result is never reported for a failed exchange.
func toolError(err error) *mcp.CallToolResult {
	var apiErr *apiError
	switch {
	case errors.Is(err, errUnreachable):
		return mcp.NewToolResultError("could not reach the page service, retry: " + err.Error())
	case errors.As(err, &apiErr) && apiErr.Code == models.ErrCodeSessionNotFound:
		return mcp.NewToolResultError("could not reach the page, it has been closed; open a new session and retry")
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

// resultText renders a result the way the popup did: make and model, or
// the model alone, plus exclusivity and the search link.
func resultText(r *models.ExtractionResult, searchURL string) *mcp.CallToolResult {
	if r == nil {
		return mcp.NewToolResultText("No make/model found on this page.")
	}

	var text string
	switch {
	case r.SearchTerm != "":
		text = fmt.Sprintf("Retailer: %s\nProduct: %s\n", r.Retailer, r.SearchTerm)
	default:
		text = fmt.Sprintf("Retailer: %s\nProduct: not found\n", r.Retailer)
	}
	if r.IsExclusive && r.ExclusiveMessage != nil {
		text += *r.ExclusiveMessage + "\n"
	}
	if searchURL != "" {
		text += "Search: " + searchURL + "\n"
	}

	raw, err := json.Marshal(models.QueryResponse{Result: r})
	if err == nil {
		text += "\n" + string(raw)
	}
	return mcp.NewToolResultText(text)
}
