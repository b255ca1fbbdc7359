// Package message implements the getPaperInfo request/response protocol and
// a newline-delimited JSON loop that serves it.
package message

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/matsen/papershelf/internal/extract"
	"github.com/matsen/papershelf/internal/fetch"
)

// ActionGetPaperInfo asks for the metadata of one page.
const ActionGetPaperInfo = "getPaperInfo"

// maxLineBytes bounds one request line; inline HTML can be large.
const maxLineBytes = 32 << 20

// Request asks for extraction. HTML, when present, is used instead of
// fetching URL.
type Request struct {
	Action string `json:"action"`
	URL    string `json:"url"`
	HTML   string `json:"html,omitempty"`
}

// Response is the single reply to a Request.
type Response = extract.Result

// PageFetcher retrieves a page by URL.
type PageFetcher interface {
	Fetch(ctx context.Context, url string) (*fetch.Page, error)
}

// Handler answers requests.
type Handler struct {
	fetcher PageFetcher
	logger  *slog.Logger
}

// NewHandler creates a Handler. A nil fetcher means requests must carry HTML.
func NewHandler(fetcher PageFetcher, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Handler{fetcher: fetcher, logger: logger}
}

// Handle produces exactly one response for req. Failures are reported in
// Response.Error, never as a missing response.
func (h *Handler) Handle(ctx context.Context, req Request) Response {
	if req.Action != ActionGetPaperInfo {
		return Response{Error: fmt.Sprintf("unknown action %q", req.Action)}
	}

	loc := extract.LocationFromURL(req.URL)
	if req.HTML != "" {
		return extract.FromHTML(strings.NewReader(req.HTML), loc)
	}

	if h.fetcher == nil {
		return Response{Error: "no html provided and fetching is disabled"}
	}
	page, err := h.fetcher.Fetch(ctx, req.URL)
	if err != nil {
		h.logger.Debug("fetch failed", "url", req.URL, "error", err)
		return Response{Error: err.Error()}
	}
	return page.Extract()
}

// Serve reads one JSON request per line from r and writes one JSON response
// per line to w until r is exhausted or ctx is done. Blank lines are
// ignored; a line that is not valid JSON gets an error response.
func Serve(ctx context.Context, r io.Reader, w io.Writer, h *Handler) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	enc := json.NewEncoder(w)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var req Request
		var resp Response
		if err := json.Unmarshal([]byte(line), &req); err != nil {
			resp = Response{Error: fmt.Sprintf("invalid request: %v", err)}
		} else {
			resp = h.Handle(ctx, req)
		}

		h.logger.Debug("handled request", "action", req.Action, "url", req.URL, "error", resp.Error)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("writing response: %w", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading requests: %w", err)
	}
	return nil
}
