package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/use-agent/makemodel/models"
	"github.com/use-agent/makemodel/session"
)

// OpenSession returns a handler for POST /api/v1/sessions.
//
// A url opens a live browser tab when the browser is enabled; without it
// the page is fetched once and held as static HTML. Pushed html always
// makes a static session that PUT /sessions/:id/html can update.
func OpenSession(pages Pages, mgr *session.Manager, opts session.Options) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.SessionRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewExtractError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		req.Defaults()
		if err := req.Validate(); err != nil {
			respondError(c, err)
			return
		}

		var (
			src     session.Source
			store   session.Store
			pageURL string
		)
		switch {
		case req.HTML == "" && pages != nil && pages.BrowserEnabled():
			live, err := pages.OpenLive(c.Request.Context(), req.URL, req.Stealth)
			if err != nil {
				respondError(c, err)
				return
			}
			src, store, pageURL = live, live, req.URL

		default:
			page, err := loadPage(c.Request.Context(), pages, &req.ExtractRequest)
			if err != nil {
				respondError(c, err)
				return
			}
			src = session.NewStaticSource(page.HTML, page.PageURL)
			store = session.NewMemoryStore()
			pageURL = page.PageURL
		}

		o := opts
		o.WebhookURL = req.WebhookURL
		s := mgr.Open(pageURL, src, store, o)

		c.JSON(http.StatusCreated, models.SessionResponse{
			ID:      s.ID,
			Status:  "open",
			PageURL: s.PageURL,
			Live:    s.Live(),
		})
	}
}

// QuerySession returns a handler for POST /api/v1/sessions/:id/query.
// The body is the bridge message {"action":"getMakeAndModel"} and the
// response is always {"result": ...}, null when nothing was found.
func QuerySession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.QueryRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewExtractError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		resp, err := mgr.Query(c.Request.Context(), c.Param("id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}

// UpdateSessionHTML returns a handler for PUT /api/v1/sessions/:id/html.
func UpdateSessionHTML(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.UpdateHTMLRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewExtractError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}

		s, err := mgr.Get(c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		if err := s.Update(c.Request.Context(), req.HTML); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SessionResponse{
			ID:      s.ID,
			Status:  "open",
			PageURL: s.PageURL,
			Live:    s.Live(),
		})
	}
}

// CloseSession returns a handler for DELETE /api/v1/sessions/:id. Closing
// is the unload: the cached result is dropped with the session.
func CloseSession(mgr *session.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		if err := mgr.Drop(id); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SessionResponse{ID: id, Status: "closed"})
	}
}
