package api

import (
	"net/http"
	"strconv"

	"centerout/app"
	"centerout/domain/core"
	"centerout/domain/trial"
	"centerout/internal"
	"centerout/internal/errors"
	"centerout/ports"

	"github.com/gin-gonic/gin"
)

// TaskHandler exposes the task service over HTTP
type TaskHandler struct {
	svc    *app.TaskService
	ledger ports.LedgerReaderPort
	logger *internal.Logger
}

// NewTaskHandler creates a new task handler. ledger may be nil, in which
// case attempt queries fall back to the service's in-memory list.
func NewTaskHandler(svc *app.TaskService, ledger ports.LedgerReaderPort, logger *internal.Logger) *TaskHandler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &TaskHandler{svc: svc, ledger: ledger, logger: logger.With("api")}
}

// StartSession begins a session
func (h *TaskHandler) StartSession(c *gin.Context) {
	sess, err := h.svc.StartSession(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": sess, "phase": sess.Phase()})
}

// EndSession stops the session and reports where its rows were exported
func (h *TaskHandler) EndSession(c *gin.Context) {
	path, err := h.svc.EndSession(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"export": path, "counters": h.svc.Counters()})
}

// Command applies a control message such as a phase override or target hint
func (h *TaskHandler) Command(c *gin.Context) {
	var cmd ports.Command
	if err := c.ShouldBindJSON(&cmd); err != nil {
		h.fail(c, errors.InvalidInput("malformed command: "+err.Error()))
		return
	}
	if err := h.svc.HandleCommand(c.Request.Context(), cmd); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, h.svc.Status())
}

// Sample processes one raw position reading
func (h *TaskHandler) Sample(c *gin.Context) {
	var raw ports.RawSample
	if err := c.ShouldBindJSON(&raw); err != nil {
		h.fail(c, errors.InvalidInput("malformed sample: "+err.Error()))
		return
	}
	res, err := h.svc.Process(c.Request.Context(), raw)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Status returns the session snapshot
func (h *TaskHandler) Status(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Status())
}

// Rows returns recorder rows, optionally only those after ?since=N
func (h *TaskHandler) Rows(c *gin.Context) {
	since, err := strconv.Atoi(c.DefaultQuery("since", "0"))
	if err != nil || since < 0 {
		h.fail(c, errors.InvalidInput("since must be a non-negative integer"))
		return
	}
	rows := h.svc.RowsSince(since)
	c.JSON(http.StatusOK, gin.H{"since": since, "count": len(rows), "rows": rows})
}

// Attempts lists finished attempts, filtered by type and success
func (h *TaskHandler) Attempts(c *gin.Context) {
	filters, err := attemptFilters(c)
	if err != nil {
		h.fail(c, err)
		return
	}
	if h.ledger == nil {
		c.JSON(http.StatusOK, gin.H{"attempts": h.svc.Attempts()})
		return
	}
	if filters.SessionID == nil {
		sid := h.svc.Status().Session.ID
		filters.SessionID = &sid
	}
	records, err := h.ledger.ListAttempts(c.Request.Context(), filters)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"attempts": records})
}

func attemptFilters(c *gin.Context) (ports.AttemptFilters, error) {
	var f ports.AttemptFilters
	if v := c.Query("session_id"); v != "" {
		sid := core.SessionID(v)
		f.SessionID = &sid
	}
	if v := c.Query("type"); v != "" {
		typ, err := trial.ParseType(v)
		if err != nil {
			return f, err
		}
		f.Type = &typ
	}
	if v := c.Query("success"); v != "" {
		ok, err := strconv.ParseBool(v)
		if err != nil {
			return f, errors.InvalidInput("success must be a boolean")
		}
		f.Success = &ok
	}
	var err error
	if f.Limit, err = strconv.Atoi(c.DefaultQuery("limit", "0")); err != nil || f.Limit < 0 {
		return f, errors.InvalidInput("limit must be a non-negative integer")
	}
	if f.Offset, err = strconv.Atoi(c.DefaultQuery("offset", "0")); err != nil || f.Offset < 0 {
		return f, errors.InvalidInput("offset must be a non-negative integer")
	}
	return f, nil
}

// Targets returns the layout and the per-target tallies of the session
func (h *TaskHandler) Targets(c *gin.Context) {
	p := h.svc.Params()
	resp := gin.H{
		"home":    p.Layout().Home(),
		"targets": p.Layout().Targets(),
		"radius":  p.AcceptRadius(),
	}
	if h.ledger != nil {
		tallies, err := h.ledger.TargetTallies(c.Request.Context(), h.svc.Status().Session.ID)
		if err != nil {
			h.fail(c, err)
			return
		}
		resp["tallies"] = tallies
	}
	c.JSON(http.StatusOK, resp)
}

// Summary returns the per-block statistics
func (h *TaskHandler) Summary(c *gin.Context) {
	c.JSON(http.StatusOK, h.svc.Summary())
}

// Report renders the summary as an HTML page
func (h *TaskHandler) Report(c *gin.Context) {
	title := "Session report"
	if subject := h.svc.Params().Subject; subject != "" {
		title += ", " + subject
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", h.svc.Summary().HTML(title))
}

// Params returns the protocol parameters and their fingerprint
func (h *TaskHandler) Params(c *gin.Context) {
	p := h.svc.Params()
	c.JSON(http.StatusOK, gin.H{"params": p, "fingerprint": p.Fingerprint()})
}

func (h *TaskHandler) fail(c *gin.Context, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	} else {
		h.logger.Debug("%s %s rejected: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": errors.GetCode(err)})
}
