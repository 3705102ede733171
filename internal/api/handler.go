package api

import (
	"errors"
	"io"
	"math/rand"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/limaJavier/slotplanner/internal/metrics"
	"github.com/limaJavier/slotplanner/internal/requestid"
	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/limaJavier/slotplanner/pkg/solver"
)

// CheckResponse is the body returned by the check endpoint
type CheckResponse struct {
	Success bool          `json:"success"`
	Issues  []model.Issue `json:"errors"`
}

// Handler serves the scheduling endpoints. Every request parses its own Problem.
type Handler struct {
	policy           model.ParsePolicy
	defaultAlgorithm string
	seed             int64 // 0 seeds every run from the clock
	metrics          *metrics.Metrics
	logger           *zap.Logger
}

func NewHandler(policy model.ParsePolicy, defaultAlgorithm string, seed int64, m *metrics.Metrics, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		policy:           policy,
		defaultAlgorithm: defaultAlgorithm,
		seed:             seed,
		metrics:          m,
		logger:           logger,
	}
}

// Schedule parses a request, solves it and returns the Outcome
func (h *Handler) Schedule(c *gin.Context) {
	logger := h.logger.With(zap.String("request_id", requestid.Value(c)))

	request, ok := h.parse(c)
	if !ok {
		return
	}

	method := request.Method
	if method == "" {
		method = h.defaultAlgorithm
	}
	algorithm, err := solver.ParseAlgorithm(method)
	if err != nil {
		c.JSON(http.StatusBadRequest, failedOutcome(model.NewIssue(model.IssueParser, 0, "%v", err)))
		return
	}

	options := []solver.Option{solver.WithLogger(logger), solver.WithObserver(h.metrics.SolveObserver())}
	if h.seed != 0 {
		options = append(options, solver.WithRand(rand.New(rand.NewSource(h.seed))))
	}

	outcome, err := solver.Solve(request.Problem, algorithm, options...)
	if err != nil {
		var violation *solver.InvariantViolationError
		if errors.As(err, &violation) {
			logger.Error("solver invariant violated", zap.Error(err))
		}
		c.JSON(http.StatusInternalServerError, failedOutcome(model.NewIssue(model.IssueSolver, 0, "%v", err)))
		return
	}

	c.JSON(http.StatusOK, outcome)
}

// Check validates the allocations of a request as a complete solution without solving
func (h *Handler) Check(c *gin.Context) {
	request, ok := h.parse(c)
	if !ok {
		return
	}

	issues := request.Problem.Check(model.Full)
	h.metrics.ObserveCheck(len(issues) == 0)
	c.JSON(http.StatusOK, CheckResponse{Success: len(issues) == 0, Issues: issues})
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parse reads the body into a Request, answering 400 with the parser issue on failure
func (h *Handler) parse(c *gin.Context) (model.Request, bool) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, failedOutcome(model.NewIssue(model.IssueParser, 0, "cannot read request body: %v", err)))
		return model.Request{}, false
	}

	request, err := model.ParseRequest(body, h.policy)
	if err != nil {
		issue := model.NewIssue(model.IssueParser, 0, "%v", err)
		var issueErr *model.IssueError
		if errors.As(err, &issueErr) {
			issue = issueErr.Issue
		}
		c.JSON(http.StatusBadRequest, failedOutcome(issue))
		return model.Request{}, false
	}
	return request, true
}

func failedOutcome(issues ...model.Issue) solver.Outcome {
	return solver.Outcome{Success: false, Issues: issues, Solution: []model.Allocation{}}
}
