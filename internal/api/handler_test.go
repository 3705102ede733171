package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/limaJavier/slotplanner/internal/config"
	"github.com/limaJavier/slotplanner/internal/metrics"
	"github.com/limaJavier/slotplanner/pkg/model"
	"github.com/limaJavier/slotplanner/pkg/solver"
)

const singleGroupRequest = `{
	"method": "%s",
	"teachers": [{"id": 1, "availability": {"1": [10, 11, 12]}}],
	"rooms": [{"id": 101, "capacity": 50, "availability": {"1": [10, 11, 12]}, "labels": ["lecture"]}],
	"groups": [{"id": 1, "duration": 3, "capacity": 30, "availability": {"1": [10, 11, 12]}, "labels": [[["lecture"]]], "teacher_ids": [1]}]%s
}`

func singleGroup(method, extra string) string {
	return strings.Replace(strings.Replace(singleGroupRequest, "%s", method, 1), "%s", extra, 1)
}

func testConfig() *config.Config {
	return &config.Config{
		Env:    config.EnvDevelopment,
		Solver: config.SolverConfig{DefaultAlgorithm: "ordered_groups_alg", RandomSeed: 7},
		Parser: config.ParserConfig{RequireTeacher: true, MaxSlot: 23},
	}
}

func setupRouter(m *metrics.Metrics) *gin.Engine {
	gin.SetMode(gin.TestMode)
	return NewRouter(testConfig(), zap.NewNop(), m)
}

func perform(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeOutcome(t *testing.T, w *httptest.ResponseRecorder) solver.Outcome {
	var outcome solver.Outcome
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &outcome))
	return outcome
}

func TestSchedule(t *testing.T) {
	t.Run("Solves the request", func(t *testing.T) {
		//** Arrange
		router := setupRouter(nil)

		//** Act
		w := perform(router, http.MethodPost, "/schedule", singleGroup("rating_function_alg", ""))

		//** Assert
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
		outcome := decodeOutcome(t, w)
		assert.True(t, outcome.Success)
		assert.Empty(t, outcome.Issues)
		assert.Equal(t, []model.Allocation{{GroupId: 1, RoomIds: []uint64{101}, Day: 1, Slots: []uint64{10, 11, 12}}}, outcome.Solution)
	})

	t.Run("Falls back to the configured algorithm", func(t *testing.T) {
		router := setupRouter(nil)

		w := perform(router, http.MethodPost, "/schedule", singleGroup("", ""))

		require.Equal(t, http.StatusOK, w.Code)
		assert.True(t, decodeOutcome(t, w).Success)
	})

	t.Run("Reports infeasibility", func(t *testing.T) {
		//** Arrange
		router := setupRouter(nil)
		body := `{"teachers": [{"id": 1, "availability": {"1": [10]}}],
			"rooms": [{"id": 101, "capacity": 50, "availability": {"1": [11]}, "labels": ["lab"]}],
			"groups": [{"id": 1, "duration": 1, "capacity": 30, "availability": {"1": [10, 11]}, "labels": [[["lab"]]], "teacher_ids": [1]}]}`

		//** Act
		w := perform(router, http.MethodPost, "/schedule", body)

		//** Assert
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"success": false, "solution": [], "errors": [
			{"type": "group", "id": 1, "msg": "Could not find placement for group with id=1 (ordered_groups_alg)"}
		]}`, w.Body.String())
	})

	t.Run("Rejects malformed JSON", func(t *testing.T) {
		router := setupRouter(nil)

		w := perform(router, http.MethodPost, "/schedule", `{"groups": [`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		outcome := decodeOutcome(t, w)
		assert.False(t, outcome.Success)
		require.Len(t, outcome.Issues, 1)
		assert.Equal(t, model.IssueParser, outcome.Issues[0].Type)
	})

	t.Run("Rejects missing fields", func(t *testing.T) {
		router := setupRouter(nil)

		w := perform(router, http.MethodPost, "/schedule", `{"teachers": [{"id": 2}]}`)

		require.Equal(t, http.StatusBadRequest, w.Code)
		outcome := decodeOutcome(t, w)
		require.Len(t, outcome.Issues, 1)
		assert.Equal(t, model.Issue{Type: model.IssueParser, Id: 2, Message: "Teacher is missing required fields: 'availability'"}, outcome.Issues[0])
	})

	t.Run("Rejects unknown methods", func(t *testing.T) {
		router := setupRouter(nil)

		w := perform(router, http.MethodPost, "/schedule", singleGroup("fastest_alg", ""))

		require.Equal(t, http.StatusBadRequest, w.Code)
		outcome := decodeOutcome(t, w)
		require.Len(t, outcome.Issues, 1)
		assert.Contains(t, outcome.Issues[0].Message, "Sent 'fastest_alg'")
	})

	t.Run("Rejects invalid established allocations", func(t *testing.T) {
		router := setupRouter(nil)
		allocations := `, "allocations": [{"group_id": 1, "room_ids": [101], "day": 1, "slots": [10, 11]}]`

		w := perform(router, http.MethodPost, "/schedule", singleGroup("probabilistic_alg", allocations))

		require.Equal(t, http.StatusOK, w.Code)
		outcome := decodeOutcome(t, w)
		assert.False(t, outcome.Success)
		require.NotEmpty(t, outcome.Issues)
		assert.True(t, strings.HasPrefix(outcome.Issues[0].Message, "Given allocations do not satisfy constraints: "))
	})
}

func TestCheck(t *testing.T) {
	testCases := []struct {
		name        string
		allocations string
		success     bool
	}{
		{"Valid solution", `, "allocations": [{"group_id": 1, "room_ids": [101], "day": 1, "slots": [10, 11, 12]}]`, true},
		{"Missing group", "", false},
		{"Wrong room", `, "allocations": [{"group_id": 1, "room_ids": [102], "day": 1, "slots": [10, 11, 12]}]`, false},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			//** Arrange
			m := metrics.New()
			router := setupRouter(m)

			//** Act
			w := perform(router, http.MethodPost, "/check", singleGroup("", testCase.allocations))

			//** Assert
			require.Equal(t, http.StatusOK, w.Code)
			var response CheckResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
			assert.Equal(t, testCase.success, response.Success)
			assert.Equal(t, testCase.success, len(response.Issues) == 0)
		})
	}
}

func TestHealth(t *testing.T) {
	router := setupRouter(nil)

	w := perform(router, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status": "ok"}`, w.Body.String())
}

func TestMetricsEndpoint(t *testing.T) {
	//** Arrange
	router := setupRouter(metrics.New())
	perform(router, http.MethodPost, "/schedule", singleGroup("deep_ordered_groups_alg", ""))

	//** Act
	w := perform(router, http.MethodGet, "/metrics", "")

	//** Assert
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `solve_runs_total{algorithm="deep_ordered_groups_alg",result="success"} 1`)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestMetricsEndpointDisabled(t *testing.T) {
	router := setupRouter(nil)

	w := perform(router, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
}
