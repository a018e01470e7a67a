package api_test

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/coffeebar/internal/api"
	"github.com/shaharia-lab/coffeebar/internal/eventbus"
	"github.com/shaharia-lab/coffeebar/internal/service"
	svcmocks "github.com/shaharia-lab/coffeebar/internal/service/mocks"
	"github.com/shaharia-lab/coffeebar/internal/storage"
)

// testHarness bundles the mock service and router used by every test.
type testHarness struct {
	machineSvc *svcmocks.MockMachineService
	router     chi.Router
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()

	machineSvc := new(svcmocks.MockMachineService)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := api.New(machineSvc, nil, logger)

	r := chi.NewRouter()
	srv.Mount(r)

	return &testHarness{machineSvc: machineSvc, router: r}
}

func (h *testHarness) do(req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

type messageBody struct {
	Message string               `json:"message"`
	State   storage.MachineState `json:"state"`
	Detail  string               `json:"detail"`
}

func decode(t *testing.T, w *httptest.ResponseRecorder) messageBody {
	t.Helper()
	var body messageBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func machine(water, coffee int) storage.MachineState {
	return storage.MachineState{WaterML: water, CoffeeG: coffee, WaterCapacityML: 2000, CoffeeCapacityG: 500}
}

// ---------- Status ----------

func TestStatus(t *testing.T) {
	tests := []struct {
		name       string
		state      storage.MachineState
		err        error
		wantStatus int
	}{
		{name: "success", state: machine(100, 20), wantStatus: http.StatusOK},
		{name: "service error", err: errors.New("store down"), wantStatus: http.StatusInternalServerError},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.machineSvc.On("Status", mock.Anything).Return(tc.state, tc.err)

			w := h.do(httptest.NewRequest(http.MethodGet, "/status", nil))
			assert.Equal(t, tc.wantStatus, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			if tc.wantStatus == http.StatusOK {
				var st storage.MachineState
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &st))
				assert.Equal(t, tc.state, st)
				assert.Contains(t, w.Body.String(), `"water_capacity_ml":2000`)
			}
		})
	}
}

func TestRecipes(t *testing.T) {
	h := newHarness(t)
	h.machineSvc.On("Recipes").Return(service.Recipes())

	w := h.do(httptest.NewRequest(http.MethodGet, "/recipes", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var got map[string]service.Recipe
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, service.Recipe{WaterML: 48, CoffeeG: 16}, got["double_espresso"])
}

func TestVersion(t *testing.T) {
	h := newHarness(t)

	w := h.do(httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"version":"dev"`)
}

// ---------- Fill ----------

func TestFillWater(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		mockAmount  int
		state       storage.MachineState
		err         error
		wantStatus  int
		wantMessage string
		wantDetail  string
	}{
		{
			name: "success", body: `{"amount_ml":1000}`, mockAmount: 1000, state: machine(1000, 0),
			wantStatus: http.StatusOK, wantMessage: "Filled 1000 ml water.",
		},
		{
			name: "invalid JSON", body: `{invalid`,
			wantStatus: http.StatusUnprocessableEntity, wantDetail: "invalid JSON body",
		},
		{
			name: "missing amount", body: `{}`,
			wantStatus: http.StatusUnprocessableEntity, wantDetail: "Please enter a water amount (ml).",
		},
		{
			name: "validation error", body: `{"amount_ml":0}`, mockAmount: 0,
			err:        &service.ValidationError{Field: "amount_ml", Message: "Water amount must be greater than 0 ml."},
			wantStatus: http.StatusUnprocessableEntity, wantDetail: "Water amount must be greater than 0 ml.",
		},
		{
			name: "overflow rejected", body: `{"amount_ml":20}`, mockAmount: 20,
			err:        &service.RejectedError{Message: "Filling 20 ml would overflow the water container."},
			wantStatus: http.StatusBadRequest, wantDetail: "Filling 20 ml would overflow the water container.",
		},
		{
			name: "unexpected error", body: `{"amount_ml":20}`, mockAmount: 20,
			err:        errors.New("disk full"),
			wantStatus: http.StatusInternalServerError, wantDetail: "Unexpected error while filling water.",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.machineSvc.On("FillWater", mock.Anything, tc.mockAmount).Return(tc.state, tc.err)

			w := h.do(httptest.NewRequest(http.MethodPost, "/fill/water", strings.NewReader(tc.body)))
			assert.Equal(t, tc.wantStatus, w.Code)

			body := decode(t, w)
			assert.Equal(t, tc.wantMessage, body.Message)
			assert.Equal(t, tc.wantDetail, body.Detail)
			if tc.wantStatus == http.StatusOK {
				assert.Equal(t, tc.state, body.State)
			}
		})
	}
}

func TestFillCoffee(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		mockAmount  int
		err         error
		wantStatus  int
		wantMessage string
		wantDetail  string
	}{
		{name: "success", body: `{"amount_g":100}`, mockAmount: 100, wantStatus: http.StatusOK, wantMessage: "Filled 100 g coffee."},
		{name: "missing amount", body: `{"amount_ml":100}`, wantStatus: http.StatusUnprocessableEntity, wantDetail: "Please enter a coffee amount (g)."},
		{name: "string amount", body: `{"amount_g":"lots"}`, wantStatus: http.StatusUnprocessableEntity, wantDetail: "invalid JSON body"},
		{
			name: "overflow rejected", body: `{"amount_g":600}`, mockAmount: 600,
			err:        &service.RejectedError{Message: "too much"},
			wantStatus: http.StatusBadRequest, wantDetail: "too much",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.machineSvc.On("FillCoffee", mock.Anything, tc.mockAmount).Return(machine(0, tc.mockAmount), tc.err)

			w := h.do(httptest.NewRequest(http.MethodPost, "/fill/coffee", strings.NewReader(tc.body)))
			assert.Equal(t, tc.wantStatus, w.Code)

			body := decode(t, w)
			assert.Equal(t, tc.wantMessage, body.Message)
			assert.Equal(t, tc.wantDetail, body.Detail)
		})
	}
}

// ---------- Brew ----------

func TestBrew(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		drink       string
		err         error
		wantStatus  int
		wantMessage string
		wantDetail  string
	}{
		{
			name: "espresso", body: `{"type":"espresso"}`, drink: "espresso",
			wantStatus: http.StatusOK, wantMessage: "Enjoy your espresso!",
		},
		{
			name: "underscores become spaces", body: `{"type":"double_espresso"}`, drink: "double_espresso",
			wantStatus: http.StatusOK, wantMessage: "Enjoy your double espresso!",
		},
		{
			name: "unknown drink", body: `{"type":"latte"}`, drink: "latte",
			err:        &service.ValidationError{Field: "type", Message: "Unknown drink type 'latte'."},
			wantStatus: http.StatusUnprocessableEntity, wantDetail: "Unknown drink type 'latte'.",
		},
		{
			name: "empty machine", body: `{"type":"espresso"}`, drink: "espresso",
			err:        &service.RejectedError{Message: "Cannot brew Espresso: both containers are empty. Please fill water and coffee."},
			wantStatus: http.StatusBadRequest,
			wantDetail: "Cannot brew Espresso: both containers are empty. Please fill water and coffee.",
		},
		{
			name: "invalid JSON", body: `nope`,
			wantStatus: http.StatusUnprocessableEntity, wantDetail: "invalid JSON body",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			h := newHarness(t)
			h.machineSvc.On("Brew", mock.Anything, tc.drink).Return(machine(976, 92), tc.err)

			w := h.do(httptest.NewRequest(http.MethodPost, "/brew", strings.NewReader(tc.body)))
			assert.Equal(t, tc.wantStatus, w.Code)

			body := decode(t, w)
			assert.Equal(t, tc.wantMessage, body.Message)
			assert.Equal(t, tc.wantDetail, body.Detail)
		})
	}
}

func TestBrewShortcuts(t *testing.T) {
	tests := []struct {
		path        string
		drink       string
		wantMessage string
	}{
		{"/brew/espresso", "espresso", "Enjoy your espresso!"},
		{"/brew/double-espresso", "double_espresso", "Enjoy your double espresso!"},
		{"/brew/americano", "americano", "Enjoy your americano!"},
		{"/brew/ristretto", "ristretto", "Enjoy your ristretto!"},
	}
	for _, tc := range tests {
		t.Run(tc.path, func(t *testing.T) {
			h := newHarness(t)
			h.machineSvc.On("Brew", mock.Anything, tc.drink).Return(machine(500, 50), nil)

			w := h.do(httptest.NewRequest(http.MethodPost, tc.path, nil))
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tc.wantMessage, decode(t, w).Message)
			h.machineSvc.AssertExpectations(t)
		})
	}
}

func TestEndToEnd_FillAndBrew(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewMachineService(storage.NewMemoryMachineStore(storage.NewMachineState(2000, 500)), logger)
	r := chi.NewRouter()
	api.New(svc, nil, logger).Mount(r)

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return w
	}

	require.Equal(t, http.StatusOK, post("/fill/water", `{"amount_ml":1000}`).Code)
	require.Equal(t, http.StatusOK, post("/fill/coffee", `{"amount_g":100}`).Code)

	w := post("/brew", `{"type":"espresso"}`)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Contains(t, body.Message, "Enjoy your espresso")
	assert.Equal(t, 1000-24, body.State.WaterML)
	assert.Equal(t, 100-8, body.State.CoffeeG)
}

func TestEndToEnd_HugeFillIsRejected(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.NewMachineService(storage.NewMemoryMachineStore(storage.NewMachineState(2000, 500)), logger)
	r := chi.NewRouter()
	api.New(svc, nil, logger).Mount(r)

	post := func(path, body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, path, strings.NewReader(body)))
		return w
	}

	require.Equal(t, http.StatusOK, post("/fill/water", `{"amount_ml":10}`).Code)
	require.Equal(t, http.StatusOK, post("/fill/coffee", `{"amount_g":10}`).Code)

	w := post("/fill/water", `{"amount_ml":9223372036854775802}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Detail, "would overflow the water container")

	w = post("/fill/coffee", `{"amount_g":9223372036854775807}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w).Detail, "would overflow the coffee container")

	status := httptest.NewRecorder()
	r.ServeHTTP(status, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, status.Code)
	var st storage.MachineState
	require.NoError(t, json.Unmarshal(status.Body.Bytes(), &st))
	assert.Equal(t, 10, st.WaterML)
	assert.Equal(t, 10, st.CoffeeG)
}

func TestEvents_NotServedWithoutSource(t *testing.T) {
	h := newHarness(t)
	w := h.do(httptest.NewRequest(http.MethodGet, "/events", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestEvents_StreamsMachineEvents(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	bus := eventbus.New(1, logger)
	defer bus.Close()

	svc := service.NewMachineService(
		storage.NewMemoryMachineStore(storage.NewMachineState(2000, 500)),
		logger,
		service.WithEventPublisher(bus),
	)
	r := chi.NewRouter()
	api.New(svc, bus, logger).Mount(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	line, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, ": connected\n", line)

	fill, err := http.Post(srv.URL+"/fill/water", "application/json", strings.NewReader(`{"amount_ml":250}`))
	require.NoError(t, err)
	_ = fill.Body.Close()
	require.Equal(t, http.StatusOK, fill.StatusCode)

	var eventLine, dataLine string
	for dataLine == "" {
		line, err = reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}
	assert.Equal(t, service.EventWaterFilled, eventLine)

	var e eventbus.Event
	require.NoError(t, json.Unmarshal([]byte(dataLine), &e))
	assert.Equal(t, service.EventWaterFilled, e.Type)
	assert.Equal(t, "250", e.Payload["amount_ml"])
	assert.Equal(t, "250", e.Payload["water_ml"])
}
