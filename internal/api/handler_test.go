package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"fieldservice-backend/config"
	"fieldservice-backend/internal/db"
	"fieldservice-backend/internal/model"
	"fieldservice-backend/internal/oracle"
	"fieldservice-backend/internal/slots"
	"fieldservice-backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type recordingNotifier struct {
	mu  sync.Mutex
	ids []string
}

func (n *recordingNotifier) Dispatch(appointmentID string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.ids = append(n.ids, appointmentID)
	return true
}

type testEnv struct {
	router   *gin.Engine
	store    store.Store
	notifier *recordingNotifier
	calls    *int
}

// newTestEnv wires the full router over in-memory sqlite and an oracle that
// answers 45 minutes for every trip.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	return newLoggedTestEnv(t, nil)
}

func newLoggedTestEnv(t *testing.T, logger *zap.Logger) *testEnv {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gormDB, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gormDB))
	sqlDB, err := gormDB.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	var (
		mu    sync.Mutex
		calls int
	)
	travel := oracle.Func(func(ctx context.Context, req oracle.Request) (oracle.TravelTimeResult, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		return oracle.TravelTimeResult{DurationMinutes: 45}, nil
	})

	s := store.NewGormStore(gormDB)
	notifier := &recordingNotifier{}
	router := NewRouter(Deps{
		Store:     s,
		Scheduler: slots.New(travel, slots.DefaultOptions(), nil),
		Notifier:  notifier,
		Location:  time.UTC,
		Logger:    logger,
	}, config.ServerConfig{RateLimitPerSec: 1000, RateLimitBurst: 1000, CacheTTLSeconds: 60})

	return &testEnv{router: router, store: s, notifier: notifier, calls: &calls}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	req, err := http.NewRequest(method, path, strings.NewReader(body))
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	e.router.ServeHTTP(w, req)
	return w
}

func (e *testEnv) technician(t *testing.T, name string) model.Technician {
	t.Helper()
	tech := model.Technician{Name: name}
	require.NoError(t, e.store.CreateTechnician(context.Background(), &tech))
	return tech
}

type slotJSON struct {
	Time          string `json:"time"`
	Label         string `json:"label"`
	IsRecommended bool   `json:"isRecommended"`
	TravelContext *struct {
		PreviousClientName string `json:"previousClientName"`
		PreviousSuburb     string `json:"previousSuburb"`
		TravelMinutes      int    `json:"travelMinutes"`
	} `json:"travelContext"`
}

func decodeSlots(t *testing.T, w *httptest.ResponseRecorder) []slotJSON {
	t.Helper()
	var resp struct {
		Date  string     `json:"date"`
		Slots []slotJSON `json:"slots"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp.Slots
}

func slotByTime(list []slotJSON, at string) (slotJSON, bool) {
	for _, s := range list {
		if s.Time == at {
			return s, true
		}
	}
	return slotJSON{}, false
}

func TestComputeSlots_EmptyCalendar(t *testing.T) {
	env := newTestEnv(t)
	sam := model.Technician{Name: "Sam", HomeBase: "22 Depot Rd, Brunswick"}
	require.NoError(t, env.store.CreateTechnician(context.Background(), &sam))

	w := env.do(t, http.MethodPost, "/api/slots",
		`{"address":"9 High St","technicianId":"`+sam.ID+`","date":"2026-10-20"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decodeSlots(t, w)
	require.Len(t, list, 22)
	assert.Equal(t, "07:00", list[0].Time)
	assert.Equal(t, "17:30", list[len(list)-1].Time)
	for _, s := range list {
		assert.Equal(t, s.Time == "09:00", s.IsRecommended, s.Time)
		assert.Nil(t, s.TravelContext)
	}
	assert.Zero(t, *env.calls, "the home base is not a travel origin")
}

func TestComputeSlots_TravelFromStoredAppointment(t *testing.T) {
	env := newTestEnv(t)
	sam := env.technician(t, "Sam")
	require.NoError(t, env.store.BookAppointment(context.Background(), &model.Appointment{
		TechnicianID: sam.ID, Date: "2026-10-20", StartTime: "09:00", EndTime: "10:00",
		ClientName: "Jones", Address: "1 Smith St", Suburb: "Fitzroy",
	}))

	w := env.do(t, http.MethodPost, "/api/slots",
		`{"address":"9 High St","technicianId":"`+sam.ID+`","date":"2026-10-20","sessionId":"tab-1"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decodeSlots(t, w)
	for _, excluded := range []string{"08:30", "09:00", "09:30", "10:00", "10:30"} {
		_, found := slotByTime(list, excluded)
		assert.False(t, found, excluded)
	}
	eleven, found := slotByTime(list, "11:00")
	require.True(t, found)
	require.NotNil(t, eleven.TravelContext)
	assert.Equal(t, 45, eleven.TravelContext.TravelMinutes)
	assert.Equal(t, "Jones", eleven.TravelContext.PreviousClientName)
	assert.Equal(t, "Fitzroy", eleven.TravelContext.PreviousSuburb)
	assert.True(t, list[0].IsRecommended)
	assert.Positive(t, *env.calls)
}

func TestComputeSlots_BadRequests(t *testing.T) {
	env := newTestEnv(t)
	sam := env.technician(t, "Sam")

	testCases := []struct {
		name       string
		body       string
		expectCode int
	}{
		{name: "malformed json", body: `{`, expectCode: http.StatusBadRequest},
		{name: "empty address", body: `{"address":"  ","technicianId":"` + sam.ID + `","date":"2026-10-20"}`, expectCode: http.StatusBadRequest},
		{name: "bad date", body: `{"address":"9 High St","technicianId":"` + sam.ID + `","date":"20/10/2026"}`, expectCode: http.StatusBadRequest},
		{name: "unknown technician", body: `{"address":"9 High St","technicianId":"nobody","date":"2026-10-20"}`, expectCode: http.StatusNotFound},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/slots", tc.body)
			assert.Equal(t, tc.expectCode, w.Code, w.Body.String())
		})
	}
	assert.Zero(t, *env.calls)
}

func TestPreviewSlots(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/slots/preview", `{
		"address": "9 High St",
		"date": "2026-10-20",
		"appointments": [
			{"id": "a", "clientName": "Jones", "suburb": "Fitzroy", "address": "1 Smith St", "startTime": "9:00 AM", "endTime": "10:00 AM"}
		]
	}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	list := decodeSlots(t, w)
	_, found := slotByTime(list, "10:30")
	assert.False(t, found)
	eleven, found := slotByTime(list, "11:00")
	require.True(t, found)
	require.NotNil(t, eleven.TravelContext)
	assert.Equal(t, "11:00 AM", eleven.Label)

	empty := env.do(t, http.MethodPost, "/api/slots/preview", `{"address":"","date":"2026-10-20"}`)
	assert.Equal(t, http.StatusBadRequest, empty.Code)
}

func TestBookAppointment(t *testing.T) {
	env := newTestEnv(t)
	sam := env.technician(t, "Sam")
	path := "/api/technicians/" + sam.ID + "/appointments"

	w := env.do(t, http.MethodPost, path,
		`{"clientName":"Jones","address":"1 Smith St","suburb":"Fitzroy","date":"2026-10-20","startTime":"9:00 AM"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var booked model.Appointment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &booked))
	assert.Equal(t, "09:00", booked.StartTime)
	assert.Equal(t, "10:00", booked.EndTime, "end defaults to the inspection duration")
	assert.Equal(t, []string{booked.ID}, env.notifier.ids)

	clash := env.do(t, http.MethodPost, path,
		`{"clientName":"Nguyen","address":"4 Park Rd","date":"2026-10-20","startTime":"09:30","endTime":"10:30"}`)
	assert.Equal(t, http.StatusConflict, clash.Code)

	bad := env.do(t, http.MethodPost, path,
		`{"clientName":"Nguyen","address":"4 Park Rd","date":"2026-10-20","startTime":"11:00","endTime":"10:00"}`)
	assert.Equal(t, http.StatusBadRequest, bad.Code)

	unknown := env.do(t, http.MethodPost, "/api/technicians/nobody/appointments",
		`{"clientName":"Nguyen","address":"4 Park Rd","date":"2026-10-20","startTime":"11:00"}`)
	assert.Equal(t, http.StatusNotFound, unknown.Code)

	list := env.do(t, http.MethodGet, path+"?date=2026-10-20", "")
	require.Equal(t, http.StatusOK, list.Code)
	var appts []model.Appointment
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &appts))
	require.Len(t, appts, 1)
	assert.Equal(t, "Jones", appts[0].ClientName)

	noDate := env.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusBadRequest, noDate.Code)
	assert.Len(t, env.notifier.ids, 1)
}

func TestBookAppointment_LogsWithRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	env := newLoggedTestEnv(t, zap.New(core))
	sam := env.technician(t, "Sam")

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/technicians/"+sam.ID+"/appointments",
		strings.NewReader(`{"clientName":"Jones","address":"1 Smith St","date":"2026-10-20","startTime":"09:00"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", "book-42")
	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	booked := logs.FilterMessage("appointment booked").All()
	require.Len(t, booked, 1)
	assert.Equal(t, "book-42", booked[0].ContextMap()["request_id"])
	assert.Equal(t, sam.ID, booked[0].ContextMap()["technician_id"])
}

func TestTechnicians_CachedAndInvalidated(t *testing.T) {
	env := newTestEnv(t)
	env.technician(t, "Sam")

	first := env.do(t, http.MethodGet, "/api/technicians", "")
	require.Equal(t, http.StatusOK, first.Code)
	assert.Equal(t, "MISS", first.Header().Get("X-Cache"))

	// written behind the API's back, so the cached list is still served
	env.technician(t, "Alex")
	cached := env.do(t, http.MethodGet, "/api/technicians", "")
	assert.Equal(t, "HIT", cached.Header().Get("X-Cache"))
	assert.JSONEq(t, first.Body.String(), cached.Body.String())

	created := env.do(t, http.MethodPost, "/api/technicians", `{"name":"Kim","homeBase":"Carlton"}`)
	require.Equal(t, http.StatusCreated, created.Code)

	fresh := env.do(t, http.MethodGet, "/api/technicians", "")
	assert.Equal(t, "MISS", fresh.Header().Get("X-Cache"))
	var techs []model.Technician
	require.NoError(t, json.Unmarshal(fresh.Body.Bytes(), &techs))
	assert.Len(t, techs, 3)

	invalid := env.do(t, http.MethodPost, "/api/technicians", `{"name":"   "}`)
	assert.Equal(t, http.StatusBadRequest, invalid.Code)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","calculating":false}`, w.Body.String())
}

func TestSlotsErrorMapping(t *testing.T) {
	testCases := []struct {
		err        error
		expectCode int
	}{
		{err: slots.ErrEmptyAddress, expectCode: http.StatusBadRequest},
		{err: slots.ErrSuperseded, expectCode: http.StatusConflict},
		{err: context.Canceled, expectCode: http.StatusRequestTimeout},
		{err: context.DeadlineExceeded, expectCode: http.StatusRequestTimeout},
		{err: assert.AnError, expectCode: http.StatusInternalServerError},
	}
	h := NewHandler(Deps{})
	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)
			h.slotsError(c, tc.err)
			assert.Equal(t, tc.expectCode, w.Code)
		})
	}
}
