package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"food-rescue-api/config"
	"food-rescue-api/fixtures"
	"food-rescue-api/handlers"
	"food-rescue-api/ledger"
	"food-rescue-api/middleware"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var now = time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)

type api struct {
	t *testing.T
	r *gin.Engine
	l *ledger.Ledger
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log := logrus.New()
	log.SetOutput(io.Discard)

	db, err := config.OpenDB("routes_" + uuid.NewString())
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	l := ledger.New(db,
		ledger.WithClock(func() time.Time { return now }),
		ledger.WithLocation(time.UTC),
		ledger.WithLogger(log),
	)
	f, err := fixtures.Default(now)
	require.NoError(t, err)
	require.NoError(t, l.Seed(context.Background(), f))

	auth := middleware.NewAuth("test-secret", time.Hour)
	r := gin.New()
	SetupRoutes(r, Deps{Handler: handlers.New(l, auth, log, time.UTC), Auth: auth})
	return &api{t: t, r: r, l: l}
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var rd io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		rd = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	return w
}

func (a *api) login(body map[string]string) string {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/auth/login", "", body)
	require.Equal(a.t, http.StatusOK, w.Code, w.Body.String())
	var out struct {
		Token string `json:"token"`
	}
	require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &out))
	return out.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func reasonOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	r, _ := decode(t, w)["reason"].(string)
	return r
}

func TestLogin(t *testing.T) {
	a := newAPI(t)

	w := a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"role": "OWNER"})
	require.Equal(t, http.StatusOK, w.Code)
	user := decode(t, w)["user"].(map[string]any)
	assert.Equal(t, "o1", user["id"])

	w = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"user_id": "nobody"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "USER_NOT_FOUND", reasonOf(t, w))

	w = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{"role": "CHEF"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/auth/login", "", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", reasonOf(t, w))
}

func TestProfileShowsQuota(t *testing.T) {
	a := newAPI(t)
	token := a.login(map[string]string{"user_id": "u1"})

	w := a.do(http.MethodGet, "/api/profile", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	// b1 is already held today
	assert.EqualValues(t, 1, decode(t, w)["bookings_left_today"])

	vol := a.login(map[string]string{"role": "VOLUNTEER"})
	w = a.do(http.MethodGet, "/api/profile", vol, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, decode(t, w), "bookings_left_today")

	w = a.do(http.MethodGet, "/api/profile", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPublicSessionViews(t *testing.T) {
	a := newAPI(t)

	ids := func(w *httptest.ResponseRecorder) []string {
		var out struct {
			Sessions []struct {
				ID string `json:"id"`
			} `json:"sessions"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
		var got []string
		for _, s := range out.Sessions {
			got = append(got, s.ID)
		}
		return got
	}

	w := a.do(http.MethodGet, "/api/sessions?audience=recipient", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"s1", "s2", "s4", "s5"}, ids(w))

	w = a.do(http.MethodGet, "/api/sessions?audience=pilot", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodGet, "/api/sessions?audience=recipient&q=kantin", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"s1", "s2"}, ids(w))

	w = a.do(http.MethodGet, "/api/sessions?q=Warteg", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"s5"}, ids(w))

	w = a.do(http.MethodGet, "/api/restaurants/r3/sessions", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"s3", "s4"}, ids(w))

	w = a.do(http.MethodGet, "/api/restaurants/r9", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	vol := a.login(map[string]string{"user_id": "v1"})
	w = a.do(http.MethodGet, "/api/volunteer/sessions", vol, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.ElementsMatch(t, []string{"s1", "s3"}, ids(w))

	// category match
	w = a.do(http.MethodGet, "/api/volunteer/sessions?q=italian", vol, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"s3"}, ids(w))

	w = a.do(http.MethodGet, "/api/state-machine", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["state_machine"], 6)
}

func TestRecipientBookingFlow(t *testing.T) {
	a := newAPI(t)
	token := a.login(map[string]string{"user_id": "u1"})

	w := a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s3"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "NOT_ELIGIBLE", reasonOf(t, w))

	w = a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s1"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DUPLICATE_RESTAURANT", reasonOf(t, w))

	w = a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s2", "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	booking := decode(t, w)["booking"].(map[string]any)
	assert.Equal(t, "PENDING", booking["status"])
	assert.Regexp(t, `^SE-\d{4}$`, booking["code"])
	id := booking["id"].(string)

	w = a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s4"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "DAILY_LIMIT_REACHED", reasonOf(t, w))

	w = a.do(http.MethodGet, "/api/bookings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = a.do(http.MethodGet, "/api/bookings/"+id, token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode(t, w)["history"], 1)

	w = a.do(http.MethodPut, "/api/bookings/"+id+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "CANCELLED", decode(t, w)["current_status"])

	s2, err := a.l.Session(context.Background(), "s2")
	require.NoError(t, err)
	assert.Equal(t, 2, s2.RemainingPortions)

	w = a.do(http.MethodPut, "/api/bookings/"+id+"/cancel", token, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "ILLEGAL_TRANSITION", reasonOf(t, w))
	assert.Empty(t, decode(t, w)["valid_next_states"])

	// quota slot is free again
	w = a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s4"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = a.do(http.MethodGet, "/api/bookings?view=active", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, decode(t, w)["count"])

	w = a.do(http.MethodGet, "/api/bookings?view=history", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)
	require.EqualValues(t, 1, history["count"])
	assert.Equal(t, id, history["bookings"].([]any)[0].(map[string]any)["id"])

	w = a.do(http.MethodGet, "/api/bookings?view=archived", token, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", reasonOf(t, w))
}

func TestCancelBookingRejectsMalformedBody(t *testing.T) {
	a := newAPI(t)
	token := a.login(map[string]string{"user_id": "u1"})

	w := a.do(http.MethodPost, "/api/bookings", token, map[string]any{"session_id": "s2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	id := decode(t, w)["booking"].(map[string]any)["id"].(string)

	req := httptest.NewRequest(http.MethodPut, "/api/bookings/"+id+"/cancel", strings.NewReader("{bad"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)
	w = httptest.NewRecorder()
	a.r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	b, err := a.l.Booking(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", string(b.Status))

	w = a.do(http.MethodPut, "/api/bookings/"+id+"/cancel", token, map[string]string{"reason": "plans changed"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "PENDING", body["previous_status"])
	assert.Equal(t, "CANCELLED", body["current_status"])
}

func TestOtherUsersBookingIsHidden(t *testing.T) {
	a := newAPI(t)
	vol := a.login(map[string]string{"user_id": "v1"})

	w := a.do(http.MethodGet, "/api/bookings/b1", vol, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = a.do(http.MethodPut, "/api/bookings/b1/cancel", vol, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestOwnerFlow(t *testing.T) {
	a := newAPI(t)
	owner := a.login(map[string]string{"user_id": "o1"})
	vol := a.login(map[string]string{"user_id": "v1"})

	w := a.do(http.MethodPost, "/api/bookings", vol, map[string]any{"session_id": "s1", "quantity": 3})
	require.Equal(t, http.StatusCreated, w.Code)
	volBooking := decode(t, w)["booking"].(map[string]any)

	w = a.do(http.MethodGet, "/api/owner/restaurant", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	summary := decode(t, w)["summary"].(map[string]any)
	assert.EqualValues(t, 1, summary["pending_bookings"])
	assert.EqualValues(t, 1, summary["active_bookings"])

	w = a.do(http.MethodGet, "/api/owner/bookings?status=PENDING", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = a.do(http.MethodGet, "/api/owner/bookings?status=LOST", owner, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, "/api/owner/bookings/"+volBooking["id"].(string)+"/status", owner,
		map[string]string{"status": "APPROVED", "note": "see you at 8"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "PENDING", decode(t, w)["previous_status"])

	w = a.do(http.MethodPut, "/api/owner/bookings/b1/status", owner, map[string]string{"status": "PENDING"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	body := decode(t, w)
	assert.Equal(t, "APPROVED", body["current_status"])
	assert.ElementsMatch(t, []any{"COMPLETED", "NO_SHOW", "CANCELLED"}, body["valid_next_states"])

	w = a.do(http.MethodPost, "/api/owner/pickups/verify", owner, map[string]string{"code": " SE-8821 "})
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CODE_NOT_FOUND", reasonOf(t, w))

	w = a.do(http.MethodPost, "/api/owner/pickups/verify", owner, map[string]string{"code": "SE-8821"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "COMPLETED", decode(t, w)["booking"].(map[string]any)["status"])

	w = a.do(http.MethodPost, "/api/owner/pickups/verify", owner, map[string]string{"code": "SE-8821"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "ALREADY_COMPLETED", reasonOf(t, w))

	w = a.do(http.MethodPost, "/api/owner/pickups/verify", owner, map[string]string{"code": "SE-0001"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	other := a.login(map[string]string{"user_id": "o2"})
	w = a.do(http.MethodPost, "/api/owner/pickups/verify", other, map[string]string{"code": volBooking["code"].(string)})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "WRONG_RESTAURANT", reasonOf(t, w))
}

func TestOwnerSessions(t *testing.T) {
	a := newAPI(t)
	owner := a.login(map[string]string{"user_id": "o4"})

	w := a.do(http.MethodPost, "/api/owner/sessions", owner, map[string]any{
		"restaurant_id":  "r1", // ignored, owners publish for their own restaurant
		"date":           "2026-10-18",
		"start_time":     "19:00",
		"end_time":       "20:00",
		"total_portions": 6,
		"type":           "MIXED",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	session := decode(t, w)["session"].(map[string]any)
	assert.Equal(t, "r4", session["restaurant_id"])
	assert.EqualValues(t, 6, session["remaining_portions"])

	w = a.do(http.MethodPost, "/api/owner/sessions", owner, map[string]any{
		"date": "tomorrow", "start_time": "19:00", "end_time": "20:00", "total_portions": 6,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, "/api/owner/sessions/s1/close", owner, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = a.do(http.MethodPut, "/api/owner/sessions/s5/close", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)

	user := a.login(map[string]string{"user_id": "u1"})
	w = a.do(http.MethodPost, "/api/bookings", user, map[string]any{"session_id": "s5"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "SESSION_CLOSED", reasonOf(t, w))
}

func TestOwnerExport(t *testing.T) {
	a := newAPI(t)
	owner := a.login(map[string]string{"user_id": "o1"})

	w := a.do(http.MethodGet, "/api/owner/bookings/export", owner, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")
	assert.Contains(t, w.Header().Get("Content-Disposition"), "bookings-r1.xlsx")

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "SE-8821", rows[1][1])
}

func TestRoleGuards(t *testing.T) {
	a := newAPI(t)
	user := a.login(map[string]string{"user_id": "u1"})
	owner := a.login(map[string]string{"user_id": "o1"})

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/owner/restaurant", user, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/admin/users", owner, nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodPost, "/api/bookings", owner, map[string]any{"session_id": "s2"}).Code)
	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/volunteer/sessions", user, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/bookings", "", nil).Code)
}

func TestAdmin(t *testing.T) {
	a := newAPI(t)
	admin := a.login(map[string]string{"role": "ADMIN"})

	w := a.do(http.MethodGet, "/api/admin/users", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 7, decode(t, w)["count"])

	w = a.do(http.MethodGet, "/api/admin/bookings?status=APPROVED", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["count"])

	w = a.do(http.MethodPut, "/api/admin/bookings/b1/status", admin, map[string]string{"status": "NO_SHOW"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "NO_SHOW", decode(t, w)["current_status"])

	w = a.do(http.MethodPut, "/api/admin/bookings/b1/status", admin, map[string]string{"status": "APPROVED"})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}
