package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func setupSubscriptionRouter() *gin.Engine {
	r := gin.New()
	handler := NewHandler(Deps{})
	r.PUT("/api/subscriptions", handler.PutSubscription)
	return r
}

func TestPutSubscription_InvalidBody(t *testing.T) {
	router := setupSubscriptionRouter()

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("PUT", "/api/subscriptions", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"invalid request"}`, w.Body.String())
}

func TestSubscriptionLifecycle(t *testing.T) {
	env := newTestEnv(t)
	sam := env.technician(t, "Sam")

	endpoint := "https://push.example/send/abc%3D%3D"
	put := env.do(t, http.MethodPut, "/api/subscriptions",
		`{"endpoint":"`+endpoint+`","p256dh":"k","auth":"a","subscribed_technicians":["`+sam.ID+`"]}`)
	assert.Equal(t, http.StatusCreated, put.Code)

	// the endpoint is matched without URL decoding
	get := env.do(t, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, "")
	assert.Equal(t, http.StatusOK, get.Code)
	assert.JSONEq(t, `{"subscribed_technicians":["`+sam.ID+`"]}`, get.Body.String())

	del := env.do(t, http.MethodDelete, "/api/subscriptions", `{"endpoint":"`+endpoint+`"}`)
	assert.Equal(t, http.StatusNoContent, del.Code)

	missing := env.do(t, http.MethodGet, "/api/subscriptions?endpoint="+endpoint, "")
	assert.Equal(t, http.StatusNotFound, missing.Code)

	noParam := env.do(t, http.MethodGet, "/api/subscriptions", "")
	assert.Equal(t, http.StatusBadRequest, noParam.Code)
}

func TestGetVAPIDPublicKey(t *testing.T) {
	testCases := []struct {
		name       string
		options    *webpush.Options
		expectCode int
		expectBody string
	}{
		{name: "not configured", expectCode: http.StatusServiceUnavailable},
		{name: "configured", options: &webpush.Options{VAPIDPublicKey: "pub"}, expectCode: http.StatusOK, expectBody: `{"public_key":"pub"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := gin.New()
			r.GET("/key", NewHandler(Deps{WebPush: tc.options}).GetVAPIDPublicKey)

			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/key", strings.NewReader(""))
			r.ServeHTTP(w, req)

			assert.Equal(t, tc.expectCode, w.Code)
			if tc.expectBody != "" {
				assert.JSONEq(t, tc.expectBody, w.Body.String())
			}
		})
	}
}
