package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
)

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestPingAndRoot(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Get("/ping").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"message":"pong"}`).
		End()

	apitest.New().
		Handler(s.router).
		Get("/").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.status", "ok")).
		End()
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)
	apitest.New().
		Handler(s.router).
		Get("/healthz").
		Expect(t).
		Status(http.StatusOK).
		Body(`{"status":"ok"}`).
		End()
}

func TestHealthzReportsFailingDependency(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := NewHealthHandler(map[string]Pinger{
		"store": pingerFunc(func(context.Context) error { return errors.New("down") }),
	}, time.Second)
	r := gin.New()
	r.GET("/healthz", h.Healthz)

	apitest.New().
		Handler(r).
		Get("/healthz").
		Expect(t).
		Status(http.StatusServiceUnavailable).
		Body(`{"status":"unavailable"}`).
		End()
}

func TestMetricsAndOpenAPI(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, userBody)

	apitest.New().
		Handler(s.router).
		Get("/metrics").
		Expect(t).
		Status(http.StatusOK).
		Assert(func(res *http.Response, _ *http.Request) error {
			if res.Header.Get("Content-Type") == "" {
				return errors.New("missing content type")
			}
			return nil
		}).
		End()

	apitest.New().
		Handler(s.router).
		Get("/openapi.json").
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.swagger", "2.0")).
		Assert(jsonpath.Present(`$.paths["/users/register"]`)).
		End()
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Method(http.MethodOptions).
		URL("/users/profile").
		Header("Origin", "http://app.example").
		Expect(t).
		Status(http.StatusNoContent).
		Header("Access-Control-Allow-Origin", "http://app.example").
		Header("Access-Control-Allow-Credentials", "true").
		End()

	apitest.New().
		Handler(s.router).
		Method(http.MethodOptions).
		URL("/users/profile").
		Header("Origin", "http://evil.example").
		Expect(t).
		Status(http.StatusNoContent).
		HeaderNotPresent("Access-Control-Allow-Origin").
		End()
}

func TestCORSWildcardNeverSharesCredentials(t *testing.T) {
	s := newTestServerWithOrigins(t, []string{"*"})
	token := s.registerUser(t, userBody)

	apitest.New().
		Handler(s.router).
		Method(http.MethodOptions).
		URL("/users/profile").
		Header("Origin", "https://evil.example").
		Expect(t).
		Status(http.StatusNoContent).
		Header("Access-Control-Allow-Origin", "*").
		HeaderNotPresent("Access-Control-Allow-Credentials").
		End()

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Header("Origin", "https://evil.example").
		Cookie("token", token).
		Expect(t).
		Status(http.StatusOK).
		Header("Access-Control-Allow-Origin", "*").
		HeaderNotPresent("Access-Control-Allow-Credentials").
		End()
}
