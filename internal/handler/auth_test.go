package handler

import (
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/steinfletcher/apitest"
	jsonpath "github.com/steinfletcher/apitest-jsonpath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tokenBody struct {
	Token string `json:"token"`
}

func (s *testServer) registerUser(t *testing.T, body string) string {
	t.Helper()
	var out tokenBody
	apitest.New().
		Handler(s.router).
		Post("/users/register").
		JSON(body).
		Expect(t).
		Status(http.StatusCreated).
		End().
		JSON(&out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func (s *testServer) loginUser(t *testing.T, email, password string) string {
	t.Helper()
	var out tokenBody
	apitest.New().
		Handler(s.router).
		Post("/users/login").
		JSON(`{"email":"` + email + `","password":"` + password + `"}`).
		Expect(t).
		Status(http.StatusOK).
		CookiePresent("token").
		End().
		JSON(&out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestRegisterUser(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Post("/users/register").
		JSON(userBody).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Present("$.user._id")).
		Assert(jsonpath.Equal("$.user.email", "a@x.com")).
		Assert(jsonpath.Equal("$.user.fullname.firstname", "Alice")).
		Assert(jsonpath.NotPresent("$.user.password")).
		Assert(jsonpath.NotPresent("$.user.vehicle")).
		End()
}

func TestRegisterCaptain(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Post("/captains/register").
		JSON(captainBody).
		Expect(t).
		Status(http.StatusCreated).
		Assert(jsonpath.Present("$.token")).
		Assert(jsonpath.Equal("$.captain.status", "inactive")).
		Assert(jsonpath.Equal("$.captain.vehicle.plate", "AB-123")).
		Assert(jsonpath.Equal("$.captain.vehicle.vehicleType", "car")).
		Assert(jsonpath.NotPresent("$.captain.password")).
		End()
}

func TestRegisterDuplicate(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, userBody)

	apitest.New().
		Handler(s.router).
		Post("/users/register").
		JSON(userBody).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.message", "User already exists")).
		Assert(jsonpath.NotPresent("$.token")).
		End()
}

func TestRegisterValidation(t *testing.T) {
	s := newTestServer(t)

	cases := []struct {
		name  string
		path  string
		body  string
		field string
	}{
		{"short firstname", "/users/register", `{"fullname":{"firstname":"Al"},"email":"a@x.com","password":"secret-pass"}`, "fullname.firstname"},
		{"bad email", "/users/register", `{"fullname":{"firstname":"Alice"},"email":"nope","password":"secret-pass"}`, "email"},
		{"short password", "/users/register", `{"fullname":{"firstname":"Alice"},"email":"a@x.com","password":"12345"}`, "password"},
		{"missing vehicle", "/captains/register", `{"fullname":{"firstname":"Bob"},"email":"c@x.com","password":"secret-pass"}`, "vehicle.color"},
		{"bad vehicle type", "/captains/register", strings.Replace(captainBody, `"car"`, `"boat"`, 1), "vehicle.vehicleType"},
		{"zero capacity", "/captains/register", strings.Replace(captainBody, `"capacity":4`, `"capacity":0`, 1), "vehicle.capacity"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apitest.New().
				Handler(s.router).
				Post(tc.path).
				JSON(tc.body).
				Expect(t).
				Status(http.StatusBadRequest).
				Assert(jsonpath.Contains("$.errors[*].field", tc.field)).
				End()
		})
	}
	assert.Empty(t, s.accounts.byID)
}

func TestRegisterMalformedJSON(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Post("/users/register").
		JSON(`{"fullname":`).
		Expect(t).
		Status(http.StatusBadRequest).
		Assert(jsonpath.Equal("$.errors[0].field", "body")).
		End()
}

func TestLoginFailuresAreIndistinguishable(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, userBody)

	for _, body := range []string{
		`{"email":"a@x.com","password":"wrong-pass"}`,
		`{"email":"nobody@x.com","password":"secret-pass"}`,
	} {
		apitest.New().
			Handler(s.router).
			Post("/users/login").
			JSON(body).
			Expect(t).
			Status(http.StatusUnauthorized).
			Body(`{"message":"Invalid email or password"}`).
			CookieNotPresent("token").
			End()
	}
}

func TestLoginIsScopedToRole(t *testing.T) {
	s := newTestServer(t)
	s.registerUser(t, userBody)

	apitest.New().
		Handler(s.router).
		Post("/captains/login").
		JSON(`{"email":"a@x.com","password":"secret-pass"}`).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestProfileRequiresToken(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Expect(t).
		Status(http.StatusUnauthorized).
		Body(`{"message":"Unauthorized"}`).
		End()

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Header("Authorization", "Bearer not-a-jwt").
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestProfileAcceptsCookieOrBearer(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, userBody)

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Cookie("token", token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.email", "a@x.com")).
		End()

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Header("Authorization", "bearer "+token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.NotPresent("$.user.password")).
		End()
}

func TestUserTokenRejectedOnCaptainRoutes(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, userBody)

	apitest.New().
		Handler(s.router).
		Get("/captains/profile").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

// Register, log in again, log out the first session: only that token dies.
func TestLogoutRevokesOnlyPresentedToken(t *testing.T) {
	s := newTestServer(t)
	t1 := s.registerUser(t, userBody)
	t2 := s.loginUser(t, "a@x.com", "secret-pass")
	require.NotEqual(t, t1, t2)

	apitest.New().
		Handler(s.router).
		Get("/users/logout").
		Header("Authorization", "Bearer "+t1).
		Expect(t).
		Status(http.StatusOK).
		Body(`{"message":"Logout successful"}`).
		Cookies(apitest.NewCookie("token").Value("")).
		End()

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Header("Authorization", "Bearer "+t1).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Header("Authorization", "Bearer "+t2).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.user.email", "a@x.com")).
		End()

	// A second logout with the revoked token fails at the middleware.
	apitest.New().
		Handler(s.router).
		Get("/users/logout").
		Header("Authorization", "Bearer "+t1).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestCaptainLifecycle(t *testing.T) {
	s := newTestServer(t)

	apitest.New().
		Handler(s.router).
		Post("/captains/register").
		JSON(captainBody).
		Expect(t).
		Status(http.StatusCreated).
		End()

	var out tokenBody
	apitest.New().
		Handler(s.router).
		Post("/captains/login").
		JSON(`{"email":"cap@x.com","password":"secret-pass"}`).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.captain.email", "cap@x.com")).
		End().
		JSON(&out)

	apitest.New().
		Handler(s.router).
		Get("/captains/profile").
		Cookie("token", out.Token).
		Expect(t).
		Status(http.StatusOK).
		Assert(jsonpath.Equal("$.captain.vehicle.capacity", float64(4))).
		End()

	apitest.New().
		Handler(s.router).
		Get("/captains/logout").
		Cookie("token", out.Token).
		Expect(t).
		Status(http.StatusOK).
		End()

	apitest.New().
		Handler(s.router).
		Get("/captains/profile").
		Cookie("token", out.Token).
		Expect(t).
		Status(http.StatusUnauthorized).
		End()
}

func TestStoreOutageIsServiceUnavailable(t *testing.T) {
	s := newTestServer(t)
	token := s.registerUser(t, userBody)
	s.accounts.findErr = errors.New("connection refused")

	apitest.New().
		Handler(s.router).
		Get("/users/profile").
		Header("Authorization", "Bearer "+token).
		Expect(t).
		Status(http.StatusServiceUnavailable).
		Body(`{"message":"Service unavailable"}`).
		End()
}
