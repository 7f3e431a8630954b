package swagger_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"

	"github.com/okian/toto/internal/adapters/http/swagger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSwaggerRoutes(t *testing.T) {
	Convey("Given a router with the docs registered", t, func() {
		r := mux.NewRouter()
		swagger.Register(context.Background(), r)

		Convey("Then /api-docs serves the ReDoc page", func() {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api-docs", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
			So(rec.Body.String(), ShouldContainSubstring, "redoc")
		})

		Convey("Then /openapi.yaml serves the embedded spec", func() {
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))
			So(rec.Code, ShouldEqual, http.StatusOK)
			So(rec.Body.String(), ShouldContainSubstring, "openapi: 3.0.3")
			So(rec.Body.String(), ShouldContainSubstring, "/api/predictions")
		})

		Convey("Then the OpenAPI document names every business route", func() {
			body := string(swagger.OpenAPI)
			for _, route := range []string{
				"/api/matches",
				"/api/matches/upcoming",
				"/api/leaderboard",
				"/api/profile",
				"/healthz",
			} {
				So(body, ShouldContainSubstring, route)
			}
		})
	})
}
