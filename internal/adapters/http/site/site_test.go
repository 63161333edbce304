package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)

			Convey("Then it should serve the board at /", func() {
				req := httptest.NewRequest("GET", "/", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				So(w.Body.String(), ShouldContainSubstring, "Swiss Tournament")
				So(w.Body.String(), ShouldContainSubstring, "/live")
			})

			Convey("And it should 404 on missing assets", func() {
				req := httptest.NewRequest("GET", "/some-asset.js", nil)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestSiteHandlerOnChi(t *testing.T) {
	Convey("Given a chi router with an API route", t, func() {
		r := chi.NewRouter()
		r.Get("/standings", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("[]")) })
		Register(context.Background(), r)

		Convey("Then the board and the API route coexist", func() {
			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
			So(w.Code, ShouldEqual, http.StatusOK)
			So(w.Body.String(), ShouldContainSubstring, "<title>Swiss Tournament</title>")

			w = httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest("GET", "/standings", nil))
			So(w.Body.String(), ShouldEqual, "[]")
		})
	})
}

func TestSiteHandlerWithNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		ctx := context.Background()

		Convey("When registering the site handler", func() {
			Convey("Then it should panic", func() {
				So(func() {
					Register(ctx, nil)
				}, ShouldPanic)
			})
		})
	})
}
