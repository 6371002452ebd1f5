package site

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/okian/consensus/internal/domain/rules"
	. "github.com/smartystreets/goconvey/convey"
)

func TestSiteHandler(t *testing.T) {
	Convey("Given a site handler", t, func() {
		ctx := context.Background()
		mux := http.NewServeMux()

		Convey("When registering the site handler", func() {
			Register(ctx, mux)

			Convey("Then / renders the landing page with every rule", func() {
				req := httptest.NewRequest("GET", "/", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/html")
				for _, r := range rules.Rules() {
					So(w.Body.String(), ShouldContainSubstring, r.Name)
				}
			})

			Convey("And it should serve the stylesheet", func() {
				req := httptest.NewRequest("GET", "/static/style.css", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldContainSubstring, "text/css")
			})

			Convey("And it should not claim other paths", func() {
				req := httptest.NewRequest("GET", "/some-asset", http.NoBody)
				w := httptest.NewRecorder()
				mux.ServeHTTP(w, req)

				So(w.Code, ShouldEqual, http.StatusNotFound)
			})
		})
	})
}

func TestRender(t *testing.T) {
	Convey("Given a root handler with a custom rule list", t, func() {
		h := &RootHandler{rules: func() []rules.Info {
			return []rules.Info{{Name: "<script>", Description: "x"}}
		}}

		Convey("When rendering", func() {
			body, err := h.Render()

			Convey("Then names are escaped", func() {
				So(err, ShouldBeNil)
				So(string(body), ShouldContainSubstring, "&lt;script&gt;")
				So(string(body), ShouldNotContainSubstring, "<code><script>")
			})
		})
	})
}

func TestSiteErrors(t *testing.T) {
	Convey("Given site error constants", t, func() {
		So(ErrGenerate.Error(), ShouldEqual, "landing page generation failed")
		So(ErrServe.Error(), ShouldEqual, "landing page serve failed")
	})
}

func TestRegisterNilMux(t *testing.T) {
	Convey("Given a nil mux", t, func() {
		So(func() { Register(context.Background(), nil) }, ShouldPanic)
	})
}
