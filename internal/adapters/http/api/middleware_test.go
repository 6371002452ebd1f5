package api

import (
	"net/http"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestClassifyStatus(t *testing.T) {
	Convey("Given response statuses", t, func() {
		Convey("Then successes carry no error class", func() {
			_, ok := classifyStatus(http.StatusAccepted)
			So(ok, ShouldBeFalse)
		})

		Convey("Then failures are labelled by what went wrong", func() {
			cases := map[int]string{
				http.StatusBadRequest:            "client_error",
				http.StatusNotFound:              "not_found",
				http.StatusRequestEntityTooLarge: "too_large",
				http.StatusUnprocessableEntity:   "invalid_profile",
				http.StatusTooManyRequests:       "rate_limit",
				http.StatusServiceUnavailable:    "unavailable",
				http.StatusInternalServerError:   "server_error",
			}
			for status, kind := range cases {
				class, ok := classifyStatus(status)
				So(ok, ShouldBeTrue)
				So(class.kind, ShouldEqual, kind)
			}
		})
	})
}
