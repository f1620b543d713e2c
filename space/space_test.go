package space

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestWrapIndex(t *testing.T) {
	Convey("Given a periodic dimension of extent 5", t, func() {
		Convey("WrapIndex folds negative and overflowing indices modulo the extent", func() {
			i, ok := WrapIndex(-1, 5, true)
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 4)

			i, ok = WrapIndex(7, 5, true)
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 2)

			i, ok = WrapIndex(3, 5, true)
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 3)
		})
	})

	Convey("Given a bounded dimension of extent 5", t, func() {
		Convey("WrapIndex rejects out-of-range indices instead of wrapping", func() {
			_, ok := WrapIndex(-1, 5, false)
			So(ok, ShouldBeFalse)

			_, ok = WrapIndex(5, 5, false)
			So(ok, ShouldBeFalse)

			i, ok := WrapIndex(4, 5, false)
			So(ok, ShouldBeTrue)
			So(i, ShouldEqual, 4)
		})
	})
}

func TestMetricString(t *testing.T) {
	Convey("Metric.String names the three distance metrics", t, func() {
		So(Chebyshev.String(), ShouldEqual, "chebyshev")
		So(Manhattan.String(), ShouldEqual, "manhattan")
		So(Euclidean.String(), ShouldEqual, "euclidean")
	})
}
