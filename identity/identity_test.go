package identity

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAllocator(t *testing.T) {
	Convey("Given a fresh allocator", t, func() {
		a := NewAllocator(0)

		Convey("Next yields 1, 2, 3, ...", func() {
			So(a.Next(), ShouldEqual, ID(1))
			So(a.Next(), ShouldEqual, ID(2))
			So(a.MaxID(), ShouldEqual, ID(2))
		})

		Convey("Observe never moves maxID backward", func() {
			a.Observe(10)
			So(a.MaxID(), ShouldEqual, ID(10))
			a.Observe(3)
			So(a.MaxID(), ShouldEqual, ID(10))
			So(a.Next(), ShouldEqual, ID(11))
		})
	})
}
