package atomicfloat

import (
	"sync"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestAdd(t *testing.T) {
	Convey("When Add is called", t, func() {
		Convey("When multiple writers add to the value concurrently", func() {
			f := New(0.0)
			numOps := 3000
			numWriters := 200

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(numWriters)
			adder := func() {
				<-start
				for i := 0; i < numOps; i++ {
					for succeeded := false; !succeeded; _, succeeded = f.Add(1.0) {
					}
				}
				wg.Done()
			}

			for i := 0; i < numWriters; i++ {
				go adder()
			}

			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(f.Load(), ShouldEqual, float64(numOps*numWriters))
		})

		Convey("When multiple writers increment and decrement concurrently", func() {
			f := New(0.0)
			numOps := 3000
			numWriters := 200

			start := make(chan struct{})
			wg := sync.WaitGroup{}
			wg.Add(numWriters * 2)
			incrementer := func() {
				<-start
				for i := 0; i < numOps; i++ {
					for succeeded := false; !succeeded; _, succeeded = f.Add(1.0) {
					}
				}
				wg.Done()
			}
			decrementer := func() {
				<-start
				for i := 0; i < numOps; i++ {
					for succeeded := false; !succeeded; _, succeeded = f.Add(-1.0) {
					}
				}
				wg.Done()
			}

			for i := 0; i < numWriters; i++ {
				go incrementer()
				go decrementer()
			}

			time.Sleep(time.Millisecond * 10)
			close(start)
			wg.Wait()
			So(f.Load(), ShouldEqual, float64(0.0))
		})
	})
}

func TestStore(t *testing.T) {
	Convey("Store overwrites the value", t, func() {
		f := New(1.0)
		f.Store(42.0)
		So(f.Load(), ShouldEqual, 42.0)
	})
}
