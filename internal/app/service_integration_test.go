package service_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	service "github.com/okian/consensus/internal/app"
	"github.com/okian/consensus/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServiceIntegration(t *testing.T) {
	Convey("Given a service with full integration", t, func() {
		svc := service.New(
			service.WithWorkerCount(4),
			service.WithQueueSize(1000),
			service.WithDedupeSize(5000),
			service.WithDictatorSeed(42),
		)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		So(svc.Start(ctx), ShouldBeNil)

		Convey("When many clients submit elections concurrently", func() {
			const clients, perClient = 8, 25
			ruleNames := []string{"plurality", "borda", "random_dictator"}

			var wg sync.WaitGroup
			errs := make(chan error, clients*perClient)
			for c := 0; c < clients; c++ {
				wg.Add(1)
				go func(c int) {
					defer wg.Done()
					for i := 0; i < perClient; i++ {
						e := bordaElection(fmt.Sprintf("c%d-%d", c, i))
						e.Rule = ruleNames[(c+i)%len(ruleNames)]
						if _, err := svc.Submit(ctx, e); err != nil {
							errs <- err
						}
					}
				}(c)
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				So(err, ShouldBeNil)
			}

			Convey("Then stopping drains every queued election", func() {
				svc.Stop()

				completed := 0
				for c := 0; c < clients; c++ {
					for i := 0; i < perClient; i++ {
						rec, err := svc.Result(ctx, fmt.Sprintf("c%d-%d", c, i))
						So(err, ShouldBeNil)
						if rec.Status == model.StatusCompleted {
							completed++
						}
						So(len(rec.Ranking), ShouldEqual, 4)
					}
				}
				So(completed, ShouldEqual, clients*perClient)
			})

			Convey("Then the stats account for every election", func() {
				for c := 0; c < clients; c++ {
					_, ok := waitForResult(ctx, svc, fmt.Sprintf("c%d-%d", c, perClient-1))
					So(ok, ShouldBeTrue)
				}
				deadline := time.Now().Add(2 * time.Second)
				for svc.GetStats()["completed"] != clients*perClient && time.Now().Before(deadline) {
					time.Sleep(5 * time.Millisecond)
				}
				stats := svc.GetStats()
				So(stats["completed"], ShouldEqual, clients*perClient)
				So(stats["failed"], ShouldEqual, 0)
				So(stats["dedupeEntries"], ShouldEqual, int64(clients*perClient))
				svc.Stop()
			})
		})

		Convey("When the same election races from many clients", func() {
			var wg sync.WaitGroup
			var mu sync.Mutex
			fresh := 0
			for c := 0; c < 16; c++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					receipt, err := svc.Submit(ctx, bordaElection("contested"))
					if err == nil && !receipt.Duplicate {
						mu.Lock()
						fresh++
						mu.Unlock()
					}
				}()
			}
			wg.Wait()

			Convey("Then exactly one submission is queued", func() {
				So(fresh, ShouldEqual, 1)
				rec, ok := waitForResult(ctx, svc, "contested")
				So(ok, ShouldBeTrue)
				So(rec.Ranking, ShouldResemble, []string{"a", "b", "d", "c"})
				svc.Stop()
			})
		})
	})
}
