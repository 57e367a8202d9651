package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clout/internal/domain/model"
	"github.com/okian/clout/pkg/logger"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
	drained  bool
}

func (f *fakeConn) Publish(subj string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subjects = append(f.subjects, subj)
	f.payloads = append(f.payloads, data)
	return nil
}

func (f *fakeConn) Drain() error {
	f.drained = true
	return nil
}

func TestNATSPublisher(t *testing.T) {
	Convey("Given a publisher on a fake connection", t, func() {
		fc := &fakeConn{}
		p := newPublisher(fc, "", logger.Nop())
		ctx := context.Background()
		at := time.Date(2025, 3, 8, 22, 0, 0, 0, time.UTC)

		Convey("A verified pick is published as snake_case JSON on the default subject", func() {
			err := p.PublishPickVerified(ctx, model.PickVerified{
				PickID: "p1", CapperID: "c1", EventID: "e1", IsCorrect: true, VerifiedAt: at,
			})
			So(err, ShouldBeNil)
			So(fc.subjects, ShouldResemble, []string{SubjectPickVerified})

			var got map[string]any
			So(json.Unmarshal(fc.payloads[0], &got), ShouldBeNil)
			So(got["pick_id"], ShouldEqual, "p1")
			So(got["capper_id"], ShouldEqual, "c1")
			So(got["is_correct"], ShouldEqual, true)
		})

		Convey("A connection error is returned", func() {
			fc.err = errors.New("nats: connection closed")
			So(p.PublishPickVerified(ctx, model.PickVerified{PickID: "p1"}), ShouldNotBeNil)
		})

		Convey("A cancelled context publishes nothing", func() {
			cctx, cancel := context.WithCancel(ctx)
			cancel()
			So(errors.Is(p.PublishPickVerified(cctx, model.PickVerified{PickID: "p1"}), context.Canceled), ShouldBeTrue)
			So(fc.subjects, ShouldBeEmpty)
		})

		Convey("Close drains the connection", func() {
			So(p.Close(), ShouldBeNil)
			So(fc.drained, ShouldBeTrue)
		})
	})
}
