package postgres

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	. "github.com/smartystreets/goconvey/convey"

	"github.com/okian/clout/internal/adapters/repository"
	"github.com/okian/clout/internal/domain/model"
)

func TestPickWhere(t *testing.T) {
	Convey("Given a pick filter", t, func() {
		Convey("An empty filter has no predicate", func() {
			w := pickWhere(repository.PickFilter{})
			So(w.String(), ShouldEqual, "")
			So(w.args, ShouldBeEmpty)
		})

		Convey("Fields become numbered placeholders in order", func() {
			pending := true
			w := pickWhere(repository.PickFilter{
				CapperID:     "c1",
				Organization: model.OrgUFC,
				Pending:      &pending,
			})
			So(w.String(), ShouldEqual,
				" WHERE capper_id = $1 AND organization = $2 AND verified_at IS NULL")
			So(w.args, ShouldResemble, []any{"c1", "UFC"})

			Convey("And paging continues the numbering", func() {
				So(w.page(10, 20), ShouldEqual, " LIMIT $3 OFFSET $4")
				So(w.args, ShouldResemble, []any{"c1", "UFC", 10, 20})
			})
		})

		Convey("Verified picks are selected with Pending false", func() {
			pending := false
			w := pickWhere(repository.PickFilter{Pending: &pending})
			So(w.String(), ShouldEqual, " WHERE verified_at IS NOT NULL")
		})
	})
}

func TestCompletedWithResultsQuery(t *testing.T) {
	Convey("The result filter runs in the database", t, func() {
		So(completedWithResultsQuery, ShouldContainSubstring, "status = $1")
		So(completedWithResultsQuery, ShouldContainSubstring, "jsonb_path_exists(fights, '$[*] ? (@.result != null)')")
	})
}

func TestPrefixed(t *testing.T) {
	Convey("Columns are qualified", t, func() {
		So(prefixed("u.", "id, seq,\n\tname"), ShouldEqual, "u.id, u.seq, u.name")
	})
}

func TestMapErr(t *testing.T) {
	Convey("Driver errors map to repository kinds", t, func() {
		So(mapErr(nil, "x"), ShouldBeNil)
		So(errors.Is(mapErr(pgx.ErrNoRows, "x"), repository.ErrNotFound), ShouldBeTrue)
		So(errors.Is(mapErr(&pgconn.PgError{Code: pgUniqueViolation}, "x"), repository.ErrDuplicate), ShouldBeTrue)
		So(errors.Is(mapErr(&pgconn.PgError{Code: pgForeignKeyViolation}, "x"), repository.ErrNotFound), ShouldBeTrue)

		other := fmt.Errorf("boom")
		err := mapErr(other, "x")
		So(errors.Is(err, other), ShouldBeTrue)
		So(errors.Is(err, repository.ErrNotFound), ShouldBeFalse)
	})
}

func TestNullString(t *testing.T) {
	Convey("Empty strings are stored as NULL", t, func() {
		So(nullString(""), ShouldBeNil)
		So(*nullString("ufc-300"), ShouldEqual, "ufc-300")
	})
}
