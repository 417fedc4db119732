package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/pkg/metrics"
	. "github.com/smartystreets/goconvey/convey"
)

func fixedClock() func() time.Time {
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return func() time.Time {
		at = at.Add(time.Second)
		return at
	}
}

func openSQLite(t *testing.T) *SQLStore {
	t.Helper()
	s, err := OpenSQL(context.Background(), DriverSQLite, ":memory:", WithClock(fixedClock()))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestStores(t *testing.T) {
	stores := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore(WithClock(fixedClock())) },
		"sqlite": func(t *testing.T) Store { return openSQLite(t) },
	}
	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			testUsers(t, open)
			testFilters(t, open)
			testSchedulesAndSettings(t, open)
		})
	}
}

func testUsers(t *testing.T, open func(*testing.T) Store) {
	Convey("Given a store", t, func() {
		store := open(t)
		ctx := context.Background()
		started := time.Date(2026, 2, 2, 10, 30, 0, 0, time.UTC)
		u := &model.User{
			ID:                "u-1",
			Email:             "Ada@Example.com",
			Name:              "Ada",
			Applied:           true,
			ApplicationBranch: "General",
			ApplicationData: []model.FormItem{
				{Name: "interests", Type: "checkbox", Value: model.Multi("ai", "web")},
				{Name: "shirt", Type: "select", Value: model.Single("M")},
				{Name: "essay", Type: "textarea", Value: model.NullAnswer()},
			},
			ApplicationStartTime: &started,
			ConfirmationDeadline: &model.Deadline{Name: "Extension", Open: started, Close: started.Add(48 * time.Hour)},
		}

		Convey("When a user is created", func() {
			So(store.CreateUser(ctx, u), ShouldBeNil)

			Convey("Then it can be read back by id and email", func() {
				got, err := store.GetUser(ctx, "u-1")
				So(err, ShouldBeNil)
				So(got.Email, ShouldEqual, "Ada@Example.com")
				So(got.CreatedAt.IsZero(), ShouldBeFalse)
				So(got.ApplicationData, ShouldResemble, u.ApplicationData)
				So(got.ApplicationStartTime.Equal(started), ShouldBeTrue)
				So(got.ConfirmationDeadline.Name, ShouldEqual, "Extension")
				So(got.ConfirmationData, ShouldBeNil)

				byEmail, err := store.GetUserByEmail(ctx, " ada@example.COM ")
				So(err, ShouldBeNil)
				So(byEmail.ID, ShouldEqual, "u-1")
			})

			Convey("Then a second create with the same id conflicts", func() {
				So(errors.Is(store.CreateUser(ctx, &model.User{ID: "u-1"}), ErrConflict), ShouldBeTrue)
			})

			Convey("Then another user with the same email in any case conflicts", func() {
				err := store.CreateUser(ctx, &model.User{ID: "u-2", Email: "ADA@example.com"})
				So(errors.Is(err, ErrConflict), ShouldBeTrue)

				So(store.CreateUser(ctx, &model.User{ID: "u-3", Email: "grace@example.com"}), ShouldBeNil)
				grace, err := store.GetUser(ctx, "u-3")
				So(err, ShouldBeNil)
				grace.Email = "ada@example.com"
				So(errors.Is(store.UpdateUser(ctx, grace), ErrConflict), ShouldBeTrue)
			})

			Convey("Then users without an email never collide", func() {
				So(store.CreateUser(ctx, &model.User{ID: "walkin-1"}), ShouldBeNil)
				So(store.CreateUser(ctx, &model.User{ID: "walkin-2"}), ShouldBeNil)
			})

			Convey("Then updates replace the stored user", func() {
				got, err := store.GetUser(ctx, "u-1")
				So(err, ShouldBeNil)
				got.Accepted = true
				got.ConfirmationBranch = "Attendee"
				got.ConfirmationDeadline = nil
				So(store.UpdateUser(ctx, got), ShouldBeNil)

				again, err := store.GetUser(ctx, "u-1")
				So(err, ShouldBeNil)
				So(again.Accepted, ShouldBeTrue)
				So(again.ConfirmationBranch, ShouldEqual, "Attendee")
				So(again.ConfirmationDeadline, ShouldBeNil)
			})

			Convey("Then callers cannot mutate stored state through returned values", func() {
				got, _ := store.GetUser(ctx, "u-1")
				got.ApplicationData[0].Name = "changed"
				again, _ := store.GetUser(ctx, "u-1")
				So(again.ApplicationData[0].Name, ShouldEqual, "interests")
			})
		})

		Convey("When reading unknown users", func() {
			_, err := store.GetUser(ctx, "nope")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = store.GetUserByEmail(ctx, "nobody@example.com")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			_, err = store.GetUserByEmail(ctx, "")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)
			So(errors.Is(store.UpdateUser(ctx, &model.User{ID: "nope"}), ErrNotFound), ShouldBeTrue)
		})

		Convey("When a user has no id", func() {
			So(errors.Is(store.CreateUser(ctx, &model.User{}), ErrInvalidUser), ShouldBeTrue)
		})
	})
}

func testFilters(t *testing.T, open func(*testing.T) Store) {
	Convey("Given several users", t, func() {
		store := open(t)
		ctx := context.Background()
		users := []*model.User{
			{ID: "a", Applied: true, Accepted: true, Confirmed: true, ApplicationBranch: "General", ConfirmationBranch: "Attendee"},
			{ID: "b", Applied: true, Accepted: true, ApplicationBranch: "General", ConfirmationBranch: "Attendee"},
			{ID: "c", Applied: true, ApplicationBranch: "Mentor"},
			{ID: "d", Admin: true},
		}
		for _, u := range users {
			So(store.CreateUser(ctx, u), ShouldBeNil)
		}

		count := func(f Filter) int {
			n, err := store.CountUsers(ctx, f)
			So(err, ShouldBeNil)
			return n
		}

		Convey("Then counts honour every filter field", func() {
			So(count(Filter{}), ShouldEqual, 4)
			So(count(Filter{Applied: Bool(true)}), ShouldEqual, 3)
			So(count(Filter{Accepted: Bool(true), Confirmed: Bool(true)}), ShouldEqual, 1)
			So(count(Filter{Accepted: Bool(true), Confirmed: Bool(false)}), ShouldEqual, 1)
			So(count(Filter{ApplicationBranch: "General"}), ShouldEqual, 2)
			So(count(Filter{ConfirmationBranch: "Attendee", Confirmed: Bool(true)}), ShouldEqual, 1)
			So(count(Filter{Admin: Bool(true)}), ShouldEqual, 1)
		})

		Convey("Then lists keep creation order", func() {
			list, err := store.ListUsers(ctx, Filter{Applied: Bool(true)})
			So(err, ShouldBeNil)
			ids := make([]string, 0, len(list))
			for _, u := range list {
				ids = append(ids, u.ID)
			}
			So(ids, ShouldResemble, []string{"a", "b", "c"})
		})
	})
}

func testSchedulesAndSettings(t *testing.T, open func(*testing.T) Store) {
	Convey("Given schedules and settings", t, func() {
		store := open(t)
		ctx := context.Background()
		opensAt := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

		Convey("When nothing was saved", func() {
			sch, err := store.Schedules(ctx)
			So(err, ShouldBeNil)
			So(sch, ShouldBeEmpty)
			st, err := store.Settings(ctx)
			So(err, ShouldBeNil)
			So(st, ShouldResemble, model.Settings{TeamsEnabled: true, QREnabled: true})
		})

		Convey("When a schedule is saved twice", func() {
			So(store.PutSchedule(ctx, "General", branch.Schedule{Open: opensAt, Close: opensAt.Add(time.Hour)}), ShouldBeNil)
			So(store.PutSchedule(ctx, "General", branch.Schedule{Open: opensAt, Close: opensAt.Add(2 * time.Hour), AutoAccept: true}), ShouldBeNil)

			Convey("Then the last write wins", func() {
				sch, err := store.Schedules(ctx)
				So(err, ShouldBeNil)
				So(len(sch), ShouldEqual, 1)
				So(sch["General"].AutoAccept, ShouldBeTrue)
				So(sch["General"].Close.Equal(opensAt.Add(2*time.Hour)), ShouldBeTrue)
			})
		})

		Convey("When a schedule has no name", func() {
			So(errors.Is(store.PutSchedule(ctx, " ", branch.Schedule{}), ErrInvalidSchedule), ShouldBeTrue)
		})

		Convey("When settings are saved", func() {
			So(store.PutSettings(ctx, model.Settings{TeamsEnabled: false, QREnabled: true}), ShouldBeNil)
			st, err := store.Settings(ctx)
			So(err, ShouldBeNil)
			So(st.TeamsEnabled, ShouldBeFalse)
			So(st.QREnabled, ShouldBeTrue)
		})
	})
}

func TestOpenSQLRejectsUnknownDriver(t *testing.T) {
	Convey("Given an unsupported driver", t, func() {
		_, err := OpenSQL(context.Background(), "oracle", "dsn")
		So(errors.Is(err, ErrUnknownDriver), ShouldBeTrue)
	})
}

func TestRebind(t *testing.T) {
	Convey("Given a query with placeholders", t, func() {
		q := "SELECT * FROM users WHERE a = ? AND b = ?"
		So((&SQLStore{driver: DriverSQLite}).rebind(q), ShouldEqual, q)
		So((&SQLStore{driver: DriverPostgres}).rebind(q), ShouldEqual, "SELECT * FROM users WHERE a = $1 AND b = $2")
	})
}

func repositoryErrors(op string) float64 {
	families, err := metrics.GetRegistry().Gather()
	So(err, ShouldBeNil)
	for _, f := range families {
		if f.GetName() != "hackreg_registration_repository_errors_total" {
			continue
		}
		for _, m := range f.GetMetric() {
			for _, l := range m.GetLabel() {
				if l.GetName() == "operation" && l.GetValue() == op {
					return m.GetCounter().GetValue()
				}
			}
		}
	}
	return 0
}

func TestObserve(t *testing.T) {
	Convey("Given the memory store's email lookup", t, func() {
		store := NewMemoryStore()
		ctx := context.Background()
		before := repositoryErrors("get_user_by_email")

		Convey("When the email is unknown", func() {
			_, err := store.GetUserByEmail(ctx, "nobody@example.com")
			So(errors.Is(err, ErrNotFound), ShouldBeTrue)

			Convey("Then the miss is not counted as a failure", func() {
				So(repositoryErrors("get_user_by_email"), ShouldEqual, before)
			})
		})

		Convey("When the lookup reports a real failure", func() {
			observe("get_user_by_email", time.Now(), errors.New("disk gone"))

			Convey("Then it is counted", func() {
				So(repositoryErrors("get_user_by_email"), ShouldEqual, before+1)
			})
		})
	})
}
