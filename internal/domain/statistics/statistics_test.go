package statistics_test

import (
	"math/rand"
	"testing"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/okian/hackreg/internal/domain/statistics"
	"github.com/smartystreets/goconvey/convey"
)

func general() *branch.ApplicationBranch {
	return &branch.ApplicationBranch{Base: branch.Base{
		Name: "General",
		Questions: []branch.Question{
			{Name: "interests", Label: "Your <b>interests</b>", Type: branch.TypeCheckbox, Options: []string{"web", "ai", "other"}, HasOther: true},
			{Name: "essay", Label: "Essay", Type: branch.TypeTextArea},
			{Name: "shirt", Label: "Shirt", Type: branch.TypeSelect, Options: []string{"S", "M", "L"}},
		},
	}}
}

func mentor() *branch.ApplicationBranch {
	return &branch.ApplicationBranch{Base: branch.Base{
		Name: "Mentor",
		Questions: []branch.Question{
			{Name: "track", Label: "Track", Type: branch.TypeRadio, Options: []string{"hardware", "software"}},
		},
	}}
}

func applicant(branchName string, items ...model.FormItem) *model.User {
	return &model.User{Applied: true, ApplicationBranch: branchName, ApplicationData: items}
}

func item(name string, v model.Answer) model.FormItem {
	return model.FormItem{Name: name, Value: v}
}

func fixture() (map[string]*branch.ApplicationBranch, statistics.Order) {
	g, m := general(), mentor()
	confirm := &branch.ConfirmationBranch{Base: branch.Base{Name: "Attendee"}}
	return map[string]*branch.ApplicationBranch{g.Name: g, m.Name: m}, statistics.NewOrder(g, confirm, m)
}

func TestAggregateCounts(t *testing.T) {
	convey.Convey("Given three users who answered the interests checkbox", t, func() {
		branches, order := fixture()
		users := []*model.User{
			applicant("General", item("interests", model.Multi("ai"))),
			applicant("General", item("interests", model.Multi("ai"))),
			applicant("General", item("interests", model.Multi("web"))),
		}

		entries := statistics.Aggregate(users, branches, order)

		convey.Convey("Then responses follow the canonical option order", func() {
			convey.So(len(entries), convey.ShouldEqual, 1)
			convey.So(entries[0].Branch, convey.ShouldEqual, "General")
			convey.So(entries[0].QuestionName, convey.ShouldEqual, "interests")
			convey.So(entries[0].QuestionLabel, convey.ShouldEqual, "Your interests")
			convey.So(entries[0].Responses, convey.ShouldResemble, []statistics.Response{
				{Response: "web", Count: 1},
				{Response: "ai", Count: 2},
			})
			convey.So(entries[0].Total(), convey.ShouldEqual, 3)
		})
	})

	convey.Convey("Given free-text other answers", t, func() {
		branches, order := fixture()
		users := []*model.User{
			applicant("General", item("interests", model.Multi("Zebra", "web"))),
			applicant("General", item("interests", model.Multi("apple"))),
		}

		entries := statistics.Aggregate(users, branches, order)

		convey.Convey("Then unknown answers go last, ignoring case", func() {
			var got []string
			for _, r := range entries[0].Responses {
				got = append(got, r.Response)
			}
			convey.So(got, convey.ShouldResemble, []string{"web", "apple", "Zebra"})
		})
	})

	convey.Convey("Given answers carrying markup", t, func() {
		branches, order := fixture()
		users := []*model.User{
			applicant("General", item("interests", model.Multi("<b>ai</b>"))),
			applicant("General", item("interests", model.Multi("ai"))),
		}

		entries := statistics.Aggregate(users, branches, order)

		convey.Convey("Then sanitised answers share one bucket", func() {
			convey.So(entries[0].Responses, convey.ShouldResemble, []statistics.Response{{Response: "ai", Count: 2}})
		})
	})
}

func TestAggregateSkips(t *testing.T) {
	convey.Convey("Given a user whose branch was removed", t, func() {
		branches, order := fixture()
		users := []*model.User{
			applicant("Retired", item("interests", model.Multi("ai"))),
			applicant("General", item("shirt", model.Single("M"))),
		}

		res := statistics.Run(users, branches, order)

		convey.Convey("Then the user is excluded without error", func() {
			convey.So(res.SkippedUsers, convey.ShouldEqual, 1)
			convey.So(res.Users, convey.ShouldEqual, 1)
			convey.So(len(res.Entries), convey.ShouldEqual, 1)
			convey.So(res.Entries[0].QuestionName, convey.ShouldEqual, "shirt")
			for _, e := range res.Entries {
				convey.So(e.Branch, convey.ShouldNotEqual, "Retired")
			}
		})
	})

	convey.Convey("Given answers that do not count", t, func() {
		branches, order := fixture()
		users := []*model.User{
			applicant("General",
				item("essay", model.Single("I like robots")),
				item("shirt", model.NullAnswer()),
				item("removed", model.Single("x")),
			),
			{Applied: false, ApplicationBranch: "General", ApplicationData: []model.FormItem{item("shirt", model.Single("S"))}},
			nil,
		}

		convey.Convey("Then text, null, removed questions and unapplied users are ignored", func() {
			convey.So(statistics.Aggregate(users, branches, order), convey.ShouldBeEmpty)
		})
	})

	convey.Convey("Given no users", t, func() {
		branches, order := fixture()
		convey.So(statistics.Aggregate(nil, branches, order), convey.ShouldBeEmpty)
	})
}

func TestAggregateOrdering(t *testing.T) {
	convey.Convey("Given answers across branches and questions", t, func() {
		branches, order := fixture()
		users := []*model.User{
			applicant("Mentor", item("track", model.Single("software"))),
			applicant("General", item("shirt", model.Single("L")), item("interests", model.Multi("web"))),
			applicant("Mentor", item("track", model.Single("hardware"))),
			applicant("General", item("shirt", model.Single("S")), item("interests", model.Multi("ai", "Rust", "go"))),
		}

		entries := statistics.Aggregate(users, branches, order)

		convey.Convey("Then entries follow branch then question order", func() {
			convey.So(len(entries), convey.ShouldEqual, 3)
			convey.So(entries[0].Branch+"/"+entries[0].QuestionName, convey.ShouldEqual, "General/interests")
			convey.So(entries[1].Branch+"/"+entries[1].QuestionName, convey.ShouldEqual, "General/shirt")
			convey.So(entries[2].Branch+"/"+entries[2].QuestionName, convey.ShouldEqual, "Mentor/track")
			convey.So(entries[2].Responses[0].Response, convey.ShouldEqual, "hardware")
			convey.So(entries[1].Responses[0].Response, convey.ShouldEqual, "S")
		})

		convey.Convey("Then permuting the users changes nothing", func() {
			rng := rand.New(rand.NewSource(7))
			for i := 0; i < 20; i++ {
				shuffled := append([]*model.User(nil), users...)
				rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })
				convey.So(statistics.Aggregate(shuffled, branches, order), convey.ShouldResemble, entries)
			}
		})
	})

	convey.Convey("Given a branch missing from the canonical order", t, func() {
		g, m := general(), mentor()
		branches := map[string]*branch.ApplicationBranch{g.Name: g, m.Name: m}
		order := statistics.NewOrder(m)
		users := []*model.User{
			applicant("General", item("shirt", model.Single("M"))),
			applicant("Mentor", item("track", model.Single("software"))),
		}

		entries := statistics.Aggregate(users, branches, order)

		convey.Convey("Then it sorts last", func() {
			convey.So(entries[0].Branch, convey.ShouldEqual, "Mentor")
			convey.So(entries[1].Branch, convey.ShouldEqual, "General")
		})
	})
}
