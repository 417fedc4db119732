package branch_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/smartystreets/goconvey/convey"
)

const sampleCatalog = `
branches:
  - name: General
    kind: Application
    questions:
      - name: interests
        label: "What are you <b>interested</b> in?"
        type: checkbox
        options: [web, ai, other]
        hasOther: true
      - name: essay
        label: Tell us about yourself
        type: textarea
        required: true
    textBlocks:
      - for: essay
        type: h4
        content: "Keep it **short**"
      - for: end
        type: p
        content: Thanks!
  - name: Mentor
    kind: application
    questions:
      - name: shirt
        label: Shirt size
        type: select
        options: [S, M, L]
  - name: Attendee
    kind: Confirmation
    questions:
      - name: dietary
        label: Dietary restrictions
        type: text
  - name: Unused
    kind: Noop
`

func TestLoadCatalog(t *testing.T) {
	convey.Convey("Given a YAML catalog", t, func() {
		cat, err := branch.LoadCatalog(strings.NewReader(sampleCatalog))

		convey.Convey("Then it loads in canonical order", func() {
			convey.So(err, convey.ShouldBeNil)
			convey.So(cat.Len(), convey.ShouldEqual, 4)
			convey.So(cat.Names(), convey.ShouldResemble, []string{"General", "Mentor", "Attendee", "Unused"})
			defs := cat.Definitions()
			convey.So(defs[1].Kind, convey.ShouldEqual, branch.KindApplication)
			convey.So(defs[3].Kind, convey.ShouldEqual, branch.KindNoop)
		})

		convey.Convey("Then question helpers use configuration order", func() {
			general := cat.Definitions()[0]
			convey.So(general.QuestionIndex("essay"), convey.ShouldEqual, 1)
			convey.So(general.QuestionIndex("missing"), convey.ShouldEqual, -1)
			q, ok := general.Question("interests")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(q.IsChoice(), convey.ShouldBeTrue)
			convey.So(q.IsMulti(), convey.ShouldBeTrue)
			convey.So(q.OptionIndex("ai"), convey.ShouldEqual, 1)
			convey.So(q.OptionIndex("rust"), convey.ShouldEqual, -1)
			convey.So(len(general.BlocksFor(branch.EndBlock)), convey.ShouldEqual, 1)
		})
	})

	convey.Convey("Given invalid catalogs", t, func() {
		cases := map[string]string{
			"unknown kind":           "branches:\n  - name: A\n    kind: Sometimes\n",
			"duplicate branch":       "branches:\n  - name: A\n    kind: Noop\n  - name: a\n    kind: Noop\n",
			"unnamed branch":         "branches:\n  - kind: Noop\n",
			"duplicate question":     "branches:\n  - name: A\n    kind: Noop\n    questions:\n      - {name: q, type: text}\n      - {name: q, type: text}\n",
			"choice without options": "branches:\n  - name: A\n    kind: Noop\n    questions:\n      - {name: q, type: radio}\n",
		}
		for name, doc := range cases {
			convey.Convey("When the catalog has "+name, func() {
				_, err := branch.LoadCatalog(strings.NewReader(doc))
				convey.So(errors.Is(err, branch.ErrInvalidCatalog), convey.ShouldBeTrue)
			})
		}

		convey.Convey("When the YAML is malformed or has unknown fields", func() {
			_, err := branch.LoadCatalog(strings.NewReader("branches: [\n"))
			convey.So(errors.Is(err, branch.ErrLoadCatalog), convey.ShouldBeTrue)
			_, err = branch.LoadCatalog(strings.NewReader("branches:\n  - name: A\n    kind: Noop\n    colour: red\n"))
			convey.So(errors.Is(err, branch.ErrLoadCatalog), convey.ShouldBeTrue)
		})

		convey.Convey("When the file does not exist", func() {
			_, err := branch.LoadCatalogFile("/does/not/exist.yaml")
			convey.So(errors.Is(err, branch.ErrLoadCatalog), convey.ShouldBeTrue)
		})
	})
}

func TestJoinSchedules(t *testing.T) {
	convey.Convey("Given a catalog joined with schedules", t, func() {
		cat, err := branch.LoadCatalog(strings.NewReader(sampleCatalog))
		convey.So(err, convey.ShouldBeNil)

		day := func(d int) time.Time { return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC) }
		set := cat.Join(map[string]branch.Schedule{
			"General":  {Open: day(1), Close: day(5), AutoAccept: true, AutoConfirm: true},
			"Attendee": {Open: day(6), Close: day(9), AutoConfirm: true, IsAcceptance: true},
		})

		convey.Convey("Then each variant carries only its own flags", func() {
			general, ok := set.Application("General")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(general.AutoAccept, convey.ShouldBeTrue)
			convey.So(general.Open, convey.ShouldEqual, day(1))

			attendee, ok := set.Confirmation("Attendee")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(attendee.AutoConfirm, convey.ShouldBeTrue)
			convey.So(branch.ScheduleOf(attendee).IsAcceptance, convey.ShouldBeTrue)

			_, ok = set.Application("Attendee")
			convey.So(ok, convey.ShouldBeFalse)
		})

		convey.Convey("Then kind filters keep canonical order", func() {
			convey.So(len(set.Applications()), convey.ShouldEqual, 2)
			convey.So(len(set.Confirmations()), convey.ShouldEqual, 1)
			convey.So(len(set.Noops()), convey.ShouldEqual, 1)
			convey.So(set.Order(), convey.ShouldResemble, cat.Names())
			convey.So(len(set.ApplicationsByName()), convey.ShouldEqual, 2)
		})

		convey.Convey("Then unscheduled branches are closed", func() {
			open := set.OpenApplications(day(3))
			convey.So(len(open), convey.ShouldEqual, 1)
			convey.So(open[0].Name, convey.ShouldEqual, "General")
			convey.So(len(set.OpenApplications(day(5))), convey.ShouldEqual, 0)
		})

		convey.Convey("Then only branches with a stored schedule report one", func() {
			general, _ := set.Application("General")
			mentor, _ := set.Application("Mentor")
			attendee, _ := set.Confirmation("Attendee")
			convey.So(general.Scheduled(), convey.ShouldBeTrue)
			convey.So(mentor.Scheduled(), convey.ShouldBeFalse)
			convey.So(attendee.Scheduled(), convey.ShouldBeTrue)
			convey.So((&branch.ConfirmationBranch{}).Scheduled(), convey.ShouldBeFalse)
			convey.So((&branch.ApplicationBranch{Close: day(2)}).Scheduled(), convey.ShouldBeTrue)
		})

		convey.Convey("Then lookups by URL name ignore case", func() {
			b, ok := set.Find("general")
			convey.So(ok, convey.ShouldBeTrue)
			convey.So(branch.Name(b), convey.ShouldEqual, "General")
			_, ok = set.Get("general")
			convey.So(ok, convey.ShouldBeFalse)
		})
	})
}

func TestParseKind(t *testing.T) {
	convey.Convey("Given kind strings", t, func() {
		k, ok := branch.ParseKind("confirmation")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(k, convey.ShouldEqual, branch.KindConfirmation)
		_, ok = branch.ParseKind("maybe")
		convey.So(ok, convey.ShouldBeFalse)
	})
}

func TestShippedCatalog(t *testing.T) {
	convey.Convey("Given the catalog shipped with the repository", t, func() {
		cat, err := branch.LoadCatalogFile("../../../questions.yaml")
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then every kind is represented in file order", func() {
			convey.So(cat.Names(), convey.ShouldResemble, []string{"General", "Mentor", "Walkin", "Attendee", "Waitlist", "Volunteer"})
			kinds := map[branch.Kind]int{}
			for _, d := range cat.Definitions() {
				kinds[d.Kind]++
			}
			convey.So(kinds[branch.KindApplication], convey.ShouldEqual, 3)
			convey.So(kinds[branch.KindConfirmation], convey.ShouldEqual, 2)
			convey.So(kinds[branch.KindNoop], convey.ShouldEqual, 1)
		})
	})
}
