package model_test

import (
	"encoding/json"
	"testing"

	model "github.com/okian/hackreg/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func TestAnswer(t *testing.T) {
	convey.Convey("Given the three answer shapes", t, func() {
		convey.Convey("When the answer is null", func() {
			a := model.NullAnswer()
			convey.So(a.IsNull(), convey.ShouldBeTrue)
			convey.So(a.Values(), convey.ShouldBeNil)
			convey.So(a.IsEmpty(), convey.ShouldBeTrue)
			convey.So(model.Answer{}.IsNull(), convey.ShouldBeTrue)
		})

		convey.Convey("When the answer is a single string", func() {
			a := model.Single("ai")
			convey.So(a.IsNull(), convey.ShouldBeFalse)
			convey.So(a.IsMulti(), convey.ShouldBeFalse)
			convey.So(a.Values(), convey.ShouldResemble, []string{"ai"})
			convey.So(a.String(), convey.ShouldEqual, "ai")
			convey.So(a.Contains("ai"), convey.ShouldBeTrue)
		})

		convey.Convey("When the answer is a set of strings", func() {
			a := model.Multi("web", "ai")
			convey.So(a.IsMulti(), convey.ShouldBeTrue)
			convey.So(a.Values(), convey.ShouldResemble, []string{"web", "ai"})
			convey.So(a.String(), convey.ShouldEqual, "web, ai")
			convey.So(model.Multi().IsNull(), convey.ShouldBeFalse)
			convey.So(model.Multi().IsEmpty(), convey.ShouldBeTrue)
		})
	})
}

func TestAnswerJSON(t *testing.T) {
	convey.Convey("Given form items encoded as JSON", t, func() {
		raw := `[{"name":"a","type":"text","value":null},{"name":"b","type":"radio","value":"x"},{"name":"c","type":"checkbox","value":["y","z"]}]`
		var items []model.FormItem
		convey.So(json.Unmarshal([]byte(raw), &items), convey.ShouldBeNil)

		convey.Convey("Then each value keeps its shape", func() {
			convey.So(items[0].Value.IsNull(), convey.ShouldBeTrue)
			convey.So(items[1].Value.String(), convey.ShouldEqual, "x")
			convey.So(items[2].Value.IsMulti(), convey.ShouldBeTrue)
		})

		convey.Convey("Then encoding reproduces the input", func() {
			out, err := json.Marshal(items)
			convey.So(err, convey.ShouldBeNil)
			convey.So(string(out), convey.ShouldEqual, raw)
		})

		convey.Convey("Then other JSON types are rejected", func() {
			var a model.Answer
			convey.So(json.Unmarshal([]byte(`42`), &a), convey.ShouldNotBeNil)
			convey.So(json.Unmarshal([]byte(`[1,2]`), &a), convey.ShouldNotBeNil)
		})
	})
}

func TestUserHelpers(t *testing.T) {
	convey.Convey("Given a user", t, func() {
		u := &model.User{ApplicationData: []model.FormItem{{Name: "major", Type: "text", Value: model.Single("CS")}}}
		convey.So(u.HasTeam(), convey.ShouldBeFalse)
		convey.So(u.HasConfirmationBranch(), convey.ShouldBeFalse)

		u.TeamID = "team-1"
		u.ConfirmationBranch = "Attendee"
		convey.So(u.HasTeam(), convey.ShouldBeTrue)
		convey.So(u.HasConfirmationBranch(), convey.ShouldBeTrue)

		it, ok := model.FindItem(u.ApplicationData, "major")
		convey.So(ok, convey.ShouldBeTrue)
		convey.So(it.Value.String(), convey.ShouldEqual, "CS")
		_, ok = model.FindItem(u.ApplicationData, "missing")
		convey.So(ok, convey.ShouldBeFalse)
	})
}
