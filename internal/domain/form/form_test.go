package form_test

import (
	"errors"
	"net/url"
	"strings"
	"testing"

	"github.com/okian/hackreg/internal/domain/branch"
	"github.com/okian/hackreg/internal/domain/form"
	"github.com/okian/hackreg/internal/domain/model"
	"github.com/smartystreets/goconvey/convey"
)

func definition() branch.Base {
	return branch.Base{
		Name: "General",
		Questions: []branch.Question{
			{Name: "interests", Label: "Interests", Type: branch.TypeCheckbox, Options: []string{"web", "ai"}, HasOther: true},
			{Name: "shirt", Label: "Shirt", Type: branch.TypeSelect, Options: []string{"S", "M", "L"}, Required: true},
			{Name: "essay", Label: "Essay", Type: branch.TypeTextArea},
		},
		TextBlocks: []branch.TextBlock{
			{For: "essay", Type: "h4", Content: "Keep it **short**"},
			{For: branch.EndBlock, Type: "p", Content: "Thanks <script>x</script>"},
		},
	}
}

func TestBuild(t *testing.T) {
	convey.Convey("Given saved answers", t, func() {
		def := definition()
		saved := []model.FormItem{
			{Name: "interests", Type: branch.TypeCheckbox, Value: model.Multi("ai", "robotics")},
			{Name: "shirt", Type: branch.TypeSelect, Value: model.Single("M")},
		}

		f, err := form.Build(def, saved, form.NewRenderer())
		convey.So(err, convey.ShouldBeNil)

		convey.Convey("Then choices are marked selected", func() {
			interests := f.Fields[0]
			convey.So(interests.Multi, convey.ShouldBeTrue)
			convey.So(len(interests.Options), convey.ShouldEqual, 3)
			convey.So(interests.Options[0].Selected, convey.ShouldBeFalse)
			convey.So(interests.Options[1].Selected, convey.ShouldBeTrue)
			convey.So(interests.Options[2].Other, convey.ShouldBeTrue)
			convey.So(interests.Options[2].Selected, convey.ShouldBeTrue)
			convey.So(interests.OtherSelected, convey.ShouldBeTrue)
			convey.So(interests.OtherValue, convey.ShouldEqual, "robotics")
			convey.So(interests.HasResponse, convey.ShouldBeTrue)

			shirt := f.Fields[1]
			convey.So(shirt.Options[1].Selected, convey.ShouldBeTrue)
			convey.So(shirt.Value, convey.ShouldEqual, "M")
		})

		convey.Convey("Then unanswered text questions are empty", func() {
			essay := f.Fields[2]
			convey.So(essay.Multi, convey.ShouldBeFalse)
			convey.So(essay.Value, convey.ShouldEqual, "")
			convey.So(string(essay.TextContent), convey.ShouldEqual, "<h4>Keep it <strong>short</strong></h4>")
		})

		convey.Convey("Then the end text drops raw HTML", func() {
			convey.So(string(f.EndText), convey.ShouldStartWith, `<p style="font-size: 90%; text-align: center;">Thanks`)
			convey.So(strings.Contains(string(f.EndText), "<script>"), convey.ShouldBeFalse)
		})

		convey.Convey("Then the definition is left untouched", func() {
			convey.So(len(def.Questions[0].Options), convey.ShouldEqual, 2)
		})
	})

	convey.Convey("Given nothing saved", t, func() {
		f, err := form.Build(definition(), nil, form.NewRenderer())
		convey.So(err, convey.ShouldBeNil)
		convey.So(f.Fields[0].HasResponse, convey.ShouldBeFalse)
		convey.So(f.Fields[0].OtherSelected, convey.ShouldBeFalse)
		convey.So(f.Branch, convey.ShouldEqual, "General")
	})
}

func TestFromValues(t *testing.T) {
	convey.Convey("Given an HTML form post", t, func() {
		values := url.Values{
			"interests":       {"web", form.OtherOption},
			"interests-other": {" robotics "},
			"shirt":           {"L"},
			"essay":           {""},
		}

		items := form.FromValues(definition(), values)

		convey.Convey("Then each question becomes a typed item", func() {
			convey.So(len(items), convey.ShouldEqual, 3)
			convey.So(items[0].Value.Values(), convey.ShouldResemble, []string{"web", "robotics"})
			convey.So(items[0].Value.IsMulti(), convey.ShouldBeTrue)
			convey.So(items[1].Value.String(), convey.ShouldEqual, "L")
			convey.So(items[2].Value.IsNull(), convey.ShouldBeTrue)
		})
	})
}

func TestValidate(t *testing.T) {
	convey.Convey("Given submitted answers", t, func() {
		def := definition()

		convey.Convey("When they are valid", func() {
			items, err := form.Validate(def, []model.FormItem{
				{Name: "shirt", Value: model.Single("S")},
				{Name: "interests", Value: model.Single("ai")},
			})

			convey.Convey("Then they come back in question order with types", func() {
				convey.So(err, convey.ShouldBeNil)
				convey.So(len(items), convey.ShouldEqual, 3)
				convey.So(items[0].Name, convey.ShouldEqual, "interests")
				convey.So(items[0].Type, convey.ShouldEqual, branch.TypeCheckbox)
				convey.So(items[0].Value.IsMulti(), convey.ShouldBeTrue)
				convey.So(items[2].Value.IsNull(), convey.ShouldBeTrue)
			})
		})

		convey.Convey("When a required answer is missing", func() {
			_, err := form.Validate(def, []model.FormItem{{Name: "shirt", Value: model.Single("  ")}})
			convey.So(errors.Is(err, form.ErrMissingAnswer), convey.ShouldBeTrue)
		})

		convey.Convey("When a question is unknown", func() {
			_, err := form.Validate(def, []model.FormItem{{Name: "shirt", Value: model.Single("S")}, {Name: "age", Value: model.Single("3")}})
			convey.So(errors.Is(err, form.ErrUnknownQuestion), convey.ShouldBeTrue)
		})

		convey.Convey("When a choice is not an option", func() {
			_, err := form.Validate(def, []model.FormItem{{Name: "shirt", Value: model.Single("XXL")}})
			convey.So(errors.Is(err, form.ErrInvalidAnswer), convey.ShouldBeTrue)
		})

		convey.Convey("When a single-choice question gets several values", func() {
			_, err := form.Validate(def, []model.FormItem{{Name: "shirt", Value: model.Multi("S", "M")}})
			convey.So(errors.Is(err, form.ErrInvalidAnswer), convey.ShouldBeTrue)
		})

		convey.Convey("When a question is answered twice", func() {
			_, err := form.Validate(def, []model.FormItem{{Name: "shirt", Value: model.Single("S")}, {Name: "shirt", Value: model.Single("M")}})
			convey.So(errors.Is(err, form.ErrInvalidAnswer), convey.ShouldBeTrue)
		})

		convey.Convey("When a free-text other answer is given", func() {
			items, err := form.Validate(def, []model.FormItem{{Name: "shirt", Value: model.Single("S")}, {Name: "interests", Value: model.Multi("quantum")}})
			convey.So(err, convey.ShouldBeNil)
			convey.So(items[0].Value.Values(), convey.ShouldResemble, []string{"quantum"})
		})
	})
}
