package site

import (
	"html/template"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okian/hackreg/internal/domain/form"
	"github.com/okian/hackreg/internal/domain/timeline"
)

func (s *Server) funcs() template.FuncMap {
	return template.FuncMap{
		"numberFormat": func(n int) string { return humanize.Comma(int64(n)) },
		"formatTime":   func(t time.Time) string { return timeline.FormatTime(t, s.location) },
		"inputTime":    func(t time.Time) string { return inputTime(t, s.location) },
		"join":         strings.Join,
		"otherName":    func(name string) string { return name + form.OtherSuffix },
		"markerClass":  markerClass,
		"percent": func(part, total int) string {
			if total == 0 {
				return "0%"
			}
			return humanize.FtoaWithDigits(float64(part)*100/float64(total), 1) + "%"
		},
	}
}

// inputTime formats t for a datetime-local input.
func inputTime(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Format("2006-01-02T15:04")
}

func markerClass(m timeline.Marker) string {
	if m == timeline.None {
		return "pending"
	}
	return string(m)
}
