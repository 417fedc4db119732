package repository

import (
	"time"

	"github.com/okian/hackreg/internal/domain/model"
)

func cloneUser(u *model.User) *model.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.ConfirmationDeadline != nil {
		d := *u.ConfirmationDeadline
		c.ConfirmationDeadline = &d
	}
	c.ApplicationData = cloneItems(u.ApplicationData)
	c.ConfirmationData = cloneItems(u.ConfirmationData)
	c.ApplicationStartTime = cloneTime(u.ApplicationStartTime)
	c.ApplicationSubmitTime = cloneTime(u.ApplicationSubmitTime)
	c.ConfirmationStartTime = cloneTime(u.ConfirmationStartTime)
	c.ConfirmationSubmitTime = cloneTime(u.ConfirmationSubmitTime)
	return &c
}

// cloneItems copies the slice; Answer values are immutable.
func cloneItems(items []model.FormItem) []model.FormItem {
	if items == nil {
		return nil
	}
	return append([]model.FormItem(nil), items...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
