package model

import "time"

// SystemNotification is a raw event as delivered by a notification source.
type SystemNotification struct {
	Title     string `json:"title"`
	Package   string `json:"package"`
	Text      string `json:"text"`
	TextLines string `json:"textLines"`
}

// Notification is a SystemNotification stamped with its arrival time.
type Notification struct {
	ID string `json:"id"`
	SystemNotification
	Date time.Time `json:"date"`
}
