package dto

import "notifyrelay/internal/model"

type SystemNotificationRequest struct {
	Title     string `json:"title"`
	Package   string `json:"package"`
	Text      string `json:"text"`
	TextLines string `json:"textLines"`
}

func (r SystemNotificationRequest) Model() model.SystemNotification {
	return model.SystemNotification{
		Title:     r.Title,
		Package:   r.Package,
		Text:      r.Text,
		TextLines: r.TextLines,
	}
}

type HistoryResponse struct {
	Notifications []model.Notification `json:"notifications"`
	Count         int                  `json:"count"`
}

type StatusResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
