package models

import "time"

type CalendarView string

const (
	ViewDay   CalendarView = "day"
	ViewWeek  CalendarView = "week"
	ViewMonth CalendarView = "month"
)

type GridPosition struct {
	DayOfWeek    int     `json:"day_of_week"`
	FractionHour float64 `json:"fraction_hour"`
	LocalDate    string  `json:"local_date"`
}

type EventStyle struct {
	Category   string `json:"category"`
	Background string `json:"background"`
	Border     string `json:"border"`
	Text       string `json:"text"`
}

type CalendarEvent struct {
	Appointment
	ClientName string       `json:"client_name"`
	Grid       GridPosition `json:"grid"`
	Style      EventStyle   `json:"style"`
}

type CalendarRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

type CalendarPage struct {
	Range  CalendarRange   `json:"range"`
	View   CalendarView    `json:"view"`
	Events []CalendarEvent `json:"events"`
}
