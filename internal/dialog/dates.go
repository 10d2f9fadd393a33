package dialog

import (
	"fmt"
	"time"

	"github.com/zapagenda/zapagenda-backend/internal/booking"
)

var weekdayAbbrevPT = [...]string{"Dom", "Seg", "Ter", "Qua", "Qui", "Sex", "Sáb"}

// formatDateBR renders an ISO date as DD/MM/YYYY for display. Unparseable
// input is returned unchanged.
func formatDateBR(date string) string {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return d.Format("02/01/2006")
}

// dayLabel renders a button label for an open day, e.g. "Ter 10/02".
func dayLabel(date string) string {
	d, err := time.Parse(time.DateOnly, date)
	if err != nil {
		return date
	}
	return fmt.Sprintf("%s %s", weekdayAbbrevPT[d.Weekday()], d.Format("02/01"))
}

// apptLabel renders a button label for an existing appointment,
// e.g. "10/02 15:00 · Botox".
func apptLabel(appt booking.Appointment, loc *time.Location) string {
	starts := appt.StartsAt
	if loc != nil {
		starts = starts.In(loc)
	}
	return fmt.Sprintf("%s · %s", starts.Format("02/01 15:04"), appt.ServiceName)
}
