package booking

import "github.com/SAMahlangu/Sindiswa/internal/models"

// transitions is the whole appointment lifecycle. completed and cancelled are
// terminal; nothing leaves them.
var transitions = map[string][]string{
	models.AppointmentStatusPending: {
		models.AppointmentStatusPaid,
		models.AppointmentStatusCancelled,
	},
	models.AppointmentStatusPaid: {
		models.AppointmentStatusCompleted,
		models.AppointmentStatusCancelled,
	},
}

func CanTransition(from, to string) bool {
	for _, t := range transitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

func IsTerminal(status string) bool {
	return status == models.AppointmentStatusCompleted || status == models.AppointmentStatusCancelled
}

func IsValidStatus(status string) bool {
	switch status {
	case models.AppointmentStatusPending,
		models.AppointmentStatusPaid,
		models.AppointmentStatusCompleted,
		models.AppointmentStatusCancelled:
		return true
	}
	return false
}
