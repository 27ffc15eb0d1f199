package cita

import "errors"

var (
	ErrCitaNotFound = errors.New("appointment not found")

	// The two conflict errors are user-facing and name which party is
	// double-booked; the wording is the clinic's original copy.
	ErrMedicoOcupado   = errors.New("el doctor ya tiene una cita en este horario")
	ErrPacienteOcupado = errors.New("ya tienes una cita agendada en este horario")

	ErrFechaInvalida = errors.New("fecha must be a calendar date in YYYY-MM-DD form")
	ErrFechaPasada   = errors.New("cannot book an appointment in the past")
	ErrHoraInvalida  = errors.New("hora must be a clinic slot between 08:00 and 22:00")
)
