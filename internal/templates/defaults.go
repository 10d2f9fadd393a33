package templates

import "github.com/zapagenda/zapagenda-backend/internal/delivery"

// Template keys form a closed enumeration; the dialog engine and sweepers
// only render keys listed here or overridden per clinic.
const (
	KeyMainMenu             = "main_menu"
	KeyScheduleServices     = "schedule_services"
	KeySelectAreas          = "select_areas"
	KeyAvailableDays        = "available_days"
	KeySelectTime           = "select_time"
	KeyConfirmBooking       = "confirm_booking"
	KeyBookingConfirmed     = "booking_confirmed"
	KeyRescheduleSelect     = "reschedule_select"
	KeyRescheduleDays       = "reschedule_days"
	KeyRescheduleTime       = "reschedule_time"
	KeyRescheduleConfirm    = "reschedule_confirm"
	KeyRescheduleConfirmed  = "reschedule_confirmed"
	KeyCancelSelect         = "cancel_select"
	KeyCancelConfirm        = "cancel_confirm"
	KeyCancelConfirmed      = "cancel_confirmed"
	KeyNoAppointments       = "no_appointments"
	KeyNoAvailability       = "no_availability"
	KeyFAQMenu              = "faq_menu"
	KeyFAQHours             = "faq_hours"
	KeyFAQAddress           = "faq_address"
	KeyFAQPrices            = "faq_prices"
	KeyFAQPreparation       = "faq_preparation"
	KeyUnrecognized         = "unrecognized"
	KeyHandoff              = "handoff"
	KeyFarewell             = "farewell"
	KeyReminder24h          = "reminder_24h"
	KeyDailyDigest          = "daily_digest"
)

var defaults = map[string]Template{
	KeyMainMenu: {
		Key:  KeyMainMenu,
		Body: "Olá! Sou a assistente virtual da {{clinic}}. Como posso ajudar?",
		Buttons: []delivery.Button{
			{ID: "schedule", Label: "Agendar"},
			{ID: "reschedule", Label: "Reagendar"},
			{ID: "cancel", Label: "Cancelar"},
			{ID: "faq", Label: "Dúvidas"},
			{ID: "human", Label: "Atendente"},
		},
	},
	KeyScheduleServices: {
		Key:  KeyScheduleServices,
		Body: "Qual procedimento você gostaria de agendar?",
	},
	KeySelectAreas: {
		Key:  KeySelectAreas,
		Body: "Qual região você quer tratar com {{service}}?",
	},
	KeyAvailableDays: {
		Key:  KeyAvailableDays,
		Body: "Estes são os próximos dias com horários livres. Qual prefere?",
	},
	KeySelectTime: {
		Key:  KeySelectTime,
		Body: "Horários disponíveis em {{date}}:",
	},
	KeyConfirmBooking: {
		Key:  KeyConfirmBooking,
		Body: "Confirmar {{service}} em {{date}} às {{time}}?",
		Buttons: []delivery.Button{
			{ID: "confirm", Label: "Confirmar"},
			{ID: "back", Label: "Voltar"},
		},
	},
	KeyBookingConfirmed: {
		Key:  KeyBookingConfirmed,
		Body: "Agendado! {{service}} em {{date}} às {{time}}. Enviaremos um lembrete um dia antes. Até lá! 😊",
	},
	KeyRescheduleSelect: {
		Key:  KeyRescheduleSelect,
		Body: "Qual agendamento você quer remarcar?",
	},
	KeyRescheduleDays: {
		Key:  KeyRescheduleDays,
		Body: "Para qual dia você quer remarcar?",
	},
	KeyRescheduleTime: {
		Key:  KeyRescheduleTime,
		Body: "Horários disponíveis em {{date}}:",
	},
	KeyRescheduleConfirm: {
		Key:  KeyRescheduleConfirm,
		Body: "Remarcar {{service}} para {{date}} às {{time}}?",
		Buttons: []delivery.Button{
			{ID: "confirm", Label: "Confirmar"},
			{ID: "back", Label: "Voltar"},
		},
	},
	KeyRescheduleConfirmed: {
		Key:  KeyRescheduleConfirmed,
		Body: "Remarcado! {{service}} agora é em {{date}} às {{time}}.",
	},
	KeyCancelSelect: {
		Key:  KeyCancelSelect,
		Body: "Qual agendamento você quer cancelar?",
	},
	KeyCancelConfirm: {
		Key:  KeyCancelConfirm,
		Body: "Cancelar {{service}} de {{date}} às {{time}}? Essa ação não pode ser desfeita.",
		Buttons: []delivery.Button{
			{ID: "confirm", Label: "Confirmar"},
			{ID: "back", Label: "Voltar"},
		},
	},
	KeyCancelConfirmed: {
		Key:  KeyCancelConfirmed,
		Body: "Cancelado. Quando quiser remarcar, é só mandar um oi!",
	},
	KeyNoAppointments: {
		Key:  KeyNoAppointments,
		Body: "Não encontrei agendamentos futuros para este número.",
	},
	KeyNoAvailability: {
		Key:  KeyNoAvailability,
		Body: "Não há horários livres nos próximos dias. Fale com um atendente digitando *atendente*.",
	},
	KeyFAQMenu: {
		Key:  KeyFAQMenu,
		Body: "Sobre o que é a sua dúvida?",
		Buttons: []delivery.Button{
			{ID: "faq_hours", Label: "Horários"},
			{ID: "faq_address", Label: "Endereço"},
			{ID: "faq_prices", Label: "Valores"},
		},
	},
	KeyFAQHours: {
		Key:  KeyFAQHours,
		Body: "Atendemos de segunda a sexta, das 9h às 18h.",
	},
	KeyFAQAddress: {
		Key:  KeyFAQAddress,
		Body: "Estamos na {{address}}.",
	},
	KeyFAQPrices: {
		Key:  KeyFAQPrices,
		Body: "Os valores variam por procedimento. Agende uma avaliação gratuita pelo menu!",
	},
	KeyFAQPreparation: {
		Key:  KeyFAQPreparation,
		Body: "Venha sem maquiagem e evite sol forte nas 24h anteriores ao procedimento.",
	},
	KeyUnrecognized: {
		Key:  KeyUnrecognized,
		Body: "Desculpe, não entendi. Escolha uma das opções abaixo ou digite *menu* para recomeçar.",
	},
	KeyHandoff: {
		Key:  KeyHandoff,
		Body: "Certo! Um atendente da {{clinic}} vai falar com você em breve. 🙋",
	},
	KeyFarewell: {
		Key:  KeyFarewell,
		Body: "Obrigada pelo contato! Qualquer coisa é só chamar. 👋",
	},
	KeyReminder24h: {
		Key:  KeyReminder24h,
		Body: "Oi {{name}}! Lembrete: você tem {{service}} amanhã, {{date}} às {{time}}, na {{clinic}}. Até lá!",
	},
	KeyDailyDigest: {
		Key:  KeyDailyDigest,
		Body: "Agenda de amanhã ({{date}}):\n{{items}}",
	},
}

// Default returns the built-in template for a key, if one exists.
func Default(key string) (Template, bool) {
	tmpl, ok := defaults[key]
	return tmpl, ok
}

// FAQKeys lists the FAQ entries offered in the FAQ menu.
func FAQKeys() []string {
	return []string{KeyFAQHours, KeyFAQAddress, KeyFAQPrices, KeyFAQPreparation}
}
