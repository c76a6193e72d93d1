package domain

import "errors"

var (
	ErrNotFound             = errors.New("запись не найдена")
	ErrSlotConflict         = errors.New("выбранный слот уже занят, выберите другое время")
	ErrDoctorUnavailable    = errors.New("врач недоступен для записи")
	ErrAlreadyPaid          = errors.New("оплата уже проведена")
	ErrPaymentNotCompleted  = errors.New("платеж не завершен, попробуйте еще раз")
	ErrPaymentRequired      = errors.New("требуется оплата записи")
	ErrAppointmentCancelled = errors.New("запись отменена")
	ErrAppointmentCompleted = errors.New("прием уже завершен")
	ErrUnauthorized         = errors.New("недостаточно прав для выполнения операции")
	ErrInvalidSignature     = errors.New("неверная подпись события")
	ErrUpstreamUnavailable  = errors.New("платежный сервис временно недоступен, повторите попытку")
	ErrInvalidSlotFormat    = errors.New("неверный формат даты или времени слота")
)
