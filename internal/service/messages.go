package service

import (
	"context"
	"fmt"
	"time"
)

// Business-message constructors. Each one maps a typed payload onto a fixed
// template name and a deterministic subject, then delegates to SendEmail.

type OrderConfirmationData struct {
	CustomerEmail string
	CustomerName  string
	OrderNumber   string
	StartDate     time.Time
	EndDate       time.Time
	TotalAmount   float64
	Currency      string
}

func (s *Service) SendOrderConfirmation(ctx context.Context, d OrderConfirmationData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Order confirmation %s", d.OrderNumber),
		Template: "order-confirmation",
		Context: map[string]any{
			"customerName": d.CustomerName,
			"orderNumber":  d.OrderNumber,
			"startDate":    d.StartDate,
			"endDate":      d.EndDate,
			"totalAmount":  d.TotalAmount,
			"currency":     d.Currency,
		},
	})
}

type PaymentReminderData struct {
	CustomerEmail string
	CustomerName  string
	InvoiceNumber string
	DueDate       time.Time
	Amount        float64
	Currency      string
}

func (s *Service) SendPaymentReminder(ctx context.Context, d PaymentReminderData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Payment reminder for invoice %s", d.InvoiceNumber),
		Template: "payment-reminder",
		Context: map[string]any{
			"customerName":  d.CustomerName,
			"invoiceNumber": d.InvoiceNumber,
			"dueDate":       d.DueDate,
			"amount":        d.Amount,
			"currency":      d.Currency,
		},
	})
}

type ContractNotificationData struct {
	CustomerEmail  string
	CustomerName   string
	ContractNumber string
	StartDate      time.Time
}

func (s *Service) SendContractNotification(ctx context.Context, d ContractNotificationData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Your rental contract %s", d.ContractNumber),
		Template: "contract-notification",
		Context: map[string]any{
			"customerName":   d.CustomerName,
			"contractNumber": d.ContractNumber,
			"startDate":      d.StartDate,
		},
	})
}

type InspectionReminderData struct {
	CustomerEmail  string
	CustomerName   string
	EquipmentName  string
	InspectionDate time.Time
}

func (s *Service) SendInspectionReminder(ctx context.Context, d InspectionReminderData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Inspection scheduled for %s", d.EquipmentName),
		Template: "inspection-reminder",
		Context: map[string]any{
			"customerName":   d.CustomerName,
			"equipmentName":  d.EquipmentName,
			"inspectionDate": d.InspectionDate,
		},
	})
}

type MaintenanceAlertData struct {
	CustomerEmail string
	CustomerName  string
	EquipmentName string
	Description   string
	PlannedDate   time.Time
}

func (s *Service) SendMaintenanceAlert(ctx context.Context, d MaintenanceAlertData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Maintenance notice: %s", d.EquipmentName),
		Template: "maintenance-alert",
		Context: map[string]any{
			"customerName":  d.CustomerName,
			"equipmentName": d.EquipmentName,
			"description":   d.Description,
			"plannedDate":   d.PlannedDate,
		},
	})
}

type InvoiceNotificationData struct {
	CustomerEmail string
	CustomerName  string
	InvoiceNumber string
	Amount        float64
	Currency      string
	DueDate       time.Time
}

func (s *Service) SendInvoiceNotification(ctx context.Context, d InvoiceNotificationData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Invoice %s", d.InvoiceNumber),
		Template: "invoice-notification",
		Context: map[string]any{
			"customerName":  d.CustomerName,
			"invoiceNumber": d.InvoiceNumber,
			"amount":        d.Amount,
			"currency":      d.Currency,
			"dueDate":       d.DueDate,
		},
	})
}

type PaymentConfirmationData struct {
	CustomerEmail string
	CustomerName  string
	InvoiceNumber string
	Amount        float64
	Currency      string
	PaidAt        time.Time
}

func (s *Service) SendPaymentConfirmation(ctx context.Context, d PaymentConfirmationData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Payment received for invoice %s", d.InvoiceNumber),
		Template: "payment-confirmation",
		Context: map[string]any{
			"customerName":  d.CustomerName,
			"invoiceNumber": d.InvoiceNumber,
			"amount":        d.Amount,
			"currency":      d.Currency,
			"paidAt":        d.PaidAt,
		},
	})
}

type WelcomeData struct {
	CustomerEmail string
	CustomerName  string
}

func (s *Service) SendWelcome(ctx context.Context, d WelcomeData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  fmt.Sprintf("Welcome, %s", d.CustomerName),
		Template: "welcome",
		Context: map[string]any{
			"customerName": d.CustomerName,
		},
	})
}

type PasswordResetData struct {
	CustomerEmail string
	CustomerName  string
	ResetLink     string
	ExpiresIn     string
}

func (s *Service) SendPasswordReset(ctx context.Context, d PasswordResetData) (string, error) {
	return s.SendEmail(ctx, SendOptions{
		To:       []string{d.CustomerEmail},
		Subject:  "Reset your password",
		Template: "password-reset",
		Context: map[string]any{
			"customerName": d.CustomerName,
			"resetLink":    d.ResetLink,
			"expiresIn":    d.ExpiresIn,
		},
	})
}
