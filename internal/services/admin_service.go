package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/joshua-takyi/tourbay/internal/models"
	"github.com/xuri/excelize/v2"
)

const exportSheet = "Bookings"

var exportHeaders = []string{
	"Booking ID", "Tour", "Traveler ID", "Guide ID", "Date", "Start", "Duration",
	"Participants", "Total", "Status", "Payment", "Created",
}

type DashboardStats struct {
	UsersByRole      map[string]int64       `json:"users_by_role"`
	BookingsByStatus map[string]int64       `json:"bookings_by_status"`
	Revenue          *models.RevenueSummary `json:"revenue"`
	GeneratedAt      time.Time              `json:"generated_at"`
}

type AdminService struct {
	users    models.UserRepo
	bookings models.BookingsRepo
	payments models.PaymentsRepo
	logger   *slog.Logger
}

func NewAdminService(users models.UserRepo, bookings models.BookingsRepo, paymentsRepo models.PaymentsRepo, logger *slog.Logger) *AdminService {
	return &AdminService{
		users:    users,
		bookings: bookings,
		payments: paymentsRepo,
		logger:   logger,
	}
}

func (as *AdminService) Stats(ctx context.Context, actor Actor) (*DashboardStats, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := as.users.CountUsersByRole(ctx, actor.AccessToken)
	if err != nil {
		return nil, err
	}
	bookings, err := as.bookings.CountBookingsByStatus(ctx)
	if err != nil {
		return nil, err
	}
	revenue, err := as.payments.RevenueSummary(ctx)
	if err != nil {
		return nil, err
	}

	return &DashboardStats{
		UsersByRole:      users,
		BookingsByStatus: bookings,
		Revenue:          revenue,
		GeneratedAt:      time.Now().UTC(),
	}, nil
}

func (as *AdminService) ListBookings(ctx context.Context, actor Actor, filter models.BookingFilter) ([]*models.Booking, error) {
	if err := actor.require(models.RoleAdmin); err != nil {
		return nil, err
	}
	return as.bookings.ListBookings(ctx, filter)
}

// ExportBookings writes the filtered bookings as an xlsx workbook to w.
func (as *AdminService) ExportBookings(ctx context.Context, actor Actor, filter models.BookingFilter, w io.Writer) (int, error) {
	bookings, err := as.ListBookings(ctx, actor, filter)
	if err != nil {
		return 0, err
	}

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			as.logger.Warn("Failed to close workbook", "error", err)
		}
	}()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		as.logger.Warn("Failed to drop default sheet", "error", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to create header style: %w", err)
	}

	for i, h := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return 0, fmt.Errorf("failed to write header: %w", err)
		}
	}
	first, _ := excelize.CoordinatesToCellName(1, 1)
	last, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
	if err := f.SetCellStyle(exportSheet, first, last, headerStyle); err != nil {
		return 0, fmt.Errorf("failed to style header: %w", err)
	}

	for r, b := range bookings {
		row := []interface{}{
			b.ID, b.TourTitle, b.TravelerID, b.GuideID, b.Date, b.StartTime, b.Duration,
			b.Participants, b.TotalPrice, b.Status, b.PaymentStatus, b.CreatedAt.Format(time.RFC3339),
		}
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return 0, fmt.Errorf("failed to write booking %s: %w", b.ID, err)
		}
	}

	if err := f.SetColWidth(exportSheet, "A", "D", 38); err != nil {
		as.logger.Warn("Failed to size columns", "error", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return 0, fmt.Errorf("failed to write workbook: %w", err)
	}
	return len(bookings), nil
}
