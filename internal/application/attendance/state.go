package attendance

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/merchpulse/backend/internal/domain/attendance"
	"github.com/merchpulse/backend/internal/domain/identity"
	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// PunchState is the derived attendance view of one employee at one instant
type PunchState struct {
	EmployeeID        uuid.UUID
	EmployeeName      string
	Date              string
	Status            attendance.PunchStatus
	LastPunch         *attendance.TimePunch
	Punches           []*attendance.TimePunch
	ShiftDuration     time.Duration
	WorkedDuration    time.Duration
	ShiftDurationText string
	EstimatedEarnings decimal.Decimal
	EarningsText      string
	AsOf              time.Time
	// Replayed is set when a punch submission matched an already processed idempotency key
	Replayed bool
}

// EarningsPolicy turns durations into money
type EarningsPolicy struct {
	HourlyRate    decimal.Decimal
	Currency      currency.Unit
	ExcludeBreaks bool
	printer       *message.Printer
}

// NewEarningsPolicy validates the ISO currency code and builds a policy formatting for locale
func NewEarningsPolicy(rate decimal.Decimal, currencyCode string, excludeBreaks bool, locale language.Tag) (EarningsPolicy, error) {
	unit, err := currency.ParseISO(currencyCode)
	if err != nil {
		return EarningsPolicy{}, fmt.Errorf("invalid currency %q: %w", currencyCode, err)
	}
	if rate.IsNegative() {
		return EarningsPolicy{}, fmt.Errorf("hourly rate cannot be negative: %s", rate)
	}
	return EarningsPolicy{
		HourlyRate:    rate,
		Currency:      unit,
		ExcludeBreaks: excludeBreaks,
		printer:       message.NewPrinter(locale),
	}, nil
}

// Format renders an amount as "USD 1,234.50"
func (p EarningsPolicy) Format(amount decimal.Decimal) string {
	printer := p.printer
	if printer == nil {
		printer = message.NewPrinter(language.English)
	}

	// digits come from the decimal itself; the printer only groups the whole part
	fixed := amount.Abs().StringFixed(2)
	whole, frac, _ := strings.Cut(fixed, ".")
	grouped := whole
	if n, err := strconv.ParseInt(whole, 10, 64); err == nil {
		grouped = printer.Sprint(number.Decimal(n))
	}
	sign := ""
	if amount.IsNegative() && fixed != "0.00" {
		sign = "-"
	}
	return fmt.Sprintf("%s %s%s%s%s", p.Currency.String(), sign, grouped, decimalSeparator(printer), frac)
}

func decimalSeparator(printer *message.Printer) string {
	half := printer.Sprint(number.Decimal(1.5, number.Scale(1)))
	if len(half) < 3 {
		return "."
	}
	return half[1 : len(half)-1]
}

// Derive recomputes the state from an employee's punches at now.
// punches must cover the current day and may start with an IN carried over from an earlier day.
// It is pure and is what the punch screen calls on every refresh tick.
func Derive(employee *identity.Employee, punches []*attendance.TimePunch, now time.Time, loc *time.Location, earnings EarningsPolicy) PunchState {
	sorted := attendance.SortPunches(punches)
	day := attendance.DayOf(now, loc)

	var last *attendance.TimePunch
	if len(sorted) > 0 {
		last = sorted[len(sorted)-1]
	}

	shift := attendance.ShiftDuration(sorted, now)
	worked := attendance.WorkedDuration(sorted, now)
	paid := shift
	if earnings.ExcludeBreaks {
		paid = worked
	}
	amount := attendance.EstimatedEarnings(paid, earnings.HourlyRate)

	state := PunchState{
		Date:              day.Date(),
		Status:            attendance.StatusFor(last, day),
		LastPunch:         last,
		Punches:           sorted,
		ShiftDuration:     shift,
		WorkedDuration:    worked,
		ShiftDurationText: attendance.FormatDuration(shift),
		EstimatedEarnings: amount,
		EarningsText:      earnings.Format(amount),
		AsOf:              now,
	}
	if employee != nil {
		state.EmployeeID = employee.ID
		state.EmployeeName = employee.Name
	}
	return state
}

// withCarryOver prepends an IN left open before the day so a shift spanning
// midnight keeps counting from its real start
func withCarryOver(last *attendance.TimePunch, today []*attendance.TimePunch, day attendance.DayWindow) []*attendance.TimePunch {
	if last == nil || last.Type != attendance.PunchIn || !last.Timestamp.Before(day.Start) {
		return today
	}
	return append([]*attendance.TimePunch{last}, today...)
}
