package model

import (
	"fmt"
	"strings"
	"time"
)

// Shift is one of the three fixed duty shifts.
type Shift string

const (
	ShiftMorning Shift = "M/S"
	ShiftGeneral Shift = "G/S"
	ShiftEvening Shift = "E/S"
)

// Shifts lists the shifts in the order they appear on a day's log.
var Shifts = []Shift{ShiftMorning, ShiftGeneral, ShiftEvening}

// ParseShift accepts any casing of a shift tag ("m/s", "M/s", "M/S") and
// returns the canonical value.
func ParseShift(s string) (Shift, error) {
	switch Shift(strings.ToUpper(strings.TrimSpace(s))) {
	case ShiftMorning:
		return ShiftMorning, nil
	case ShiftGeneral:
		return ShiftGeneral, nil
	case ShiftEvening:
		return ShiftEvening, nil
	}
	return "", fmt.Errorf("unknown shift %q, expected one of M/S, G/S, E/S", s)
}

// Order returns the position of the shift within a day, or len(Shifts) for
// unknown values so they sort last.
func (s Shift) Order() int {
	for i, v := range Shifts {
		if v == s {
			return i
		}
	}
	return len(Shifts)
}

// Signature is the EOD/AE countersignature of an operation record. All three
// fields are nil until the record is signed and all three are set together.
type Signature struct {
	SignerName     *string    `json:"signer_name"`
	SignedByUserID *int       `json:"signed_by_user_id"`
	SignedAt       *time.Time `json:"signed_at"`
}

// Signed reports whether the record carries an EOD/AE signature.
func (s Signature) Signed() bool {
	return s.SignerName != nil
}

// Consistent reports whether the signature is either fully empty or fully set.
func (s Signature) Consistent() bool {
	set := 0
	if s.SignerName != nil {
		set++
	}
	if s.SignedByUserID != nil {
		set++
	}
	if s.SignedAt != nil {
		set++
	}
	return set == 0 || set == 3
}

// Operation is one submitted DG shift reading
type Operation struct {
	ID            int64     `json:"id"`
	OperationDate time.Time `json:"operation_date"`
	Shift         Shift     `json:"shift"`

	EODInShift            *string  `json:"eod_in_shift,omitempty"`
	TestingHrsFrom        *string  `json:"testing_hrs_from,omitempty"`
	TestingHrsTo          *string  `json:"testing_hrs_to,omitempty"`
	TestingProgressiveHrs *float64 `json:"testing_progressive_hrs,omitempty"`
	LoadHrsFrom           *string  `json:"load_hrs_from,omitempty"`
	LoadHrsTo             *string  `json:"load_hrs_to,omitempty"`
	LoadProgressiveHrs    *float64 `json:"load_progressive_hrs,omitempty"`
	HrsMeterReading       *float64 `json:"hrs_meter_reading,omitempty"`

	OilLevelInDieselTank *float64 `json:"oil_level_in_diesel_tank,omitempty"`
	LubeOilLevelInEngine *float64 `json:"lube_oil_level_in_engine,omitempty"`
	OilStockInStore      *float64 `json:"oil_stock_in_store,omitempty"`
	LubeOilStockInStore  *float64 `json:"lube_oil_stock_in_store,omitempty"`
	OilFilledInLiters    *float64 `json:"oil_filled_in_liters,omitempty"`

	BatteryCondition *string  `json:"battery_condition,omitempty"`
	OilPressure      *float64 `json:"oil_pressure,omitempty"`
	OilTemperature   *float64 `json:"oil_temperature,omitempty"`

	OnDutyStaff *string `json:"on_duty_staff,omitempty"`
	Remarks     *string `json:"remarks,omitempty"`

	CreatedBy          int       `json:"created_by"`
	DutyStaffSignature string    `json:"duty_staff_signature"`
	Signature          Signature `json:"signature"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CreateOperationRequest is used for submitting a new shift reading
type CreateOperationRequest struct {
	OperationDate time.Time `json:"operation_date" binding:"required"`
	Shift         string    `json:"shift" binding:"required"`

	EODInShift            *string  `json:"eod_in_shift"`
	TestingHrsFrom        *string  `json:"testing_hrs_from"`
	TestingHrsTo          *string  `json:"testing_hrs_to"`
	TestingProgressiveHrs *float64 `json:"testing_progressive_hrs" binding:"omitempty,gte=0"`
	LoadHrsFrom           *string  `json:"load_hrs_from"`
	LoadHrsTo             *string  `json:"load_hrs_to"`
	LoadProgressiveHrs    *float64 `json:"load_progressive_hrs" binding:"omitempty,gte=0"`
	HrsMeterReading       *float64 `json:"hrs_meter_reading" binding:"omitempty,gte=0"`

	OilLevelInDieselTank *float64 `json:"oil_level_in_diesel_tank" binding:"omitempty,gte=0"`
	LubeOilLevelInEngine *float64 `json:"lube_oil_level_in_engine" binding:"omitempty,gte=0"`
	OilStockInStore      *float64 `json:"oil_stock_in_store" binding:"omitempty,gte=0"`
	LubeOilStockInStore  *float64 `json:"lube_oil_stock_in_store" binding:"omitempty,gte=0"`
	OilFilledInLiters    *float64 `json:"oil_filled_in_liters" binding:"omitempty,gte=0"`

	BatteryCondition *string  `json:"battery_condition"`
	OilPressure      *float64 `json:"oil_pressure"`
	OilTemperature   *float64 `json:"oil_temperature"`

	OnDutyStaff *string `json:"on_duty_staff"`
	Remarks     *string `json:"remarks"`
}

// OperationFilters narrows a record listing. Date is a calendar day in the
// facility time zone; the service turns it into a [From, To) range.
type OperationFilters struct {
	Date  *time.Time
	Shift *Shift
	From  *time.Time
	To    *time.Time
}

// ShiftGroup holds the records of one shift on one day.
type ShiftGroup struct {
	Shift   Shift       `json:"shift"`
	Records []Operation `json:"records"`
}

// DateGroup holds one calendar day of records split by shift.
type DateGroup struct {
	Date   string       `json:"date"` // YYYY-MM-DD
	Count  int          `json:"count"`
	Shifts []ShiftGroup `json:"shifts"`
}

// SignedEvent is published once a record has been countersigned.
type SignedEvent struct {
	OperationID int64     `json:"operation_id"`
	Shift       Shift     `json:"shift"`
	SignerID    int       `json:"signer_id"`
	SignerName  string    `json:"signer_name"`
	SignedAt    time.Time `json:"signed_at"`
}

// CreatedEvent is published when a new reading has been submitted and is
// waiting for a countersignature.
type CreatedEvent struct {
	OperationID   int64     `json:"operation_id"`
	OperationDate time.Time `json:"operation_date"`
	Shift         Shift     `json:"shift"`
	SubmittedBy   string    `json:"submitted_by"`
	EODInShift    *string   `json:"eod_in_shift,omitempty"`
}
