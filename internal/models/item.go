package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status is the operability of an inventory item
type Status string

const (
	StatusFunctional    Status = "functional"
	StatusNonFunctional Status = "non-functional"
)

// Statuses lists every status in display order
var Statuses = []Status{StatusFunctional, StatusNonFunctional}

// Valid reports whether s is one of the two known statuses
func (s Status) Valid() bool {
	return s == StatusFunctional || s == StatusNonFunctional
}

// ParseStatus normalises user input into a Status
func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", fmt.Errorf("invalid status %q", v)
	}
	return s, nil
}

// StaffID is the numeric staff identifier. The API has been seen to send it
// both as a JSON number and as a string.
type StaffID int

// UnmarshalJSON accepts 42, "42" and null.
func (s *StaffID) UnmarshalJSON(b []byte) error {
	raw := strings.TrimSpace(string(b))
	if raw == "null" || raw == `""` {
		*s = 0
		return nil
	}
	raw = strings.Trim(raw, `"`)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("staffId: %w", err)
	}
	*s = StaffID(n)
	return nil
}

func (s StaffID) String() string {
	return strconv.Itoa(int(s))
}

// InventoryItem is an asset record as returned by the products API
type InventoryItem struct {
	ID string `json:"_id"`

	FirstName   string  `json:"firstName"`
	LastName    string  `json:"lastName"`
	StaffID     StaffID `json:"staffId"`
	Designation string  `json:"designation"`

	Department string `json:"department"`
	Location   string `json:"location"`
	Block      string `json:"block"`
	RoomNumber string `json:"roomNumber"`

	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
	CapacityVA   string `json:"capacityVA"`

	IssueDate string    `json:"issueDate"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FullName joins first and last name the way list views display them
func (it InventoryItem) FullName() string {
	return strings.TrimSpace(it.FirstName + " " + it.LastName)
}

// Input returns the mutable fields of the item as a create/update payload
func (it InventoryItem) Input() ItemInput {
	staffID := int(it.StaffID)
	return ItemInput{
		FirstName:    it.FirstName,
		LastName:     it.LastName,
		StaffID:      &staffID,
		Designation:  it.Designation,
		Department:   it.Department,
		Location:     it.Location,
		Block:        it.Block,
		RoomNumber:   it.RoomNumber,
		Make:         it.Make,
		Model:        it.Model,
		SerialNumber: it.SerialNumber,
		CapacityVA:   it.CapacityVA,
		IssueDate:    it.IssueDate,
		Status:       it.Status,
	}
}

// ItemInput is the body of POST /api/products and PUT /api/products/:id.
// StaffID is nil when the entered value had no leading digits; it is sent
// as null and left for the API to reject.
type ItemInput struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	StaffID      *int   `json:"staffId"`
	Designation  string `json:"designation"`
	Department   string `json:"department"`
	Location     string `json:"location"`
	Block        string `json:"block"`
	RoomNumber   string `json:"roomNumber"`
	Make         string `json:"make"`
	Model        string `json:"model"`
	SerialNumber string `json:"serialNumber"`
	CapacityVA   string `json:"capacityVA"`
	IssueDate    string `json:"issueDate"`
	Status       Status `json:"status"`
}

// Apply copies the input onto an existing item, leaving identity and
// timestamps untouched.
func (in ItemInput) Apply(it *InventoryItem) {
	it.FirstName = in.FirstName
	it.LastName = in.LastName
	if in.StaffID != nil {
		it.StaffID = StaffID(*in.StaffID)
	} else {
		it.StaffID = 0
	}
	it.Designation = in.Designation
	it.Department = in.Department
	it.Location = in.Location
	it.Block = in.Block
	it.RoomNumber = in.RoomNumber
	it.Make = in.Make
	it.Model = in.Model
	it.SerialNumber = in.SerialNumber
	it.CapacityVA = in.CapacityVA
	it.IssueDate = in.IssueDate
	it.Status = in.Status
}

// ProductsEnvelope is the body of GET /api/products
type ProductsEnvelope struct {
	Products []InventoryItem `json:"products"`
}

// ProductEnvelope is the body of POST/PUT /api/products responses
type ProductEnvelope struct {
	Product InventoryItem `json:"product"`
}

// MarshalJSON keeps StaffID a JSON number.
func (s StaffID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}
