package inventory

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"inventory-dashboard/internal/models"
)

var (
	ErrFormClosed = errors.New("form is not open")
	ErrSubmitting = errors.New("a submission is already in progress")
	ErrReadOnly   = errors.New("field is read-only while editing")
	ErrUnknown    = errors.New("unknown field")
	ErrInvalid    = errors.New("form has invalid fields")
)

var validate *validator.Validate

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
}

// FormState is where the edit form is in its open/close cycle
type FormState int

const (
	Closed FormState = iota
	Creating
	Editing
)

func (s FormState) String() string {
	switch s {
	case Creating:
		return "creating"
	case Editing:
		return "editing"
	default:
		return "closed"
	}
}

// FormValues are the editable fields as the user typed them
type FormValues struct {
	FirstName    string `json:"firstName" validate:"required"`
	LastName     string `json:"lastName" validate:"required"`
	StaffID      string `json:"staffId" validate:"required"`
	Designation  string `json:"designation" validate:"required"`
	Department   string `json:"department" validate:"required"`
	Location     string `json:"location" validate:"required"`
	Block        string `json:"block" validate:"required"`
	RoomNumber   string `json:"roomNumber" validate:"required"`
	Make         string `json:"make" validate:"required"`
	Model        string `json:"model" validate:"required"`
	SerialNumber string `json:"serialNumber" validate:"required"`
	CapacityVA   string `json:"capacityVA" validate:"required"`
	IssueDate    string `json:"issueDate" validate:"required"`
	Status       string `json:"status" validate:"required,oneof=functional non-functional"`
}

// ValuesOf fills the form from an existing item
func ValuesOf(it models.InventoryItem) FormValues {
	return FormValues{
		FirstName:    it.FirstName,
		LastName:     it.LastName,
		StaffID:      it.StaffID.String(),
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
		Status:       string(it.Status),
	}
}

func (v *FormValues) field(name string) *string {
	switch name {
	case "firstName":
		return &v.FirstName
	case "lastName":
		return &v.LastName
	case "staffId":
		return &v.StaffID
	case "designation":
		return &v.Designation
	case "department":
		return &v.Department
	case "location":
		return &v.Location
	case "block":
		return &v.Block
	case "roomNumber":
		return &v.RoomNumber
	case "make":
		return &v.Make
	case "model":
		return &v.Model
	case "serialNumber":
		return &v.SerialNumber
	case "capacityVA":
		return &v.CapacityVA
	case "issueDate":
		return &v.IssueDate
	case "status":
		return &v.Status
	}
	return nil
}

// Input converts the typed values into an API payload
func (v FormValues) Input() models.ItemInput {
	return models.ItemInput{
		FirstName:    v.FirstName,
		LastName:     v.LastName,
		StaffID:      ParseInt(v.StaffID),
		Designation:  v.Designation,
		Department:   v.Department,
		Location:     v.Location,
		Block:        v.Block,
		RoomNumber:   v.RoomNumber,
		Make:         v.Make,
		Model:        v.Model,
		SerialNumber: v.SerialNumber,
		CapacityVA:   v.CapacityVA,
		IssueDate:    v.IssueDate,
		Status:       models.Status(strings.ToLower(strings.TrimSpace(v.Status))),
	}
}

// ParseInt reads an optional sign and the leading decimal digits of s,
// ignoring leading whitespace and anything after the digits. It returns
// nil when there are no digits: "42abc" is 42, "abc" is nil. Digits that
// overflow int also yield nil, so an oversized value reads as missing.
func ParseInt(s string) *int {
	s = strings.TrimLeft(s, " \t\r\n")
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return nil
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

// Saver is what the form submits to. Source and Controller both satisfy it.
type Saver interface {
	Create(ctx context.Context, in models.ItemInput) (*models.InventoryItem, error)
	Update(ctx context.Context, id string, in models.ItemInput) (*models.InventoryItem, error)
}

// Form is the create/edit dialog for one item at a time
type Form struct {
	State  FormState
	ItemID string
	Values FormValues

	// Err is the last submission failure; FieldErrors holds per-field
	// messages when validation failed.
	Err         error
	FieldErrors map[string]string
	Submitting  bool
}

// OpenCreate opens an empty form, discarding anything unsaved
func (f *Form) OpenCreate() {
	f.reset()
	f.State = Creating
	f.Values.Status = string(models.StatusFunctional)
}

// OpenEdit opens the form on it, discarding anything unsaved
func (f *Form) OpenEdit(it models.InventoryItem) {
	f.reset()
	f.State = Editing
	f.ItemID = it.ID
	f.Values = ValuesOf(it)
}

// Close discards the form contents
func (f *Form) Close() {
	f.reset()
}

func (f *Form) reset() {
	*f = Form{}
}

// Set assigns one field by its JSON name
func (f *Form) Set(name, value string) error {
	if f.State == Closed {
		return ErrFormClosed
	}
	if f.State == Editing && name == "serialNumber" {
		return ErrReadOnly
	}
	p := f.Values.field(name)
	if p == nil {
		return fmt.Errorf("%w: %s", ErrUnknown, name)
	}
	*p = value
	return nil
}

// Validate checks presence of every field and fills FieldErrors
func (f *Form) Validate() error {
	f.FieldErrors = nil
	err := validate.Struct(&f.Values)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err
	}
	f.FieldErrors = make(map[string]string, len(ve))
	for _, e := range ve {
		f.FieldErrors[e.Field()] = formatFieldError(e)
	}
	return ErrInvalid
}

func formatFieldError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "oneof":
		return fmt.Sprintf("Must be one of: %s", e.Param())
	default:
		return fmt.Sprintf("Validation failed on '%s'", e.Tag())
	}
}

// Submit validates and saves the form. On success the form closes and the
// saved item is returned; on failure it stays open with Err set.
func (f *Form) Submit(ctx context.Context, to Saver) (*models.InventoryItem, error) {
	if f.State == Closed {
		return nil, ErrFormClosed
	}
	if f.Submitting {
		return nil, ErrSubmitting
	}
	if err := f.Validate(); err != nil {
		f.Err = err
		return nil, err
	}

	f.Submitting = true
	f.Err = nil
	var (
		saved *models.InventoryItem
		err   error
	)
	in := f.Values.Input()
	if f.State == Creating {
		saved, err = to.Create(ctx, in)
	} else {
		saved, err = to.Update(ctx, f.ItemID, in)
	}
	f.Submitting = false

	if err != nil {
		f.Err = err
		return nil, err
	}
	f.Close()
	return saved, nil
}
