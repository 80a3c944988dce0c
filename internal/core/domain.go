package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

type (
	Category struct {
		ID          int64
		Name        string
		Description string
	}

	Expense struct {
		ID          int64
		Date        string // YYYY-MM-DD
		Description string
		Vendor      string
		CategoryID  int64
		Amount      decimal.Decimal
	}

	// ExpenseListing is an expense joined with the name of its category.
	// CategoryName is empty when the referenced category no longer exists.
	ExpenseListing struct {
		Expense
		CategoryName string
	}

	// CategoryInput carries raw form values for a category create or update.
	CategoryInput struct {
		Name        string
		Description string
	}

	// ExpenseInput carries raw form values for an expense create or update.
	// CategoryID and Amount are kept as text so that presence and format
	// can be reported separately.
	ExpenseInput struct {
		Date        string
		Description string
		Vendor      string
		CategoryID  string
		Amount      string
	}
)

// Validation messages shown to the user.
const (
	MsgCategoryNameRequired = "Category Name is required"
	MsgDateRequired         = "Date is required"
	MsgDescriptionRequired  = "Description is required"
	MsgCategoryRequired     = "Category is required"
	MsgAmountRequired       = "Amount is required"
	MsgAmountInvalid        = "Amount must be a valid number"
	MsgCategoryUnknown      = "Selected category does not exist"
)

// Validate checks the category fields.
func (in CategoryInput) Validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return NewValidationError(MsgCategoryNameRequired)
	}
	return nil
}

// Category returns the record the input describes, with the given id.
func (in CategoryInput) Category(id int64) Category {
	return Category{
		ID:          id,
		Name:        strings.TrimSpace(in.Name),
		Description: strings.TrimSpace(in.Description),
	}
}

// Validate checks field presence and the amount format, stopping at the
// first failure in the order date, description, category, amount.
// Whether the category exists is a storage question and is not checked here.
func (in ExpenseInput) Validate() error {
	if strings.TrimSpace(in.Date) == "" {
		return NewValidationError(MsgDateRequired)
	}
	if strings.TrimSpace(in.Description) == "" {
		return NewValidationError(MsgDescriptionRequired)
	}
	if strings.TrimSpace(in.CategoryID) == "" {
		return NewValidationError(MsgCategoryRequired)
	}
	if strings.TrimSpace(in.Amount) == "" {
		return NewValidationError(MsgAmountRequired)
	}
	if _, err := ParseAmount(in.Amount); err != nil {
		return NewValidationError(MsgAmountInvalid)
	}
	return nil
}

// Expense converts a validated input into a record. It returns a
// ValidationError if the category id or amount cannot be parsed.
func (in ExpenseInput) Expense(id int64) (Expense, error) {
	if err := in.Validate(); err != nil {
		return Expense{}, err
	}
	categoryID, err := ParseID(in.CategoryID)
	if err != nil {
		return Expense{}, NewValidationError(MsgCategoryUnknown)
	}
	amount, err := ParseAmount(in.Amount)
	if err != nil {
		return Expense{}, NewValidationError(MsgAmountInvalid)
	}
	return Expense{
		ID:          id,
		Date:        strings.TrimSpace(in.Date),
		Description: strings.TrimSpace(in.Description),
		Vendor:      strings.TrimSpace(in.Vendor),
		CategoryID:  categoryID,
		Amount:      amount,
	}, nil
}

// InputFromCategory returns form values prefilled from a stored record.
func InputFromCategory(c Category) CategoryInput {
	return CategoryInput{Name: c.Name, Description: c.Description}
}

// InputFromExpense returns form values prefilled from a stored record.
func InputFromExpense(e Expense) ExpenseInput {
	return ExpenseInput{
		Date:        e.Date,
		Description: e.Description,
		Vendor:      e.Vendor,
		CategoryID:  FormatID(e.CategoryID),
		Amount:      e.Amount.String(),
	}
}
