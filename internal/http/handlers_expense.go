package http

import (
	"net/http"

	"expenses/internal/core"
	applog "expenses/internal/log"
)

const (
	entityExpense = "expense"
	expensesPath  = "/expenses"
)

type expensesPage struct {
	Expenses []core.ExpenseListing
}

type expenseFormPage struct {
	// ID is zero on the create form.
	ID         int64
	Form       core.ExpenseInput
	Categories []core.Category
	Error      string
}

func (p expenseFormPage) Title() string {
	if p.ID == 0 {
		return "Add Expense"
	}
	return "Edit Expense"
}

func (p expenseFormPage) Action() string {
	if p.ID == 0 {
		return "/expenses/add"
	}
	return "/expenses/edit/" + core.FormatID(p.ID)
}

// handleExpenses lists all expenses, newest first.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	expenses, err := s.expenses.ListExpenses(r.Context())
	if err != nil {
		s.respondError(w, r, entityExpense, err, nil)
		return
	}
	newResponse(w, r).Render(s.templates, "expenses.html", expensesPage{Expenses: expenses})
}

func (s *Server) renderExpenseForm(w http.ResponseWriter, r *http.Request, status int, id int64, form core.ExpenseInput, msg string) {
	categories, err := s.categories.ListCategoriesByName(r.Context())
	if err != nil {
		s.respondError(w, r, entityCategory, err, nil)
		return
	}
	newResponse(w, r).Status(status).Render(s.templates, "expense_form.html", expenseFormPage{
		ID:         id,
		Form:       form,
		Categories: categories,
		Error:      msg,
	})
}

func (s *Server) handleNewExpense(w http.ResponseWriter, r *http.Request) {
	s.renderExpenseForm(w, r, http.StatusOK, 0, core.ExpenseInput{}, "")
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	if err := parseForm(w, r); err != nil {
		newResponse(w, r).Text(http.StatusBadRequest, "Invalid form data")
		return
	}
	in := expenseInputFromForm(r)

	e, err := s.expenses.CreateExpense(r.Context(), in)
	s.recordMutation(r, entityExpense, applog.OpCreate, e.ID, err)
	if err != nil {
		s.respondError(w, r, entityExpense, err, func(status int, msg string) {
			s.renderExpenseForm(w, r, status, 0, in, msg)
		})
		return
	}
	newResponse(w, r).Redirect(expensesPath)
}

func (s *Server) handleEditExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}
	e, err := s.expenses.GetExpense(r.Context(), id)
	if err != nil {
		s.respondError(w, r, entityExpense, err, nil)
		return
	}
	s.renderExpenseForm(w, r, http.StatusOK, id, core.InputFromExpense(e), "")
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}
	if err := parseForm(w, r); err != nil {
		newResponse(w, r).Text(http.StatusBadRequest, "Invalid form data")
		return
	}
	in := expenseInputFromForm(r)

	_, err := s.expenses.UpdateExpense(r.Context(), id, in)
	s.recordMutation(r, entityExpense, applog.OpUpdate, id, err)
	if err != nil {
		s.respondError(w, r, entityExpense, err, func(status int, msg string) {
			s.renderExpenseForm(w, r, status, id, in, msg)
		})
		return
	}
	newResponse(w, r).Redirect(expensesPath)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		newResponse(w, r).Text(http.StatusNotFound, "Not found")
		return
	}

	err := s.expenses.DeleteExpense(r.Context(), id)
	s.recordMutation(r, entityExpense, applog.OpDelete, id, err)
	if err != nil {
		s.respondError(w, r, entityExpense, err, nil)
		return
	}
	newResponse(w, r).Redirect(expensesPath)
}
