package http

import (
	"net/http"

	"github.com/gorilla/mux"

	"expenses/internal/core"
)

// parseForm parses the request body, capping its size.
func parseForm(w http.ResponseWriter, r *http.Request) error {
	r.Body = http.MaxBytesReader(w, r.Body, 64<<10)
	return r.ParseForm()
}

// categoryInputFromForm reads the category form fields. Missing fields read
// as empty, so the service reports them as validation failures.
func categoryInputFromForm(r *http.Request) core.CategoryInput {
	return core.CategoryInput{
		Name:        sanitizeInput(r.PostForm.Get("name")),
		Description: sanitizeInput(r.PostForm.Get("description")),
	}
}

func expenseInputFromForm(r *http.Request) core.ExpenseInput {
	return core.ExpenseInput{
		Date:        sanitizeInput(r.PostForm.Get("date")),
		Description: sanitizeInput(r.PostForm.Get("description")),
		Vendor:      sanitizeInput(r.PostForm.Get("vendor")),
		CategoryID:  sanitizeInput(r.PostForm.Get("category_id")),
		Amount:      sanitizeInput(r.PostForm.Get("amount")),
	}
}

// pathID returns the {id} route variable. The route pattern only admits
// digits, so the remaining failure is a value that overflows or is zero.
func pathID(r *http.Request) (int64, bool) {
	id, err := core.ParseID(mux.Vars(r)["id"])
	return id, err == nil
}
