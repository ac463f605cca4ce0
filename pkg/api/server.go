package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
)

// ServerInterface represents all server handlers.
type ServerInterface interface {
	// List active cards
	// (GET /cards)
	ListCards(w http.ResponseWriter, r *http.Request)
	// Create a card
	// (POST /cards)
	CreateCard(w http.ResponseWriter, r *http.Request)
	// List archived cards
	// (GET /cards/archived)
	ListArchivedCards(w http.ResponseWriter, r *http.Request)
	// Archive every stale card
	// (POST /cards/archive-old)
	ArchiveOldCards(w http.ResponseWriter, r *http.Request)
	// Get a card with its todos
	// (GET /cards/{cardId})
	GetCard(w http.ResponseWriter, r *http.Request, cardId string)
	// Partially update a card
	// (PATCH /cards/{cardId})
	UpdateCard(w http.ResponseWriter, r *http.Request, cardId string)
	// Delete a card and its todos
	// (DELETE /cards/{cardId})
	DeleteCard(w http.ResponseWriter, r *http.Request, cardId string)
	// (POST /cards/{cardId}/archive)
	ArchiveCard(w http.ResponseWriter, r *http.Request, cardId string)
	// (POST /cards/{cardId}/unarchive)
	UnarchiveCard(w http.ResponseWriter, r *http.Request, cardId string)
	// Add a todo to a card
	// (POST /cards/{cardId}/todos)
	AddTodo(w http.ResponseWriter, r *http.Request, cardId string)
	// Partially update a todo
	// (PATCH /todos/{todoId})
	UpdateTodo(w http.ResponseWriter, r *http.Request, todoId string)
	// (DELETE /todos/{todoId})
	DeleteTodo(w http.ResponseWriter, r *http.Request, todoId string)
	// Search cards and todos
	// (GET /search)
	Search(w http.ResponseWriter, r *http.Request, params SearchParams)
	// Recent change-log entries
	// (GET /changes)
	RecentChanges(w http.ResponseWriter, r *http.Request, params RecentChangesParams)
	// Invoke a command by name with a JSON object of parameters
	// (POST /commands/{name})
	InvokeCommand(w http.ResponseWriter, r *http.Request, name string)
	// (GET /health)
	Health(w http.ResponseWriter, r *http.Request)
}

// ServerInterfaceWrapper converts contexts to parameters.
type ServerInterfaceWrapper struct {
	Handler            ServerInterface
	HandlerMiddlewares []MiddlewareFunc
	ErrorHandlerFunc   func(w http.ResponseWriter, r *http.Request, err error)
}

type MiddlewareFunc func(http.Handler) http.Handler

func (siw *ServerInterfaceWrapper) serve(w http.ResponseWriter, r *http.Request, fn func(w http.ResponseWriter, r *http.Request)) {
	var handler http.Handler = http.HandlerFunc(fn)
	for _, middleware := range siw.HandlerMiddlewares {
		handler = middleware(handler)
	}
	handler.ServeHTTP(w, r)
}

// pathParam binds a required simple-style path parameter.
func (siw *ServerInterfaceWrapper) pathParam(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	var value string
	err := runtime.BindStyledParameterWithOptions("simple", name, chi.URLParam(r, name), &value,
		runtime.BindStyledParameterOptions{ParamLocation: runtime.ParamLocationPath, Explode: false, Required: true})
	if err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: name, Err: err})
		return "", false
	}
	return value, true
}

func (siw *ServerInterfaceWrapper) ListCards(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListCards)
}

func (siw *ServerInterfaceWrapper) CreateCard(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.CreateCard)
}

func (siw *ServerInterfaceWrapper) ListArchivedCards(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ListArchivedCards)
}

func (siw *ServerInterfaceWrapper) ArchiveOldCards(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.ArchiveOldCards)
}

func (siw *ServerInterfaceWrapper) GetCard(w http.ResponseWriter, r *http.Request) {
	cardId, ok := siw.pathParam(w, r, "cardId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.GetCard(w, r, cardId)
	})
}

func (siw *ServerInterfaceWrapper) UpdateCard(w http.ResponseWriter, r *http.Request) {
	cardId, ok := siw.pathParam(w, r, "cardId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateCard(w, r, cardId)
	})
}

func (siw *ServerInterfaceWrapper) DeleteCard(w http.ResponseWriter, r *http.Request) {
	cardId, ok := siw.pathParam(w, r, "cardId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteCard(w, r, cardId)
	})
}

func (siw *ServerInterfaceWrapper) ArchiveCard(w http.ResponseWriter, r *http.Request) {
	cardId, ok := siw.pathParam(w, r, "cardId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.ArchiveCard(w, r, cardId)
	})
}

func (siw *ServerInterfaceWrapper) UnarchiveCard(w http.ResponseWriter, r *http.Request) {
	cardId, ok := siw.pathParam(w, r, "cardId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UnarchiveCard(w, r, cardId)
	})
}

func (siw *ServerInterfaceWrapper) AddTodo(w http.ResponseWriter, r *http.Request) {
	cardId, ok := siw.pathParam(w, r, "cardId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.AddTodo(w, r, cardId)
	})
}

func (siw *ServerInterfaceWrapper) UpdateTodo(w http.ResponseWriter, r *http.Request) {
	todoId, ok := siw.pathParam(w, r, "todoId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.UpdateTodo(w, r, todoId)
	})
}

func (siw *ServerInterfaceWrapper) DeleteTodo(w http.ResponseWriter, r *http.Request) {
	todoId, ok := siw.pathParam(w, r, "todoId")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.DeleteTodo(w, r, todoId)
	})
}

func (siw *ServerInterfaceWrapper) Search(w http.ResponseWriter, r *http.Request) {
	var params SearchParams

	if err := runtime.BindQueryParameter("form", true, false, "q", r.URL.Query(), &params.Q); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "q", Err: err})
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "include_archived", r.URL.Query(), &params.IncludeArchived); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "include_archived", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.Search(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) RecentChanges(w http.ResponseWriter, r *http.Request) {
	var params RecentChangesParams

	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &params.Limit); err != nil {
		siw.ErrorHandlerFunc(w, r, &InvalidParamFormatError{ParamName: "limit", Err: err})
		return
	}

	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.RecentChanges(w, r, params)
	})
}

func (siw *ServerInterfaceWrapper) InvokeCommand(w http.ResponseWriter, r *http.Request) {
	name, ok := siw.pathParam(w, r, "name")
	if !ok {
		return
	}
	siw.serve(w, r, func(w http.ResponseWriter, r *http.Request) {
		siw.Handler.InvokeCommand(w, r, name)
	})
}

func (siw *ServerInterfaceWrapper) Health(w http.ResponseWriter, r *http.Request) {
	siw.serve(w, r, siw.Handler.Health)
}

// InvalidParamFormatError is reported when a parameter cannot be bound.
type InvalidParamFormatError struct {
	ParamName string
	Err       error
}

func (e *InvalidParamFormatError) Error() string {
	return fmt.Sprintf("Invalid format for parameter %s: %s", e.ParamName, e.Err.Error())
}

func (e *InvalidParamFormatError) Unwrap() error {
	return e.Err
}

type ChiServerOptions struct {
	BaseURL          string
	BaseRouter       chi.Router
	Middlewares      []MiddlewareFunc
	ErrorHandlerFunc func(w http.ResponseWriter, r *http.Request, err error)
}

// Handler creates http.Handler with routing matching the ledger API.
func Handler(si ServerInterface) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{})
}

// HandlerFromMux creates http.Handler with routing on top of r.
func HandlerFromMux(si ServerInterface, r chi.Router) http.Handler {
	return HandlerWithOptions(si, ChiServerOptions{
		BaseRouter: r,
	})
}

// HandlerWithOptions creates http.Handler with additional options.
func HandlerWithOptions(si ServerInterface, options ChiServerOptions) http.Handler {
	r := options.BaseRouter

	if r == nil {
		r = chi.NewRouter()
	}
	if options.ErrorHandlerFunc == nil {
		options.ErrorHandlerFunc = func(w http.ResponseWriter, r *http.Request, err error) {
			http.Error(w, err.Error(), http.StatusBadRequest)
		}
	}
	wrapper := ServerInterfaceWrapper{
		Handler:            si,
		HandlerMiddlewares: options.Middlewares,
		ErrorHandlerFunc:   options.ErrorHandlerFunc,
	}

	r.Group(func(r chi.Router) {
		r.Get(options.BaseURL+"/cards", wrapper.ListCards)
		r.Post(options.BaseURL+"/cards", wrapper.CreateCard)
		r.Get(options.BaseURL+"/cards/archived", wrapper.ListArchivedCards)
		r.Post(options.BaseURL+"/cards/archive-old", wrapper.ArchiveOldCards)
		r.Get(options.BaseURL+"/cards/{cardId}", wrapper.GetCard)
		r.Patch(options.BaseURL+"/cards/{cardId}", wrapper.UpdateCard)
		r.Delete(options.BaseURL+"/cards/{cardId}", wrapper.DeleteCard)
		r.Post(options.BaseURL+"/cards/{cardId}/archive", wrapper.ArchiveCard)
		r.Post(options.BaseURL+"/cards/{cardId}/unarchive", wrapper.UnarchiveCard)
		r.Post(options.BaseURL+"/cards/{cardId}/todos", wrapper.AddTodo)
		r.Patch(options.BaseURL+"/todos/{todoId}", wrapper.UpdateTodo)
		r.Delete(options.BaseURL+"/todos/{todoId}", wrapper.DeleteTodo)
		r.Get(options.BaseURL+"/search", wrapper.Search)
		r.Get(options.BaseURL+"/changes", wrapper.RecentChanges)
		r.Post(options.BaseURL+"/commands/{name}", wrapper.InvokeCommand)
		r.Get(options.BaseURL+"/health", wrapper.Health)
	})

	return r
}
