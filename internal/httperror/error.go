// Package httperror defines the error body returned by the API.
package httperror

type Error struct {
	Message string `json:"error" example:"there is no achat matching your query"`
}

func New(e error) Error {
	return Error{
		Message: e.Error(),
	}
}
