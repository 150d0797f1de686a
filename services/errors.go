package services

// Kind classifies a service failure. Handlers translate kinds into HTTP
// status codes.
type Kind int

const (
	KindInvalidInput Kind = iota + 1
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindExpired
	KindUnavailable
)

type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func invalidInput(msg string) *Error { return &Error{Kind: KindInvalidInput, Message: msg} }
func conflict(msg string) *Error     { return &Error{Kind: KindConflict, Message: msg} }
func unauthorized(msg string) *Error { return &Error{Kind: KindUnauthorized, Message: msg} }
func forbidden(msg string) *Error    { return &Error{Kind: KindForbidden, Message: msg} }
func notFound(msg string) *Error     { return &Error{Kind: KindNotFound, Message: msg} }
func expired(msg string) *Error      { return &Error{Kind: KindExpired, Message: msg} }
func unavailable(msg string) *Error  { return &Error{Kind: KindUnavailable, Message: msg} }
