package facade

import "encoding/json"

// Result is the uniform outcome type of every façade operation: either a
// success carrying typed data or a failure carrying an error message, never
// both and never neither. Its JSON form is the boundary contract consumed
// by API routes and CLI commands:
//
//	{"success": true,  "data": ...}
//	{"success": false, "error": "..."}
type Result[T any] struct {
	Success bool
	Data    T
	Code    RetCode
	Error   string
}

// Ok returns a success result carrying data.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail returns a failure result carrying the error's code and message.
func Fail[T any](err *Error) Result[T] {
	return Result[T]{Success: false, Code: err.Code, Error: err.Msg}
}

// Err converts the failure arm back into a typed *Error (nil on success).
func (r Result[T]) Err() *Error {
	if r.Success {
		return nil
	}
	return NewError(r.Code, r.Error)
}

// MarshalJSON emits the two-arm wire shape.
func (r Result[T]) MarshalJSON() ([]byte, error) {
	if r.Success {
		return json.Marshal(struct {
			Success bool `json:"success"`
			Data    T    `json:"data"`
		}{true, r.Data})
	}
	return json.Marshal(struct {
		Success bool   `json:"success"`
		Error   string `json:"error"`
	}{false, r.Error})
}

// UnmarshalJSON accepts the two-arm wire shape.
func (r *Result[T]) UnmarshalJSON(data []byte) error {
	var wire struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
		Error   string          `json:"error"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.Success = wire.Success
	r.Error = wire.Error
	if wire.Success && len(wire.Data) > 0 {
		return json.Unmarshal(wire.Data, &r.Data)
	}
	return nil
}
