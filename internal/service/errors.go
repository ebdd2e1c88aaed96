package service

import "github.com/and161185/notyfai/internal/errs"

// InputError is a validation failure whose text is safe to return to the client.
type InputError string

func (e InputError) Error() string { return string(e) }

// Is makes InputError match errs.ErrInvalidInput.
func (e InputError) Is(target error) bool { return target == errs.ErrInvalidInput }
