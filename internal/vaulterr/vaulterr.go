// Package vaulterr defines the single error taxonomy shared by every layer
// of the Verrou crypto core. Callers pattern-match on Code; the internal
// detail string is never rendered to end users without explicit translation.
package vaulterr

import "fmt"

// Code is the tagged variant identifying the class of failure.
type Code int

const (
	KeyDerivation Code = iota
	Encryption
	Decryption
	KeyEncapsulation
	Signature
	InvalidKeyMaterial
	Otp
	Bip39
	SecureMemory
	VaultFormat
	PasswordGeneration
	TransferEncryption
	Biometric
	HardwareKey
)

func (c Code) String() string {
	switch c {
	case KeyDerivation:
		return "KeyDerivation"
	case Encryption:
		return "Encryption"
	case Decryption:
		return "Decryption"
	case KeyEncapsulation:
		return "KeyEncapsulation"
	case Signature:
		return "Signature"
	case InvalidKeyMaterial:
		return "InvalidKeyMaterial"
	case Otp:
		return "Otp"
	case Bip39:
		return "Bip39"
	case SecureMemory:
		return "SecureMemory"
	case VaultFormat:
		return "VaultFormat"
	case PasswordGeneration:
		return "PasswordGeneration"
	case TransferEncryption:
		return "TransferEncryption"
	case Biometric:
		return "Biometric"
	case HardwareKey:
		return "HardwareKey"
	default:
		return "Unknown"
	}
}

// Error wraps a Code with a developer-facing detail string and an optional
// underlying cause. Error() renders the detail together with the code and
// any cause; Detail() returns the detail alone.
type Error struct {
	code   Code
	detail string
	cause  error
}

// New creates an Error of the given code with a developer-facing detail.
func New(code Code, detail string) *Error {
	return &Error{code: code, detail: detail}
}

// Wrap creates an Error of the given code, wrapping an underlying cause.
func Wrap(code Code, detail string, cause error) *Error {
	return &Error{code: code, detail: detail, cause: cause}
}

// Code returns the tagged variant for pattern matching.
func (e *Error) Code() Code {
	return e.code
}

// Detail returns the developer-facing message. Callers must not render this
// to end users without translation.
func (e *Error) Detail() string {
	return e.detail
}

// Error implements the error interface, rendering "Code: detail" followed
// by ": cause" when a cause is wrapped. Because the string contains
// Detail(), it is subject to the same "never show end users" constraint.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.code, e.detail, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.code, e.detail)
}

// Unwrap exposes the wrapped cause for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target is an *Error with the same Code, supporting
// errors.Is(err, vaulterr.New(SomeCode, "")).
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.code == e.code
}
