package controller

import (
	"strings"

	"gitee.com/czyczk/attested-reveal/pkg/models/handle"
)

// ParameterErrorList contains a list of human-readable errors about parameters.
type ParameterErrorList []string

// AppendIfEmptyOrBlankSpaces appends the error message specified if `str` is empty or contains only blank spaces.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the trimmed string
func (pel *ParameterErrorList) AppendIfEmptyOrBlankSpaces(str string, errMsg string) string {
	if str = strings.TrimSpace(str); str == "" {
		*pel = append(*pel, errMsg)
	}

	return str
}

// AppendIfNotHandle appends the error message specified if `str` is not a hex encoded handle.
//
// Parameters:
//   the string to be checked
//   the error message to append
//
// Returns:
//   the parsed handle or the zero handle if there's error
func (pel *ParameterErrorList) AppendIfNotHandle(str string, errMsg string) handle.EncryptedHandle {
	h, err := handle.Parse(str)
	if err != nil {
		*pel = append(*pel, errMsg)
	}

	return h
}

// AppendIfZeroHandle appends the error message specified if `h` is the zero handle.
func (pel *ParameterErrorList) AppendIfZeroHandle(h handle.EncryptedHandle, errMsg string) {
	if h.IsZero() {
		*pel = append(*pel, errMsg)
	}
}
