// format.go

package logbridge

import (
	"fmt"
	"strings"
)

// formatMessage renders format with args. Without args the format is the
// message, verbatim. With args, the number of consumed arguments must match
// and every verb must suit its operand.
func formatMessage(format string, args []interface{}) (string, error) {
	if len(args) == 0 {
		return format, nil
	}

	verbs, indexed, bad := countVerbs(format)
	if bad != "" {
		return "", &FormatError{Format: format, Args: len(args), Reason: bad}
	}
	if !indexed {
		switch {
		case verbs > len(args):
			return "", &FormatError{Format: format, Args: len(args),
				Reason: fmt.Sprintf("not enough arguments, %d expected", verbs)}
		case verbs < len(args):
			return "", &FormatError{Format: format, Args: len(args),
				Reason: fmt.Sprintf("too many arguments, %d expected", verbs)}
		}
	}

	msg := fmt.Sprintf(format, args...)
	if strings.Contains(msg, "%!") && !argsContainMarker(args) {
		return "", &FormatError{Format: format, Args: len(args), Reason: "bad operand: " + msg}
	}
	return msg, nil
}

// countVerbs counts the operands a format consumes, '*' widths included.
// indexed is set when explicit argument indexes make the count meaningless.
func countVerbs(format string) (n int, indexed bool, bad string) {
	for i := 0; i < len(format); i++ {
		if format[i] != '%' {
			continue
		}
		i++
		for i < len(format) && strings.IndexByte("+-# 0", format[i]) >= 0 {
			i++
		}
		if i < len(format) && format[i] == '[' {
			return n, true, ""
		}
		if i < len(format) && format[i] == '*' {
			n++
			i++
		}
		for i < len(format) && format[i] >= '0' && format[i] <= '9' {
			i++
		}
		if i < len(format) && format[i] == '.' {
			i++
			if i < len(format) && format[i] == '*' {
				n++
				i++
			}
			for i < len(format) && format[i] >= '0' && format[i] <= '9' {
				i++
			}
		}
		if i >= len(format) {
			return n, false, "missing verb at end of format"
		}
		if format[i] == '[' {
			return n, true, ""
		}
		if format[i] != '%' {
			n++
		}
	}
	return n, false, ""
}

func argsContainMarker(args []interface{}) bool {
	for _, a := range args {
		if strings.Contains(fmt.Sprint(a), "%!") {
			return true
		}
	}
	return false
}
