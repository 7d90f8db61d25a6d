package results

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

const (
	KeyError          = "Error"
	KeyRegisterNumber = "Register Number"
	KeyDateOfBirth    = "Date of Birth"
	KeyStudentName    = "Student Name"
)

// Result is the record produced for a single student. A result either
// carries an Error or is a success with zero or more subject keys of the
// form <code>_<position>, never both.
type Result map[string]string

func (r Result) Failed() bool {
	_, ok := r[KeyError]
	return ok
}

func Failure(registerNumber, dateOfBirth, message string) Result {
	return Result{
		KeyError:          message,
		KeyRegisterNumber: registerNumber,
		KeyDateOfBirth:    dateOfBirth,
	}
}

func SubjectKey(code string, position int) string {
	return fmt.Sprintf("%s_%d", code, position)
}

var subjectKeyRegex = regexp.MustCompile(`^([A-Za-z0-9]+)_(\d+)$`)

// ParseSubjectKey splits a key like MTH101_2 into its code and position.
func ParseSubjectKey(key string) (code string, position int, ok bool) {
	groups := subjectKeyRegex.FindStringSubmatch(key)
	if groups == nil {
		return "", 0, false
	}
	position, err := strconv.Atoi(groups[2])
	if err != nil {
		return "", 0, false
	}
	return groups[1], position, true
}

// Subjects returns the subject keys present in the result.
func (r Result) Subjects() []string {
	var keys []string
	for k := range r {
		if _, _, ok := ParseSubjectKey(k); ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}
