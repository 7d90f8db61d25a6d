package textutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "universityofmadras", NormalizeName("  University of\n Madras "))
}

func TestMatchName(t *testing.T) {
	matchers := []string{"university", "madras"}
	require.True(t, MatchName("UNIVERSITY OF MADRAS", matchers))
	require.False(t, MatchName("Priya Raman", matchers))
}

func TestContainsAnyFold(t *testing.T) {
	require.True(t, ContainsAnyFold("Student Name", "name", "candidate"))
	require.True(t, ContainsFold("Invalid REGISTER number", "register Number"))
	require.False(t, ContainsAnyFold("Semester", "name", "candidate"))
}
