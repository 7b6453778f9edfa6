package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPhone_Normalization(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"international with spaces", "+7 916 123 45 67", "+79161234567"},
		{"international dashes", "мой номер +7-916-123-45-67", "+79161234567"},
		{"trunk eight with parens", "8 (916) 123-45-67", "+79161234567"},
		{"bare digits", "позвоните на 79161234567", "+79161234567"},
		{"foreign number", "Иванов Иван +41791234567", "+41791234567"},
		{"no phone", "хочу инвестировать", ""},
		{"short digits ignored", "мне 35 лет", ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, Phone(tc.in))
		})
	}
}

func TestPhone_FirstMatchWins(t *testing.T) {
	require.Equal(t, "+79161234567", Phone("+7 916 123 45 67 или +7 999 000 11 22"))
}

func TestName_LastNameFirst(t *testing.T) {
	name := Name("Иванов Иван")

	require.Equal(t, "Иван", name.First)
	require.Equal(t, "Иванов", name.Last)
}

func TestName_IgnoresPhoneDigits(t *testing.T) {
	name := Name("Иванов Иван +41791234567")

	require.Equal(t, "Иван", name.First)
	require.Equal(t, "Иванов", name.Last)
}

func TestName_SingleCapitalizedWord(t *testing.T) {
	name := Name("Иван")

	require.Equal(t, "Иван", name.First)
	require.Empty(t, name.Last)
}

func TestName_NothingCapitalized(t *testing.T) {
	require.Equal(t, NameParts{}, Name("хочу инвестировать от $500k"))
	require.Equal(t, NameParts{}, Name(""))
}

func TestName_LatinScript(t *testing.T) {
	name := Name("Smith John +14155550101")

	require.Equal(t, "John", name.First)
	require.Equal(t, "Smith", name.Last)
}
