package taxid

import (
	"strings"
	"unicode"
)

const (
	CNPJLength = 14
	CPFLength  = 11
)

// Digits strips punctuation such as "12.345.678/0001-95".
func Digits(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsCNPJValid(raw string) bool {
	cnpj := Digits(raw)
	if len(cnpj) != CNPJLength || !onlyDigits(raw, cnpj) {
		return false
	}
	if hasAllSameDigits(cnpj) {
		return false
	}

	weights1 := []int{5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}
	weights2 := []int{6, 5, 4, 3, 2, 9, 8, 7, 6, 5, 4, 3, 2}

	return checkDigit(cnpj[:12], weights1) == int(cnpj[12]-'0') &&
		checkDigit(cnpj[:13], weights2) == int(cnpj[13]-'0')
}

func IsCPFValid(raw string) bool {
	cpf := Digits(raw)
	if len(cpf) != CPFLength || !onlyDigits(raw, cpf) {
		return false
	}
	if hasAllSameDigits(cpf) {
		return false
	}

	weights1 := []int{10, 9, 8, 7, 6, 5, 4, 3, 2}
	weights2 := []int{11, 10, 9, 8, 7, 6, 5, 4, 3, 2}

	return checkDigit(cpf[:9], weights1) == int(cpf[9]-'0') &&
		checkDigit(cpf[:10], weights2) == int(cpf[10]-'0')
}

// IsDocumentValid accepts either a CNPJ or a CPF.
func IsDocumentValid(raw string) bool {
	switch len(Digits(raw)) {
	case CNPJLength:
		return IsCNPJValid(raw)
	case CPFLength:
		return IsCPFValid(raw)
	default:
		return false
	}
}

// onlyDigits rejects letters mixed into the document; separators . / - and spaces are fine.
func onlyDigits(raw, digits string) bool {
	for _, r := range raw {
		if unicode.IsDigit(r) {
			continue
		}
		switch r {
		case '.', '/', '-', ' ':
			continue
		}
		return false
	}
	return digits != ""
}

func hasAllSameDigits(s string) bool {
	for i := 1; i < len(s); i++ {
		if s[i] != s[0] {
			return false
		}
	}
	return true
}

func checkDigit(base string, weights []int) int {
	sum := 0
	for i, weight := range weights {
		sum += int(base[i]-'0') * weight
	}

	remainder := sum % 11
	if remainder < 2 {
		return 0
	}
	return 11 - remainder
}
