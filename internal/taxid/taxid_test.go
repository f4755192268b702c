package taxid

import (
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCNPJValid(t *testing.T) {
	assert.True(t, IsCNPJValid("11222333000181"))
	assert.True(t, IsCNPJValid("11.222.333/0001-81"))
	assert.False(t, IsCNPJValid("11222333000182"))
	assert.False(t, IsCNPJValid("11111111111111"))
	assert.False(t, IsCNPJValid("1122233300018"))
	assert.False(t, IsCNPJValid("11a22333000181"))
}

func TestIsCPFValid(t *testing.T) {
	assert.True(t, IsCPFValid("52998224725"))
	assert.True(t, IsCPFValid("529.982.247-25"))
	assert.False(t, IsCPFValid("52998224726"))
	assert.False(t, IsCPFValid("00000000000"))
}

func TestIsDocumentValid(t *testing.T) {
	assert.True(t, IsDocumentValid("11.222.333/0001-81"))
	assert.True(t, IsDocumentValid("529.982.247-25"))
	assert.False(t, IsDocumentValid("123"))
}

func TestRegisterAddsDocumentTags(t *testing.T) {
	type form struct {
		CNPJ string `validate:"cnpj"`
		CPF  string `validate:"cpf"`
		Doc  string `validate:"document"`
	}

	v := validator.New()
	require.NoError(t, Register(v))
	require.NoError(t, v.Struct(form{CNPJ: "11222333000181", CPF: "52998224725", Doc: "529.982.247-25"}))

	err := v.Struct(form{CNPJ: "11222333000182", CPF: "52998224725", Doc: "123"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CNPJ")
	assert.Contains(t, err.Error(), "Doc")
	assert.NotContains(t, err.Error(), "'CPF'")
}
