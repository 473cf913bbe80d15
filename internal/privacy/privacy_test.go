package privacy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHashUserID(t *testing.T) {
	h1 := HashUserID("123456789")
	h2 := HashUserID("123456789")
	h3 := HashUserID("987654321")

	assert.Len(t, h1, 16)
	assert.Equal(t, h1, h2, "hash must be deterministic")
	assert.NotEqual(t, h1, h3)
	assert.NotContains(t, h1, "123456789")
}

func TestHashIP(t *testing.T) {
	h := HashIP("203.0.113.7")
	assert.Len(t, h, 16)
	assert.NotContains(t, h, "203.0.113.7")
	assert.Equal(t, h, HashIP("203.0.113.7"))
}

func TestRedact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"cpf", "consulta para 123.456.789-01 recebida", "consulta para XXX.XXX.XXX-XX recebida"},
		{"cnpj", "empresa 11.222.333/0001-81", "empresa XX.XXX.XXX/XXXX-XX"},
		{"email", "verificando alice@example.org agora", "verificando user@example.com agora"},
		{"phone", "contato (11) 98765-4321", "contato (XX)XXXX-XXXX"},
		{"clean text untouched", "nenhum dado pessoal aqui", "nenhum dado pessoal aqui"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Redact(tt.in))
		})
	}
}
